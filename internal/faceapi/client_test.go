package faceapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/models"
)

func TestDetectCoercesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analyze", r.URL.Path)
		assert.Equal(t, "retinaface", r.URL.Query().Get("detector_backend"))
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "frame.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{
					"region": {"x": 10, "y": 20, "w": 100, "h": 120, "left_eye": [30, 50], "right_eye": [80, 50]},
					"dominant_emotion": "happy",
					"emotion": {"happy": 97.3, "sad": 1.1, "neutral": 1.6},
					"dominant_gender": "Woman"
				},
				{
					"region": {"x": 0, "y": 0, "w": 0, "h": 0},
					"dominant_emotion": "sad",
					"emotion": {"sad": 80}
				},
				{
					"region": {"x": 5, "y": 5, "w": 40, "h": 40},
					"dominant_emotion": "",
					"emotion": {}
				}
			]
		}`))
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "test-key", 0.85)
	detections, err := client.Detect(context.Background(), []byte("fake image"), faceapi.BackendRetinaFace)
	require.NoError(t, err)
	require.Len(t, detections, 1, "degenerate and unclassified results are dropped")

	detection := detections[0]
	assert.Equal(t, faceapi.Box{
		X: 10, Y: 20, W: 100, H: 120,
		LeftEye:  faceapi.Point{X: 30, Y: 50},
		RightEye: faceapi.Point{X: 80, Y: 50},
	}, detection.Box)
	assert.Equal(t, "happy", detection.DominantEmotion)
	assert.InDelta(t, 97.3, detection.Confidence, 0.001, "confidence is the dominant emotion's score")
	assert.Equal(t, "Woman", detection.DominantGender)
}

func TestDetectSoftensServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "", 0.85)
	detections, err := client.Detect(context.Background(), []byte("fake image"), faceapi.DefaultBackend)
	assert.NoError(t, err, "a failing analysis service yields zero detections, not an error")
	assert.Empty(t, detections)
}

func TestDetectInvalidImagePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_image", "message": "cannot decode"}`))
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "", 0.85)
	_, err := client.Detect(context.Background(), []byte("garbage"), faceapi.DefaultBackend)
	assert.ErrorIs(t, err, models.ErrInvalidImage)
}

func TestDetectDeadlinePropagatesAsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "", 0.85)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Detect(ctx, []byte("fake image"), faceapi.DefaultBackend)
	assert.ErrorIs(t, err, models.ErrAnalysisTimeout)
}

func TestRecognizeBestMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/identify", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "student", r.FormValue("role"))
		assert.Equal(t, "female", r.FormValue("gender"))

		_, _ = w.Write([]byte(`{
			"matches": [
				{"subject": "student/female/aaa.jpg", "similarity": 0.88},
				{"subject": "student/female/bbb.jpg", "similarity": 0.95},
				{"subject": "student/female/ccc.jpg", "similarity": 0.86}
			]
		}`))
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "", 0.85)
	match, err := client.Recognize(context.Background(), []byte("crop"), faceapi.Scope{Role: "student", Gender: "female"})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "student/female/bbb.jpg", match.Subject, "highest similarity wins")
	assert.InDelta(t, 0.95, match.Similarity, 0.001)
}

func TestRecognizeBelowThreshold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"matches": [{"subject": "student/male/aaa.jpg", "similarity": 0.5}]}`))
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "", 0.85)
	match, err := client.Recognize(context.Background(), []byte("crop"), faceapi.Scope{Role: "student", Gender: "male"})
	require.NoError(t, err)
	assert.Nil(t, match, "matches below the threshold are discarded")
}

func TestRecognizeNoMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"matches": []}`))
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "", 0.85)
	match, err := client.Recognize(context.Background(), []byte("crop"), faceapi.Scope{Role: "student", Gender: "male"})
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestRecognizeSoftensServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "", 0.85)
	match, err := client.Recognize(context.Background(), []byte("crop"), faceapi.Scope{Role: "student", Gender: "male"})
	assert.NoError(t, err)
	assert.Nil(t, match)
}

func TestAddReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/gallery", r.URL.Path)
		assert.Equal(t, "student/female/abc.jpg", r.URL.Query().Get("subject"))

		response := map[string]string{"subject": "student/female/abc.jpg", "image_id": "img-1"}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "", 0.85)
	err := client.AddReference(context.Background(), []byte("image"), "student/female/abc.jpg",
		faceapi.Scope{Role: "student", Gender: "female"})
	assert.NoError(t, err)
}

func TestAddReferenceFailurePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "", 0.85)
	err := client.AddReference(context.Background(), []byte("image"), "student/male/x.jpg",
		faceapi.Scope{Role: "student", Gender: "male"})
	assert.Error(t, err, "registration failures must not be silent")
}

func TestRemoveReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := faceapi.NewClient(server.URL, "", 0.85)
	assert.NoError(t, client.RemoveReference(context.Background(), "student/male/x.jpg"))
}

func TestHealth(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	client := faceapi.NewClient(healthy.URL, "", 0.85)
	assert.NoError(t, client.Health(context.Background()))

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	client = faceapi.NewClient(unhealthy.URL, "", 0.85)
	assert.Error(t, client.Health(context.Background()))
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected faceapi.Backend
		wantErr  bool
	}{
		{name: "Empty selects default", input: "", expected: faceapi.DefaultBackend},
		{name: "Known backend", input: "opencv", expected: faceapi.BackendOpenCV},
		{name: "Another known backend", input: "mediapipe", expected: faceapi.BackendMediaPipe},
		{name: "Unknown backend", input: "yolo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := faceapi.ParseBackend(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, backend)
		})
	}
}
