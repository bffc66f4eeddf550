package engage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/identity"
	"github.com/classpulse/classpulse/internal/models"
)

type fakeDetector struct {
	detections []faceapi.Detection
	err        error
	block      bool
	backend    faceapi.Backend
}

func (f *fakeDetector) Detect(ctx context.Context, _ []byte, backend faceapi.Backend) ([]faceapi.Detection, error) {
	f.backend = backend
	if f.block {
		// Block well past any context deadline so the caller's timeout
		// branch is the one that fires.
		select {}
	}
	return f.detections, f.err
}

type fakeResolver struct {
	role string
}

func (f *fakeResolver) ResolveAll(_ context.Context, _ image.Image, detections []faceapi.Detection, role string) []identity.Resolved {
	f.role = role
	resolved := make([]identity.Resolved, len(detections))
	for i, detection := range detections {
		resolved[i] = identity.Resolved{
			Detection: detection,
			Identity:  &identity.Identity{ID: "student-1", Name: "Ana Gomez"},
		}
	}
	return resolved
}

func testFrameJPEG(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(320, 240, color.NRGBA{R: 120, G: 120, B: 120, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func testPipeline(detector *fakeDetector, store *fakeSessionStore) *Pipeline {
	resolver := &fakeResolver{}
	return NewPipeline(detector, resolver, testRecorder(store), store, time.Second)
}

func TestProcessFrameMissingSession(t *testing.T) {
	pipeline := testPipeline(&fakeDetector{}, newFakeSessionStore())

	_, err := pipeline.ProcessFrame(context.Background(), ProcessRequest{
		ImageBytes: testFrameJPEG(t),
		SessionID:  "missing",
	})
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestProcessFrameInvalidImage(t *testing.T) {
	pipeline := testPipeline(&fakeDetector{}, newFakeSessionStore("sess1"))

	_, err := pipeline.ProcessFrame(context.Background(), ProcessRequest{
		ImageBytes: []byte("not an image"),
		SessionID:  "sess1",
	})
	assert.ErrorIs(t, err, models.ErrInvalidImage)
}

func TestProcessFrameNoDetections(t *testing.T) {
	store := newFakeSessionStore("sess1")
	pipeline := testPipeline(&fakeDetector{}, store)

	result, err := pipeline.ProcessFrame(context.Background(), ProcessRequest{
		ImageBytes: testFrameJPEG(t),
		SessionID:  "sess1",
	})
	require.NoError(t, err, "zero faces is a valid outcome by default")
	assert.Empty(t, result.Detections)
	assert.Zero(t, result.Recorded)
	assert.NotEmpty(t, result.Annotated, "the annotated image is returned even without faces")

	events, err := store.ListEvents(context.Background(), "sess1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestProcessFrameNoDetectionsStrict(t *testing.T) {
	pipeline := testPipeline(&fakeDetector{}, newFakeSessionStore("sess1"))

	_, err := pipeline.ProcessFrame(context.Background(), ProcessRequest{
		ImageBytes: testFrameJPEG(t),
		SessionID:  "sess1",
		Strict:     true,
	})
	assert.ErrorIs(t, err, models.ErrNoDetections)
}

func TestProcessFrameRecordsDetections(t *testing.T) {
	store := newFakeSessionStore("sess1")
	detector := &fakeDetector{
		detections: []faceapi.Detection{
			{
				Box:             faceapi.Box{X: 20, Y: 20, W: 60, H: 60},
				DominantEmotion: "happy",
				Confidence:      96.2,
			},
		},
	}
	pipeline := testPipeline(detector, store)

	result, err := pipeline.ProcessFrame(context.Background(), ProcessRequest{
		ImageBytes: testFrameJPEG(t),
		SessionID:  "sess1",
		StudentID:  "caller-student",
		Backend:    faceapi.BackendRetinaFace,
	})
	require.NoError(t, err)

	assert.Equal(t, faceapi.BackendRetinaFace, detector.backend, "requested backend reaches the detector")
	require.Len(t, result.Detections, 1)
	assert.Equal(t, 1, result.Recorded)
	assert.NotEmpty(t, result.Annotated)

	events, err := store.ListEvents(context.Background(), "sess1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "caller-student", events[0].StudentID)
	assert.Equal(t, "happy", events[0].Emotion)
}

func TestProcessFrameFiltersSmallFaces(t *testing.T) {
	store := newFakeSessionStore("sess1")
	detector := &fakeDetector{
		detections: []faceapi.Detection{
			{Box: faceapi.Box{X: 0, Y: 0, W: 10, H: 10}, DominantEmotion: "happy", Confidence: 90},
			{Box: faceapi.Box{X: 50, Y: 50, W: 60, H: 60}, DominantEmotion: "sad", Confidence: 85},
		},
	}
	pipeline := testPipeline(detector, store)

	result, err := pipeline.ProcessFrame(context.Background(), ProcessRequest{
		ImageBytes: testFrameJPEG(t),
		SessionID:  "sess1",
		StudentID:  "caller-student",
	})
	require.NoError(t, err)
	require.Len(t, result.Detections, 1, "faces below the minimum size are dropped")
	assert.Equal(t, "sad", result.Detections[0].Detection.DominantEmotion)
}

func TestProcessFrameAnalysisTimeout(t *testing.T) {
	store := newFakeSessionStore("sess1")
	detector := &fakeDetector{block: true}
	resolver := &fakeResolver{}
	pipeline := NewPipeline(detector, resolver, testRecorder(store), store, 50*time.Millisecond)

	_, err := pipeline.ProcessFrame(context.Background(), ProcessRequest{
		ImageBytes: testFrameJPEG(t),
		SessionID:  "sess1",
	})
	assert.ErrorIs(t, err, models.ErrAnalysisTimeout)
}

func TestProcessFrameCallerCancellation(t *testing.T) {
	store := newFakeSessionStore("sess1")
	detector := &fakeDetector{block: true}
	resolver := &fakeResolver{}
	pipeline := NewPipeline(detector, resolver, testRecorder(store), store, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := pipeline.ProcessFrame(ctx, ProcessRequest{
		ImageBytes: testFrameJPEG(t),
		SessionID:  "sess1",
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, models.ErrAnalysisTimeout)
}

func TestProcessFrameResolvesStudentsOnly(t *testing.T) {
	store := newFakeSessionStore("sess1")
	resolver := &fakeResolver{}
	detector := &fakeDetector{
		detections: []faceapi.Detection{
			{Box: faceapi.Box{X: 20, Y: 20, W: 60, H: 60}, DominantEmotion: "neutral", Confidence: 80},
		},
	}
	pipeline := NewPipeline(detector, resolver, testRecorder(store), store, time.Second)

	_, err := pipeline.ProcessFrame(context.Background(), ProcessRequest{
		ImageBytes: testFrameJPEG(t),
		SessionID:  "sess1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, resolver.role, "gallery searches are scoped to the student partition")
}
