package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/classpulse/classpulse/internal/models"
)

// NewClient creates a client for the face analysis service.
func NewClient(baseURL, apiKey string, minSimilarity float64) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		APIKey:        apiKey,
		MinSimilarity: minSimilarity,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Detect analyzes an image for faces, emotions and gender.
// POST /api/v1/analyze?detector_backend={backend}
//
// Failure semantics: an undecodable image propagates as
// models.ErrInvalidImage and a context deadline as
// models.ErrAnalysisTimeout; every other service failure is softened to an
// empty detection list so one flaky analysis call never aborts a frame.
// Zero faces is a normal outcome, not an error.
func (c *Client) Detect(ctx context.Context, imageBytes []byte, backend Backend) ([]Detection, error) {
	reqURL := fmt.Sprintf("%s/api/v1/analyze?actions=emotion,gender&detector_backend=%s",
		c.BaseURL, url.QueryEscape(string(backend)))

	respBody, err := c.postImage(ctx, reqURL, imageBytes, "frame.jpg", nil)
	if err != nil {
		if errors.Is(err, models.ErrInvalidImage) || errors.Is(err, models.ErrAnalysisTimeout) {
			return nil, err
		}
		logrus.Warnf("Detect: analysis unavailable, treating as zero detections: %v", err)
		return nil, nil
	}

	var analyzed analyzeResponse
	if err := json.Unmarshal(respBody, &analyzed); err != nil {
		logrus.Warnf("Detect: malformed analysis response, treating as zero detections: %v", err)
		return nil, nil
	}

	detections := coerceDetections(analyzed.Results)
	logrus.Debugf("Detect: found %d face(s) with backend %s", len(detections), backend)
	return detections, nil
}

// Recognize searches the reference gallery partition named by scope for
// the face in crop.
// POST /api/v1/identify
//
// Returns nil when no gallery entry clears the similarity threshold.
// Service failures are softened to "no match"; only decode failures and
// deadline expiry propagate.
func (c *Client) Recognize(ctx context.Context, crop []byte, scope Scope) (*Match, error) {
	reqURL := fmt.Sprintf("%s/api/v1/identify", c.BaseURL)

	fields := map[string]string{
		"role":   scope.Role,
		"gender": scope.Gender,
	}

	respBody, err := c.postImage(ctx, reqURL, crop, "face.jpg", fields)
	if err != nil {
		if errors.Is(err, models.ErrInvalidImage) || errors.Is(err, models.ErrAnalysisTimeout) {
			return nil, err
		}
		logrus.Warnf("Recognize: identification unavailable, treating as no match: %v", err)
		return nil, nil
	}

	var identified identifyResponse
	if err := json.Unmarshal(respBody, &identified); err != nil {
		logrus.Warnf("Recognize: malformed identification response, treating as no match: %v", err)
		return nil, nil
	}

	if len(identified.Matches) == 0 {
		return nil, nil
	}

	best := identified.Matches[0]
	for _, match := range identified.Matches[1:] {
		if match.Similarity > best.Similarity {
			best = match
		}
	}
	if best.Similarity < c.MinSimilarity {
		logrus.Debugf("Recognize: best match %q below threshold (%.2f < %.2f)",
			best.Subject, best.Similarity, c.MinSimilarity)
		return nil, nil
	}

	logrus.Debugf("Recognize: matched %q with similarity %.2f", best.Subject, best.Similarity)
	return &best, nil
}

// AddReference registers a reference face image in the gallery partition
// named by scope, keyed by subject (the gallery-relative image path).
// POST /api/v1/gallery?subject={subject}
//
// Registration errors propagate: a student whose reference faces cannot
// be indexed would silently never be recognized.
func (c *Client) AddReference(ctx context.Context, imageBytes []byte, subject string, scope Scope) error {
	reqURL := fmt.Sprintf("%s/api/v1/gallery?subject=%s", c.BaseURL, url.QueryEscape(subject))

	fields := map[string]string{
		"role":   scope.Role,
		"gender": scope.Gender,
	}

	respBody, err := c.postImage(ctx, reqURL, imageBytes, "reference.jpg", fields)
	if err != nil {
		return fmt.Errorf("failed to register reference image: %w", err)
	}

	var added addReferenceResponse
	if err := json.Unmarshal(respBody, &added); err != nil {
		return fmt.Errorf("failed to parse gallery response: %w", err)
	}

	logrus.Infof("AddReference: registered subject %q (image_id=%s)", subject, added.ImageID)
	return nil
}

// RemoveReference deletes a registered reference image from the gallery
// index. Used to roll back a partially failed student registration.
// DELETE /api/v1/gallery/{subject}
func (c *Client) RemoveReference(ctx context.Context, subject string) error {
	reqURL := fmt.Sprintf("%s/api/v1/gallery/%s", c.BaseURL, url.PathEscape(subject))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gallery delete error %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Health checks whether the analysis service is reachable.
// GET /health
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analysis service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// postImage submits an image as a multipart form with optional extra
// fields and returns the raw response body on 200.
func (c *Client) postImage(ctx context.Context, reqURL string, imageBytes []byte, filename string, fields map[string]string) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageBytes); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	for key, val := range fields {
		if err := writer.WriteField(key, val); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", c.APIKey)

	logrus.Tracef("faceapi: POST %s (%d bytes)", reqURL, len(imageBytes))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", models.ErrAnalysisTimeout, err)
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest {
		var svcErr errorResponse
		if json.Unmarshal(respBody, &svcErr) == nil && svcErr.Error == "invalid_image" {
			return nil, fmt.Errorf("%w: %s", models.ErrInvalidImage, svcErr.Message)
		}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// coerceDetections validates raw analysis results into Detection values,
// dropping entries with degenerate geometry or no emotion classification.
func coerceDetections(results []analyzeResult) []Detection {
	detections := make([]Detection, 0, len(results))
	for _, result := range results {
		if result.Region.W <= 0 || result.Region.H <= 0 {
			logrus.Debugf("coerceDetections: dropping result with degenerate box %dx%d",
				result.Region.W, result.Region.H)
			continue
		}
		if result.DominantEmotion == "" {
			logrus.Debug("coerceDetections: dropping result with no dominant emotion")
			continue
		}

		box := Box{
			X: result.Region.X,
			Y: result.Region.Y,
			W: result.Region.W,
			H: result.Region.H,
		}
		if len(result.Region.LeftEye) == 2 {
			box.LeftEye = Point{X: result.Region.LeftEye[0], Y: result.Region.LeftEye[1]}
		}
		if len(result.Region.RightEye) == 2 {
			box.RightEye = Point{X: result.Region.RightEye[0], Y: result.Region.RightEye[1]}
		}

		detections = append(detections, Detection{
			Box:             box,
			DominantEmotion: result.DominantEmotion,
			EmotionScores:   result.Emotion,
			Confidence:      result.Emotion[result.DominantEmotion],
			DominantGender:  result.DominantGender,
		})
	}
	return detections
}
