package api

import (
	"context"
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/classpulse/classpulse/internal/engage"
	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/models"
)

// FrameProcessor runs one frame through the emotion pipeline.
type FrameProcessor interface {
	ProcessFrame(ctx context.Context, req engage.ProcessRequest) (*engage.ProcessResult, error)
}

// StatsProvider reduces a session's event log into summaries.
type StatsProvider interface {
	SessionStats(ctx context.Context, sessionID string) ([]models.StudentEmotionSummary, error)
}

// ProcessFrame handles POST /emotion/process_frame. Multipart form:
// image (file, required), session_id (required), student_id (optional),
// detector_backend (optional) and strict (optional, "true" to 404 on
// zero detections).
func (h *Handlers) ProcessFrame(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing_field", "No image found in request")
		return
	}

	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		respondError(c, http.StatusBadRequest, "missing_field", "No session_id found in request")
		return
	}

	backend, err := faceapi.ParseBackend(c.PostForm("detector_backend"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_backend", err.Error())
		return
	}

	imageBytes, err := readUpload(fileHeader)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_image", "Could not read uploaded image")
		return
	}

	result, err := h.processor.ProcessFrame(c.Request.Context(), engage.ProcessRequest{
		ImageBytes: imageBytes,
		SessionID:  sessionID,
		StudentID:  c.PostForm("student_id"),
		Backend:    backend,
		Strict:     c.PostForm("strict") == "true",
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	payloads := make([]DetectionPayload, len(result.Detections))
	for i, entry := range result.Detections {
		payloads[i] = DetectionPayload{
			DominantEmotion:   entry.Detection.DominantEmotion,
			EmotionConfidence: entry.Detection.Confidence,
			DominantGender:    entry.Detection.DominantGender,
			Box:               entry.Detection.Box,
			FaceRegion:        base64.StdEncoding.EncodeToString(entry.FaceCrop),
			IdentifiedUser:    entry.Identity,
		}
	}

	c.JSON(http.StatusOK, ProcessFrameResponse{
		Emotions:        payloads,
		DetectorBackend: string(result.Backend),
		ProcessedImage:  base64.StdEncoding.EncodeToString(result.Annotated),
		RecordedEvents:  result.Recorded,
	})
}

// SessionStats handles GET /emotion/session/:session_id/stats.
func (h *Handlers) SessionStats(c *gin.Context) {
	sessionID := c.Param("session_id")

	stats, err := h.stats.SessionStats(c.Request.Context(), sessionID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Stats:        stats,
		SessionID:    sessionID,
		EmotionTypes: models.EmotionCategories,
	})
}

// Detectors handles GET /emotion/detectors.
func (h *Handlers) Detectors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"detectors": faceapi.Backends,
		"default":   faceapi.DefaultBackend,
	})
}

// Status handles GET /emotion/status, reporting service liveness and the
// reachability of the analysis service.
func (h *Handlers) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	visionStatus := "ok"
	if err := h.gateway.Health(ctx); err != nil {
		logrus.Warnf("Status: analysis service unreachable: %v", err)
		visionStatus = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Emotion Tracking Backend Running",
		"vision":  visionStatus,
	})
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
