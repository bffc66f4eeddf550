package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/classpulse/classpulse/internal/models"
)

// respondError writes the standard error body.
func respondError(c *gin.Context, status int, errCode, message string) {
	c.JSON(status, ErrorResponse{Error: errCode, Message: message})
}

// respondDomainError maps a domain error onto an HTTP response. Anything
// without an explicit classification becomes a redacted 500; the real
// error goes to the log, never to the client.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidImage):
		respondError(c, http.StatusBadRequest, "invalid_image", err.Error())
	case errors.Is(err, models.ErrMissingField):
		respondError(c, http.StatusBadRequest, "missing_field", err.Error())
	case errors.Is(err, models.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "session_not_found", "Session not found")
	case errors.Is(err, models.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "user_not_found", "User not found")
	case errors.Is(err, models.ErrUserExists):
		respondError(c, http.StatusBadRequest, "user_exists", "A user with this email already exists")
	case errors.Is(err, models.ErrNoDetections):
		respondError(c, http.StatusNotFound, "no_detections", "No emotions detected")
	case errors.Is(err, models.ErrAnalysisTimeout):
		logrus.Errorf("analysis timed out: %v", err)
		respondError(c, http.StatusInternalServerError, "analysis_timeout", "Emotion analysis timed out")
	case errors.Is(err, models.ErrAnalysisFailed):
		logrus.Errorf("analysis failed: %v", err)
		respondError(c, http.StatusInternalServerError, "analysis_failed", "Error analyzing emotion")
	case errors.Is(err, models.ErrPersistence):
		logrus.Errorf("persistence failure: %v", err)
		respondError(c, http.StatusInternalServerError, "persistence_failure", "Failed to store results")
	case errors.Is(err, models.ErrImageEncode):
		logrus.Errorf("image encode failure: %v", err)
		respondError(c, http.StatusInternalServerError, "image_encode_failure", "Failed to encode processed image")
	default:
		logrus.Errorf("unclassified error: %v", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
