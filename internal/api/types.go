package api

import (
	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/identity"
	"github.com/classpulse/classpulse/internal/models"
)

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// DetectionPayload is one detected face in a process-frame response.
// Coordinates are in normalized-image space; FaceRegion is a base64 JPEG
// crop; EmotionConfidence is on the 0-100 scale.
type DetectionPayload struct {
	DominantEmotion   string             `json:"dominant_emotion"`
	EmotionConfidence float64            `json:"emotion_confidence"`
	DominantGender    string             `json:"dominant_gender"`
	Box               faceapi.Box        `json:"box"`
	FaceRegion        string             `json:"face_region,omitempty"`
	IdentifiedUser    *identity.Identity `json:"identified_user,omitempty"`
}

// ProcessFrameResponse is the success body of POST /emotion/process_frame.
type ProcessFrameResponse struct {
	Emotions        []DetectionPayload `json:"emotions"`
	DetectorBackend string             `json:"detector_backend"`
	ProcessedImage  string             `json:"processed_image"`
	RecordedEvents  int                `json:"recorded_events"`
}

// StatsResponse is the success body of GET /emotion/session/:id/stats.
type StatsResponse struct {
	Stats        []models.StudentEmotionSummary `json:"stats"`
	SessionID    string                         `json:"session_id"`
	EmotionTypes []string                       `json:"emotion_types"`
}

// CreateSessionRequest is the body of POST /session/create_session.
type CreateSessionRequest struct {
	Name        string `json:"name" binding:"required"`
	ClassroomID string `json:"classroom_id" binding:"required"`
}

// LoginRequest is the body of POST /user/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}
