package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classpulse/classpulse/internal/models"
)

// CreateSession handles POST /session/create_session. Professors only.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "missing_field", "name and classroom_id are required")
		return
	}

	classroomID, err := primitive.ObjectIDFromHex(req.ClassroomID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_classroom", "classroom_id is not a valid id")
		return
	}

	professor := CurrentUser(c)

	session := &models.Session{
		Name:            req.Name,
		ProfessorID:     professor.ID,
		ClassroomID:     classroomID,
		CreatedAt:       time.Now().UTC(),
		Events:          []models.EmotionEvent{},
		StudentEmotions: map[string][]models.EmotionSample{},
	}

	id, err := h.sessions.CreateSession(c.Request.Context(), session)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Session created successfully",
		"session_id": id.Hex(),
	})
}

// ListSessions handles GET /session/get_sessions, returning the sessions
// owned by the authenticated professor.
func (h *Handlers) ListSessions(c *gin.Context) {
	professor := CurrentUser(c)

	sessions, err := h.sessions.ListSessions(c.Request.Context(), professor.ID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	summaries := make([]gin.H, len(sessions))
	for i, s := range sessions {
		summaries[i] = gin.H{
			"session_id":   s.ID.Hex(),
			"name":         s.Name,
			"classroom_id": s.ClassroomID.Hex(),
			"created_at":   s.CreatedAt,
			"event_count":  len(s.Events),
		}
	}

	c.JSON(http.StatusOK, gin.H{"sessions": summaries})
}

// SessionEvents handles GET /session/:session_id/events, returning the raw
// chronological event log for a session.
func (h *Handlers) SessionEvents(c *gin.Context) {
	sessionID := c.Param("session_id")
	if _, err := primitive.ObjectIDFromHex(sessionID); err != nil {
		respondDomainError(c, models.ErrSessionNotFound)
		return
	}

	events, err := h.sessions.ListEvents(c.Request.Context(), sessionID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"events":     events,
	})
}
