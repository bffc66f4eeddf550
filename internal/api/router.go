package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine and mounts all routes. Auth middleware
// is applied per group: everything except login, detectors and status
// requires a valid token, and mutating endpoints are professor-only.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = 16 << 20

	auth := h.auth

	emotion := router.Group("/emotion")
	{
		emotion.GET("/detectors", h.Detectors)
		emotion.GET("/status", h.Status)
		emotion.POST("/process_frame", auth.TokenRequired(), auth.ProfessorRequired(), h.ProcessFrame)
		emotion.GET("/session/:session_id/stats", auth.TokenRequired(), h.SessionStats)
	}

	session := router.Group("/session", auth.TokenRequired(), auth.ProfessorRequired())
	{
		session.POST("/create_session", h.CreateSession)
		session.GET("/get_sessions", h.ListSessions)
		session.GET("/:session_id/events", h.SessionEvents)
	}

	student := router.Group("/student", auth.TokenRequired(), auth.ProfessorRequired())
	{
		student.POST("/register", h.RegisterStudent)
	}

	user := router.Group("/user")
	{
		user.POST("/login", h.Login)
		user.GET("/me", auth.TokenRequired(), h.Me)
		user.POST("/identify", auth.TokenRequired(), h.IdentifyUser)
		user.GET("/user_images/*filepath", auth.TokenRequired(), h.GalleryImage)
	}

	return router
}
