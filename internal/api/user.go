package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/frame"
	"github.com/classpulse/classpulse/internal/models"
)

// Login handles POST /user/login. Only professors hold credentials;
// students are recognized, never logged in.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "missing_field", "email and password are required")
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}
	if user.Role != models.RoleProfessor {
		respondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	token, err := h.auth.GenerateToken(user.ID.Hex())
	if err != nil {
		logrus.Errorf("Login: token generation failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "Could not issue token")
		return
	}

	logrus.Infof("Login: %s authenticated", user.Email)
	c.JSON(http.StatusOK, LoginResponse{Token: token})
}

// Me handles GET /user/me, returning the authenticated user's profile.
func (h *Handlers) Me(c *gin.Context) {
	user := CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID.Hex(),
		"name":      user.Name,
		"last_name": user.LastName,
		"email":     user.Email,
		"role":      user.Role,
		"gender":    user.Gender,
	})
}

// IdentifyUser handles POST /user/identify: detect the most prominent
// face in the uploaded image and match it against the student gallery.
func (h *Handlers) IdentifyUser(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing_field", "No image found in request")
		return
	}

	imageBytes, err := readUpload(fileHeader)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_image", "Could not read uploaded image")
		return
	}

	_, normalized, err := frame.Preprocess(imageBytes)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	encoded, err := frame.EncodeJPEG(normalized.Image)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	detections, err := h.detector.Detect(c.Request.Context(), encoded, faceapi.DefaultBackend)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if len(detections) == 0 {
		respondError(c, http.StatusNotFound, "no_detections", "No face found in image")
		return
	}

	resolved := h.resolver.ResolveAll(c.Request.Context(), normalized.Image, detections, models.RoleStudent)
	for _, entry := range resolved {
		if entry.Identity != nil {
			c.JSON(http.StatusOK, gin.H{"user": entry.Identity})
			return
		}
	}

	respondError(c, http.StatusNotFound, "user_not_found", "No user could be identified")
}

// GalleryImage handles GET /user/user_images/*filepath, serving a stored
// reference image. Paths are resolved inside the gallery root only.
func (h *Handlers) GalleryImage(c *gin.Context) {
	relative := c.Param("filepath")
	path, err := h.gallery.Open(relative)
	if err != nil {
		respondError(c, http.StatusNotFound, "not_found", "Image not found")
		return
	}
	c.File(path)
}
