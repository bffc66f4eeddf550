package api

import (
	"bytes"
	"errors"
	"image"
	"net/http"
	"sort"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/frame"
	"github.com/classpulse/classpulse/internal/models"
)

// Students register with at least this many reference face images so the
// recognition gallery has enough variation per subject.
const minReferenceImages = 3

// RegisterStudent handles POST /student/register. Professors only.
// Multipart form: name, last_name, age, gender, email plus at least three
// image files under any field name.
func (h *Handlers) RegisterStudent(c *gin.Context) {
	for _, field := range []string{"name", "last_name", "age", "gender", "email"} {
		if c.PostForm(field) == "" {
			respondError(c, http.StatusBadRequest, "missing_field", "Missing required field: "+field)
			return
		}
	}

	age, err := strconv.Atoi(c.PostForm("age"))
	if err != nil || age <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_age", "age must be a positive integer")
		return
	}

	gender := c.PostForm("gender")
	if gender != models.GenderMale && gender != models.GenderFemale {
		respondError(c, http.StatusBadRequest, "invalid_gender", "gender must be male or female")
		return
	}

	email := c.PostForm("email")
	switch _, err := h.users.FindByEmail(c.Request.Context(), email); {
	case err == nil:
		respondDomainError(c, models.ErrUserExists)
		return
	case !errors.Is(err, models.ErrUserNotFound):
		respondDomainError(c, err)
		return
	}

	images, err := decodeUploadedImages(c)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if len(images) < minReferenceImages {
		respondError(c, http.StatusBadRequest, "too_few_images",
			"At least "+strconv.Itoa(minReferenceImages)+" face images are required")
		return
	}

	paths, err := h.gallery.SaveImages(models.RoleStudent, gender, images)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	scope := faceapi.Scope{Role: models.RoleStudent, Gender: gender}
	registered := []string{}
	for i, path := range paths {
		imageBytes, encErr := frame.EncodeJPEG(images[i])
		if encErr == nil {
			encErr = h.gateway.AddReference(c.Request.Context(), imageBytes, path, scope)
		}
		if encErr != nil {
			logrus.Errorf("RegisterStudent: reference registration failed for %s: %v", path, encErr)
			h.rollbackRegistration(c, paths, registered)
			respondError(c, http.StatusInternalServerError, "registration_failed",
				"Could not register reference images")
			return
		}
		registered = append(registered, path)
	}

	professor := CurrentUser(c)
	student := &models.User{
		Name:      c.PostForm("name"),
		LastName:  c.PostForm("last_name"),
		Age:       age,
		Gender:    gender,
		Email:     email,
		Role:      models.RoleStudent,
		Images:    paths,
		CreatedBy: professor.ID.Hex(),
	}

	id, err := h.users.Insert(c.Request.Context(), student)
	if err != nil {
		h.rollbackRegistration(c, paths, registered)
		respondDomainError(c, err)
		return
	}

	logrus.Infof("RegisterStudent: registered %s with %d reference images", student.DisplayName(), len(paths))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Student registered successfully",
		"user_id": id.Hex(),
	})
}

// rollbackRegistration undoes a partially completed registration: saved
// gallery files are deleted and already-indexed subjects removed.
func (h *Handlers) rollbackRegistration(c *gin.Context, paths, registered []string) {
	h.gallery.Remove(paths)
	for _, subject := range registered {
		if err := h.gateway.RemoveReference(c.Request.Context(), subject); err != nil {
			logrus.Warnf("rollback: could not remove reference %s: %v", subject, err)
		}
	}
}

// decodeUploadedImages decodes every file in the multipart form, in a
// stable field order. A file that is not a decodable image fails the whole
// request.
func decodeUploadedImages(c *gin.Context) ([]image.Image, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.ErrMissingField
	}

	keys := make([]string, 0, len(form.File))
	for key := range form.File {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var images []image.Image
	for _, key := range keys {
		for _, header := range form.File[key] {
			raw, err := readUpload(header)
			if err != nil {
				return nil, models.ErrInvalidImage
			}
			img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
			if err != nil {
				return nil, models.ErrInvalidImage
			}
			images = append(images, img)
		}
	}
	return images, nil
}
