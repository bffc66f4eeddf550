package identity

import (
	"context"
	"image"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/frame"
	"github.com/classpulse/classpulse/internal/store"
)

// Recognizer is the slice of the vision gateway used for identification.
type Recognizer interface {
	Recognize(ctx context.Context, crop []byte, scope faceapi.Scope) (*faceapi.Match, error)
}

// Identity is a known user associated with a detection.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolved is a detection with its face crop and, when recognition
// succeeded, the matched identity.
type Resolved struct {
	Detection faceapi.Detection
	FaceCrop  []byte
	Identity  *Identity
}

// Resolver matches detected faces against the reference gallery.
type Resolver struct {
	recognizer Recognizer
	users      store.UserStore
}

// NewResolver creates a resolver over the given recognizer and user store.
func NewResolver(recognizer Recognizer, users store.UserStore) *Resolver {
	return &Resolver{recognizer: recognizer, users: users}
}

// ResolveAll attempts to identify each detection: crop the face region
// from the normalized image, then search the gallery partition scoped by
// role and the detection's inferred gender bucket. A face that cannot be
// cropped or matched stays unidentified; per-face failures never abort
// the batch.
func (r *Resolver) ResolveAll(ctx context.Context, normalized image.Image, detections []faceapi.Detection, role string) []Resolved {
	resolved := make([]Resolved, 0, len(detections))
	for i, detection := range detections {
		entry := Resolved{Detection: detection}

		crop, err := frame.CropFace(normalized, detection.Box)
		if err != nil {
			logrus.Warnf("ResolveAll: skipping identification for face %d: %v", i, err)
			resolved = append(resolved, entry)
			continue
		}
		entry.FaceCrop = crop

		scope := faceapi.Scope{Role: role, Gender: GenderBucket(detection.DominantGender)}
		match, err := r.recognizer.Recognize(ctx, crop, scope)
		if err != nil {
			logrus.Warnf("ResolveAll: recognition failed for face %d: %v", i, err)
			resolved = append(resolved, entry)
			continue
		}
		if match == nil {
			resolved = append(resolved, entry)
			continue
		}

		user, err := r.users.FindByImagePath(ctx, match.Subject)
		if err != nil {
			logrus.Warnf("ResolveAll: matched subject %q has no user record: %v", match.Subject, err)
			resolved = append(resolved, entry)
			continue
		}

		entry.Identity = &Identity{ID: user.ID.Hex(), Name: user.DisplayName()}
		logrus.Debugf("ResolveAll: face %d identified as %s (similarity %.2f)",
			i, entry.Identity.Name, match.Similarity)
		resolved = append(resolved, entry)
	}
	return resolved
}

// GenderBucket maps the analysis service's dominant-gender label onto the
// gallery's partition names.
func GenderBucket(dominantGender string) string {
	switch strings.ToLower(dominantGender) {
	case "woman", "female", "f":
		return "female"
	default:
		return "male"
	}
}
