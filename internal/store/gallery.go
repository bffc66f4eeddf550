package store

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Gallery stores reference face images on the filesystem, partitioned by
// role and gender (<root>/<role>/<gender>/<uuid>.jpg). The recognition
// service searches one partition at a time, so the layout doubles as the
// search scope.
type Gallery struct {
	Root string
}

// NewGallery creates a gallery rooted at dir.
func NewGallery(dir string) *Gallery {
	return &Gallery{Root: dir}
}

// SaveImages writes the given reference images into the role/gender
// partition and returns their gallery-relative paths. On any write
// failure the already-saved images of this batch are removed so a user is
// never registered with a partial reference set.
func (g *Gallery) SaveImages(role, gender string, images []image.Image) ([]string, error) {
	partition := filepath.Join(g.Root, role, gender)
	if err := os.MkdirAll(partition, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create gallery partition %s: %w", partition, err)
	}

	saved := make([]string, 0, len(images))
	for _, img := range images {
		filename := uuid.New().String() + ".jpg"
		fullPath := filepath.Join(partition, filename)

		if err := imaging.Save(img, fullPath, imaging.JPEGQuality(95)); err != nil {
			g.Remove(saved)
			return nil, fmt.Errorf("failed to save reference image: %w", err)
		}
		saved = append(saved, filepath.ToSlash(filepath.Join(role, gender, filename)))
	}
	return saved, nil
}

// Remove deletes reference images by their gallery-relative paths.
// Missing files are ignored; other failures are logged and skipped.
func (g *Gallery) Remove(paths []string) {
	for _, relative := range paths {
		fullPath := filepath.Join(g.Root, filepath.FromSlash(relative))
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("Failed to remove gallery image %s: %v", fullPath, err)
		}
	}
}

// Open returns the absolute filesystem path for a gallery-relative path,
// used by the static image handler.
func (g *Gallery) Open(relative string) (string, error) {
	fullPath := filepath.Join(g.Root, filepath.FromSlash(relative))
	cleaned, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve gallery path: %w", err)
	}
	root, err := filepath.Abs(g.Root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve gallery root: %w", err)
	}
	// Reject traversal outside the gallery root.
	if rel, err := filepath.Rel(root, cleaned); err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("gallery path %q escapes gallery root", relative)
	}
	if _, err := os.Stat(cleaned); err != nil {
		return "", fmt.Errorf("gallery image not found: %w", err)
	}
	return cleaned, nil
}
