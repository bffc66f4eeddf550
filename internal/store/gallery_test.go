package store_test

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/classpulse/internal/store"
)

func testImages(n int) []image.Image {
	images := make([]image.Image, n)
	for i := range images {
		images[i] = imaging.New(64, 64, color.NRGBA{R: uint8(40 * i), G: 80, B: 120, A: 255})
	}
	return images
}

func TestGallerySaveImages(t *testing.T) {
	gallery := store.NewGallery(t.TempDir())

	paths, err := gallery.SaveImages("student", "female", testImages(3))
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for _, relative := range paths {
		assert.True(t, strings.HasPrefix(relative, "student/female/"), "path %s should live in the partition", relative)
		assert.True(t, strings.HasSuffix(relative, ".jpg"))

		full := filepath.Join(gallery.Root, filepath.FromSlash(relative))
		info, err := os.Stat(full)
		require.NoError(t, err, "saved image should exist on disk")
		assert.Positive(t, info.Size())
	}
}

func TestGallerySaveImagesUniqueNames(t *testing.T) {
	gallery := store.NewGallery(t.TempDir())

	paths, err := gallery.SaveImages("student", "male", testImages(5))
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, p := range paths {
		assert.False(t, seen[p], "path %s should be unique", p)
		seen[p] = true
	}
}

func TestGalleryRemove(t *testing.T) {
	gallery := store.NewGallery(t.TempDir())

	paths, err := gallery.SaveImages("student", "male", testImages(2))
	require.NoError(t, err)

	gallery.Remove(paths)
	for _, relative := range paths {
		full := filepath.Join(gallery.Root, filepath.FromSlash(relative))
		_, err := os.Stat(full)
		assert.True(t, os.IsNotExist(err), "removed image %s should be gone", relative)
	}

	// Removing already-removed paths is a no-op.
	gallery.Remove(paths)
}

func TestGalleryOpen(t *testing.T) {
	gallery := store.NewGallery(t.TempDir())

	paths, err := gallery.SaveImages("professor", "female", testImages(1))
	require.NoError(t, err)

	full, err := gallery.Open(paths[0])
	require.NoError(t, err)
	assert.FileExists(t, full)
}

func TestGalleryOpenRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	gallery := store.NewGallery(root)

	// A file next to the gallery root must stay unreachable.
	outside := filepath.Join(filepath.Dir(root), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))
	defer os.Remove(outside)

	_, err := gallery.Open("../secret.txt")
	assert.Error(t, err, "paths escaping the gallery root are rejected")
}

func TestGalleryOpenMissingFile(t *testing.T) {
	gallery := store.NewGallery(t.TempDir())

	_, err := gallery.Open("student/male/does-not-exist.jpg")
	assert.Error(t, err)
}
