package utils

import (
	"github.com/classpulse/classpulse/internal/faceapi"
)

// ============================================================================
// Pure Utility Functions
// ============================================================================
//
// This file contains only domain-agnostic utility functions that can be
// used across any part of the application.
// ============================================================================

// GetFaceDimensions returns the width and height of a face bounding box
func GetFaceDimensions(box faceapi.Box) (int, int) {
	return box.W, box.H
}

// IsFaceSizeValid checks if a face meets the minimum size requirement
func IsFaceSizeValid(box faceapi.Box, minSize int) bool {
	width, height := GetFaceDimensions(box)
	return width >= minSize && height >= minSize
}

// DeduplicateStrings removes duplicates while preserving first-seen order
func DeduplicateStrings(values []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}
