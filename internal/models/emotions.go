package models

import "strings"

// EmotionCategories is the closed vocabulary used for tallying. Labels
// outside this set still count toward a student's total but are never
// given their own tally entry.
var EmotionCategories = []string{
	"angry",
	"disgust",
	"fear",
	"happy",
	"sad",
	"surprise",
	"neutral",
}

// IsKnownEmotion reports whether label belongs to the closed vocabulary.
// Matching is case-insensitive.
func IsKnownEmotion(label string) bool {
	_, ok := NormalizeEmotion(label)
	return ok
}

// NormalizeEmotion lowercases label and reports whether it is one of the
// fixed categories. The normalized form is returned either way.
func NormalizeEmotion(label string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	for _, category := range EmotionCategories {
		if normalized == category {
			return normalized, true
		}
	}
	return normalized, false
}

// EmptyEmotionCounts returns a zeroed tally with one entry per category.
func EmptyEmotionCounts() map[string]int {
	counts := make(map[string]int, len(EmotionCategories))
	for _, category := range EmotionCategories {
		counts[category] = 0
	}
	return counts
}
