package engage

import (
	"context"
	"fmt"
	"sort"

	"github.com/classpulse/classpulse/internal/models"
	"github.com/classpulse/classpulse/internal/store"
	"github.com/classpulse/classpulse/pkg/utils"
)

// Aggregator reduces a session's event log into per-student summaries.
type Aggregator struct {
	sessions store.SessionStore
}

// NewAggregator creates an aggregator over the given session store.
func NewAggregator(sessions store.SessionStore) *Aggregator {
	return &Aggregator{sessions: sessions}
}

// SessionStats loads the session's full event log and reduces it.
// Returns models.ErrSessionNotFound when the session has no record.
func (a *Aggregator) SessionStats(ctx context.Context, sessionID string) ([]models.StudentEmotionSummary, error) {
	events, err := a.sessions.ListEvents(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("aggregate session %s: %w", sessionID, err)
	}
	return ComputeSessionStats(events), nil
}

// ComputeSessionStats groups events by student, splits each student's
// chronologically sorted stream at its midpoint and tallies emotion
// occurrences on each half.
//
// Malformed events (missing student, emotion or timestamp) are discarded.
// The sort is stable, so events sharing a timestamp keep their append
// order. The split index is floor(n/2): the first half gets floor(n/2)
// events, the second ceil(n/2). Labels are tallied case-insensitively
// against the closed category set; an unknown label still counts toward
// the student's total. Students appear in first-seen order, which keeps
// the output deterministic for identical input.
func ComputeSessionStats(events []models.EmotionEvent) []models.StudentEmotionSummary {
	seen := []string{}
	grouped := map[string][]models.EmotionEvent{}
	for _, event := range events {
		if event.StudentID == "" || event.Emotion == "" || event.Timestamp.IsZero() {
			continue
		}
		seen = append(seen, event.StudentID)
		grouped[event.StudentID] = append(grouped[event.StudentID], event)
	}
	order := utils.DeduplicateStrings(seen)

	summaries := make([]models.StudentEmotionSummary, 0, len(order))
	for _, studentID := range order {
		studentEvents := grouped[studentID]
		sort.SliceStable(studentEvents, func(i, j int) bool {
			return studentEvents[i].Timestamp.Before(studentEvents[j].Timestamp)
		})

		mid := len(studentEvents) / 2
		summaries = append(summaries, models.StudentEmotionSummary{
			StudentID:   studentID,
			Before:      tally(studentEvents[:mid]),
			After:       tally(studentEvents[mid:]),
			TotalFrames: len(studentEvents),
		})
	}
	return summaries
}

func tally(events []models.EmotionEvent) map[string]int {
	counts := models.EmptyEmotionCounts()
	for _, event := range events {
		if label, known := models.NormalizeEmotion(event.Emotion); known {
			counts[label]++
		}
	}
	return counts
}
