package engage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/classpulse/classpulse/internal/identity"
	"github.com/classpulse/classpulse/internal/models"
	"github.com/classpulse/classpulse/internal/store"
)

// RecordOutcome is the per-detection result of a record batch: either the
// persisted event or the reason the detection was skipped.
type RecordOutcome struct {
	Event      *models.EmotionEvent `json:"event,omitempty"`
	SkipReason string               `json:"skip_reason,omitempty"`
}

// Recorded reports whether this outcome persisted an event.
func (o RecordOutcome) Recorded() bool {
	return o.Event != nil
}

// Recorder appends emotion observations to a session's event log.
type Recorder struct {
	sessions store.SessionStore
	now      func() time.Time
}

// NewRecorder creates a recorder over the given session store.
func NewRecorder(sessions store.SessionStore) *Recorder {
	return &Recorder{sessions: sessions, now: time.Now}
}

// Record persists one EmotionEvent per taggable detection and returns the
// number recorded plus a per-detection outcome list.
//
// The event's student is the caller-supplied studentID when present,
// falling back to the detection's recognized identity. Timestamps are
// assigned server-side at record time. A missing session fails the whole
// batch with models.ErrSessionNotFound before anything is written;
// individual append failures are logged and skipped so one bad detection
// never discards the rest of the frame.
func (r *Recorder) Record(ctx context.Context, sessionID, studentID string, detections []identity.Resolved) (int, []RecordOutcome, error) {
	if _, err := r.sessions.FindSession(ctx, sessionID); err != nil {
		return 0, nil, fmt.Errorf("record batch for session %s: %w", sessionID, err)
	}

	outcomes := make([]RecordOutcome, 0, len(detections))
	recorded := 0
	for i, detection := range detections {
		target := studentID
		if target == "" && detection.Identity != nil {
			target = detection.Identity.ID
		}
		if target == "" {
			outcomes = append(outcomes, RecordOutcome{SkipReason: "no student context"})
			continue
		}

		label, _ := models.NormalizeEmotion(detection.Detection.DominantEmotion)
		event := models.EmotionEvent{
			Timestamp:  r.now().UTC(),
			Emotion:    label,
			Confidence: detection.Detection.Confidence,
			StudentID:  target,
		}

		if err := r.sessions.AppendEvent(ctx, sessionID, event); err != nil {
			logrus.Errorf("Record: failed to persist event %d for session %s: %v", i, sessionID, err)
			outcomes = append(outcomes, RecordOutcome{SkipReason: "persistence failure"})
			continue
		}

		recorded++
		outcomes = append(outcomes, RecordOutcome{Event: &event})
	}

	logrus.Debugf("Record: session %s: %d/%d detections recorded", sessionID, recorded, len(detections))
	return recorded, outcomes, nil
}
