package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmotionEvent is one durable observation in a session's event log.
// Immutable once written; the recorder only ever appends.
//
// Confidence uses the 0-100 scale reported by the vision service.
type EmotionEvent struct {
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
	Emotion    string    `bson:"emotion" json:"emotion"`
	Confidence float64   `bson:"confidence" json:"confidence"`
	StudentID  string    `bson:"student_id" json:"student_id"`
}

// EmotionSample is the per-student bucket entry mirroring an EmotionEvent.
// The flat event list and the buckets are kept consistent by appending to
// both in a single update.
type EmotionSample struct {
	Emotion   string    `bson:"emotion" json:"emotion"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Session is a bounded classroom observation period. Events accumulate in
// the flat Events log and, per student, in StudentEmotions.
type Session struct {
	ID              primitive.ObjectID         `bson:"_id,omitempty" json:"id"`
	Name            string                     `bson:"name" json:"name"`
	ProfessorID     primitive.ObjectID         `bson:"professor_id" json:"professor_id"`
	ClassroomID     primitive.ObjectID         `bson:"classroom_id" json:"classroom_id"`
	CreatedAt       time.Time                  `bson:"created_at" json:"created_at"`
	Events          []EmotionEvent             `bson:"events" json:"events"`
	StudentEmotions map[string][]EmotionSample `bson:"student_emotions" json:"student_emotions"`
}

// StudentEmotionSummary is the aggregation output for one student: tallies
// per emotion category before and after the chronological midpoint of the
// student's events, plus the total event count. Recomputed on demand,
// never persisted.
type StudentEmotionSummary struct {
	StudentID   string         `json:"student_id"`
	Before      map[string]int `json:"before"`
	After       map[string]int `json:"after"`
	TotalFrames int            `json:"total_frames"`
}
