package engage

import (
	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/identity"
)

// ProcessRequest is one frame submitted for analysis within a session.
type ProcessRequest struct {
	ImageBytes []byte
	SessionID  string
	// StudentID is the caller-supplied subject of this frame. When set it
	// is authoritative for event tagging; face-recognition identity is
	// display-only metadata.
	StudentID string
	Backend   faceapi.Backend
	// Strict makes zero detections an error instead of an empty result.
	Strict bool
}

// ProcessResult is the outcome of one processed frame.
type ProcessResult struct {
	Detections []identity.Resolved
	Outcomes   []RecordOutcome
	Recorded   int
	Annotated  []byte
	Backend    faceapi.Backend
}
