package engage

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/frame"
	"github.com/classpulse/classpulse/internal/identity"
	"github.com/classpulse/classpulse/internal/models"
	"github.com/classpulse/classpulse/internal/store"
	"github.com/classpulse/classpulse/pkg/utils"
)

// Detector is the slice of the vision gateway used for face analysis.
type Detector interface {
	Detect(ctx context.Context, imageBytes []byte, backend faceapi.Backend) ([]faceapi.Detection, error)
}

// Resolver associates detections with known identities.
type Resolver interface {
	ResolveAll(ctx context.Context, normalized image.Image, detections []faceapi.Detection, role string) []identity.Resolved
}

// Pipeline runs a frame through preprocessing, detection, identity
// resolution, event recording and annotation.
type Pipeline struct {
	detector        Detector
	resolver        Resolver
	recorder        *Recorder
	sessions        store.SessionStore
	analysisTimeout time.Duration
}

// NewPipeline wires the frame-processing pipeline.
func NewPipeline(detector Detector, resolver Resolver, recorder *Recorder, sessions store.SessionStore, analysisTimeout time.Duration) *Pipeline {
	return &Pipeline{
		detector:        detector,
		resolver:        resolver,
		recorder:        recorder,
		sessions:        sessions,
		analysisTimeout: analysisTimeout,
	}
}

// ProcessFrame handles one frame end to end. The session is validated and
// the image decoded before the expensive analysis call so invalid
// requests fail fast. Detection runs on its own goroutine under a bounded
// deadline; the caller still waits for the result, but a hung analysis
// call surfaces as models.ErrAnalysisTimeout instead of stalling forever.
func (p *Pipeline) ProcessFrame(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	if _, err := p.sessions.FindSession(ctx, req.SessionID); err != nil {
		return nil, fmt.Errorf("process frame: %w", err)
	}

	original, normalized, err := frame.Preprocess(req.ImageBytes)
	if err != nil {
		return nil, fmt.Errorf("process frame: %w", err)
	}

	normalizedBytes, err := frame.EncodeJPEG(normalized.Image)
	if err != nil {
		return nil, fmt.Errorf("process frame: %w", err)
	}

	detections, err := p.detect(ctx, normalizedBytes, req.Backend)
	if err != nil {
		return nil, fmt.Errorf("process frame: %w", err)
	}
	detections = filterSmallFaces(detections)
	if len(detections) == 0 && req.Strict {
		return nil, fmt.Errorf("process frame: %w", models.ErrNoDetections)
	}

	resolved := p.resolver.ResolveAll(ctx, normalized.Image, detections, models.RoleStudent)

	recorded, outcomes, err := p.recorder.Record(ctx, req.SessionID, req.StudentID, resolved)
	if err != nil {
		return nil, fmt.Errorf("process frame: %w", err)
	}

	annotations := make([]frame.Annotation, len(resolved))
	for i, entry := range resolved {
		label := entry.Detection.DominantEmotion
		if entry.Identity != nil {
			label = label + " - " + entry.Identity.Name
		}
		annotations[i] = frame.Annotation{Box: entry.Detection.Box, Label: label}
	}

	annotated, err := frame.Annotate(original, annotations, normalized.ScaleX, normalized.ScaleY)
	if err != nil {
		return nil, fmt.Errorf("process frame: %w", err)
	}

	logrus.Infof("Processed frame for session %s: %d detection(s), %d event(s) recorded",
		req.SessionID, len(resolved), recorded)

	return &ProcessResult{
		Detections: resolved,
		Outcomes:   outcomes,
		Recorded:   recorded,
		Annotated:  annotated,
		Backend:    req.Backend,
	}, nil
}

// Faces below this many pixels per side in normalized space carry too
// little signal for emotion classification and are dropped.
const minFaceSize = 20

func filterSmallFaces(detections []faceapi.Detection) []faceapi.Detection {
	kept := detections[:0]
	for _, detection := range detections {
		if !utils.IsFaceSizeValid(detection.Box, minFaceSize) {
			logrus.Debugf("Dropping %dx%d face below minimum size", detection.Box.W, detection.Box.H)
			continue
		}
		kept = append(kept, detection)
	}
	return kept
}

type detectOutcome struct {
	detections []faceapi.Detection
	err        error
}

// detect offloads the CPU-bound analysis call and awaits it under the
// configured deadline.
func (p *Pipeline) detect(ctx context.Context, imageBytes []byte, backend faceapi.Backend) ([]faceapi.Detection, error) {
	detectCtx, cancel := context.WithTimeout(ctx, p.analysisTimeout)
	defer cancel()

	results := make(chan detectOutcome, 1)
	go func() {
		detections, err := p.detector.Detect(detectCtx, imageBytes, backend)
		results <- detectOutcome{detections: detections, err: err}
	}()

	select {
	case outcome := <-results:
		return outcome.detections, outcome.err
	case <-detectCtx.Done():
		if ctx.Err() != nil {
			// Caller went away; report their cancellation, not a timeout.
			return nil, ctx.Err()
		}
		return nil, models.ErrAnalysisTimeout
	}
}
