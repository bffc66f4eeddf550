package faceapi

import "fmt"

// Backend names a face detection strategy supported by the analysis
// service.
type Backend string

const (
	BackendOpenCV     Backend = "opencv"
	BackendSSD        Backend = "ssd"
	BackendMTCNN      Backend = "mtcnn"
	BackendRetinaFace Backend = "retinaface"
	BackendMediaPipe  Backend = "mediapipe"
)

// DefaultBackend is used when the request does not name one.
const DefaultBackend = BackendMTCNN

// BackendInfo is operator-facing metadata about a detector backend.
type BackendInfo struct {
	Description string   `json:"description"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
}

// Backends enumerates the supported detector backends with metadata,
// served verbatim by the detectors endpoint.
var Backends = map[Backend]BackendInfo{
	BackendOpenCV: {
		Description: "OpenCV is an open-source computer vision and machine learning software library.",
		Pros:        []string{"Fast", "Widely used", "Supports many languages"},
		Cons:        []string{"Less accurate for face detection compared to other models"},
	},
	BackendSSD: {
		Description: "SSD (Single Shot MultiBox Detector) is a popular object detection model.",
		Pros:        []string{"Fast", "Good accuracy"},
		Cons:        []string{"May not be as accurate as more complex models"},
	},
	BackendMTCNN: {
		Description: "MTCNN (Multi-task Cascaded Convolutional Networks) is a face detection model.",
		Pros:        []string{"High accuracy", "Good for face detection"},
		Cons:        []string{"Slower than some other models"},
	},
	BackendRetinaFace: {
		Description: "RetinaFace is a robust single-stage face detector.",
		Pros:        []string{"Very high accuracy", "Robust"},
		Cons:        []string{"Requires more computational resources"},
	},
	BackendMediaPipe: {
		Description: "MediaPipe is a cross-platform framework for building multimodal applied ML pipelines.",
		Pros:        []string{"Versatile", "Good accuracy"},
		Cons:        []string{"Can be complex to set up"},
	},
}

// ParseBackend validates a backend name from a request. An empty name
// selects the default backend.
func ParseBackend(name string) (Backend, error) {
	if name == "" {
		return DefaultBackend, nil
	}
	backend := Backend(name)
	if _, ok := Backends[backend]; !ok {
		return "", fmt.Errorf("unknown detector backend %q", name)
	}
	return backend, nil
}
