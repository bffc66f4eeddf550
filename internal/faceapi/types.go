package faceapi

import "net/http"

// Client handles API calls to the face analysis service.
type Client struct {
	BaseURL       string
	APIKey        string
	MinSimilarity float64
	httpClient    *http.Client
}

// Point is a pixel coordinate in the analyzed image.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Box is a face bounding box with eye landmarks, in the coordinate space
// of the image submitted for analysis.
type Box struct {
	X        int   `json:"x"`
	Y        int   `json:"y"`
	W        int   `json:"w"`
	H        int   `json:"h"`
	LeftEye  Point `json:"left_eye"`
	RightEye Point `json:"right_eye"`
}

// Detection is one face found in an analyzed image. Emotion scores use
// the 0-100 scale; Confidence is the score of the dominant emotion.
type Detection struct {
	Box             Box                `json:"box"`
	DominantEmotion string             `json:"dominant_emotion"`
	EmotionScores   map[string]float64 `json:"emotion_scores"`
	Confidence      float64            `json:"emotion_confidence"`
	DominantGender  string             `json:"dominant_gender"`
}

// Scope narrows a recognition search to one partition of the reference
// gallery. Searching role+gender instead of the full population shrinks
// the candidate set and lowers the false-match rate.
type Scope struct {
	Role   string
	Gender string
}

// Match is the best gallery hit for a face crop. Subject is the
// gallery-relative path of the matched reference image.
type Match struct {
	Subject    string  `json:"subject"`
	Similarity float64 `json:"similarity"`
}

// analyzeRegion is the raw face geometry as returned by the service.
type analyzeRegion struct {
	X        int   `json:"x"`
	Y        int   `json:"y"`
	W        int   `json:"w"`
	H        int   `json:"h"`
	LeftEye  []int `json:"left_eye"`
	RightEye []int `json:"right_eye"`
}

// analyzeResult is one loosely structured analysis result. Results are
// validated and coerced into Detection values on ingress so the rest of
// the pipeline never sees this shape.
type analyzeResult struct {
	Region          analyzeRegion      `json:"region"`
	DominantEmotion string             `json:"dominant_emotion"`
	Emotion         map[string]float64 `json:"emotion"`
	DominantGender  string             `json:"dominant_gender"`
	Gender          map[string]float64 `json:"gender"`
}

// analyzeResponse is the response from the analysis endpoint.
type analyzeResponse struct {
	Results []analyzeResult `json:"results"`
}

// identifyResponse is the response from the identification endpoint.
type identifyResponse struct {
	Matches []Match `json:"matches"`
}

// addReferenceResponse is the response from gallery registration.
type addReferenceResponse struct {
	Subject string `json:"subject"`
	ImageID string `json:"image_id"`
}

// errorResponse is the error body the analysis service returns on 4xx.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
