package detector

import "gocv.io/x/gocv"

// Detector defines the interface for holistic landmark detection
// implementations (hands + pose + face anchors).
type Detector interface {
	// Detect analyzes a video frame and returns the landmark frame.
	// A frame with no detected entities has empty Hands and nil Pose/Face.
	Detect(frame *gocv.Mat) (*LandmarkFrame, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Mirrored indicates the input is a selfie-view (horizontally flipped)
	// stream. Controls the handedness label swap; see CanonicalSide.
	Mirrored bool
}

// DefaultConfig returns a Config with sensible default values.
// Mirrored defaults to true because the consuming app uses the front camera.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		Mirrored:        true,
	}
}
