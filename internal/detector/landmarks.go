// Package detector provides holistic landmark detection interfaces and types
// for the Expressora sign recognition pipeline.
package detector

import "math"

// Hand landmark indices following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist            = 0
	ThumbCMC         = 1
	ThumbMCP         = 2
	ThumbIP          = 3
	ThumbTip         = 4
	IndexMCP         = 5
	IndexPIP         = 6
	IndexDIP         = 7
	IndexTip         = 8
	MiddleMCP        = 9
	MiddlePIP        = 10
	MiddleDIP        = 11
	MiddleTip        = 12
	RingMCP          = 13
	RingPIP          = 14
	RingDIP          = 15
	RingTip          = 16
	PinkyMCP         = 17
	PinkyPIP         = 18
	PinkyDIP         = 19
	PinkyTip         = 20
	NumHandLandmarks = 21
)

// Pose landmark indices (MediaPipe pose model). Only the landmarks the
// pipeline actually reads are named; the full set of 33 is carried so the
// feature layout stays compatible with the trained classifier.
const (
	PoseNose         = 0
	PoseLeftWrist    = 15
	PoseRightWrist   = 16
	NumPoseLandmarks = 33
)

// NumFaceAnchors is the number of facial anchor points carried per frame
// (inner brows and mouth corners), reduced from the full face mesh by the
// detector service. They feed tone classification, not gloss recognition.
const NumFaceAnchors = 4

// Signer-relative hand sides. A Hand tagged SideRight is the signer's
// physical right hand regardless of camera mirroring.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// Point3D represents a 3D point with normalized image coordinates.
// X and Y are in [0,1] relative to frame width/height; Z is depth relative
// to the entity's reference point, roughly on the same scale as X.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Hand holds the 21 landmarks of one detected hand.
type Hand struct {
	Points [NumHandLandmarks]Point3D `json:"points"`
	Side   string                    `json:"side"` // SideLeft or SideRight (signer-relative)
	Score  float64                   `json:"score"`
}

// Pose holds the 33 body landmarks with per-landmark visibility scores.
type Pose struct {
	Points     [NumPoseLandmarks]Point3D `json:"points"`
	Visibility [NumPoseLandmarks]float64 `json:"visibility"`
	Score      float64                   `json:"score"`
}

// Face holds the reduced facial anchor set used for tone classification.
type Face struct {
	Anchors [NumFaceAnchors]Point3D `json:"anchors"`
	Score   float64                 `json:"score"`
}

// LandmarkFrame is the detection result for one camera frame. It is
// ephemeral: produced by a Detector, consumed immediately by the gate and
// feature extractor, never persisted.
type LandmarkFrame struct {
	Hands     []Hand `json:"hands"`
	Pose      *Pose  `json:"pose,omitempty"`
	Face      *Face  `json:"face,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Timestamp int64  `json:"timestamp"` // milliseconds
}

// HandBySide returns the hand tagged with the given canonical side, or nil.
func (f *LandmarkFrame) HandBySide(side string) *Hand {
	for i := range f.Hands {
		if f.Hands[i].Side == side {
			return &f.Hands[i]
		}
	}
	return nil
}

// CanonicalSide maps a raw MediaPipe handedness label ("Left"/"Right") to
// the signer's actual side. MediaPipe labels handedness in image space, so
// with a mirrored (selfie) camera its "Left" is the signer's right hand.
// The swap is deliberate: the classifier is trained on signer-relative sides.
func CanonicalSide(label string, mirrored bool) string {
	left := label == "Left"
	if mirrored {
		left = !left
	}
	if left {
		return SideLeft
	}
	return SideRight
}

// distance3D calculates the Euclidean distance between two 3D points.
func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Span returns the hand span: the Euclidean distance from the wrist to the
// middle fingertip. Ghost detections collapse to a near-zero span, so the
// gate rejects hands whose span falls below its threshold.
func (h *Hand) Span() float64 {
	return distance3D(h.Points[Wrist], h.Points[MiddleTip])
}

// MeanDisplacement returns the mean per-landmark Euclidean displacement
// between this hand and a previous observation of the same hand.
// Returns +Inf when there is no previous observation, so first frames
// always count as moving.
func (h *Hand) MeanDisplacement(prev *Hand) float64 {
	if prev == nil {
		return math.Inf(1)
	}
	var total float64
	for i := 0; i < NumHandLandmarks; i++ {
		total += distance3D(h.Points[i], prev.Points[i])
	}
	return total / NumHandLandmarks
}
