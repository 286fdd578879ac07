package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	frames []*LandmarkFrame
	index  int
	err    error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFrame sets a single landmark frame returned by every Detect call.
func (m *MockDetector) SetFrame(frame *LandmarkFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = []*LandmarkFrame{frame}
	m.index = 0
}

// SetSequence sets a sequence of landmark frames returned by successive
// Detect calls. The sequence repeats once exhausted.
func (m *MockDetector) SetSequence(frames []*LandmarkFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = frames
	m.index = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured frame or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*LandmarkFrame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if len(m.frames) == 0 {
		return &LandmarkFrame{}, nil
	}
	lf := m.frames[m.index%len(m.frames)]
	m.index++
	return lf, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// SigningFrame returns a preset LandmarkFrame with one hand raised
// mid-screen in signing position, a supporting pose skeleton and face
// anchors. The hand span is well above the ghost threshold.
func SigningFrame(side string) *LandmarkFrame {
	hand := Hand{Side: side, Score: 0.95}

	// Wrist center-frame, fingers fanned upward for a realistic span.
	hand.Points[Wrist] = Point3D{X: 0.50, Y: 0.60, Z: 0.0}
	for i := 1; i < NumHandLandmarks; i++ {
		finger := (i - 1) / 4     // 0..4
		joint := (i-1)%4 + 1      // 1..4
		x := 0.42 + 0.04*float64(finger)
		y := 0.58 - 0.05*float64(joint)
		hand.Points[i] = Point3D{X: x, Y: y, Z: -0.01 * float64(joint)}
	}

	pose := &Pose{Score: 0.98}
	pose.Points[PoseNose] = Point3D{X: 0.5, Y: 0.2, Z: 0}
	pose.Points[PoseLeftWrist] = Point3D{X: 0.62, Y: 0.6, Z: 0}
	pose.Points[PoseRightWrist] = Point3D{X: 0.38, Y: 0.6, Z: 0}
	for i := range pose.Visibility {
		pose.Visibility[i] = 0.9
	}

	face := &Face{Score: 0.97}
	face.Anchors[0] = Point3D{X: 0.46, Y: 0.18, Z: 0}
	face.Anchors[1] = Point3D{X: 0.54, Y: 0.18, Z: 0}
	face.Anchors[2] = Point3D{X: 0.46, Y: 0.26, Z: 0}
	face.Anchors[3] = Point3D{X: 0.54, Y: 0.26, Z: 0}

	return &LandmarkFrame{
		Hands:  []Hand{hand},
		Pose:   pose,
		Face:   face,
		Width:  640,
		Height: 480,
	}
}

// RestingFrame returns a frame with both wrists in the bottom region of the
// image (y > 0.9), the posture that triggers the hands-down commit signal.
func RestingFrame() *LandmarkFrame {
	f := SigningFrame(SideRight)
	for i := range f.Hands[0].Points {
		f.Hands[0].Points[i].Y += 0.35
	}
	f.Pose.Points[PoseLeftWrist].Y = 0.95
	f.Pose.Points[PoseRightWrist].Y = 0.95
	return f
}

// GhostFrame returns a frame whose single hand has collapsed to a near-zero
// span, the signature of a spurious detection.
func GhostFrame(side string) *LandmarkFrame {
	f := SigningFrame(side)
	for i := range f.Hands[0].Points {
		f.Hands[0].Points[i] = Point3D{X: 0.5, Y: 0.5, Z: 0}
	}
	return f
}

// ShiftedFrame returns a deep copy of f with every hand landmark displaced
// by (dx, dy), for driving the motion filter in tests.
func ShiftedFrame(f *LandmarkFrame, dx, dy float64) *LandmarkFrame {
	out := *f
	out.Hands = make([]Hand, len(f.Hands))
	copy(out.Hands, f.Hands)
	for h := range out.Hands {
		for i := range out.Hands[h].Points {
			out.Hands[h].Points[i].X += dx
			out.Hands[h].Points[i].Y += dy
		}
	}
	return &out
}
