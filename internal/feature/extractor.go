// Package feature converts landmark frames into fixed-size scaled feature
// windows for classifier input.
package feature

import (
	"errors"
	"fmt"

	"github.com/expressora/expressora/internal/detector"
)

// Per-frame feature layout. The order and widths are a contract with the
// trained classifier and must never change without retraining:
// left hand 21*3, right hand 21*3, pose 33*3, face anchors 4*3.
const (
	HandDim  = detector.NumHandLandmarks * 3
	PoseDim  = detector.NumPoseLandmarks * 3
	FaceDim  = detector.NumFaceAnchors * 3
	FrameDim = 2*HandDim + PoseDim + FaceDim // 237

	// DefaultWindowSize is the number of frames per classifier window.
	DefaultWindowSize = 30
)

// ErrDimensionMismatch indicates a frame vector whose width does not match
// the configured per-frame dimension. This is a configuration error: the
// pipeline must abort rather than feed the classifier misaligned input.
var ErrDimensionMismatch = errors.New("feature: frame vector dimension mismatch")

// WindowPolicy controls what happens to the buffer after a window is emitted.
type WindowPolicy int

const (
	// Sliding keeps the buffer and emits a new window on every subsequent
	// frame. Lowest recognition latency, at the cost of overlapping
	// (largely redundant) classifier invocations.
	Sliding WindowPolicy = iota

	// RefillAfterInference clears the buffer after each emitted window, so
	// the next window needs a full refill. One inference per WindowSize
	// frames, at the cost of up to a full window of added latency.
	RefillAfterInference
)

// Window is an immutable snapshot of a completed feature window:
// Frames rows of Dim scaled values, flattened row-major into Data.
type Window struct {
	Data   []float64
	Frames int
	Dim    int
}

// Config holds extractor configuration.
type Config struct {
	WindowSize int
	FrameDim   int
	Policy     WindowPolicy
}

// DefaultConfig returns the extractor configuration matching the shipped
// classifier model.
func DefaultConfig() Config {
	return Config{
		WindowSize: DefaultWindowSize,
		FrameDim:   FrameDim,
		Policy:     Sliding,
	}
}

// Extractor maintains a fixed-capacity FIFO of per-frame feature vectors.
// Not safe for concurrent use; it is owned by the pipeline worker.
type Extractor struct {
	config Config
	buf    [][]float64 // ring storage, oldest first
}

// NewExtractor creates an Extractor. The configured FrameDim must match the
// width produced by Vector; anything else is a fatal configuration error.
func NewExtractor(config Config) (*Extractor, error) {
	if config.WindowSize <= 0 {
		return nil, fmt.Errorf("feature: invalid window size %d", config.WindowSize)
	}
	if config.FrameDim != FrameDim {
		return nil, fmt.Errorf("%w: configured %d, layout requires %d",
			ErrDimensionMismatch, config.FrameDim, FrameDim)
	}
	return &Extractor{
		config: config,
		buf:    make([][]float64, 0, config.WindowSize),
	}, nil
}

// Vector converts a landmark frame into the fixed per-frame feature vector.
// The mapping is deterministic and stateless: entities are written in layout
// order, missing entities are zero-filled so the width is always FrameDim,
// and every value v is scaled by 2*clamp(v,0,1)-1 (min-max to [-1,1]).
// The scaling formula is a training-time contract, not a tunable.
func Vector(frame *detector.LandmarkFrame) []float64 {
	vec := make([]float64, FrameDim)

	if h := frame.HandBySide(detector.SideLeft); h != nil {
		writePoints(vec[0:], h.Points[:])
	}
	if h := frame.HandBySide(detector.SideRight); h != nil {
		writePoints(vec[HandDim:], h.Points[:])
	}
	if frame.Pose != nil {
		writePoints(vec[2*HandDim:], frame.Pose.Points[:])
	}
	if frame.Face != nil {
		writePoints(vec[2*HandDim+PoseDim:], frame.Face.Anchors[:])
	}

	return vec
}

func writePoints(dst []float64, points []detector.Point3D) {
	for i, p := range points {
		dst[i*3] = scale(p.X)
		dst[i*3+1] = scale(p.Y)
		dst[i*3+2] = scale(p.Z)
	}
}

// scale maps a normalized coordinate to [-1,1]: 2*clamp(v,0,1)-1.
func scale(v float64) float64 {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return 2*v - 1
}

// Process converts the frame to a feature vector and appends it to the
// window buffer. It returns (nil, nil) while the buffer is filling and a
// snapshot once the window is ready. Under the Sliding policy every call
// after the first ready window returns a fresh snapshot; under
// RefillAfterInference the buffer restarts empty after each emission.
func (e *Extractor) Process(frame *detector.LandmarkFrame) (*Window, error) {
	return e.Push(Vector(frame))
}

// Push appends a pre-computed frame vector. The vector width must match the
// configured FrameDim; a mismatch is fatal, never silently padded. The
// vector is copied, so callers may reuse their slice across frames.
func (e *Extractor) Push(vec []float64) (*Window, error) {
	if len(vec) != e.config.FrameDim {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrDimensionMismatch, len(vec), e.config.FrameDim)
	}

	if len(e.buf) == e.config.WindowSize {
		// Evict oldest: shift left by one.
		copy(e.buf, e.buf[1:])
		e.buf = e.buf[:e.config.WindowSize-1]
	}
	e.buf = append(e.buf, append([]float64(nil), vec...))

	if len(e.buf) < e.config.WindowSize {
		return nil, nil
	}

	w := e.snapshot()
	if e.config.Policy == RefillAfterInference {
		e.buf = e.buf[:0]
	}
	return w, nil
}

// Len returns the number of buffered frames.
func (e *Extractor) Len() int {
	return len(e.buf)
}

// Reset clears the window buffer, e.g. when tracking is lost.
func (e *Extractor) Reset() {
	e.buf = e.buf[:0]
}

func (e *Extractor) snapshot() *Window {
	data := make([]float64, 0, e.config.WindowSize*e.config.FrameDim)
	for _, row := range e.buf {
		data = append(data, row...)
	}
	return &Window{
		Data:   data,
		Frames: e.config.WindowSize,
		Dim:    e.config.FrameDim,
	}
}
