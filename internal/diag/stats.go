// Package diag provides the injectable observability state shared by the
// pipeline and the diagnostics surface. Counters are explicit and owned, not
// ambient globals, so tests can swap in a fresh instance.
package diag

import (
	"sync"
	"sync/atomic"
	"time"
)

// FPSWindow is the number of recent frame intervals the FPS estimate
// averages over.
const FPSWindow = 120

// Stats holds the pipeline's diagnostic counters and the rolling frame-rate
// estimate. Safe for concurrent use.
type Stats struct {
	FramesSeen         atomic.Uint64
	FramesProcessed    atomic.Uint64
	FramesDropped      atomic.Uint64
	Detections         atomic.Uint64
	Inferences         atomic.Uint64
	TokensAccepted     atomic.Uint64
	SequencesCommitted atomic.Uint64

	mu        sync.Mutex
	intervals [FPSWindow]time.Duration
	idx       int
	count     int
	last      time.Time
}

// NewStats creates an empty Stats instance.
func NewStats() *Stats {
	return &Stats{}
}

// RecordFrame notes a captured frame at the given instant and folds the
// interval since the previous frame into the rolling window. Every frame
// read from the camera records, including frames the pipeline then drops,
// so FPS measures capture cadence rather than downstream shedding.
func (s *Stats) RecordFrame(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.last.IsZero() {
		s.intervals[s.idx] = now.Sub(s.last)
		s.idx = (s.idx + 1) % FPSWindow
		if s.count < FPSWindow {
			s.count++
		}
	}
	s.last = now
}

// FPS returns the realized frame rate over the rolling window, or 0 before
// any intervals have been recorded.
func (s *Stats) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < s.count; i++ {
		total += s.intervals[i]
	}
	if total <= 0 {
		return 0
	}
	return float64(s.count) / total.Seconds()
}

// Snapshot is a read-only copy of the counters for the diagnostics API.
type Snapshot struct {
	FPS                float64 `json:"fps"`
	FramesSeen         uint64  `json:"framesSeen"`
	FramesProcessed    uint64  `json:"framesProcessed"`
	FramesDropped      uint64  `json:"framesDropped"`
	Detections         uint64  `json:"detections"`
	Inferences         uint64  `json:"inferences"`
	TokensAccepted     uint64  `json:"tokensAccepted"`
	SequencesCommitted uint64  `json:"sequencesCommitted"`
}

// Read returns a consistent snapshot of all counters.
func (s *Stats) Read() Snapshot {
	return Snapshot{
		FPS:                s.FPS(),
		FramesSeen:         s.FramesSeen.Load(),
		FramesProcessed:    s.FramesProcessed.Load(),
		FramesDropped:      s.FramesDropped.Load(),
		Detections:         s.Detections.Load(),
		Inferences:         s.Inferences.Load(),
		TokensAccepted:     s.TokensAccepted.Load(),
		SequencesCommitted: s.SequencesCommitted.Load(),
	}
}
