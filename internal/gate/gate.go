// Package gate decides, per frame, whether detected landmarks are
// trustworthy and whether they carry enough motion to be worth classifying.
package gate

import (
	"github.com/expressora/expressora/internal/detector"
)

// Decision is the gate's verdict for one frame.
type Decision int

const (
	// Process admits the frame to feature extraction and classification.
	Process Decision = iota
	// Skip keeps tracking state but withholds the frame from the
	// classifier (no acquired entity, or the hands have gone still).
	Skip
	// Reject marks the detections untrustworthy (ghost hand or missing
	// skeletal anchor) and clears any in-progress acquisition.
	Reject
)

func (d Decision) String() string {
	switch d {
	case Process:
		return "process"
	case Skip:
		return "skip"
	case Reject:
		return "reject"
	}
	return "unknown"
}

// Config holds the gate thresholds.
type Config struct {
	// MinTrust is the minimum pose-wrist visibility required before a hand
	// detection on that side is trusted at all.
	MinTrust float64

	// MinSpan is the minimum wrist-to-middle-fingertip span. Ghost hands
	// collapse to a tiny point; real hands rarely drop below 8% of frame.
	MinSpan float64

	// AcquireFrames / AcquireConfidence: entering "acquired" requires this
	// many consecutive frames at or above this confidence.
	AcquireFrames     int
	AcquireConfidence float64

	// HoldFrames / HoldConfidence: staying acquired only requires this many
	// consecutive frames at or above this (lower) confidence. Harder to
	// start tracking than to keep tracking, which suppresses flicker
	// without adding lag mid-gesture.
	HoldFrames     int
	HoldConfidence float64

	// MotionThreshold is the mean per-landmark displacement below which a
	// frame counts as still.
	MotionThreshold float64

	// SkipAfterStillFrames: after this many consecutive still frames an
	// acquired entity stops feeding the classifier until it moves again.
	SkipAfterStillFrames int
}

// DefaultConfig returns the gate thresholds used in production.
func DefaultConfig() Config {
	return Config{
		MinTrust:             0.5,
		MinSpan:              0.08,
		AcquireFrames:        2,
		AcquireConfidence:    0.7,
		HoldFrames:           1,
		HoldConfidence:       0.4,
		MotionThreshold:      0.01,
		SkipAfterStillFrames: 3,
	}
}

// entityState is the per-hand hysteresis state machine.
type entityState struct {
	acquired   bool
	consistent int // consecutive frames meeting the current threshold
	still      int // consecutive still frames while acquired
	prev       *detector.Hand
}

// Gate applies cross-validation, asymmetric hysteresis and the motion
// filter to landmark frames. Not safe for concurrent use; owned by the
// pipeline worker.
type Gate struct {
	config   Config
	entities map[string]*entityState
}

// New creates a Gate with the given configuration.
func New(config Config) *Gate {
	return &Gate{
		config: config,
		entities: map[string]*entityState{
			detector.SideLeft:  {},
			detector.SideRight: {},
		},
	}
}

// Admit evaluates one landmark frame and returns the gate decision.
//
// Per entity: the hand must pass cross-validation (supporting pose wrist at
// MinTrust visibility, span at least MinSpan) before its confidence feeds
// the hysteresis machine. The frame decision aggregates entities: Process
// if any acquired entity is in motion, Skip if acquired entities have gone
// still or nothing is acquired yet, Reject if the only detections present
// failed cross-validation.
func (g *Gate) Admit(frame *detector.LandmarkFrame) Decision {
	anyAcquired := false
	anyMoving := false
	rejected := false

	for side, st := range g.entities {
		hand := frame.HandBySide(side)
		if hand == nil {
			g.observeAbsent(st)
			continue
		}

		if !g.crossValidate(hand, frame.Pose, side) {
			// Untrusted detection: drop acquisition outright.
			st.acquired = false
			st.consistent = 0
			st.still = 0
			st.prev = nil
			rejected = true
			continue
		}

		g.observe(st, hand)
		if st.acquired {
			anyAcquired = true
			if st.still < g.config.SkipAfterStillFrames {
				anyMoving = true
			}
		}
	}

	switch {
	case anyAcquired && anyMoving:
		return Process
	case anyAcquired:
		return Skip
	case rejected && !g.anyTrustedPresent(frame):
		return Reject
	default:
		return Skip
	}
}

// Acquired reports whether the entity on the given side is currently
// acquired.
func (g *Gate) Acquired(side string) bool {
	st, ok := g.entities[side]
	return ok && st.acquired
}

// Reset clears all tracking state, e.g. on session switch.
func (g *Gate) Reset() {
	for _, st := range g.entities {
		*st = entityState{}
	}
}

// crossValidate checks the auxiliary signals that must hold before a hand
// detection is believed: a plausible skeletal anchor and a non-collapsed
// span.
func (g *Gate) crossValidate(hand *detector.Hand, pose *detector.Pose, side string) bool {
	if hand.Span() < g.config.MinSpan {
		return false
	}
	if pose == nil {
		return false
	}
	idx := detector.PoseLeftWrist
	if side == detector.SideRight {
		idx = detector.PoseRightWrist
	}
	return pose.Visibility[idx] >= g.config.MinTrust
}

// observe advances the hysteresis machine for a trusted hand observation.
func (g *Gate) observe(st *entityState, hand *detector.Hand) {
	if st.acquired {
		if hand.Score >= g.config.HoldConfidence {
			st.consistent++
		} else {
			st.consistent = 0
		}
		if st.consistent < g.config.HoldFrames {
			// Lost hold: back to searching.
			st.acquired = false
			st.still = 0
			st.prev = nil
			return
		}

		// Motion filter only applies while acquired.
		if hand.MeanDisplacement(st.prev) < g.config.MotionThreshold {
			st.still++
		} else {
			st.still = 0
		}
		prev := *hand
		st.prev = &prev
		return
	}

	if hand.Score >= g.config.AcquireConfidence {
		st.consistent++
	} else {
		st.consistent = 0
	}
	if st.consistent >= g.config.AcquireFrames {
		st.acquired = true
		st.consistent = g.config.HoldFrames // seed the hold counter
		st.still = 0
		prev := *hand
		st.prev = &prev
	}
}

// observeAbsent handles a frame where the entity was not detected at all.
// Absence counts as zero confidence, which breaks both acquire and hold.
func (g *Gate) observeAbsent(st *entityState) {
	st.consistent = 0
	st.still = 0
	if st.acquired {
		st.acquired = false
		st.prev = nil
	}
}

func (g *Gate) anyTrustedPresent(frame *detector.LandmarkFrame) bool {
	for side := range g.entities {
		if hand := frame.HandBySide(side); hand != nil {
			if g.crossValidate(hand, frame.Pose, side) {
				return true
			}
		}
	}
	return false
}
