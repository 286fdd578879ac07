// Package smooth turns raw per-window classifier output into a low-noise
// stream of accepted gloss tokens via exponential smoothing, cooldowns and
// debounce rules.
package smooth

import (
	"time"

	"github.com/expressora/expressora/internal/classify"
)

// Strategy selects the debounce behavior for an input source.
type Strategy int

const (
	// MultiFrameStable additionally requires the raw top label to repeat
	// for StrategyStableFrames consecutive windows before a candidate may
	// pass the gates. Used for live camera input, where single-window
	// flicker is common.
	MultiFrameStable Strategy = iota

	// SingleShotWithCooldown relies on the confidence and cooldown gates
	// alone. Used for pre-recorded input, where every window is deliberate.
	SingleShotWithCooldown
)

// Verdict is the outcome of observing one raw classifier result.
type Verdict int

const (
	// Accepted means the token passed every gate and should be
	// accumulated.
	Accepted Verdict = iota
	// RejectedNoResult means the classifier produced the sentinel.
	RejectedNoResult
	// RejectedUnstable means the raw label has not repeated for enough
	// consecutive windows (MultiFrameStable only).
	RejectedUnstable
	// RejectedConfidence means the smoothed score is below the floor.
	RejectedConfidence
	// RejectedCapacity means the accumulator is full and must be flushed.
	RejectedCapacity
	// RejectedCooldown means too little time has passed since the last
	// accepted token.
	RejectedCooldown
	// RejectedSameLabel means a repeat of the previous token arrived
	// before the longer same-label cooldown elapsed.
	RejectedSameLabel
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectedNoResult:
		return "no result"
	case RejectedUnstable:
		return "unstable"
	case RejectedConfidence:
		return "low confidence"
	case RejectedCapacity:
		return "buffer full"
	case RejectedCooldown:
		return "cooldown"
	case RejectedSameLabel:
		return "same-label cooldown"
	}
	return "unknown"
}

// Config holds the smoothing and debounce parameters.
type Config struct {
	// Alpha is the EMA factor: smoothed = raw*Alpha + prev*(1-Alpha).
	Alpha float64

	// MinSmoothedConfidence rejects labels whose smoothed score is below
	// this floor. Checked before any other gate.
	MinSmoothedConfidence float64

	// TransitionCooldown is the minimum gap between any two accepted
	// tokens.
	TransitionCooldown time.Duration

	// SameLabelCooldown replaces TransitionCooldown when the candidate
	// equals the previously accepted label: repeating a sign requires a
	// deliberate pause, which separates "held pose read twice" from "two
	// repetitions".
	SameLabelCooldown time.Duration

	// Strategy selects the debounce behavior.
	Strategy Strategy

	// StrategyStableFrames is the consecutive-window agreement required by
	// MultiFrameStable before a candidate enters the gates.
	StrategyStableFrames int

	// DisplayStableFrames gates how often the UI-facing label updates.
	// Display smoothness and sequence correctness are different concerns
	// and deliberately do not share a threshold.
	DisplayStableFrames int
}

// DefaultConfig returns the production smoothing parameters.
func DefaultConfig() Config {
	return Config{
		Alpha:                 0.7,
		MinSmoothedConfidence: 0.65,
		TransitionCooldown:    600 * time.Millisecond,
		SameLabelCooldown:     1500 * time.Millisecond,
		Strategy:              MultiFrameStable,
		StrategyStableFrames:  3,
		DisplayStableFrames:   2,
	}
}

// Smoother applies the acceptance gates in order. Not safe for concurrent
// use; owned by the pipeline worker.
type Smoother struct {
	config     Config
	atCapacity func() bool

	smoothed map[string]float64

	lastAcceptedLabel string
	lastAcceptedAt    time.Time
	everAccepted      bool

	// raw-window agreement streak, shared input to the stability strategy
	// and the display gate (each with its own threshold)
	streakLabel string
	streak      int

	displayLabel string
}

// New creates a Smoother. atCapacity is queried for the sentence-cap gate;
// nil means no cap gate.
func New(config Config, atCapacity func() bool) *Smoother {
	if atCapacity == nil {
		atCapacity = func() bool { return false }
	}
	return &Smoother{
		config:     config,
		atCapacity: atCapacity,
		smoothed:   make(map[string]float64),
	}
}

// Observe processes one raw classifier result at the given time and returns
// the verdict. On Accepted the caller appends the label to the accumulator.
//
// Gate order is part of the contract:
//  1. the EMA for the label updates unconditionally (so it cannot go stale
//     across a run of rejections), then the smoothed score is checked;
//  2. sentence-cap check;
//  3. transition cooldown;
//  4. same-label debounce.
func (s *Smoother) Observe(r classify.RecognitionResult, now time.Time) Verdict {
	if r.None() {
		s.streakLabel = ""
		s.streak = 0
		return RejectedNoResult
	}

	// Raw agreement streak feeds both the stability strategy and the
	// display gate.
	if r.Label == s.streakLabel {
		s.streak++
	} else {
		s.streakLabel = r.Label
		s.streak = 1
	}
	if s.streak >= s.config.DisplayStableFrames {
		s.displayLabel = r.Label
	}

	// Gate 1: unconditional EMA update, then the confidence floor.
	prev, seen := s.smoothed[r.Label]
	var smoothed float64
	if seen {
		smoothed = r.Confidence*s.config.Alpha + prev*(1-s.config.Alpha)
	} else {
		smoothed = r.Confidence
	}
	s.smoothed[r.Label] = smoothed

	if smoothed < s.config.MinSmoothedConfidence {
		return RejectedConfidence
	}

	if s.config.Strategy == MultiFrameStable && s.streak < s.config.StrategyStableFrames {
		return RejectedUnstable
	}

	// Gate 2: sentence cap.
	if s.atCapacity() {
		return RejectedCapacity
	}

	// Gates 3 and 4: cooldowns, keyed off the last accepted token.
	if s.everAccepted {
		elapsed := now.Sub(s.lastAcceptedAt)
		if r.Label == s.lastAcceptedLabel {
			if elapsed < s.config.SameLabelCooldown {
				return RejectedSameLabel
			}
		} else if elapsed < s.config.TransitionCooldown {
			return RejectedCooldown
		}
	}

	s.lastAcceptedLabel = r.Label
	s.lastAcceptedAt = now
	s.everAccepted = true
	return Accepted
}

// Smoothed returns the current EMA score for a label (zero if never seen).
func (s *Smoother) Smoothed(label string) float64 {
	return s.smoothed[label]
}

// DisplayLabel returns the UI-facing label: the most recent raw label that
// held for DisplayStableFrames consecutive windows. Independent of token
// acceptance.
func (s *Smoother) DisplayLabel() string {
	return s.displayLabel
}

// Reset clears all smoothing state, e.g. on session switch.
func (s *Smoother) Reset() {
	s.smoothed = make(map[string]float64)
	s.lastAcceptedLabel = ""
	s.lastAcceptedAt = time.Time{}
	s.everAccepted = false
	s.streakLabel = ""
	s.streak = 0
	s.displayLabel = ""
}
