// Package adapt holds the pipeline's frame rate near a target by stepping a
// discrete load level up and down. It is a two-threshold ratchet with a
// cooldown, not a proportional controller.
package adapt

import (
	"sync"
	"time"
)

// MaxLevel is the deepest load-shedding level. Level 0 is full quality;
// each level above it increases frame skip and slows the detect cadence.
const MaxLevel = 3

// ModeLabels maps load levels to the labels shown on the diagnostics
// surface.
var ModeLabels = [MaxLevel + 1]string{"full", "reduced", "low", "minimal"}

// Config holds the controller parameters.
type Config struct {
	// TargetFPS is the frame rate the pipeline tries to hold.
	TargetFPS float64

	// Interval is both how often Evaluate acts and the minimum gap between
	// two step changes; at most one step per interval prevents oscillation.
	Interval time.Duration

	// LowRatio / HighRatio bound the dead band: below LowRatio*target the
	// level steps up, above HighRatio*target it relaxes back down.
	LowRatio  float64
	HighRatio float64

	// DegradedAfter is the number of consecutive evaluations pinned at
	// MaxLevel with FPS still low before the degraded-performance
	// notification fires. Surfaced as a notice, never an error.
	DegradedAfter int
}

// DefaultConfig returns the production controller parameters.
func DefaultConfig() Config {
	return Config{
		TargetFPS:     15,
		Interval:      time.Second,
		LowRatio:      0.8,
		HighRatio:     1.2,
		DegradedAfter: 5,
	}
}

// Controller samples realized FPS and nudges the load level. Safe for
// concurrent use.
type Controller struct {
	config Config
	fps    func() float64

	onChange   func(level int)
	onDegraded func(fps float64)

	mu             sync.Mutex
	level          int
	lastStep       time.Time
	lastEval       time.Time
	degradedStreak int
	notified       bool
}

// New creates a Controller. fps supplies the realized frame rate (typically
// diag.Stats.FPS). onChange fires on every level step; onDegraded fires
// once per sustained-degradation episode. Either callback may be nil.
func New(config Config, fps func() float64, onChange func(level int), onDegraded func(fps float64)) *Controller {
	if onChange == nil {
		onChange = func(int) {}
	}
	if onDegraded == nil {
		onDegraded = func(float64) {}
	}
	return &Controller{
		config:     config,
		fps:        fps,
		onChange:   onChange,
		onDegraded: onDegraded,
	}
}

// Evaluate runs one control step at the given instant. Calls more frequent
// than Interval are ignored, and a step change starts a fresh cooldown.
func (c *Controller) Evaluate(now time.Time) {
	c.mu.Lock()

	if !c.lastEval.IsZero() && now.Sub(c.lastEval) < c.config.Interval {
		c.mu.Unlock()
		return
	}
	c.lastEval = now

	fps := c.fps()
	if fps <= 0 {
		c.mu.Unlock()
		return
	}

	var changed int = -1
	low := fps < c.config.LowRatio*c.config.TargetFPS
	high := fps > c.config.HighRatio*c.config.TargetFPS
	canStep := c.lastStep.IsZero() || now.Sub(c.lastStep) >= c.config.Interval

	switch {
	case low && c.level < MaxLevel && canStep:
		c.level++
		c.lastStep = now
		changed = c.level
	case high && c.level > 0 && canStep:
		c.level--
		c.lastStep = now
		changed = c.level
	}

	var degraded float64 = -1
	if low && c.level == MaxLevel {
		c.degradedStreak++
		if c.degradedStreak >= c.config.DegradedAfter && !c.notified {
			c.notified = true
			degraded = fps
		}
	} else {
		c.degradedStreak = 0
		c.notified = false
	}

	c.mu.Unlock()

	if changed >= 0 {
		c.onChange(changed)
	}
	if degraded >= 0 {
		c.onDegraded(degraded)
	}
}

// Level returns the current load level (0 = full quality).
func (c *Controller) Level() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// ModeLabel returns the diagnostics label for the current level.
func (c *Controller) ModeLabel() string {
	return ModeLabels[c.Level()]
}

// FrameSkip returns how many frames to drop between processed frames at the
// current level (0 = process every frame).
func (c *Controller) FrameSkip() int {
	return c.Level()
}
