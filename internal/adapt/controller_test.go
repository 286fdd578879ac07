package adapt

import (
	"testing"
	"time"
)

// fixedFPS returns a controller whose FPS source reads from the given
// pointer, plus recorders for both callbacks.
func fixedFPS(fps *float64) (*Controller, *[]int, *[]float64) {
	levels := &[]int{}
	degraded := &[]float64{}
	c := New(DefaultConfig(), func() float64 { return *fps },
		func(level int) { *levels = append(*levels, level) },
		func(f float64) { *degraded = append(*degraded, f) },
	)
	return c, levels, degraded
}

func TestStepsUpWhenSlow(t *testing.T) {
	fps := 10.0 // below 0.8 * 15
	c, levels, _ := fixedFPS(&fps)
	now := time.Now()

	c.Evaluate(now)
	if c.Level() != 1 {
		t.Fatalf("level = %d, want 1", c.Level())
	}
	if len(*levels) != 1 || (*levels)[0] != 1 {
		t.Fatalf("level callbacks = %v, want [1]", *levels)
	}
}

func TestAtMostOneStepPerInterval(t *testing.T) {
	fps := 5.0
	c, _, _ := fixedFPS(&fps)
	now := time.Now()

	c.Evaluate(now)
	// Calls inside the interval are ignored entirely.
	c.Evaluate(now.Add(200 * time.Millisecond))
	c.Evaluate(now.Add(900 * time.Millisecond))
	if c.Level() != 1 {
		t.Fatalf("level = %d, want 1 after rapid evaluations", c.Level())
	}

	c.Evaluate(now.Add(time.Second))
	if c.Level() != 2 {
		t.Fatalf("level = %d, want 2 after the interval elapsed", c.Level())
	}
}

func TestRelaxesWhenFast(t *testing.T) {
	fps := 5.0
	c, _, _ := fixedFPS(&fps)
	now := time.Now()

	c.Evaluate(now)
	c.Evaluate(now.Add(time.Second))
	if c.Level() != 2 {
		t.Fatalf("setup level = %d, want 2", c.Level())
	}

	// Recovered well past the upper threshold (1.2 * 15 = 18).
	fps = 20.0
	c.Evaluate(now.Add(2 * time.Second))
	if c.Level() != 1 {
		t.Fatalf("level = %d, want 1 after recovery step", c.Level())
	}
	c.Evaluate(now.Add(3 * time.Second))
	if c.Level() != 0 {
		t.Fatalf("level = %d, want 0 after full recovery", c.Level())
	}
}

func TestDeadBandHolds(t *testing.T) {
	fps := 15.0 // inside [12, 18]
	c, levels, _ := fixedFPS(&fps)
	now := time.Now()

	for i := 0; i < 5; i++ {
		c.Evaluate(now.Add(time.Duration(i) * time.Second))
	}
	if c.Level() != 0 || len(*levels) != 0 {
		t.Fatalf("level = %d callbacks = %v, want no movement in the dead band", c.Level(), *levels)
	}
}

func TestLevelNeverExceedsMax(t *testing.T) {
	fps := 1.0
	c, _, _ := fixedFPS(&fps)
	now := time.Now()

	for i := 0; i < 10; i++ {
		c.Evaluate(now.Add(time.Duration(i) * time.Second))
	}
	if c.Level() != MaxLevel {
		t.Fatalf("level = %d, want pinned at %d", c.Level(), MaxLevel)
	}
}

func TestDegradedNotificationFiresOnce(t *testing.T) {
	fps := 1.0
	c, _, degraded := fixedFPS(&fps)
	now := time.Now()

	// Drive to max level, then sit there long enough to cross
	// DegradedAfter consecutive evaluations.
	for i := 0; i < 12; i++ {
		c.Evaluate(now.Add(time.Duration(i) * time.Second))
	}
	if len(*degraded) != 1 {
		t.Fatalf("degraded notifications = %d, want exactly 1", len(*degraded))
	}

	// Recovery clears the episode; a fresh one may notify again.
	fps = 20.0
	c.Evaluate(now.Add(13 * time.Second))
	fps = 1.0
	for i := 14; i < 22; i++ {
		c.Evaluate(now.Add(time.Duration(i) * time.Second))
	}
	if len(*degraded) != 2 {
		t.Fatalf("degraded notifications = %d, want 2 after a second episode", len(*degraded))
	}
}

func TestNoDataNoMovement(t *testing.T) {
	fps := 0.0
	c, levels, _ := fixedFPS(&fps)
	c.Evaluate(time.Now())
	if c.Level() != 0 || len(*levels) != 0 {
		t.Fatal("controller moved with no FPS data")
	}
}

func TestModeLabel(t *testing.T) {
	fps := 1.0
	c, _, _ := fixedFPS(&fps)
	if c.ModeLabel() != "full" {
		t.Fatalf("initial mode = %q, want full", c.ModeLabel())
	}

	now := time.Now()
	c.Evaluate(now)
	if c.ModeLabel() != "reduced" {
		t.Fatalf("mode after one step = %q, want reduced", c.ModeLabel())
	}
	if c.FrameSkip() != 1 {
		t.Fatalf("frame skip = %d, want 1", c.FrameSkip())
	}
}
