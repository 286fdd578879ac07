package app

import (
	"testing"
	"time"

	"github.com/expressora/expressora/internal/adapt"
	"github.com/expressora/expressora/internal/config"
	"github.com/expressora/expressora/internal/diag"
)

// feed simulates a camera delivering n frames at the given rate the way the
// pipeline does: every captured frame records, whether or not it is later
// dropped, and the controller evaluates on each one.
func feed(stats *diag.Stats, ctl *adapt.Controller, tick time.Time, n, fps int) time.Time {
	interval := time.Second / time.Duration(fps)
	for i := 0; i < n; i++ {
		stats.RecordFrame(tick)
		ctl.Evaluate(tick)
		tick = tick.Add(interval)
	}
	return tick
}

func TestAdaptiveMeasuresCaptureCadenceNotShedding(t *testing.T) {
	stats := diag.NewStats()
	cfg := config.Balanced().Adapt
	ctl := adapt.New(cfg, stats.FPS, nil, nil)

	// A healthy 15 fps camera, with the pipeline dropping every other
	// frame, still records 15 captures per second. The controller must
	// not read its own shedding as load.
	feed(stats, ctl, time.Now(), 60, 15)

	if ctl.Level() != 0 {
		t.Fatalf("level = %d, want 0 under full-rate capture", ctl.Level())
	}
}

func TestAdaptiveEscalatesAndRelaxes(t *testing.T) {
	stats := diag.NewStats()
	cfg := config.Balanced().Adapt
	ctl := adapt.New(cfg, stats.FPS, nil, nil)
	tick := time.Now()

	// Genuine starvation: capture drops to 5 fps for 10 s.
	tick = feed(stats, ctl, tick, 50, 5)
	if ctl.Level() == 0 {
		t.Fatal("controller did not escalate under real starvation")
	}

	// Recovery at full rate flushes the rolling window and the relax
	// branch walks the level back to full quality.
	feed(stats, ctl, tick, 300, 15)
	if ctl.Level() != 0 {
		t.Fatalf("level = %d, want 0 after sustained full-rate capture", ctl.Level())
	}
}
