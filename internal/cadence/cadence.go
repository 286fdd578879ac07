// Package cadence decides, per frame, whether to run full (expensive)
// landmark detection or cheap tracking, and adapts that rate when tracking
// drifts.
package cadence

// Config holds the cadence controller parameters.
type Config struct {
	// Interval is the default detect-every-N-frames cadence. Frames in
	// between reuse the previous detection (tracking).
	Interval int

	// DriftThreshold is the number of consecutive frames a previously
	// tracked entity may be absent before the watchdog fires.
	DriftThreshold int
}

// DefaultConfig returns the production cadence parameters.
func DefaultConfig() Config {
	return Config{
		Interval:       5,
		DriftThreshold: 3,
	}
}

// Controller is a discrete control loop over the detect/track cadence.
// State transitions are edge-triggered on loss and recovery events; nothing
// is continuously computed. Not safe for concurrent use; owned by the
// pipeline worker.
type Controller struct {
	config Config

	interval     int  // current cadence (may be halved under drift)
	countdown    int  // frames remaining until the next full detection
	forceDetect  bool // watchdog demanded an immediate full detection
	tracked      bool // an entity was present on the last detection
	lossStreak   int  // consecutive frames with a previously-tracked entity absent
	driftEpisode int  // consecutive drift episodes (3 in a row = sustained)
	sustained    bool // cadence stays halved until a full stable cycle
	stableStreak int  // consecutive entity-present frames while recovering
}

// New creates a Controller with the given configuration.
func New(config Config) *Controller {
	if config.Interval < 1 {
		config.Interval = 1
	}
	return &Controller{
		config:   config,
		interval: config.Interval,
	}
}

// ShouldDetect reports whether the given frame should run full detection.
// Frame indices are only used for bookkeeping; the decision depends on the
// controller's own counters so that cadence halving takes effect
// immediately rather than at the next multiple.
func (c *Controller) ShouldDetect(frameIndex int) bool {
	if c.forceDetect || c.countdown <= 0 {
		c.forceDetect = false
		c.countdown = c.interval - 1
		return true
	}
	c.countdown--
	return false
}

// OnResult feeds back the number of entities found on this frame (detected
// or tracked). It drives the drift watchdog: repeated loss of a previously
// tracked entity halves the cadence (floor 1) and forces an immediate full
// detection; three drift episodes in a row count as sustained drift, and
// cadence stays halved until tracking holds for a full default cycle.
func (c *Controller) OnResult(entitiesFound int) {
	if entitiesFound > 0 {
		c.lossStreak = 0
		c.tracked = true

		if c.interval < c.config.Interval {
			c.stableStreak++
			if c.stableStreak >= c.config.Interval {
				// Stable for a full cadence cycle: recover.
				c.interval = c.config.Interval
				c.sustained = false
				c.driftEpisode = 0
				c.stableStreak = 0
			}
		} else {
			c.driftEpisode = 0
		}
		return
	}

	c.stableStreak = 0
	if !c.tracked {
		return // never had anything to lose
	}

	c.lossStreak++
	if c.lossStreak > c.config.DriftThreshold {
		c.lossStreak = 0
		c.tracked = false
		c.driftEpisode++
		if c.driftEpisode >= 3 {
			c.sustained = true
		}

		c.interval /= 2
		if c.interval < 1 {
			c.interval = 1
		}
		c.forceDetect = true
	}
}

// Interval returns the current cadence interval.
func (c *Controller) Interval() int {
	return c.interval
}

// Sustained reports whether the watchdog considers the drift sustained
// (repeated episodes, not transient occlusion).
func (c *Controller) Sustained() bool {
	return c.sustained
}

// SetBaseInterval replaces the default cadence, used by the adaptive
// resource controller when stepping load levels. The current interval is
// re-based unless the watchdog is holding it halved.
func (c *Controller) SetBaseInterval(interval int) {
	if interval < 1 {
		interval = 1
	}
	c.config.Interval = interval
	if !c.sustained && c.interval > 0 {
		c.interval = interval
	}
}

// Reset restores the controller to its initial state, e.g. on session
// switch.
func (c *Controller) Reset() {
	base := c.config.Interval
	*c = Controller{config: c.config, interval: base}
}
