// Package app wires the capture, detection, recognition and persistence
// layers together and runs the recognition pipeline.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/expressora/expressora/internal/capture"
	"github.com/expressora/expressora/internal/classify"
	"github.com/expressora/expressora/internal/config"
	"github.com/expressora/expressora/internal/detector"
	"github.com/expressora/expressora/internal/diag"
	"github.com/expressora/expressora/internal/sequence"
	"github.com/expressora/expressora/internal/store"
)

// Pipeline timing constants.
const (
	// SilenceTimeout is how long the accumulator may sit non-empty without
	// a new accepted token before it commits on its own.
	SilenceTimeout = 2 * time.Second

	// ToneThreshold is the minimum tone confidence before a tone annotation
	// is attached to the pending sequence.
	ToneThreshold = 0.80

	// MotionIdleTimeout is how long after the last pixel motion the
	// pipeline keeps running the expensive stages.
	MotionIdleTimeout = 2 * time.Second

	// MotionThreshold is the percentage of changed pixels that counts as
	// motion for the cheap pre-gate.
	MotionThreshold = 1.0
)

// Publisher receives recognition events for broadcast. Satisfied by
// server.EventHub.
type Publisher interface {
	Publish(eventType string, data any)
}

// nopPublisher discards events when no hub is attached.
type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

// Config holds configuration options for the application.
type Config struct {
	Store     *store.Store
	CameraID  int
	Profile   config.Profile
	Publisher Publisher
}

// App is the main application that orchestrates sign recognition.
type App struct {
	profiles  *config.Holder
	store     *store.Store
	stats     *diag.Stats
	publisher Publisher

	camera capture.Camera
	motion *capture.MotionDetector

	mu          sync.RWMutex
	det         detector.Detector
	classifier  *classify.Adapter
	tones       classify.ToneClassifier
	accumulator *sequence.Accumulator
	enabled     bool
	mode        string
	stopCh      chan struct{}
	done        chan struct{}
}

// New creates a new App instance with the given configuration.
func New(cfg Config) *App {
	pub := cfg.Publisher
	if pub == nil {
		pub = nopPublisher{}
	}

	a := &App{
		profiles:  config.NewHolder(cfg.Profile),
		store:     cfg.Store,
		stats:     diag.NewStats(),
		publisher: pub,
		camera:    capture.NewCamera(cfg.CameraID),
		motion:    capture.NewMotionDetector(MotionThreshold),
		mode:      "full",
	}

	a.accumulator = sequence.New(cfg.Profile.Sequence, a.onSequence, a.onWord)

	// Try the MediaPipe holistic service first, fall back to mock.
	if hd, err := detector.NewHolisticDetector(cfg.Profile.Detector); err == nil {
		a.det = hd
		log.Println("Using MediaPipe holistic landmark detection")
	} else {
		log.Printf("Holistic service not available (%v), using mock detector", err)
		a.det = detector.NewMockDetector()
	}

	a.setClassifier(cfg.Profile.Variant)

	return a
}

// setClassifier builds the classifier backend for a model variant,
// preferring the TFLite service and falling back to mock.
func (a *App) setClassifier(variant string) {
	var backend classify.Classifier
	if svc, err := classify.NewServiceClassifier(variant); err == nil {
		backend = svc
		log.Printf("Using TFLite model service (variant %s)", variant)
	} else {
		log.Printf("Model service not available (%v), using mock classifier", err)
		backend = classify.NewMockClassifier()
	}

	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			log.Printf("Error closing classifier: %v", err)
		}
	}
	a.classifier = classify.NewAdapter(backend)

	// The tone head ships with the gloss model; not every backend has one.
	if tc, ok := backend.(classify.ToneClassifier); ok {
		a.tones = tc
	} else {
		a.tones = nil
	}
}

// SeedVocabulary populates an empty vocabulary with the development gloss
// set plus the fingerspelling alphabet.
func (a *App) SeedVocabulary() error {
	if a.store == nil {
		return nil
	}
	return a.store.Glosses().Seed(classify.SampleGlosses, "FSL")
}

// SetEnabled enables or disables recognition.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether recognition is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the landmark detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.det = d
}

// SetCamera replaces the camera, for tests that feed recorded frames.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetClassifierBackend replaces the classifier backend, for tests.
func (a *App) SetClassifierBackend(backend classify.Classifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.classifier = classify.NewAdapter(backend)
	if tc, ok := backend.(classify.ToneClassifier); ok {
		a.tones = tc
	} else {
		a.tones = nil
	}
}

// Profile returns the active profile.
func (a *App) Profile() config.Profile {
	return a.profiles.Current()
}

// SwitchProfile switches the active profile by name. A running pipeline is
// restarted so every stage picks up the new parameters; the classifier is
// rebuilt for the profile's model variant.
func (a *App) SwitchProfile(name string) error {
	p, err := a.profiles.Switch(name)
	if err != nil {
		return err
	}

	a.mu.Lock()
	running := a.stopCh != nil
	a.setClassifier(p.Variant)
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.Settings().Set(store.SettingProfile, p.Name); err != nil {
			log.Printf("Failed to persist profile setting: %v", err)
		}
	}

	if running {
		a.Stop()
		return a.Start()
	}
	return nil
}

// Mode returns the adaptive load level label for diagnostics.
func (a *App) Mode() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode string) {
	a.mu.Lock()
	a.mode = mode
	a.mu.Unlock()
}

// Stats returns the pipeline diagnostics counters.
func (a *App) Stats() *diag.Stats {
	return a.stats
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Classifier returns the classifier adapter.
func (a *App) Classifier() *classify.Adapter {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.classifier
}

// Accumulator returns the sequence accumulator.
func (a *App) Accumulator() *sequence.Accumulator {
	return a.accumulator
}

// Backspace removes the most recent token from the in-progress buffer.
func (a *App) Backspace() {
	a.accumulator.Backspace()
	a.publishBuffer()
}

// ClearBuffer discards the in-progress buffer without committing.
func (a *App) ClearBuffer() {
	a.accumulator.Clear()
	a.publishBuffer()
}

// CommitBuffer flushes the in-progress buffer immediately.
func (a *App) CommitBuffer() {
	a.accumulator.Commit(time.Now())
	a.publishBuffer()
}

// Start begins the recognition pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.profiles.Current().CameraFPS)

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Println("Recognition pipeline started")
	return nil
}

// Stop halts the recognition pipeline and releases capture resources. The
// detector and classifier survive a stop so a later Start reuses them.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.done = nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Reset()

	log.Println("Recognition pipeline stopped")
}

// Close releases everything, for shutdown.
func (a *App) Close() {
	a.Stop()
	a.motion.Close()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.det != nil {
		if err := a.det.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			log.Printf("Error closing classifier: %v", err)
		}
	}
}

// onSequence persists and broadcasts a committed sequence.
func (a *App) onSequence(c sequence.Committed) {
	log.Printf("Sequence committed: %v (tone %s, confidence %.2f)", c.Tokens, c.Tone, c.Confidence)
	a.stats.SequencesCommitted.Add(1)

	if a.store != nil {
		rec := &store.Sequence{
			ID:         c.ID.String(),
			Kind:       store.KindSequence,
			Tokens:     c.Tokens,
			Origin:     c.Origin,
			Confidence: c.Confidence,
			Tone:       c.Tone,
			CreatedAt:  c.Timestamp,
		}
		if err := a.store.Sequences().Create(rec); err != nil {
			log.Printf("Failed to persist sequence: %v", err)
		}
	}

	a.publisher.Publish("sequence", c)
	a.publishBuffer()
}

// onWord persists and broadcasts a committed fingerspelled word.
func (a *App) onWord(w sequence.WordCommitted) {
	log.Printf("Word committed: %s", w.Word)

	if a.store != nil {
		rec := &store.Sequence{
			ID:        newSequenceID(),
			Kind:      store.KindWord,
			Tokens:    []string{w.Word},
			CreatedAt: w.Timestamp,
		}
		if err := a.store.Sequences().Create(rec); err != nil {
			log.Printf("Failed to persist word: %v", err)
		}
	}

	a.publisher.Publish("word", w)
	a.publishBuffer()
}

func newSequenceID() string {
	return uuid.NewString()
}

// publishBuffer broadcasts the current in-progress buffer contents.
func (a *App) publishBuffer() {
	tokens, word := a.accumulator.Snapshot()
	a.publisher.Publish("buffer", map[string]any{
		"tokens": tokens,
		"word":   word,
	})
}
