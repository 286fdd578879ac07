package app

import (
	"errors"
	"log"
	"time"

	"github.com/expressora/expressora/internal/adapt"
	"github.com/expressora/expressora/internal/cadence"
	"github.com/expressora/expressora/internal/classify"
	"github.com/expressora/expressora/internal/detector"
	"github.com/expressora/expressora/internal/feature"
	"github.com/expressora/expressora/internal/gate"
	"github.com/expressora/expressora/internal/smooth"
)

// runPipeline is the recognition loop. One goroutine owns every stage; the
// stages themselves are not concurrency-safe and never need to be.
//
// Per frame:
//  1. adaptive frame skip, then the cheap pixel motion pre-gate
//  2. full landmark detection or tracked reuse, per the cadence controller
//  3. hands-down posture check (flushes the accumulator)
//  4. trust/motion gate
//  5. feature window, classifier, smoother, accumulator
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	a.mu.RLock()
	profile := a.profiles.Current()
	camera := a.camera
	det := a.det
	classifier := a.classifier
	tones := a.tones
	a.mu.RUnlock()

	g := gate.New(profile.Gate)
	cad := cadence.New(profile.Cadence)
	smoother := smooth.New(profile.Smooth, a.accumulator.Full)
	handsDown := gate.NewHandsDown()

	extractor, err := feature.NewExtractor(profile.Feature)
	if err != nil {
		// Misconfigured feature layout would feed the classifier garbage.
		log.Printf("Pipeline aborted: %v", err)
		return
	}

	adaptCtl := adapt.New(profile.Adapt, a.stats.FPS,
		func(level int) {
			label := adapt.ModeLabels[level]
			a.setMode(label)
			cad.SetBaseInterval(adaptCtlCadence(profile.Cadence.Interval, level))
			log.Printf("Adaptive level %d (%s)", level, label)
		},
		func(fps float64) {
			log.Printf("Sustained degraded performance: %.1f fps against target %.0f", fps, profile.Adapt.TargetFPS)
			a.publisher.Publish("notice", map[string]any{
				"message": "Performance degraded; consider the lite profile",
				"fps":     fps,
			})
		},
	)
	a.setMode(adapt.ModeLabels[0])

	frameInterval := time.Second / time.Duration(profile.CameraFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	var (
		frameIndex        int
		active            bool
		lastMotion        time.Time
		last              *detector.LandmarkFrame
		lastAccepted      time.Time
		lastTone          string
		prevDisplay       string
		sustainedNotified bool
	)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			now := time.Now()
			frameIndex++

			frame, err := camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}
			a.stats.FramesSeen.Add(1)

			// Adaptive frame skip sheds load before anything expensive.
			// Skipped frames still record: the FPS estimate must measure
			// capture cadence, or the controller would read its own
			// shedding as load and ratchet one-way.
			if skip := adaptCtl.FrameSkip(); skip > 0 && frameIndex%(skip+1) != 0 {
				frame.Close()
				a.stats.FramesDropped.Add(1)
				a.stats.RecordFrame(now)
				a.idleTick(now, &lastAccepted)
				adaptCtl.Evaluate(now)
				continue
			}

			// Pixel motion pre-gate: a static scene never reaches the
			// landmark service.
			motionDetected, _ := a.motion.Detect(frame)
			if motionDetected {
				lastMotion = now
				if !active {
					active = true
					log.Println("Motion detected, pipeline active")
				}
			} else if active && now.Sub(lastMotion) > MotionIdleTimeout {
				active = false
				extractor.Reset()
				log.Println("Scene still, pipeline idle")
			}

			if !active {
				frame.Close()
				a.idleTick(now, &lastAccepted)
				a.stats.RecordFrame(now)
				adaptCtl.Evaluate(now)
				continue
			}

			// Detect or track per the cadence controller.
			if cad.ShouldDetect(frameIndex) {
				lf, err := det.Detect(frame)
				frame.Close()
				a.stats.Detections.Add(1)
				if err != nil {
					log.Printf("Error detecting landmarks: %v", err)
					cad.OnResult(0)
					continue
				}
				lf.Timestamp = now.UnixMilli()
				last = lf
			} else {
				frame.Close()
			}

			lf := last
			if lf == nil {
				cad.OnResult(0)
				continue
			}
			cad.OnResult(len(lf.Hands))

			if cad.Sustained() && !sustainedNotified {
				sustainedNotified = true
				a.publisher.Publish("notice", map[string]any{
					"message": "Tracking unstable, detection rate increased",
				})
			} else if !cad.Sustained() {
				sustainedNotified = false
			}

			// Resting posture flushes whatever has accumulated.
			if handsDown.Check(lf, now) {
				a.accumulator.Commit(now)
				smoother.Reset()
				extractor.Reset()
				handsDown.Reset()
				a.publishBuffer()
			}

			switch g.Admit(lf) {
			case gate.Reject:
				// Untrusted detections must not contaminate the window.
				extractor.Reset()
			case gate.Skip:
				// Keep the window; stillness mid-sign is not loss.
			case gate.Process:
				window, err := extractor.Process(lf)
				if err != nil {
					if errors.Is(err, feature.ErrDimensionMismatch) {
						log.Printf("Pipeline aborted: %v", err)
						return
					}
					log.Printf("Feature extraction failed: %v", err)
					continue
				}
				if window != nil {
					a.stats.Inferences.Add(1)
					result := classifier.Infer(window)
					a.observe(result, lf, tones, smoother, now, &lastAccepted, &lastTone)
				}
			}

			if d := smoother.DisplayLabel(); d != prevDisplay {
				prevDisplay = d
				a.publisher.Publish("display", map[string]any{"label": d})
			}

			a.idleTick(now, &lastAccepted)
			a.stats.FramesProcessed.Add(1)
			a.stats.RecordFrame(now)
			adaptCtl.Evaluate(now)
		}
	}
}

// observe runs the smoother over one classifier result and, on acceptance,
// appends the token and attaches a tone annotation when the tone head is
// confident and the tone actually changed.
func (a *App) observe(result classify.RecognitionResult, lf *detector.LandmarkFrame,
	tones classify.ToneClassifier, smoother *smooth.Smoother,
	now time.Time, lastAccepted *time.Time, lastTone *string) {

	verdict := smoother.Observe(result, now)
	switch verdict {
	case smooth.Accepted:
		a.stats.TokensAccepted.Add(1)
		a.accumulator.Append(result.Label, result, now)
		*lastAccepted = now

		if tones != nil && lf.Face != nil {
			tone, conf, err := tones.ClassifyTone(lf.Face)
			if err != nil {
				log.Printf("Tone classification failed: %v", err)
			} else if conf >= ToneThreshold && tone != *lastTone {
				a.accumulator.SetTone(tone)
				*lastTone = tone
			}
		}

		a.publishBuffer()
	case smooth.RejectedCapacity:
		// Full buffer flushes so the token is not silently lost forever.
		a.accumulator.Commit(now)
		a.publishBuffer()
	}
}

// idleTick applies the accumulator's time-based rules: the alphabet idle
// commit and the silence commit of the main buffer.
func (a *App) idleTick(now time.Time, lastAccepted *time.Time) {
	a.accumulator.Tick(now)

	if a.accumulator.Len() > 0 && !lastAccepted.IsZero() && now.Sub(*lastAccepted) > SilenceTimeout {
		a.accumulator.Commit(now)
		*lastAccepted = time.Time{}
		a.publishBuffer()
	}
}

// adaptCtlCadence maps an adaptive load level onto a detect cadence.
func adaptCtlCadence(base, level int) int {
	return base + level*2
}
