// Package config bundles per-component parameters into named performance
// profiles and serves the active profile to the rest of the application.
package config

import (
	"fmt"
	"sync"

	"github.com/expressora/expressora/internal/adapt"
	"github.com/expressora/expressora/internal/cadence"
	"github.com/expressora/expressora/internal/detector"
	"github.com/expressora/expressora/internal/feature"
	"github.com/expressora/expressora/internal/gate"
	"github.com/expressora/expressora/internal/sequence"
	"github.com/expressora/expressora/internal/smooth"
)

// Profile names.
const (
	ProfileLite     = "lite"
	ProfileBalanced = "balanced"
	ProfileAccuracy = "accuracy"
)

// Profile is one complete, internally consistent parameter set for the
// recognition pipeline. Profiles are immutable; switching swaps the whole
// set atomically rather than mutating fields one by one.
type Profile struct {
	Name string

	// Variant selects the classifier model loaded by the service backend.
	Variant string

	// CameraFPS is the capture rate requested from the device.
	CameraFPS int

	Detector detector.Config
	Feature  feature.Config
	Gate     gate.Config
	Cadence  cadence.Config
	Smooth   smooth.Config
	Sequence sequence.Config
	Adapt    adapt.Config
}

// Lite trades accuracy for throughput on weak hardware: a coarser model,
// sparser detection and a stricter acceptance floor to compensate for the
// noisier windows.
func Lite() Profile {
	p := Balanced()
	p.Name = ProfileLite
	p.Variant = "lite"
	p.CameraFPS = 10
	p.Cadence.Interval = 8
	p.Smooth.MinSmoothedConfidence = 0.70
	p.Adapt.TargetFPS = 8
	return p
}

// Balanced is the default profile.
func Balanced() Profile {
	// The adaptive target sits below the capture rate: full-rate capture
	// must clear HighRatio*target or the relax step is unreachable.
	adaptCfg := adapt.DefaultConfig()
	adaptCfg.TargetFPS = 12

	return Profile{
		Name:      ProfileBalanced,
		Variant:   "balanced",
		CameraFPS: 15,
		Detector:  detector.DefaultConfig(),
		Feature:   feature.DefaultConfig(),
		Gate:      gate.DefaultConfig(),
		Cadence:   cadence.DefaultConfig(),
		Smooth:    smooth.DefaultConfig(),
		Sequence:  sequence.DefaultConfig(),
		Adapt:     adaptCfg,
	}
}

// Accuracy runs the full model on every frame pair it can afford: denser
// detection, higher capture rate and a slightly laxer floor since windows
// are cleaner.
func Accuracy() Profile {
	p := Balanced()
	p.Name = ProfileAccuracy
	p.Variant = "accuracy"
	p.CameraFPS = 30
	p.Cadence.Interval = 3
	p.Smooth.MinSmoothedConfidence = 0.60
	p.Adapt.TargetFPS = 24
	return p
}

// ByName resolves a profile name.
func ByName(name string) (Profile, error) {
	switch name {
	case ProfileLite:
		return Lite(), nil
	case ProfileBalanced, "":
		return Balanced(), nil
	case ProfileAccuracy:
		return Accuracy(), nil
	}
	return Profile{}, fmt.Errorf("unknown profile %q", name)
}

// Names lists the available profile names in fixed order.
func Names() []string {
	return []string{ProfileLite, ProfileBalanced, ProfileAccuracy}
}

// Holder serves the active profile to concurrent readers and swaps it
// atomically on switch.
type Holder struct {
	mu      sync.RWMutex
	current Profile
}

// NewHolder creates a Holder starting at the given profile.
func NewHolder(p Profile) *Holder {
	return &Holder{current: p}
}

// Current returns the active profile.
func (h *Holder) Current() Profile {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Switch replaces the active profile by name.
func (h *Holder) Switch(name string) (Profile, error) {
	p, err := ByName(name)
	if err != nil {
		return Profile{}, err
	}
	h.mu.Lock()
	h.current = p
	h.mu.Unlock()
	return p, nil
}
