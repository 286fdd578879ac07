// Package classify invokes the gesture classifier on completed feature
// windows and normalizes its output for the rest of the pipeline.
package classify

import (
	"log"
	"sync"

	"github.com/expressora/expressora/internal/detector"
	"github.com/expressora/expressora/internal/feature"
)

// LabelScore is one entry of an optional debug distribution.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// RecognitionResult is the classifier output for one completed window.
// Immutable once produced. The zero value is the "no result" sentinel.
type RecognitionResult struct {
	// Label is the predicted gloss token; empty means no result.
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`

	// Origin is the optional secondary head output: the sign language the
	// gesture belongs to (e.g. "FSL", "ASL"), with its own confidence.
	Origin           string  `json:"origin,omitempty"`
	OriginConfidence float64 `json:"originConfidence,omitempty"`

	// TopK is the optional debug distribution (top labels/probabilities).
	TopK []LabelScore `json:"topK,omitempty"`
}

// None reports whether this is the no-result sentinel.
func (r RecognitionResult) None() bool {
	return r.Label == ""
}

// Classifier is a backend capable of classifying one feature window.
// Backends are assumed non-reentrant; callers go through an Adapter.
type Classifier interface {
	// Infer classifies a completed window.
	Infer(w *feature.Window) (RecognitionResult, error)

	// Backend identifies the active execution backend (diagnostics only).
	Backend() string

	// Variant identifies the loaded model variant (diagnostics only).
	Variant() string

	// Close releases backend resources.
	Close() error
}

// ToneClassifier maps facial anchors to a tone tag such as "/question".
// Tone is a non-manual annotation; it never produces gloss tokens.
type ToneClassifier interface {
	ClassifyTone(face *detector.Face) (tone string, confidence float64, err error)
}

// Adapter serializes access to a non-reentrant backend and converts backend
// failures into the no-result sentinel. A single bad inference must never
// crash the pipeline: the error is logged and the next window proceeds.
type Adapter struct {
	mu      sync.Mutex
	backend Classifier
}

// NewAdapter wraps a backend classifier.
func NewAdapter(backend Classifier) *Adapter {
	return &Adapter{backend: backend}
}

// Infer classifies one window. Returns the no-result sentinel on backend
// error.
func (a *Adapter) Infer(w *feature.Window) RecognitionResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	result, err := a.backend.Infer(w)
	if err != nil {
		log.Printf("classifier inference failed: %v", err)
		return RecognitionResult{}
	}
	return result
}

// Backend returns the active backend identifier.
func (a *Adapter) Backend() string {
	return a.backend.Backend()
}

// Variant returns the loaded model variant identifier.
func (a *Adapter) Variant() string {
	return a.backend.Variant()
}

// Close releases the underlying backend.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.backend.Close()
}
