package classify

import (
	"sync"

	"github.com/expressora/expressora/internal/detector"
	"github.com/expressora/expressora/internal/feature"
)

// SampleGlosses is the development vocabulary, used by the mock backend and
// to seed the vocab table on first run.
var SampleGlosses = []string{
	"HELLO", "THANK_YOU", "YES", "NO", "PLEASE", "SORRY", "GOODBYE",
	"HOW", "WHAT", "WHERE", "WHEN", "WHY", "WHO", "NAME", "NICE",
	"MEET", "YOU", "I", "LOVE", "FRIEND", "FAMILY", "HOME", "SCHOOL",
	"WORK", "FOOD", "WATER", "HELP", "STOP", "GO", "COME", "SEE",
	"HEAR", "KNOW", "THINK", "FEEL", "HAPPY", "SAD", "ANGRY", "TIRED",
}

// Tone tags emitted by tone classification.
var Tones = []string{"/neutral", "/question", "/exclamation", "/statement"}

// MockClassifier is a deterministic test implementation of Classifier and
// ToneClassifier. Tests can queue explicit results; with an empty queue it
// derives a stable label from the window contents so repeated identical
// windows classify identically.
type MockClassifier struct {
	mu      sync.Mutex
	results []RecognitionResult
	index   int
	repeat  bool
	err     error
	tone    string
	toneCnf float64
}

// NewMockClassifier creates a MockClassifier.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{tone: "/neutral", toneCnf: 0.9}
}

// SetResults queues results returned by successive Infer calls. With repeat
// set, the queue cycles; otherwise the last entry sticks.
func (m *MockClassifier) SetResults(results []RecognitionResult, repeat bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
	m.repeat = repeat
	m.index = 0
}

// SetError makes Infer fail, for exercising the adapter's recovery path.
func (m *MockClassifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetTone sets the tone returned by ClassifyTone.
func (m *MockClassifier) SetTone(tone string, confidence float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tone = tone
	m.toneCnf = confidence
}

// Infer returns the next queued result, or a stable derived one.
func (m *MockClassifier) Infer(w *feature.Window) (RecognitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return RecognitionResult{}, m.err
	}

	if len(m.results) > 0 {
		i := m.index
		if i >= len(m.results) {
			if m.repeat {
				i = m.index % len(m.results)
			} else {
				i = len(m.results) - 1
			}
		}
		m.index++
		return m.results[i], nil
	}

	// Derive a stable pseudo-label from the window so identical input
	// yields identical output.
	var sum float64
	for _, v := range w.Data {
		sum += v
	}
	h := int(sum*1000) % len(SampleGlosses)
	if h < 0 {
		h += len(SampleGlosses)
	}
	return RecognitionResult{
		Label:            SampleGlosses[h],
		Confidence:       0.95,
		Origin:           "FSL",
		OriginConfidence: 0.9,
	}, nil
}

// ClassifyTone returns the configured tone.
func (m *MockClassifier) ClassifyTone(face *detector.Face) (string, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", 0, m.err
	}
	return m.tone, m.toneCnf, nil
}

// Backend identifies the mock backend.
func (m *MockClassifier) Backend() string {
	return "mock"
}

// Variant identifies the mock model variant.
func (m *MockClassifier) Variant() string {
	return "mock-v1"
}

// Close is a no-op for the mock classifier.
func (m *MockClassifier) Close() error {
	return nil
}
