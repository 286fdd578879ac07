// Package sequence accumulates accepted gloss tokens into a bounded buffer
// with auto-commit rules and emits committed sequences.
package sequence

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/expressora/expressora/internal/classify"
)

// Committed is the immutable snapshot emitted once per commit of the main
// buffer.
type Committed struct {
	ID         uuid.UUID `json:"id"`
	Tokens     []string  `json:"tokens"`
	Origin     string    `json:"origin"`     // dominant origin label across the sequence
	Confidence float64   `json:"confidence"` // mean acceptance confidence
	Tone       string    `json:"tone"`       // non-manual annotation, e.g. "/question"
	Timestamp  time.Time `json:"timestamp"`
}

// WordCommitted is emitted when the alphabet sub-buffer commits a
// fingerspelled word.
type WordCommitted struct {
	Word      string    `json:"word"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds the accumulator parameters.
type Config struct {
	// Capacity bounds the main buffer; reaching it triggers an automatic
	// commit-and-clear.
	Capacity int

	// AlphabetIdle is how long the alphabet sub-buffer waits for the next
	// letter before committing what it has as a word.
	AlphabetIdle time.Duration
}

// DefaultConfig returns the production accumulator parameters.
func DefaultConfig() Config {
	return Config{
		Capacity:     7,
		AlphabetIdle: 1000 * time.Millisecond,
	}
}

// Accumulator is the state machine over the main gloss buffer and the
// alphabet sub-buffer. All mutation is serialized under one mutex because
// appends arrive from the recognition loop while backspace/clear/commit
// arrive from user-initiated commands.
type Accumulator struct {
	config Config

	onCommit func(Committed)
	onWord   func(WordCommitted)

	mu            sync.Mutex
	main          []string
	confidences   []float64
	origins       map[string]int
	alphabet      []string
	lastLetterAt  time.Time
	lastWasLetter bool // which buffer most recently received input
	tone          string
}

// New creates an Accumulator. The callbacks receive commit events and are
// invoked outside the internal lock; they may be nil.
func New(config Config, onCommit func(Committed), onWord func(WordCommitted)) *Accumulator {
	if config.Capacity <= 0 {
		config.Capacity = DefaultConfig().Capacity
	}
	if onCommit == nil {
		onCommit = func(Committed) {}
	}
	if onWord == nil {
		onWord = func(WordCommitted) {}
	}
	return &Accumulator{
		config:   config,
		onCommit: onCommit,
		onWord:   onWord,
		origins:  make(map[string]int),
	}
}

// IsLetter reports whether a token is a single-letter alphabet class (A-Z).
func IsLetter(token string) bool {
	return len(token) == 1 && token[0] >= 'A' && token[0] <= 'Z'
}

// Append routes an accepted token into the appropriate buffer. Single
// letters go to the alphabet sub-buffer; anything else goes to the main
// buffer, first forcing any pending fingerspelled word to commit (a
// non-letter token is a word boundary). Reaching main capacity triggers an
// automatic commit.
func (a *Accumulator) Append(token string, meta classify.RecognitionResult, now time.Time) {
	a.mu.Lock()

	var word *WordCommitted
	var seq *Committed

	if IsLetter(token) {
		a.alphabet = append(a.alphabet, token)
		a.lastLetterAt = now
		a.lastWasLetter = true
		if len(a.alphabet) >= a.config.Capacity {
			word = a.commitWordLocked(now)
		}
	} else {
		if len(a.alphabet) > 0 {
			word = a.commitWordLocked(now)
		}
		a.main = append(a.main, token)
		a.confidences = append(a.confidences, meta.Confidence)
		if meta.Origin != "" {
			a.origins[meta.Origin]++
		}
		a.lastWasLetter = false
		if len(a.main) >= a.config.Capacity {
			seq = a.commitLocked(now)
		}
	}

	a.mu.Unlock()
	a.dispatch(seq, word)
}

// SetTone records the latest non-manual tone annotation; it rides on the
// next committed sequence.
func (a *Accumulator) SetTone(tone string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tone = tone
}

// Backspace removes the most recent entry from whichever buffer most
// recently received input. No-op when that buffer is empty.
func (a *Accumulator) Backspace() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.lastWasLetter {
		if n := len(a.alphabet); n > 0 {
			a.alphabet = a.alphabet[:n-1]
		}
		return
	}
	if n := len(a.main); n > 0 {
		a.main = a.main[:n-1]
		a.confidences = a.confidences[:n-1]
	}
}

// Clear discards both buffers without emitting anything.
func (a *Accumulator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
}

// Commit flushes both buffers: a pending fingerspelled word commits first,
// then the main buffer commits if non-empty.
func (a *Accumulator) Commit(now time.Time) {
	a.mu.Lock()
	var word *WordCommitted
	var seq *Committed
	if len(a.alphabet) > 0 {
		word = a.commitWordLocked(now)
	}
	if len(a.main) > 0 {
		seq = a.commitLocked(now)
	}
	a.mu.Unlock()
	a.dispatch(seq, word)
}

// Tick applies time-based rules; the recognition loop calls it once per
// frame. The alphabet sub-buffer auto-commits after AlphabetIdle without a
// new letter.
func (a *Accumulator) Tick(now time.Time) {
	a.mu.Lock()
	var word *WordCommitted
	if len(a.alphabet) > 0 && now.Sub(a.lastLetterAt) >= a.config.AlphabetIdle {
		word = a.commitWordLocked(now)
	}
	a.mu.Unlock()
	a.dispatch(nil, word)
}

// Len returns the main buffer length.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.main)
}

// Full reports whether the main buffer is at capacity.
func (a *Accumulator) Full() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.main) >= a.config.Capacity
}

// Snapshot returns display copies of both buffers (eventually consistent;
// writers never interleave partially).
func (a *Accumulator) Snapshot() (tokens []string, word string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	tokens = append([]string(nil), a.main...)
	for _, l := range a.alphabet {
		word += l
	}
	return tokens, word
}

// commitLocked snapshots and clears the main buffer. Caller holds the lock.
func (a *Accumulator) commitLocked(now time.Time) *Committed {
	var confidence float64
	for _, c := range a.confidences {
		confidence += c
	}
	if len(a.confidences) > 0 {
		confidence /= float64(len(a.confidences))
	}

	origin := ""
	best := 0
	for o, n := range a.origins {
		if n > best {
			origin, best = o, n
		}
	}

	c := &Committed{
		ID:         uuid.New(),
		Tokens:     append([]string(nil), a.main...),
		Origin:     origin,
		Confidence: confidence,
		Tone:       a.tone,
		Timestamp:  now,
	}
	a.resetMainLocked()
	return c
}

// commitWordLocked snapshots and clears the alphabet sub-buffer. Caller
// holds the lock.
func (a *Accumulator) commitWordLocked(now time.Time) *WordCommitted {
	word := ""
	for _, l := range a.alphabet {
		word += l
	}
	a.alphabet = a.alphabet[:0]
	a.lastWasLetter = false
	return &WordCommitted{Word: word, Timestamp: now}
}

func (a *Accumulator) resetMainLocked() {
	a.main = a.main[:0]
	a.confidences = a.confidences[:0]
	a.origins = make(map[string]int)
	a.tone = ""
}

func (a *Accumulator) resetLocked() {
	a.resetMainLocked()
	a.alphabet = a.alphabet[:0]
	a.lastWasLetter = false
}

// dispatch fires commit callbacks outside the lock, word first so
// fingerspelled output precedes the sequence that forced its boundary.
func (a *Accumulator) dispatch(seq *Committed, word *WordCommitted) {
	if word != nil {
		a.onWord(*word)
	}
	if seq != nil {
		a.onCommit(*seq)
	}
}
