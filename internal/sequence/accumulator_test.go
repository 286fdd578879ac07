package sequence

import (
	"testing"
	"time"

	"github.com/expressora/expressora/internal/classify"
)

// recorder captures commit callbacks for assertions.
type recorder struct {
	sequences []Committed
	words     []WordCommitted
}

func (r *recorder) onCommit(c Committed)   { r.sequences = append(r.sequences, c) }
func (r *recorder) onWord(w WordCommitted) { r.words = append(r.words, w) }

func newTestAccumulator(t *testing.T) (*Accumulator, *recorder) {
	t.Helper()
	rec := &recorder{}
	return New(DefaultConfig(), rec.onCommit, rec.onWord), rec
}

func meta(confidence float64, origin string) classify.RecognitionResult {
	return classify.RecognitionResult{Confidence: confidence, Origin: origin}
}

func TestIsLetter(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"A", true},
		{"Z", true},
		{"HELLO", false},
		{"a", false},
		{"", false},
		{"1", false},
	}
	for _, tt := range tests {
		if got := IsLetter(tt.token); got != tt.want {
			t.Errorf("IsLetter(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

// Letters spell a word in the sub-buffer; an idle pause commits it.
func TestFingerspellingIdleCommit(t *testing.T) {
	a, rec := newTestAccumulator(t)
	now := time.Now()

	a.Append("C", meta(0.9, "FSL"), now)
	a.Append("A", meta(0.9, "FSL"), now.Add(300*time.Millisecond))
	a.Append("T", meta(0.9, "FSL"), now.Add(600*time.Millisecond))

	if _, word := a.Snapshot(); word != "CAT" {
		t.Fatalf("pending word = %q, want CAT", word)
	}

	// Still within the idle window: nothing commits.
	a.Tick(now.Add(1200 * time.Millisecond))
	if len(rec.words) != 0 {
		t.Fatal("word committed before the idle window elapsed")
	}

	// One second after the last letter: the word commits.
	a.Tick(now.Add(1700 * time.Millisecond))
	if len(rec.words) != 1 || rec.words[0].Word != "CAT" {
		t.Fatalf("words = %+v, want one commit of CAT", rec.words)
	}
	if _, word := a.Snapshot(); word != "" {
		t.Fatalf("pending word after commit = %q, want empty", word)
	}
}

// A non-letter token is a word boundary: the pending fingerspelled word
// commits before the gloss lands in the main buffer.
func TestNonLetterForcesWordBoundary(t *testing.T) {
	a, rec := newTestAccumulator(t)
	now := time.Now()

	a.Append("H", meta(0.9, "FSL"), now)
	a.Append("I", meta(0.9, "FSL"), now)
	a.Append("HELLO", meta(0.9, "FSL"), now)

	if len(rec.words) != 1 || rec.words[0].Word != "HI" {
		t.Fatalf("words = %+v, want HI committed at the boundary", rec.words)
	}
	tokens, _ := a.Snapshot()
	if len(tokens) != 1 || tokens[0] != "HELLO" {
		t.Fatalf("main buffer = %v, want [HELLO]", tokens)
	}
}

// Reaching capacity commits automatically and leaves the buffer empty.
func TestCapacityAutoCommit(t *testing.T) {
	a, rec := newTestAccumulator(t)
	now := time.Now()

	labels := []string{"I", "LOVE", "YOU", "FRIEND", "FAMILY", "HOME", "SCHOOL"}
	for i, label := range labels {
		a.Append(label, meta(0.9, "FSL"), now)
		if i < len(labels)-1 && len(rec.sequences) != 0 {
			t.Fatalf("committed early after %d tokens", i+1)
		}
	}

	if len(rec.sequences) != 1 {
		t.Fatalf("sequences = %d, want 1", len(rec.sequences))
	}
	c := rec.sequences[0]
	if len(c.Tokens) != 7 {
		t.Fatalf("committed tokens = %v, want all 7", c.Tokens)
	}
	if a.Len() != 0 {
		t.Fatalf("buffer length after auto-commit = %d, want 0", a.Len())
	}
	if c.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("committed sequence has a zero ID")
	}
}

func TestCommitAggregatesConfidenceAndOrigin(t *testing.T) {
	a, rec := newTestAccumulator(t)
	now := time.Now()

	a.Append("HELLO", meta(0.8, "FSL"), now)
	a.Append("YOU", meta(0.6, "ASL"), now)
	a.Append("FRIEND", meta(1.0, "FSL"), now)
	a.Commit(now)

	if len(rec.sequences) != 1 {
		t.Fatalf("sequences = %d, want 1", len(rec.sequences))
	}
	c := rec.sequences[0]
	if c.Confidence < 0.799 || c.Confidence > 0.801 {
		t.Errorf("confidence = %f, want mean 0.8", c.Confidence)
	}
	if c.Origin != "FSL" {
		t.Errorf("origin = %q, want dominant FSL", c.Origin)
	}
}

func TestToneRidesOnCommit(t *testing.T) {
	a, rec := newTestAccumulator(t)
	now := time.Now()

	a.Append("WHERE", meta(0.9, "FSL"), now)
	a.SetTone("/question")
	a.Commit(now)

	if len(rec.sequences) != 1 || rec.sequences[0].Tone != "/question" {
		t.Fatalf("sequences = %+v, want tone /question", rec.sequences)
	}

	// The tone does not leak into the next sequence.
	a.Append("HELLO", meta(0.9, "FSL"), now)
	a.Commit(now)
	if rec.sequences[1].Tone != "" {
		t.Errorf("second tone = %q, want empty", rec.sequences[1].Tone)
	}
}

func TestBackspaceTargetsMostRecentBuffer(t *testing.T) {
	a, _ := newTestAccumulator(t)
	now := time.Now()

	a.Append("HELLO", meta(0.9, "FSL"), now)
	a.Append("C", meta(0.9, "FSL"), now)
	a.Append("A", meta(0.9, "FSL"), now)

	// Letters arrived last: backspace eats the letter.
	a.Backspace()
	tokens, word := a.Snapshot()
	if word != "C" || len(tokens) != 1 {
		t.Fatalf("after backspace: tokens=%v word=%q, want [HELLO] C", tokens, word)
	}

	a.Backspace()
	if _, word := a.Snapshot(); word != "" {
		t.Fatalf("word = %q, want empty", word)
	}

	// Empty letter buffer: backspace is a no-op, not a fallthrough into
	// the main buffer.
	a.Backspace()
	tokens, _ = a.Snapshot()
	if len(tokens) != 1 {
		t.Fatalf("main buffer = %v, want [HELLO] untouched", tokens)
	}
}

func TestBackspaceMainBuffer(t *testing.T) {
	a, _ := newTestAccumulator(t)
	now := time.Now()

	a.Append("HELLO", meta(0.9, "FSL"), now)
	a.Append("YOU", meta(0.9, "FSL"), now)
	a.Backspace()

	tokens, _ := a.Snapshot()
	if len(tokens) != 1 || tokens[0] != "HELLO" {
		t.Fatalf("main buffer = %v, want [HELLO]", tokens)
	}
}

func TestClearDiscardsWithoutCommitting(t *testing.T) {
	a, rec := newTestAccumulator(t)
	now := time.Now()

	a.Append("HELLO", meta(0.9, "FSL"), now)
	a.Append("C", meta(0.9, "FSL"), now)
	a.Clear()

	if len(rec.sequences) != 0 || len(rec.words) != 0 {
		t.Fatal("clear emitted commits")
	}
	tokens, word := a.Snapshot()
	if len(tokens) != 0 || word != "" {
		t.Fatalf("buffers after clear: tokens=%v word=%q, want empty", tokens, word)
	}
}

// Manual commit flushes the pending word first, then the sequence, so the
// word event precedes the sequence that forced it out.
func TestManualCommitOrder(t *testing.T) {
	rec := &recorder{}
	var order []string
	a := New(DefaultConfig(),
		func(c Committed) { order = append(order, "sequence"); rec.onCommit(c) },
		func(w WordCommitted) { order = append(order, "word"); rec.onWord(w) },
	)
	now := time.Now()

	a.Append("HELLO", meta(0.9, "FSL"), now)
	a.Append("H", meta(0.9, "FSL"), now)
	a.Append("I", meta(0.9, "FSL"), now)
	a.Commit(now)

	if len(order) != 2 || order[0] != "word" || order[1] != "sequence" {
		t.Fatalf("commit order = %v, want [word sequence]", order)
	}
}

func TestCommitOnEmptyBuffersIsNoOp(t *testing.T) {
	a, rec := newTestAccumulator(t)
	a.Commit(time.Now())
	if len(rec.sequences) != 0 || len(rec.words) != 0 {
		t.Fatal("empty commit emitted something")
	}
}
