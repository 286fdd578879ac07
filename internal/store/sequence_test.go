package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSequenceRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sequences()

	seq := &Sequence{
		ID:         uuid.New().String(),
		Kind:       KindSequence,
		Tokens:     []string{"HELLO", "YOU", "EAT"},
		Origin:     "FSL",
		Confidence: 0.82,
		Tone:       "question",
	}

	if err := repo.Create(seq); err != nil {
		t.Fatalf("failed to create sequence: %v", err)
	}
	if seq.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}

	retrieved, err := repo.GetByID(seq.ID)
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	if retrieved.Kind != KindSequence {
		t.Errorf("Kind = %q, want %q", retrieved.Kind, KindSequence)
	}
	if len(retrieved.Tokens) != 3 || retrieved.Tokens[0] != "HELLO" || retrieved.Tokens[2] != "EAT" {
		t.Errorf("Tokens = %v, want [HELLO YOU EAT]", retrieved.Tokens)
	}
	if retrieved.Confidence != 0.82 {
		t.Errorf("Confidence = %f, want 0.82", retrieved.Confidence)
	}
	if retrieved.Tone != "question" {
		t.Errorf("Tone = %q, want question", retrieved.Tone)
	}
}

func TestSequenceRepository_GetMissing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Sequences().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSequenceRepository_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sequences()

	base := time.Now().Add(-time.Hour)
	for i, tokens := range [][]string{{"FIRST"}, {"SECOND"}, {"THIRD"}} {
		seq := &Sequence{
			ID:        uuid.New().String(),
			Kind:      KindSequence,
			Tokens:    tokens,
			Origin:    "FSL",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(seq); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Tokens[0] != "THIRD" || all[2].Tokens[0] != "FIRST" {
		t.Errorf("ordering wrong: got %v %v %v", all[0].Tokens, all[1].Tokens, all[2].Tokens)
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatalf("limited list: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited len = %d, want 2", len(limited))
	}
	if limited[0].Tokens[0] != "THIRD" {
		t.Errorf("limited list should start with the newest, got %v", limited[0].Tokens)
	}
}

func TestSequenceRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sequences()

	seq := &Sequence{
		ID:     uuid.New().String(),
		Kind:   KindWord,
		Tokens: []string{"C", "A", "T"},
		Origin: "alphabet",
	}
	if err := repo.Create(seq); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete(seq.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(seq.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(seq.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
