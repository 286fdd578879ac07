package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SequenceKind distinguishes committed gloss sequences from fingerspelled
// words.
type SequenceKind string

const (
	// KindSequence is a committed main-buffer sequence.
	KindSequence SequenceKind = "sequence"
	// KindWord is a committed fingerspelled word.
	KindWord SequenceKind = "word"
)

// Sequence is one committed recognition output persisted for history.
type Sequence struct {
	ID         string
	Kind       SequenceKind
	Tokens     []string
	Origin     string
	Confidence float64
	Tone       string
	CreatedAt  time.Time
}

// SequenceRepository provides operations on the recognition history.
type SequenceRepository struct {
	db *sql.DB
}

// Sequences returns the sequence repository for this store.
func (s *Store) Sequences() *SequenceRepository {
	return &SequenceRepository{db: s.db}
}

// Create inserts a committed sequence.
func (r *SequenceRepository) Create(seq *Sequence) error {
	if seq.CreatedAt.IsZero() {
		seq.CreatedAt = time.Now()
	}

	tokens, err := json.Marshal(seq.Tokens)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO sequences (id, kind, tokens, origin, confidence, tone, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		seq.ID, string(seq.Kind), string(tokens), seq.Origin, seq.Confidence, seq.Tone, seq.CreatedAt,
	)
	return err
}

// GetByID retrieves a committed sequence by its ID.
func (r *SequenceRepository) GetByID(id string) (*Sequence, error) {
	seq := &Sequence{}
	var kind, tokens string

	err := r.db.QueryRow(
		`SELECT id, kind, tokens, origin, confidence, tone, created_at
		 FROM sequences WHERE id = ?`,
		id,
	).Scan(&seq.ID, &kind, &tokens, &seq.Origin, &seq.Confidence, &seq.Tone, &seq.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	seq.Kind = SequenceKind(kind)
	if err := json.Unmarshal([]byte(tokens), &seq.Tokens); err != nil {
		return nil, err
	}
	return seq, nil
}

// List retrieves the most recent committed sequences, newest first. A limit
// of 0 or less means no limit.
func (r *SequenceRepository) List(limit int) ([]*Sequence, error) {
	query := `SELECT id, kind, tokens, origin, confidence, tone, created_at
		 FROM sequences ORDER BY created_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.Query(query+` LIMIT ?`, limit)
	} else {
		rows, err = r.db.Query(query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sequences []*Sequence
	for rows.Next() {
		seq := &Sequence{}
		var kind, tokens string

		if err := rows.Scan(&seq.ID, &kind, &tokens, &seq.Origin, &seq.Confidence, &seq.Tone, &seq.CreatedAt); err != nil {
			return nil, err
		}

		seq.Kind = SequenceKind(kind)
		if err := json.Unmarshal([]byte(tokens), &seq.Tokens); err != nil {
			return nil, err
		}
		sequences = append(sequences, seq)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sequences, nil
}

// Delete removes a committed sequence from the history.
func (r *SequenceRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sequences WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
