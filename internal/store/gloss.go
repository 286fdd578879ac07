package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// GlossKind distinguishes whole-sign vocabulary entries from single-letter
// alphabet classes.
type GlossKind string

const (
	// KindGloss is a whole-sign vocabulary entry.
	KindGloss GlossKind = "gloss"
	// KindLetter is a single-letter alphabet class used for
	// fingerspelling.
	KindLetter GlossKind = "letter"
)

// Gloss represents one vocabulary entry.
type Gloss struct {
	ID        string
	Label     string
	Kind      GlossKind
	Origin    string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GlossRepository provides CRUD operations for the vocabulary.
type GlossRepository struct {
	db *sql.DB
}

// Glosses returns the gloss repository for this store.
func (s *Store) Glosses() *GlossRepository {
	return &GlossRepository{db: s.db}
}

// Create inserts a new gloss into the database.
func (r *GlossRepository) Create(g *Gloss) error {
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	_, err := r.db.Exec(
		`INSERT INTO glosses (id, label, kind, origin, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Label, string(g.Kind), g.Origin, g.Enabled, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

// GetByLabel retrieves a gloss by its label.
func (r *GlossRepository) GetByLabel(label string) (*Gloss, error) {
	g := &Gloss{}
	var kind string

	err := r.db.QueryRow(
		`SELECT id, label, kind, origin, enabled, created_at, updated_at
		 FROM glosses WHERE label = ?`,
		label,
	).Scan(&g.ID, &g.Label, &kind, &g.Origin, &g.Enabled, &g.CreatedAt, &g.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	g.Kind = GlossKind(kind)
	return g, nil
}

// List retrieves all glosses ordered by label.
func (r *GlossRepository) List() ([]*Gloss, error) {
	rows, err := r.db.Query(
		`SELECT id, label, kind, origin, enabled, created_at, updated_at
		 FROM glosses ORDER BY label ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var glosses []*Gloss
	for rows.Next() {
		g := &Gloss{}
		var kind string

		if err := rows.Scan(&g.ID, &g.Label, &kind, &g.Origin, &g.Enabled, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}

		g.Kind = GlossKind(kind)
		glosses = append(glosses, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return glosses, nil
}

// SetEnabled toggles whether a gloss participates in recognition output.
func (r *GlossRepository) SetEnabled(id string, enabled bool) error {
	result, err := r.db.Exec(
		`UPDATE glosses SET enabled = ?, updated_at = ? WHERE id = ?`,
		enabled, time.Now(), id,
	)
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

// Delete removes a gloss from the vocabulary by its ID.
func (r *GlossRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM glosses WHERE id = ?`, id)
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

// Count returns the number of vocabulary entries.
func (r *GlossRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM glosses`).Scan(&n)
	return n, err
}

// Seed populates an empty vocabulary with the given whole-sign labels plus
// the A-Z alphabet classes. A non-empty table is left untouched.
func (r *GlossRepository) Seed(labels []string, origin string) error {
	n, err := r.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for _, label := range labels {
		g := &Gloss{Label: label, Kind: KindGloss, Origin: origin, Enabled: true}
		if err := r.Create(g); err != nil {
			return err
		}
	}
	for c := 'A'; c <= 'Z'; c++ {
		g := &Gloss{Label: string(c), Kind: KindLetter, Origin: origin, Enabled: true}
		if err := r.Create(g); err != nil {
			return err
		}
	}
	return nil
}
