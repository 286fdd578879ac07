package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Glosses table - the recognizable vocabulary, including
		// single-letter alphabet classes used for fingerspelling
		`CREATE TABLE IF NOT EXISTS glosses (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL CHECK(kind IN ('gloss', 'letter')),
			origin TEXT NOT NULL DEFAULT 'FSL',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sequences table - committed gloss sequences and fingerspelled
		// words; tokens are stored as a JSON array
		`CREATE TABLE IF NOT EXISTS sequences (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK(kind IN ('sequence', 'word')),
			tokens TEXT NOT NULL,
			origin TEXT NOT NULL DEFAULT '',
			confidence REAL NOT NULL DEFAULT 0,
			tone TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_glosses_label ON glosses(label)`,
		`CREATE INDEX IF NOT EXISTS idx_sequences_created_at ON sequences(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
