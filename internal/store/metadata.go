package store

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/pavelanni/paperbank/internal/model"
)

// SetMetadata upserts a key-value pair in the ingest_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO ingest_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM ingest_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetRunSummary stores the outcome of the latest ingest run.
func (s *Store) SetRunSummary(sum model.RunSummary) error {
	pairs := []struct{ k, v string }{
		{"last_run_id", sum.RunID},
		{"last_run_finished_at", sum.FinishedAt.UTC().Format(time.RFC3339)},
		{"last_run_imported", strconv.Itoa(sum.Imported)},
		{"last_run_skipped", strconv.Itoa(sum.Skipped)},
		{"last_run_failed", strconv.Itoa(sum.Failed)},
	}
	for _, p := range pairs {
		if err := s.SetMetadata(p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetRunSummary reads the latest ingest run summary. The zero value is
// returned if no run has been recorded.
func (s *Store) GetRunSummary() (model.RunSummary, error) {
	var sum model.RunSummary
	var err error

	if sum.RunID, err = s.GetMetadata("last_run_id"); err != nil {
		return sum, err
	}
	finished, err := s.GetMetadata("last_run_finished_at")
	if err != nil {
		return sum, err
	}
	if finished != "" {
		if sum.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
			return sum, err
		}
	}
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"last_run_imported", &sum.Imported},
		{"last_run_skipped", &sum.Skipped},
		{"last_run_failed", &sum.Failed},
	} {
		v, err := s.GetMetadata(f.key)
		if err != nil {
			return sum, err
		}
		if v == "" {
			continue
		}
		if *f.dst, err = strconv.Atoi(v); err != nil {
			return sum, err
		}
	}
	return sum, nil
}
