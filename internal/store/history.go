package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hargabyte/sir/internal/migrate"
	"github.com/hargabyte/sir/internal/report"
)

// LoadHistory loads the saved report collection through migration.
//
// A history that has never been initialized is seeded with the built-in
// sample dataset exactly once; the initialization marker distinguishes
// "never initialized" from "explicitly emptied by the user", so a deliberate
// deletion of every report does not re-trigger seeding.
func (s *Store) LoadHistory() ([]report.SavedReport, error) {
	raw, err := s.Get(KeyHistory)
	if err == sql.ErrNoRows {
		return s.seedIfUninitialized()
	}
	if err != nil {
		return nil, err
	}

	reports, ok := migrate.History(raw, s.nowFn())
	if !ok {
		// Corrupt collection: drop it and fall through to defaults.
		fmt.Fprintf(os.Stderr, "sir: discarding corrupt history entry\n")
		if err := s.Delete(KeyHistory); err != nil {
			return nil, err
		}
		return s.seedIfUninitialized()
	}
	return reports, nil
}

// seedIfUninitialized returns the sample dataset and marks the history
// initialized when no history has ever been saved; otherwise it returns an
// empty collection.
func (s *Store) seedIfUninitialized() ([]report.SavedReport, error) {
	initialized, err := s.Has(KeyHistoryInitialized)
	if err != nil {
		return nil, err
	}
	if initialized {
		return []report.SavedReport{}, nil
	}

	seed := migrate.Seed(s.nowFn())
	if err := s.SaveHistory(seed); err != nil {
		return nil, err
	}
	return seed, nil
}

// SaveHistory persists the full report collection and marks the history
// initialized.
func (s *Store) SaveHistory(reports []report.SavedReport) error {
	if reports == nil {
		reports = []report.SavedReport{}
	}
	data, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.Set(KeyHistory, data); err != nil {
		return err
	}
	return s.Set(KeyHistoryInitialized, []byte("true"))
}

// FindSaved looks up a saved report by id.
// Returns sql.ErrNoRows if no report has that id.
func (s *Store) FindSaved(id string) (report.SavedReport, error) {
	reports, err := s.LoadHistory()
	if err != nil {
		return report.SavedReport{}, err
	}
	for _, sr := range reports {
		if sr.ID == id {
			return sr, nil
		}
	}
	return report.SavedReport{}, sql.ErrNoRows
}
