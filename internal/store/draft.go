package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hargabyte/sir/internal/migrate"
	"github.com/hargabyte/sir/internal/report"
)

// LoadDraft loads the persisted in-progress draft through migration.
// The second return value reports whether a usable persisted draft existed.
// A corrupt or unrecognizable entry is logged, removed so it cannot recur,
// and treated as "nothing persisted".
func (s *Store) LoadDraft() (report.Report, bool, error) {
	raw, err := s.Get(KeyDraft)
	if err == sql.ErrNoRows {
		return report.NewDraft(s.nowFn()), false, nil
	}
	if err != nil {
		return report.Report{}, false, err
	}

	r, ok := migrate.Draft(raw, s.nowFn())
	if !ok {
		fmt.Fprintf(os.Stderr, "sir: discarding corrupt draft entry\n")
		if err := s.Delete(KeyDraft); err != nil {
			return report.Report{}, false, err
		}
		return r, false, nil
	}
	return r, true, nil
}

// SaveDraft persists the draft verbatim.
func (s *Store) SaveDraft(r report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	return s.Set(KeyDraft, data)
}

// ClearDraft removes the persisted draft.
func (s *Store) ClearDraft() error {
	return s.Delete(KeyDraft)
}

// HasDraft reports whether a draft is persisted.
func (s *Store) HasDraft() (bool, error) {
	return s.Has(KeyDraft)
}
