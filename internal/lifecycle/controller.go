// Package lifecycle orchestrates the report draft lifecycle: creation,
// editing, validation, submission into history, and the insert-or-update
// reconciliation decision.
//
// The controller is the single logical owner of the draft and history
// storage keys. All state transitions happen on discrete operations; the
// only background activity is the auto-save loop, so a mutex guards the
// in-memory draft.
package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hargabyte/sir/internal/report"
	"github.com/hargabyte/sir/internal/store"
	"github.com/hargabyte/sir/internal/validate"
)

var (
	// ErrDirtyDraft is returned by LoadForEdit when an unsaved draft for a
	// different report would be overwritten. The caller must confirm with the
	// user and retry via DiscardAndLoad.
	ErrDirtyDraft = errors.New("unsaved draft in progress")

	// ErrSubmitInFlight is returned when a submit is attempted while another
	// one is still running.
	ErrSubmitInFlight = errors.New("submit already in progress")

	// ErrNotFound is returned when no saved report has the requested id.
	ErrNotFound = errors.New("report not found")
)

// ValidationError carries the field errors of a rejected submit, plus the
// tabs those fields live on so the form can jump to the first failing one.
type ValidationError struct {
	Fields   validate.FieldErrors
	Tabs     []int // erroring tabs, ascending
	FirstTab int   // lowest-indexed erroring tab
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) invalid", len(e.Fields))
}

// Controller manages the in-progress draft and reconciles submits into the
// history store.
type Controller struct {
	mu    sync.Mutex
	st    *store.Store
	nowFn func() time.Time

	draft         report.Report
	baseline      string // serialized fresh default, for dirty detection
	errs          validate.FieldErrors
	submitting    bool
	justSubmitted bool
}

// New creates a controller, resuming any persisted draft.
func New(st *store.Store) (*Controller, error) {
	c := &Controller{st: st, nowFn: time.Now}

	now := c.nowFn()
	c.baseline = report.Serialize(report.NewDraft(now))

	draft, _, err := st.LoadDraft()
	if err != nil {
		return nil, err
	}
	c.draft = draft
	return c, nil
}

// SetNow overrides the controller's clock. Intended for tests.
func (c *Controller) SetNow(fn func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowFn = fn
	c.baseline = report.Serialize(report.NewDraft(fn()))
}

// Draft returns a copy of the current in-memory draft.
func (c *Controller) Draft() report.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// Errors returns the field errors from the last submit attempt.
func (c *Controller) Errors() validate.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}

// Editing reports whether the draft was loaded from a saved report, in which
// case a submit updates rather than inserts.
func (c *Controller) Editing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.ID != ""
}

// IsDirty reports whether the draft differs from a freshly defaulted report.
func (c *Controller) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirtyLocked()
}

func (c *Controller) dirtyLocked() bool {
	return report.Serialize(c.draft) != c.baseline
}

// UpdateField applies a single field edit to the draft.
func (c *Controller) UpdateField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := report.SetField(&c.draft, name, value); err != nil {
		return err
	}
	c.justSubmitted = false
	return nil
}

// StartNew discards the current draft and resets to a fresh default,
// removing the persisted draft entry and clearing validation errors.
func (c *Controller) StartNew() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetLocked()
}

func (c *Controller) resetLocked() error {
	if err := c.st.ClearDraft(); err != nil {
		return err
	}
	now := c.nowFn()
	c.draft = report.NewDraft(now)
	c.baseline = report.Serialize(c.draft)
	c.errs = nil
	return nil
}

// LoadForEdit loads a saved report into the draft for editing. If an unsaved
// dirty draft belonging to a different report would be overwritten, it
// returns ErrDirtyDraft without touching anything; the caller confirms with
// the user and calls DiscardAndLoad.
func (c *Controller) LoadForEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dirtyLocked() && c.draft.ID != id {
		return ErrDirtyDraft
	}
	return c.loadLocked(id)
}

// DiscardAndLoad loads a saved report into the draft, discarding any
// in-progress draft. Call only after the user confirmed the discard.
func (c *Controller) DiscardAndLoad(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(id)
}

func (c *Controller) loadLocked(id string) error {
	sr, err := c.st.FindSaved(id)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	draft := sr.Report.Clone()
	draft.Restamp(c.nowFn())

	c.draft = draft
	c.errs = nil
	c.justSubmitted = false
	return c.st.SaveDraft(c.draft)
}

// Submit validates the draft and, on success, reconciles it into history:
// a draft carrying an id replaces the matching entry and gains one
// modification history record; a draft without an id is prepended with a
// fresh id and save timestamp. Either way the draft is cleared and reset.
//
// On validation failure a *ValidationError is returned and no persistence
// side effect occurs.
func (c *Controller) Submit() (*report.SavedReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return nil, ErrSubmitInFlight
	}
	c.submitting = true
	defer func() { c.submitting = false }()

	now := c.nowFn()

	errs := validate.Check(c.draft, now)
	if len(errs) > 0 {
		c.errs = errs
		tabs := erroringTabs(errs)
		return nil, &ValidationError{Fields: errs, Tabs: tabs, FirstTab: tabs[0]}
	}

	history, err := c.st.LoadHistory()
	if err != nil {
		return nil, err
	}

	var saved report.SavedReport
	if c.draft.ID != "" {
		saved = c.reconcileUpdate(history, now)
		replaced := false
		for i := range history {
			if history[i].ID == saved.ID {
				history[i] = saved
				replaced = true
				break
			}
		}
		if !replaced {
			// The entry was deleted out from under the edit; keep the data by
			// inserting it back under its id.
			history = append([]report.SavedReport{saved}, history...)
		}
	} else {
		saved = c.reconcileInsert(&history, now)
	}

	if err := c.st.SaveHistory(history); err != nil {
		return nil, err
	}
	if err := c.resetLocked(); err != nil {
		return nil, err
	}
	c.justSubmitted = true
	return &saved, nil
}

// reconcileUpdate builds the replacement entry for an edited report,
// appending exactly one modification history record. SavedAt is preserved
// from the original entry.
func (c *Controller) reconcileUpdate(history []report.SavedReport, now time.Time) report.SavedReport {
	saved := report.SavedReport{Report: c.draft.Clone()}
	saved.SavedAt = now.Format(time.RFC3339)
	for _, sr := range history {
		if sr.ID == saved.ID {
			saved.SavedAt = sr.SavedAt
			break
		}
	}
	saved.ModificationHistory = append(saved.ModificationHistory, now.Format(time.RFC3339))
	return saved
}

// reconcileInsert builds a new entry with a freshly generated unique id and
// prepends it to history.
func (c *Controller) reconcileInsert(history *[]report.SavedReport, now time.Time) report.SavedReport {
	existing := make(map[string]bool, len(*history))
	for _, sr := range *history {
		existing[sr.ID] = true
	}

	id := uuid.NewString()
	for existing[id] {
		id = uuid.NewString()
	}

	saved := report.SavedReport{Report: c.draft.Clone(), SavedAt: now.Format(time.RFC3339)}
	saved.ID = id
	*history = append([]report.SavedReport{saved}, *history...)
	return saved
}

// erroringTabs maps field errors to the ascending list of tabs they live on.
func erroringTabs(errs validate.FieldErrors) []int {
	set := make(map[int]bool)
	for field := range errs {
		if tab, ok := report.TabForField(field); ok {
			set[tab] = true
		}
	}
	tabs := make([]int, 0, len(set))
	for tab := range set {
		tabs = append(tabs, tab)
	}
	sort.Ints(tabs)
	return tabs
}

// SaveDraft persists the current draft verbatim, without validation.
// Always allowed, even mid-edit, even invalid.
func (c *Controller) SaveDraft() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.SaveDraft(c.draft)
}

// DeleteSaved removes a report from history. If it is the report currently
// loaded as the draft, the draft is reset to an id-less default.
func (c *Controller) DeleteSaved(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	history, err := c.st.LoadHistory()
	if err != nil {
		return err
	}

	kept := history[:0]
	for _, sr := range history {
		if sr.ID != id {
			kept = append(kept, sr)
		}
	}
	if len(kept) == len(history) {
		return ErrNotFound
	}

	if err := c.st.SaveHistory(kept); err != nil {
		return err
	}

	if c.draft.ID == id {
		return c.resetLocked()
	}
	return nil
}

// AutoSave persists the draft on the given interval while it is dirty and
// not in a just-submitted state. It returns when ctx is cancelled.
func (c *Controller) AutoSave(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.justSubmitted && c.dirtyLocked() {
				if err := c.st.SaveDraft(c.draft); err != nil {
					fmt.Fprintf(os.Stderr, "sir: auto-save failed: %v\n", err)
				}
			}
			c.mu.Unlock()
		}
	}
}

// NeedsExitConfirm reports whether the host should prompt for confirmation
// before the session ends: true when the persisted draft differs from a
// freshly defaulted report.
func (c *Controller) NeedsExitConfirm() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	persisted, ok, err := c.st.LoadDraft()
	if err != nil || !ok {
		return false
	}
	return report.Serialize(persisted) != c.baseline
}
