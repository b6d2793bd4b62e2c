package lifecycle

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/hargabyte/sir/internal/report"
	"github.com/hargabyte/sir/internal/store"
)

var testNow = time.Date(2025, 6, 10, 14, 30, 0, 0, time.Local)

// testController builds a controller over a temp store, both pinned to a
// fixed clock, with the sample seeding suppressed so history starts empty.
func testController(t *testing.T) (*Controller, *store.Store, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "sir-lifecycle-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	st, err := store.Open(tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open store: %v", err)
	}
	st.SetNow(func() time.Time { return testNow })
	if err := st.SaveHistory(nil); err != nil {
		st.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("init empty history: %v", err)
	}

	c, err := New(st)
	if err != nil {
		st.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("new controller: %v", err)
	}
	c.SetNow(func() time.Time { return testNow })

	cleanup := func() {
		st.Close()
		os.RemoveAll(tmpDir)
	}
	return c, st, cleanup
}

// fillValid sets every field a submit needs to pass validation.
func fillValid(t *testing.T, c *Controller) {
	t.Helper()
	fields := map[string]string{
		"schoolUnit":               "EMEF Professor Carlos Lima",
		"municipality":             "Campinas",
		"state":                    "SP",
		"studentName":              "Ana Beatriz Souza",
		"studentDob":               "2013-04-22",
		"occurrenceDateTime":       "2025-06-09T10:30",
		"occurrenceLocation":       "Pátio",
		"occurrenceSeverity":       "Moderada",
		"occurrenceTypes.bullying": "true",
		"detailedDescription":      "Colegas hostilizaram a aluna durante o intervalo.",
		"reporterName":             "Marcos Vinícius",
		"reporterDate":             "2025-06-10",
	}
	for name, value := range fields {
		if err := c.UpdateField(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
}

func TestFreshControllerIsClean(t *testing.T) {
	c, _, cleanup := testController(t)
	defer cleanup()

	if c.IsDirty() {
		t.Error("fresh controller should not be dirty")
	}
	if c.Editing() {
		t.Error("fresh controller should not be editing")
	}
	if c.NeedsExitConfirm() {
		t.Error("fresh controller should not need exit confirmation")
	}
}

func TestUpdateFieldMarksDirty(t *testing.T) {
	c, _, cleanup := testController(t)
	defer cleanup()

	if err := c.UpdateField("studentName", "Ana"); err != nil {
		t.Fatalf("update field: %v", err)
	}
	if !c.IsDirty() {
		t.Error("edited draft should be dirty")
	}

	if err := c.UpdateField("nope", "x"); err == nil {
		t.Error("unknown field should fail")
	}
}

func TestSubmitInsertsNewReport(t *testing.T) {
	c, st, cleanup := testController(t)
	defer cleanup()

	fillValid(t, c)
	saved, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if saved.ID == "" {
		t.Error("inserted report has no id")
	}
	if saved.SavedAt != testNow.Format(time.RFC3339) {
		t.Errorf("SavedAt = %q, want stamped from clock", saved.SavedAt)
	}
	if len(saved.ModificationHistory) != 0 {
		t.Errorf("fresh insert has %d modification records, want 0", len(saved.ModificationHistory))
	}

	history, err := st.LoadHistory()
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history has %d reports, want 1", len(history))
	}
	if history[0].ID != saved.ID {
		t.Errorf("history[0].ID = %q, want %q", history[0].ID, saved.ID)
	}

	// Draft is reset after submit.
	if c.IsDirty() {
		t.Error("draft should be reset after submit")
	}
	if has, _ := st.HasDraft(); has {
		t.Error("persisted draft should be cleared after submit")
	}
}

func TestSubmitPrependsNewest(t *testing.T) {
	c, st, cleanup := testController(t)
	defer cleanup()

	fillValid(t, c)
	first, err := c.Submit()
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	fillValid(t, c)
	c.UpdateField("studentName", "Bruno Carvalho")
	second, err := c.Submit()
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	history, _ := st.LoadHistory()
	if len(history) != 2 {
		t.Fatalf("history has %d reports, want 2", len(history))
	}
	if history[0].ID != second.ID || history[1].ID != first.ID {
		t.Error("newest report should come first")
	}
}

func TestSubmitValidationFailureIsSideEffectFree(t *testing.T) {
	c, st, cleanup := testController(t)
	defer cleanup()

	c.UpdateField("studentName", "Ana")

	_, err := c.Submit()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("submit = %v, want *ValidationError", err)
	}
	if len(verr.Fields) == 0 {
		t.Error("validation error carries no fields")
	}
	if verr.FirstTab != verr.Tabs[0] {
		t.Errorf("FirstTab = %d, want %d", verr.FirstTab, verr.Tabs[0])
	}

	history, _ := st.LoadHistory()
	if len(history) != 0 {
		t.Error("rejected submit must not touch history")
	}
	if c.Draft().StudentName != "Ana" {
		t.Error("rejected submit must not reset the draft")
	}
	if len(c.Errors()) == 0 {
		t.Error("field errors should be retained for display")
	}
}

func TestValidationErrorTabRouting(t *testing.T) {
	c, _, cleanup := testController(t)
	defer cleanup()

	// Everything missing: the first erroring tab is the identification tab,
	// where schoolUnit lives.
	_, err := c.Submit()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("submit = %v, want *ValidationError", err)
	}
	if verr.FirstTab != report.TabIdentification {
		t.Errorf("FirstTab = %d, want %d", verr.FirstTab, report.TabIdentification)
	}
	for i := 1; i < len(verr.Tabs); i++ {
		if verr.Tabs[i-1] >= verr.Tabs[i] {
			t.Errorf("Tabs not ascending: %v", verr.Tabs)
		}
	}
}

func TestEditUpdateDoesNotDuplicate(t *testing.T) {
	c, st, cleanup := testController(t)
	defer cleanup()

	fillValid(t, c)
	saved, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := c.LoadForEdit(saved.ID); err != nil {
		t.Fatalf("load for edit: %v", err)
	}
	if !c.Editing() {
		t.Error("controller should be editing after LoadForEdit")
	}

	c.UpdateField("detailedDescription", "Descrição corrigida após conversa com a aluna.")
	updated, err := c.Submit()
	if err != nil {
		t.Fatalf("update submit: %v", err)
	}

	if updated.ID != saved.ID {
		t.Errorf("updated.ID = %q, want original %q", updated.ID, saved.ID)
	}
	if updated.SavedAt != saved.SavedAt {
		t.Errorf("SavedAt = %q, want preserved %q", updated.SavedAt, saved.SavedAt)
	}
	if len(updated.ModificationHistory) != 1 {
		t.Errorf("update appended %d modification records, want exactly 1", len(updated.ModificationHistory))
	}

	history, _ := st.LoadHistory()
	if len(history) != 1 {
		t.Fatalf("history has %d reports after update, want 1", len(history))
	}
	if history[0].DetailedDescription != "Descrição corrigida após conversa com a aluna." {
		t.Error("update did not replace the entry content")
	}
}

func TestEditRestampsFillFields(t *testing.T) {
	c, _, cleanup := testController(t)
	defer cleanup()

	fillValid(t, c)
	c.UpdateField("fillDate", "2025-01-01")
	saved, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	later := testNow.Add(48 * time.Hour)
	c.SetNow(func() time.Time { return later })
	if err := c.StartNew(); err != nil {
		t.Fatalf("start new: %v", err)
	}

	if err := c.LoadForEdit(saved.ID); err != nil {
		t.Fatalf("load for edit: %v", err)
	}

	draft := c.Draft()
	if draft.FillDate != later.Format(report.DateLayout) {
		t.Errorf("FillDate = %q, want restamped to %q", draft.FillDate, later.Format(report.DateLayout))
	}
	if draft.ReporterDate != later.Format(report.DateLayout) {
		t.Errorf("ReporterDate = %q, want restamped", draft.ReporterDate)
	}
	// Content is carried over.
	if draft.StudentName != "Ana Beatriz Souza" {
		t.Errorf("StudentName = %q, want carried over", draft.StudentName)
	}
}

func TestLoadForEditConflict(t *testing.T) {
	c, _, cleanup := testController(t)
	defer cleanup()

	fillValid(t, c)
	saved, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Start an unrelated dirty draft, then try to load.
	c.UpdateField("studentName", "Outro Aluno")
	err = c.LoadForEdit(saved.ID)
	if !errors.Is(err, ErrDirtyDraft) {
		t.Fatalf("LoadForEdit over dirty draft = %v, want ErrDirtyDraft", err)
	}

	// The dirty draft is untouched by the refusal.
	if c.Draft().StudentName != "Outro Aluno" {
		t.Error("refused load must not modify the draft")
	}

	// Explicit discard proceeds.
	if err := c.DiscardAndLoad(saved.ID); err != nil {
		t.Fatalf("discard and load: %v", err)
	}
	if c.Draft().ID != saved.ID {
		t.Error("DiscardAndLoad did not load the requested report")
	}

	// Re-loading the same report is not a conflict.
	c.UpdateField("grade", "6º ano B")
	if err := c.LoadForEdit(saved.ID); err != nil {
		t.Errorf("LoadForEdit of the same report = %v, want nil", err)
	}
}

func TestLoadForEditNotFound(t *testing.T) {
	c, _, cleanup := testController(t)
	defer cleanup()

	if err := c.LoadForEdit("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadForEdit(no-such-id) = %v, want ErrNotFound", err)
	}
}

func TestUpdateOfDeletedEntryReinserts(t *testing.T) {
	c, st, cleanup := testController(t)
	defer cleanup()

	fillValid(t, c)
	saved, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := c.LoadForEdit(saved.ID); err != nil {
		t.Fatalf("load for edit: %v", err)
	}

	// The entry disappears while the edit is in progress.
	if err := st.SaveHistory(nil); err != nil {
		t.Fatalf("clear history: %v", err)
	}

	c.UpdateField("detailedDescription", "Edição sobre registro removido.")
	updated, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if updated.ID != saved.ID {
		t.Errorf("reinserted entry id = %q, want %q", updated.ID, saved.ID)
	}

	history, _ := st.LoadHistory()
	if len(history) != 1 {
		t.Fatalf("history has %d reports, want 1", len(history))
	}
}

func TestDeleteSaved(t *testing.T) {
	c, st, cleanup := testController(t)
	defer cleanup()

	fillValid(t, c)
	saved, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := c.DeleteSaved("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSaved(no-such-id) = %v, want ErrNotFound", err)
	}

	if err := c.DeleteSaved(saved.ID); err != nil {
		t.Fatalf("delete saved: %v", err)
	}
	history, _ := st.LoadHistory()
	if len(history) != 0 {
		t.Errorf("history has %d reports after delete, want 0", len(history))
	}
}

func TestDeleteSavedWhileEditingResetsDraft(t *testing.T) {
	c, _, cleanup := testController(t)
	defer cleanup()

	fillValid(t, c)
	saved, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := c.LoadForEdit(saved.ID); err != nil {
		t.Fatalf("load for edit: %v", err)
	}

	if err := c.DeleteSaved(saved.ID); err != nil {
		t.Fatalf("delete saved: %v", err)
	}
	if c.Editing() {
		t.Error("draft should drop its id when its report is deleted")
	}
	if c.IsDirty() {
		t.Error("draft should reset when its report is deleted")
	}
}

func TestStartNewDiscards(t *testing.T) {
	c, st, cleanup := testController(t)
	defer cleanup()

	c.UpdateField("studentName", "Ana")
	if err := c.SaveDraft(); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	if err := c.StartNew(); err != nil {
		t.Fatalf("start new: %v", err)
	}
	if c.IsDirty() {
		t.Error("draft should be clean after StartNew")
	}
	if has, _ := st.HasDraft(); has {
		t.Error("persisted draft should be removed by StartNew")
	}
}

func TestNeedsExitConfirm(t *testing.T) {
	c, _, cleanup := testController(t)
	defer cleanup()

	if c.NeedsExitConfirm() {
		t.Error("nothing persisted: no confirmation needed")
	}

	c.UpdateField("studentName", "Ana")
	if err := c.SaveDraft(); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if !c.NeedsExitConfirm() {
		t.Error("persisted dirty draft: confirmation needed")
	}
}

func TestAutoSavePersistsDirtyDraft(t *testing.T) {
	c, st, cleanup := testController(t)
	defer cleanup()

	c.UpdateField("studentName", "Ana Beatriz")
	if _, ok, _ := st.LoadDraft(); ok {
		t.Fatal("field edits should not persist on their own")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		c.AutoSave(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		persisted, ok, err := st.LoadDraft()
		if err != nil {
			t.Fatalf("load draft: %v", err)
		}
		if ok && persisted.StudentName == "Ana Beatriz" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("auto-save never persisted the dirty draft")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AutoSave did not return after cancellation")
	}
}

func TestControllerResumesPersistedDraft(t *testing.T) {
	c, st, cleanup := testController(t)
	defer cleanup()

	c.UpdateField("studentName", "Ana Beatriz")
	if err := c.SaveDraft(); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	resumed, err := New(st)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	resumed.SetNow(func() time.Time { return testNow })

	if resumed.Draft().StudentName != "Ana Beatriz" {
		t.Error("second controller did not resume the persisted draft")
	}
	if !resumed.IsDirty() {
		t.Error("resumed draft should be dirty")
	}
}
