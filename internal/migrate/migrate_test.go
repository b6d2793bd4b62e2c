package migrate

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/hargabyte/sir/internal/report"
)

var testNow = time.Date(2025, 6, 10, 14, 30, 0, 0, time.Local)

func TestDraftDiscardsNonReports(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty object", `{}`},
		{"null", `null`},
		{"array", `[]`},
		{"string", `"hello"`},
		{"number", `42`},
		{"garbage", `{not json`},
		{"unrelated object", `{"foo": "bar", "baz": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, kept := Draft([]byte(tt.raw), testNow)
			if kept {
				t.Errorf("Draft(%q) kept input, want discard", tt.raw)
			}
			want := report.NewDraft(testNow)
			if !reflect.DeepEqual(r, want) {
				t.Errorf("Draft(%q) = %+v, want fresh default", tt.raw, r)
			}
		})
	}
}

func TestDraftKeepsReportLikeRecords(t *testing.T) {
	raw := `{"studentName": "Ana Souza"}`

	r, kept := Draft([]byte(raw), testNow)
	if !kept {
		t.Fatal("Draft() discarded a report-like record")
	}
	if r.StudentName != "Ana Souza" {
		t.Errorf("StudentName = %q, want %q", r.StudentName, "Ana Souza")
	}
	if r.Status != report.StatusNovo {
		t.Errorf("Status = %q, want defaulted to %q", r.Status, report.StatusNovo)
	}
	if r.Images == nil {
		t.Error("Images is nil, want empty slice")
	}
	if r.ModificationHistory == nil {
		t.Error("ModificationHistory is nil, want empty slice")
	}
}

func TestDraftSynthesizesOccurrenceDateTime(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"legacy date and time combine",
			`{"studentName": "Ana", "occurrenceDate": "2025-03-01", "occurrenceTime": "10:30"}`,
			"2025-03-01T10:30",
		},
		{
			"existing value wins",
			`{"studentName": "Ana", "occurrenceDateTime": "2025-04-02T08:00", "occurrenceDate": "2025-03-01", "occurrenceTime": "10:30"}`,
			"2025-04-02T08:00",
		},
		{
			"date without time stays empty",
			`{"studentName": "Ana", "occurrenceDate": "2025-03-01"}`,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, kept := Draft([]byte(tt.raw), testNow)
			if !kept {
				t.Fatal("Draft() discarded a report-like record")
			}
			if r.OccurrenceDateTime != tt.want {
				t.Errorf("OccurrenceDateTime = %q, want %q", r.OccurrenceDateTime, tt.want)
			}
		})
	}
}

func TestDraftDefaultsInvalidStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want report.Status
	}{
		{"missing", `{"studentName": "Ana"}`, report.StatusNovo},
		{"invalid", `{"studentName": "Ana", "status": "Pendente"}`, report.StatusNovo},
		{"ill-typed", `{"studentName": "Ana", "status": 3}`, report.StatusNovo},
		{"valid kept", `{"studentName": "Ana", "status": "Resolvido"}`, report.StatusResolvido},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := Draft([]byte(tt.raw), testNow)
			if r.Status != tt.want {
				t.Errorf("Status = %q, want %q", r.Status, tt.want)
			}
		})
	}
}

func TestDraftFillsOccurrenceTypes(t *testing.T) {
	raw := `{"studentName": "Ana", "occurrenceTypes": {"bullying": true}}`

	r, _ := Draft([]byte(raw), testNow)
	if !r.OccurrenceTypes.Bullying {
		t.Error("Bullying flag lost in migration")
	}
	if r.OccurrenceTypes.PhysicalAssault || r.OccurrenceTypes.Other {
		t.Error("absent flags should default to false")
	}
}

func TestDraftCoercesStringAge(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"number", `{"studentName": "Ana", "studentAge": 12}`, 12},
		{"string", `{"studentName": "Ana", "studentAge": "12"}`, 12},
		{"non-numeric string", `{"studentName": "Ana", "studentAge": "doze"}`, 0},
		{"missing", `{"studentName": "Ana"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := Draft([]byte(tt.raw), testNow)
			if r.StudentAge != tt.want {
				t.Errorf("StudentAge = %d, want %d", r.StudentAge, tt.want)
			}
		})
	}
}

func TestDraftIdempotent(t *testing.T) {
	raw := `{
		"studentName": "Ana Souza",
		"occurrenceDate": "2025-03-01",
		"occurrenceTime": "10:30",
		"occurrenceTypes": {"bullying": true},
		"status": "Em Análise",
		"studentAge": "11"
	}`

	first, kept := Draft([]byte(raw), testNow)
	if !kept {
		t.Fatal("Draft() discarded a report-like record")
	}

	data, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, kept := Draft(data, testNow)
	if !kept {
		t.Fatal("Draft() discarded an already-migrated record")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("migration not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestHistoryEntryFillsIDAndSavedAt(t *testing.T) {
	raw := `{"studentName": "Ana Souza"}`

	sr, kept := HistoryEntry([]byte(raw), testNow)
	if !kept {
		t.Fatal("HistoryEntry() discarded a report-like record")
	}
	if sr.ID == "" {
		t.Error("entry without id should gain a generated one")
	}
	if sr.SavedAt != testNow.Format(time.RFC3339) {
		t.Errorf("SavedAt = %q, want stamped from now", sr.SavedAt)
	}
}

func TestHistoryEntryKeepsExistingIDAndSavedAt(t *testing.T) {
	raw := `{"id": "abc-123", "studentName": "Ana", "savedAt": "2024-01-02T10:00:00Z"}`

	sr, _ := HistoryEntry([]byte(raw), testNow)
	if sr.ID != "abc-123" {
		t.Errorf("ID = %q, want kept", sr.ID)
	}
	if sr.SavedAt != "2024-01-02T10:00:00Z" {
		t.Errorf("SavedAt = %q, want kept", sr.SavedAt)
	}
}

func TestHistoryRejectsNonArrays(t *testing.T) {
	for _, raw := range []string{`{}`, `"x"`, `not json`, `42`} {
		if _, ok := History([]byte(raw), testNow); ok {
			t.Errorf("History(%q) = ok, want rejected", raw)
		}
	}
}

func TestHistoryRepairsDuplicateIDs(t *testing.T) {
	raw := `[
		{"id": "dup", "studentName": "Ana"},
		{"id": "dup", "studentName": "Bruno"},
		{"id": "ok", "studentName": "Carla"}
	]`

	out, ok := History([]byte(raw), testNow)
	if !ok {
		t.Fatal("History() rejected a valid array")
	}
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}

	seen := make(map[string]bool)
	for _, sr := range out {
		if sr.ID == "" {
			t.Error("entry has empty id after migration")
		}
		if seen[sr.ID] {
			t.Errorf("duplicate id %q survived migration", sr.ID)
		}
		seen[sr.ID] = true
	}
	if out[0].ID != "dup" {
		t.Errorf("first occurrence should keep its id, got %q", out[0].ID)
	}
}

func TestHistoryMigratesDefectiveEntries(t *testing.T) {
	// An entry that is not report-like at all is replaced by a default rather
	// than dropped, so the collection length is stable.
	raw := `[{"id": "ok", "studentName": "Ana"}, {}]`

	out, ok := History([]byte(raw), testNow)
	if !ok {
		t.Fatal("History() rejected a valid array")
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[1].ID == "" {
		t.Error("replacement entry has no id")
	}
}

func TestSeedProducesDistinctValidReports(t *testing.T) {
	seeded := Seed(testNow)
	if len(seeded) != 2 {
		t.Fatalf("Seed() returned %d reports, want 2", len(seeded))
	}
	if seeded[0].ID == seeded[1].ID {
		t.Error("seeded reports share an id")
	}
	for i, sr := range seeded {
		if sr.ID == "" || sr.SavedAt == "" {
			t.Errorf("seed %d missing id or savedAt", i)
		}
		if !sr.Status.IsValid() {
			t.Errorf("seed %d has invalid status %q", i, sr.Status)
		}
		if !sr.OccurrenceTypes.Any() {
			t.Errorf("seed %d has no occurrence type set", i)
		}
	}
}
