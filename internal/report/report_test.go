package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 10, 14, 30, 0, 0, time.Local)

func TestNewDraft(t *testing.T) {
	r := NewDraft(testNow)

	if r.FillDate != "2025-06-10" {
		t.Errorf("FillDate = %q, want %q", r.FillDate, "2025-06-10")
	}
	if r.FillTime != "14:30" {
		t.Errorf("FillTime = %q, want %q", r.FillTime, "14:30")
	}
	if r.ReporterDate != "2025-06-10" {
		t.Errorf("ReporterDate = %q, want %q", r.ReporterDate, "2025-06-10")
	}
	if r.Status != StatusNovo {
		t.Errorf("Status = %q, want %q", r.Status, StatusNovo)
	}
	if r.ID != "" {
		t.Errorf("ID = %q, want empty", r.ID)
	}
	if r.Images == nil || r.ModificationHistory == nil {
		t.Error("slices should be initialized, not nil")
	}
}

func TestSerializeOmitsEmptyID(t *testing.T) {
	data := Serialize(NewDraft(testNow))
	if strings.Contains(data, `"id"`) {
		t.Error("empty id should be omitted from the serialized form")
	}

	r := NewDraft(testNow)
	r.ID = "abc"
	if !strings.Contains(Serialize(r), `"id":"abc"`) {
		t.Error("non-empty id should be serialized")
	}
}

func TestSerializeIsDeterministic(t *testing.T) {
	r := NewDraft(testNow)
	r.StudentName = "Ana"
	if Serialize(r) != Serialize(r) {
		t.Error("Serialize() is not deterministic")
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := NewDraft(testNow)
	r.StudentPhoto = &Photo{Name: "foto.png", Data: "data:..."}
	r.Images = []Image{{Name: "a.png"}}
	r.ModificationHistory = []string{"2025-01-01T00:00:00Z"}

	clone := r.Clone()
	clone.StudentPhoto.Name = "outra.png"
	clone.Images[0].Name = "b.png"
	clone.ModificationHistory[0] = "changed"

	if r.StudentPhoto.Name != "foto.png" {
		t.Error("clone shares the student photo")
	}
	if r.Images[0].Name != "a.png" {
		t.Error("clone shares the images slice")
	}
	if r.ModificationHistory[0] != "2025-01-01T00:00:00Z" {
		t.Error("clone shares the modification history slice")
	}
}

func TestRestamp(t *testing.T) {
	r := NewDraft(testNow)
	r.ID = "abc"
	r.StudentName = "Ana"

	later := testNow.Add(72 * time.Hour)
	r.Restamp(later)

	if r.FillDate != later.Format(DateLayout) || r.FillTime != later.Format(TimeLayout) {
		t.Errorf("fill stamp = %q %q, want restamped", r.FillDate, r.FillTime)
	}
	if r.ReporterDate != later.Format(DateLayout) {
		t.Errorf("ReporterDate = %q, want restamped", r.ReporterDate)
	}
	if r.ID != "abc" || r.StudentName != "Ana" {
		t.Error("Restamp must not touch other fields")
	}
}

func TestSetField(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		wantErr bool
		check   func(r Report) bool
	}{
		{"string field", "studentName", "Ana", false, func(r Report) bool { return r.StudentName == "Ana" }},
		{"age", "studentAge", "12", false, func(r Report) bool { return r.StudentAge == 12 }},
		{"age cleared", "studentAge", "", false, func(r Report) bool { return r.StudentAge == 0 }},
		{"age invalid", "studentAge", "doze", true, nil},
		{"severity", "occurrenceSeverity", "Grave", false, func(r Report) bool { return r.OccurrenceSeverity == SeverityGrave }},
		{"severity invalid", "occurrenceSeverity", "Altíssima", true, nil},
		{"status", "status", "Resolvido", false, func(r Report) bool { return r.Status == StatusResolvido }},
		{"status case-insensitive", "status", "em análise", false, func(r Report) bool { return r.Status == StatusEmAnalise }},
		{"status invalid", "status", "Pendente", true, nil},
		{"type flag on", "occurrenceTypes.bullying", "true", false, func(r Report) bool { return r.OccurrenceTypes.Bullying }},
		{"type flag off", "occurrenceTypes.bullying", "false", false, func(r Report) bool { return !r.OccurrenceTypes.Bullying }},
		{"type flag bad value", "occurrenceTypes.bullying", "talvez", true, nil},
		{"unknown type flag", "occurrenceTypes.lateness", "true", true, nil},
		{"unknown field", "favoriteColor", "azul", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewDraft(testNow)
			err := SetField(&r, tt.field, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetField(%s, %s) err = %v, wantErr=%v", tt.field, tt.value, err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(r) {
				t.Errorf("SetField(%s, %s) did not apply", tt.field, tt.value)
			}
		})
	}
}

func TestFieldNamesRouteToTabs(t *testing.T) {
	for _, name := range FieldNames() {
		if name == "status" {
			// Lifecycle field, not on a form tab.
			continue
		}
		field, _, cut := strings.Cut(name, ".")
		if cut {
			// occurrenceTypes.<flag> routes via its parent group.
			name = field
		}
		if _, ok := TabForField(name); !ok {
			t.Errorf("settable field %q has no tab", name)
		}
	}
}

func TestTabNamesCoverAllTabs(t *testing.T) {
	if len(TabNames) != 6 {
		t.Fatalf("TabNames has %d entries, want 6", len(TabNames))
	}
	for i, name := range TabNames {
		if name == "" {
			t.Errorf("tab %d has no name", i)
		}
	}
	for field, tab := range fieldTabs {
		if tab < 0 || tab >= len(TabNames) {
			t.Errorf("field %q routed to out-of-range tab %d", field, tab)
		}
	}
}

func TestOccurrenceTypesAnyAndLabels(t *testing.T) {
	var types OccurrenceTypes
	if types.Any() {
		t.Error("zero value should report no flags")
	}
	if labels := types.Labels(); len(labels) != 0 {
		t.Errorf("Labels() = %v, want empty", labels)
	}

	types.Bullying = true
	types.Other = true
	if !types.Any() {
		t.Error("Any() = false with flags set")
	}
	labels := types.Labels()
	if len(labels) != 2 || labels[0] != "Bullying" || labels[1] != "Outros" {
		t.Errorf("Labels() = %v", labels)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"Novo", StatusNovo, false},
		{"em análise", StatusEmAnalise, false},
		{" Resolvido ", StatusResolvido, false},
		{"ARQUIVADO", StatusArquivado, false},
		{"Pendente", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) err = %v, wantErr=%v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJSONTagsAreCamelCase(t *testing.T) {
	data, err := json.Marshal(NewDraft(testNow))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{
		`"schoolUnit"`, `"studentName"`, `"occurrenceDateTime"`,
		`"occurrenceTypes"`, `"modificationHistory"`, `"guardianPhone"`,
	} {
		if !strings.Contains(string(data), key) {
			t.Errorf("serialized draft missing key %s", key)
		}
	}
}
