// Package migrate upgrades persisted report records of unknown or older shape
// into the current domain shape.
//
// Both entry points are total: malformed input never produces an error, it
// produces a defaulted record. Migration is a deterministic pass of
// independent field-level fixups, each touching disjoint keys, so the rules
// can be reasoned about (and tested) in isolation. Migrating an already
// current record is a no-op.
package migrate

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hargabyte/sir/internal/report"
)

// reportLikeKeys mark a JSON object as a plausible report record. An object
// carrying none of them (for example "{}") is discarded and replaced with a
// fresh default rather than being half-migrated.
var reportLikeKeys = []string{
	"schoolUnit",
	"studentName",
	"occurrenceTypes",
	"occurrenceDateTime",
	"detailedDescription",
}

// fixup is a single field-level migration rule applied to the decoded record.
type fixup struct {
	name  string
	apply func(m map[string]any)
}

// fixups is the migration pipeline. Rules touch disjoint fields, so their
// order does not matter.
var fixups = []fixup{
	{"synthesize-occurrence-datetime", synthesizeOccurrenceDateTime},
	{"default-images", func(m map[string]any) { ensureArray(m, "images") }},
	{"default-student-photo", ensureStudentPhoto},
	{"default-modification-history", func(m map[string]any) { ensureArray(m, "modificationHistory") }},
	{"default-guardian-email", func(m map[string]any) { ensureString(m, "guardianEmail") }},
	{"default-severity", func(m map[string]any) { ensureString(m, "occurrenceSeverity") }},
	{"default-status", ensureStatus},
	{"fill-occurrence-types", fillOccurrenceTypes},
}

// Draft migrates a raw persisted draft into the current Report shape.
// The second return value reports whether the raw record contributed: false
// means the input was discarded and a fresh default (stamped from now) was
// produced instead.
func Draft(raw []byte, now time.Time) (report.Report, bool) {
	m, ok := decodeRecord(raw)
	if !ok {
		return report.NewDraft(now), false
	}
	applyFixups(m)
	return fromMap(m), true
}

// HistoryEntry migrates a raw persisted history entry into the current
// SavedReport shape. Entries missing an id gain a freshly generated one;
// entries missing savedAt are stamped from now.
func HistoryEntry(raw []byte, now time.Time) (report.SavedReport, bool) {
	m, ok := decodeRecord(raw)
	if !ok {
		sr := report.SavedReport{Report: report.NewDraft(now), SavedAt: now.Format(time.RFC3339)}
		sr.ID = uuid.NewString()
		return sr, false
	}
	applyFixups(m)

	sr := report.SavedReport{Report: fromMap(m)}
	sr.ID = getString(m, "id")
	if sr.ID == "" {
		sr.ID = uuid.NewString()
	}
	sr.SavedAt = getString(m, "savedAt")
	if sr.SavedAt == "" {
		sr.SavedAt = now.Format(time.RFC3339)
	}
	return sr, true
}

// History migrates a raw persisted history collection. The second return
// value is false when the raw value does not parse as a JSON array at all, in
// which case the caller should treat it as "nothing persisted". Duplicate ids
// are repaired with fresh ones so the uniqueness invariant holds on load.
func History(raw []byte, now time.Time) ([]report.SavedReport, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	out := make([]report.SavedReport, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		sr, _ := HistoryEntry(item, now)
		if seen[sr.ID] {
			sr.ID = uuid.NewString()
		}
		seen[sr.ID] = true
		out = append(out, sr)
	}
	return out, true
}

// decodeRecord parses raw as a JSON object and checks it is report-like.
func decodeRecord(raw []byte) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}
	for _, key := range reportLikeKeys {
		if _, ok := m[key]; ok {
			return m, true
		}
	}
	return nil, false
}

func applyFixups(m map[string]any) {
	for _, f := range fixups {
		f.apply(m)
	}
}

// synthesizeOccurrenceDateTime combines legacy separate occurrenceDate and
// occurrenceTime fields into occurrenceDateTime. The legacy keys are removed
// whether or not synthesis happened.
func synthesizeOccurrenceDateTime(m map[string]any) {
	if getString(m, "occurrenceDateTime") == "" {
		date := getString(m, "occurrenceDate")
		tm := getString(m, "occurrenceTime")
		if date != "" && tm != "" {
			m["occurrenceDateTime"] = date + "T" + tm
		}
	}
	delete(m, "occurrenceDate")
	delete(m, "occurrenceTime")
}

func ensureArray(m map[string]any, key string) {
	if _, ok := m[key].([]any); !ok {
		m[key] = []any{}
	}
}

func ensureString(m map[string]any, key string) {
	if _, ok := m[key].(string); !ok {
		m[key] = ""
	}
}

func ensureStudentPhoto(m map[string]any) {
	if _, ok := m["studentPhoto"].(map[string]any); !ok {
		m["studentPhoto"] = nil
	}
}

func ensureStatus(m map[string]any) {
	if s, ok := m["status"].(string); ok && report.Status(s).IsValid() {
		return
	}
	m["status"] = string(report.StatusNovo)
}

// fillOccurrenceTypes guarantees the occurrenceTypes object exists with all
// eight boolean keys present.
func fillOccurrenceTypes(m map[string]any) {
	types, ok := m["occurrenceTypes"].(map[string]any)
	if !ok {
		types = map[string]any{}
	}
	for _, key := range []string{
		"physicalAssault", "verbalAssault", "bullying", "propertyDamage",
		"truancy", "socialRisk", "prohibitedSubstances", "other",
	} {
		if _, ok := types[key].(bool); !ok {
			types[key] = false
		}
	}
	m["occurrenceTypes"] = types
}

// fromMap extracts the migrated record into a Report. Every accessor is
// type-checked, so ill-typed leftovers degrade to zero values instead of
// failing the load.
func fromMap(m map[string]any) report.Report {
	r := report.Report{
		ID: getString(m, "id"),

		SchoolUnit:   getString(m, "schoolUnit"),
		Municipality: getString(m, "municipality"),
		State:        getString(m, "state"),
		FillDate:     getString(m, "fillDate"),
		FillTime:     getString(m, "fillTime"),

		StudentName:      getString(m, "studentName"),
		StudentDob:       getString(m, "studentDob"),
		StudentAge:       getInt(m, "studentAge"),
		Grade:            getString(m, "grade"),
		Shift:            getString(m, "shift"),
		RegistrationCode: getString(m, "registrationCode"),

		GuardianName:         getString(m, "guardianName"),
		GuardianRelationship: getString(m, "guardianRelationship"),
		GuardianPhone:        getString(m, "guardianPhone"),
		GuardianEmail:        getString(m, "guardianEmail"),
		GuardianAddress:      getString(m, "guardianAddress"),

		OccurrenceDateTime:  getString(m, "occurrenceDateTime"),
		OccurrenceLocation:  getString(m, "occurrenceLocation"),
		OccurrenceSeverity:  report.Severity(getString(m, "occurrenceSeverity")),
		OtherDescription:    getString(m, "otherDescription"),
		DetailedDescription: getString(m, "detailedDescription"),

		PeopleInvolved:     getString(m, "peopleInvolved"),
		ImmediateActions:   getString(m, "immediateActions"),
		Referrals:          getString(m, "referrals"),
		SocialObservations: getString(m, "socialObservations"),

		ReporterName:         getString(m, "reporterName"),
		ReporterDate:         getString(m, "reporterDate"),
		GuardianSignName:     getString(m, "guardianSignName"),
		GuardianSignDate:     getString(m, "guardianSignDate"),
		SocialWorkerSignName: getString(m, "socialWorkerSignName"),
		SocialWorkerSignDate: getString(m, "socialWorkerSignDate"),

		Status: report.Status(getString(m, "status")),
	}

	if photo, ok := m["studentPhoto"].(map[string]any); ok {
		r.StudentPhoto = &report.Photo{
			Name: getString(photo, "name"),
			Data: getString(photo, "data"),
		}
	}

	r.Images = []report.Image{}
	if items, ok := m["images"].([]any); ok {
		for _, item := range items {
			img, ok := item.(map[string]any)
			if !ok {
				continue
			}
			r.Images = append(r.Images, report.Image{
				Name: getString(img, "name"),
				Data: getString(img, "data"),
			})
		}
	}

	r.ModificationHistory = []string{}
	if items, ok := m["modificationHistory"].([]any); ok {
		for _, item := range items {
			if s, ok := item.(string); ok {
				r.ModificationHistory = append(r.ModificationHistory, s)
			}
		}
	}

	if types, ok := m["occurrenceTypes"].(map[string]any); ok {
		r.OccurrenceTypes = report.OccurrenceTypes{
			PhysicalAssault:      getBool(types, "physicalAssault"),
			VerbalAssault:        getBool(types, "verbalAssault"),
			Bullying:             getBool(types, "bullying"),
			PropertyDamage:       getBool(types, "propertyDamage"),
			Truancy:              getBool(types, "truancy"),
			SocialRisk:           getBool(types, "socialRisk"),
			ProhibitedSubstances: getBool(types, "prohibitedSubstances"),
			Other:                getBool(types, "other"),
		}
	}

	return r
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func getBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func getInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		// Older records stored the derived age as a string.
		var n int
		for _, c := range v {
			if c < '0' || c > '9' {
				return 0
			}
			n = n*10 + int(c-'0')
		}
		return n
	default:
		return 0
	}
}
