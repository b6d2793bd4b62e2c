package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Serialize returns the canonical JSON form of a report. Dirty detection
// compares serialized forms, so this must be deterministic.
func Serialize(r Report) string {
	data, err := json.Marshal(r)
	if err != nil {
		// Report contains only marshalable types; this cannot happen.
		return ""
	}
	return string(data)
}

// Clone returns a deep copy of the report.
func (r Report) Clone() Report {
	out := r
	if r.StudentPhoto != nil {
		photo := *r.StudentPhoto
		out.StudentPhoto = &photo
	}
	out.Images = append([]Image{}, r.Images...)
	out.ModificationHistory = append([]string{}, r.ModificationHistory...)
	return out
}

// Restamp resets the fill date/time and reporter date to now. Applied when a
// saved report is loaded back into the draft for editing.
func (r *Report) Restamp(now time.Time) {
	r.FillDate = now.Format(DateLayout)
	r.FillTime = now.Format(TimeLayout)
	r.ReporterDate = now.Format(DateLayout)
}

// fieldSetter mutates a single named field from its string form.
type fieldSetter func(r *Report, value string) error

// fieldSetters maps form field names to setters. Field names match the JSON
// tags so that CLI edits, validation errors, and tab routing all share one
// vocabulary.
var fieldSetters = map[string]fieldSetter{
	"schoolUnit":           func(r *Report, v string) error { r.SchoolUnit = v; return nil },
	"municipality":         func(r *Report, v string) error { r.Municipality = v; return nil },
	"state":                func(r *Report, v string) error { r.State = v; return nil },
	"fillDate":             func(r *Report, v string) error { r.FillDate = v; return nil },
	"fillTime":             func(r *Report, v string) error { r.FillTime = v; return nil },
	"studentName":          func(r *Report, v string) error { r.StudentName = v; return nil },
	"studentDob":           func(r *Report, v string) error { r.StudentDob = v; return nil },
	"grade":                func(r *Report, v string) error { r.Grade = v; return nil },
	"shift":                func(r *Report, v string) error { r.Shift = v; return nil },
	"registrationCode":     func(r *Report, v string) error { r.RegistrationCode = v; return nil },
	"guardianName":         func(r *Report, v string) error { r.GuardianName = v; return nil },
	"guardianRelationship": func(r *Report, v string) error { r.GuardianRelationship = v; return nil },
	"guardianPhone":        func(r *Report, v string) error { r.GuardianPhone = v; return nil },
	"guardianEmail":        func(r *Report, v string) error { r.GuardianEmail = v; return nil },
	"guardianAddress":      func(r *Report, v string) error { r.GuardianAddress = v; return nil },
	"occurrenceDateTime":   func(r *Report, v string) error { r.OccurrenceDateTime = v; return nil },
	"occurrenceLocation":   func(r *Report, v string) error { r.OccurrenceLocation = v; return nil },
	"otherDescription":     func(r *Report, v string) error { r.OtherDescription = v; return nil },
	"detailedDescription":  func(r *Report, v string) error { r.DetailedDescription = v; return nil },
	"peopleInvolved":       func(r *Report, v string) error { r.PeopleInvolved = v; return nil },
	"immediateActions":     func(r *Report, v string) error { r.ImmediateActions = v; return nil },
	"referrals":            func(r *Report, v string) error { r.Referrals = v; return nil },
	"socialObservations":   func(r *Report, v string) error { r.SocialObservations = v; return nil },
	"reporterName":         func(r *Report, v string) error { r.ReporterName = v; return nil },
	"reporterDate":         func(r *Report, v string) error { r.ReporterDate = v; return nil },
	"guardianSignName":     func(r *Report, v string) error { r.GuardianSignName = v; return nil },
	"guardianSignDate":     func(r *Report, v string) error { r.GuardianSignDate = v; return nil },
	"socialWorkerSignName": func(r *Report, v string) error { r.SocialWorkerSignName = v; return nil },
	"socialWorkerSignDate": func(r *Report, v string) error { r.SocialWorkerSignDate = v; return nil },
	"studentAge": func(r *Report, v string) error {
		if v == "" {
			r.StudentAge = 0
			return nil
		}
		age, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid age: %q", v)
		}
		r.StudentAge = age
		return nil
	},
	"occurrenceSeverity": func(r *Report, v string) error {
		if v == "" {
			r.OccurrenceSeverity = ""
			return nil
		}
		sev := Severity(v)
		if !sev.IsValid() {
			return fmt.Errorf("invalid severity: %q (expected Leve, Moderada, or Grave)", v)
		}
		r.OccurrenceSeverity = sev
		return nil
	},
	"status": func(r *Report, v string) error {
		st, err := ParseStatus(v)
		if err != nil {
			return err
		}
		r.Status = st
		return nil
	},
}

// typeFlagSetters maps occurrenceTypes.<flag> field names to flag setters.
var typeFlagSetters = map[string]func(t *OccurrenceTypes, v bool){
	"physicalAssault":      func(t *OccurrenceTypes, v bool) { t.PhysicalAssault = v },
	"verbalAssault":        func(t *OccurrenceTypes, v bool) { t.VerbalAssault = v },
	"bullying":             func(t *OccurrenceTypes, v bool) { t.Bullying = v },
	"propertyDamage":       func(t *OccurrenceTypes, v bool) { t.PropertyDamage = v },
	"truancy":              func(t *OccurrenceTypes, v bool) { t.Truancy = v },
	"socialRisk":           func(t *OccurrenceTypes, v bool) { t.SocialRisk = v },
	"prohibitedSubstances": func(t *OccurrenceTypes, v bool) { t.ProhibitedSubstances = v },
	"other":                func(t *OccurrenceTypes, v bool) { t.Other = v },
}

// SetField sets a named field from its string form. Boolean occurrence flags
// are addressed as "occurrenceTypes.<flag>" with true/false values.
func SetField(r *Report, name, value string) error {
	if flag, ok := strings.CutPrefix(name, "occurrenceTypes."); ok {
		set, found := typeFlagSetters[flag]
		if !found {
			return fmt.Errorf("unknown occurrence type: %q", flag)
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q", name, value)
		}
		set(&r.OccurrenceTypes, b)
		return nil
	}

	set, ok := fieldSetters[name]
	if !ok {
		return fmt.Errorf("unknown field: %q", name)
	}
	return set(r, value)
}

// FieldNames returns all settable field names, sorted, for help output and
// completion.
func FieldNames() []string {
	names := make([]string, 0, len(fieldSetters)+len(typeFlagSetters))
	for name := range fieldSetters {
		names = append(names, name)
	}
	for flag := range typeFlagSetters {
		names = append(names, "occurrenceTypes."+flag)
	}
	sort.Strings(names)
	return names
}
