// Package report defines the school incident report domain model.
//
// A Report mirrors the multi-tab incident form: institutional data, student,
// guardian, occurrence, response, and finalization fields. A SavedReport is a
// Report committed to history with an identifier and save timestamp. All date
// and time fields are kept as form-style strings ("2006-01-02", "15:04",
// "2006-01-02T15:04") so that records of any age load without loss.
package report

import (
	"fmt"
	"strings"
	"time"
)

// Severity classifies how serious an occurrence is.
type Severity string

const (
	SeverityLeve     Severity = "Leve"
	SeverityModerada Severity = "Moderada"
	SeverityGrave    Severity = "Grave"
)

// ValidSeverities lists the accepted severity values.
var ValidSeverities = []Severity{SeverityLeve, SeverityModerada, SeverityGrave}

// IsValid reports whether the severity is one of the accepted values.
func (s Severity) IsValid() bool {
	for _, v := range ValidSeverities {
		if s == v {
			return true
		}
	}
	return false
}

// Status tracks a report through its workflow.
type Status string

const (
	StatusNovo      Status = "Novo"
	StatusEmAnalise Status = "Em Análise"
	StatusResolvido Status = "Resolvido"
	StatusArquivado Status = "Arquivado"
)

// ValidStatuses lists the accepted workflow statuses.
var ValidStatuses = []Status{StatusNovo, StatusEmAnalise, StatusResolvido, StatusArquivado}

// IsValid reports whether the status is one of the accepted values.
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus parses a string into a Status.
// Returns an error for unknown status values.
func ParseStatus(s string) (Status, error) {
	for _, v := range ValidStatuses {
		if strings.EqualFold(string(v), strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid status: %q (expected Novo, Em Análise, Resolvido, or Arquivado)", s)
}

// OccurrenceTypes holds the fixed set of incident category flags.
// All eight keys are always serialized; migration guarantees they are
// never partially omitted in stored records.
type OccurrenceTypes struct {
	PhysicalAssault      bool `json:"physicalAssault"`
	VerbalAssault        bool `json:"verbalAssault"`
	Bullying             bool `json:"bullying"`
	PropertyDamage       bool `json:"propertyDamage"`
	Truancy              bool `json:"truancy"`
	SocialRisk           bool `json:"socialRisk"`
	ProhibitedSubstances bool `json:"prohibitedSubstances"`
	Other                bool `json:"other"`
}

// Any reports whether at least one category flag is set.
func (t OccurrenceTypes) Any() bool {
	return t.PhysicalAssault || t.VerbalAssault || t.Bullying || t.PropertyDamage ||
		t.Truancy || t.SocialRisk || t.ProhibitedSubstances || t.Other
}

// Labels returns the human-readable names of the set flags.
func (t OccurrenceTypes) Labels() []string {
	var labels []string
	for _, e := range []struct {
		set   bool
		label string
	}{
		{t.PhysicalAssault, "Agressão física"},
		{t.VerbalAssault, "Agressão verbal"},
		{t.Bullying, "Bullying"},
		{t.PropertyDamage, "Dano ao patrimônio"},
		{t.Truancy, "Evasão escolar"},
		{t.SocialRisk, "Risco social"},
		{t.ProhibitedSubstances, "Substâncias proibidas"},
		{t.Other, "Outros"},
	} {
		if e.set {
			labels = append(labels, e.label)
		}
	}
	return labels
}

// Image is an evidence image attached to a report, with the file name and
// the embedded image data (a data URL).
type Image struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// Photo is the optional student photo.
type Photo struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// Report is the incident report domain entity. A draft Report may carry an
// ID when it was loaded from history for editing; a new draft has none.
type Report struct {
	ID string `json:"id,omitempty"`

	// Institutional
	SchoolUnit   string `json:"schoolUnit"`
	Municipality string `json:"municipality"`
	State        string `json:"state"`
	FillDate     string `json:"fillDate"`
	FillTime     string `json:"fillTime"`

	// Student
	StudentName      string `json:"studentName"`
	StudentPhoto     *Photo `json:"studentPhoto"`
	StudentDob       string `json:"studentDob"`
	StudentAge       int    `json:"studentAge"`
	Grade            string `json:"grade"`
	Shift            string `json:"shift"`
	RegistrationCode string `json:"registrationCode"`

	// Guardian
	GuardianName         string `json:"guardianName"`
	GuardianRelationship string `json:"guardianRelationship"`
	GuardianPhone        string `json:"guardianPhone"`
	GuardianEmail        string `json:"guardianEmail"`
	GuardianAddress      string `json:"guardianAddress"`

	// Occurrence
	OccurrenceDateTime  string          `json:"occurrenceDateTime"`
	OccurrenceLocation  string          `json:"occurrenceLocation"`
	OccurrenceSeverity  Severity        `json:"occurrenceSeverity"`
	OccurrenceTypes     OccurrenceTypes `json:"occurrenceTypes"`
	OtherDescription    string          `json:"otherDescription"`
	DetailedDescription string          `json:"detailedDescription"`
	Images              []Image         `json:"images"`

	// Response
	PeopleInvolved     string `json:"peopleInvolved"`
	ImmediateActions   string `json:"immediateActions"`
	Referrals          string `json:"referrals"`
	SocialObservations string `json:"socialObservations"`

	// Finalization
	ReporterName         string `json:"reporterName"`
	ReporterDate         string `json:"reporterDate"`
	GuardianSignName     string `json:"guardianSignName"`
	GuardianSignDate     string `json:"guardianSignDate"`
	SocialWorkerSignName string `json:"socialWorkerSignName"`
	SocialWorkerSignDate string `json:"socialWorkerSignDate"`

	// Lifecycle
	Status              Status   `json:"status"`
	ModificationHistory []string `json:"modificationHistory"`
}

// SavedReport is a Report committed to history. SavedAt is stamped on first
// save and never updated; subsequent edits append to ModificationHistory.
type SavedReport struct {
	Report
	SavedAt string `json:"savedAt"`
}

// Date and time layouts used by form fields.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = "2006-01-02T15:04"
)

// NewDraft returns a defaulted empty report with the fill date/time and
// reporter date stamped from now.
func NewDraft(now time.Time) Report {
	return Report{
		FillDate:            now.Format(DateLayout),
		FillTime:            now.Format(TimeLayout),
		ReporterDate:        now.Format(DateLayout),
		Status:              StatusNovo,
		Images:              []Image{},
		ModificationHistory: []string{},
	}
}
