package report

// Form tabs, in wizard order. Validation errors are routed to the tab that
// holds the failing field so the UI can jump to the first one.
const (
	TabIdentification = 0
	TabStudent        = 1
	TabGuardian       = 2
	TabOccurrence     = 3
	TabResponse       = 4
	TabFinalization   = 5
)

// TabNames maps tab indexes to display names.
var TabNames = [...]string{
	TabIdentification: "Identificação",
	TabStudent:        "Aluno",
	TabGuardian:       "Responsável",
	TabOccurrence:     "Ocorrência",
	TabResponse:       "Providências",
	TabFinalization:   "Finalização",
}

// fieldTabs routes each form field to its tab.
var fieldTabs = map[string]int{
	"schoolUnit":   TabIdentification,
	"municipality": TabIdentification,
	"state":        TabIdentification,
	"fillDate":     TabIdentification,
	"fillTime":     TabIdentification,

	"studentName":      TabStudent,
	"studentPhoto":     TabStudent,
	"studentDob":       TabStudent,
	"studentAge":       TabStudent,
	"grade":            TabStudent,
	"shift":            TabStudent,
	"registrationCode": TabStudent,

	"guardianName":         TabGuardian,
	"guardianRelationship": TabGuardian,
	"guardianPhone":        TabGuardian,
	"guardianEmail":        TabGuardian,
	"guardianAddress":      TabGuardian,

	"occurrenceDateTime":  TabOccurrence,
	"occurrenceLocation":  TabOccurrence,
	"occurrenceSeverity":  TabOccurrence,
	"occurrenceTypes":     TabOccurrence,
	"otherDescription":    TabOccurrence,
	"detailedDescription": TabOccurrence,
	"images":              TabOccurrence,

	"peopleInvolved":     TabResponse,
	"immediateActions":   TabResponse,
	"referrals":          TabResponse,
	"socialObservations": TabResponse,

	"reporterName":         TabFinalization,
	"reporterDate":         TabFinalization,
	"guardianSignName":     TabFinalization,
	"guardianSignDate":     TabFinalization,
	"socialWorkerSignName": TabFinalization,
	"socialWorkerSignDate": TabFinalization,
}

// TabForField returns the tab index holding the given field.
func TabForField(field string) (int, bool) {
	tab, ok := fieldTabs[field]
	return tab, ok
}
