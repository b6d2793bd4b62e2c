// Package validate applies the incident form business rules to a draft report.
//
// Check is pure and deterministic: every rule is evaluated independently
// against the full draft (no short-circuiting), each violated rule
// contributes its own entry, and a field that is not in violation never
// appears in the result. The reference instant is passed in explicitly so the
// future-date rules are testable.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/hargabyte/sir/internal/report"
)

// FieldErrors maps a field name to a human-readable error message.
// An absent key means the field is valid.
type FieldErrors map[string]string

// Messages shared across rules.
const (
	msgRequired       = "Campo obrigatório"
	msgSelectOneType  = "Selecione pelo menos um tipo de ocorrência"
	msgStateFormat    = "Informe a sigla do estado com 2 letras"
	msgFutureDate     = "A data não pode estar no futuro"
	msgFutureDateTime = "A data e hora não podem estar no futuro"
	msgRegCodeFormat  = "Use no máximo 20 caracteres: letras, números e hífens"
	msgPhoneFormat    = "Informe DDD + número com 8 ou 9 dígitos"
	msgEmailFormat    = "Informe um e-mail válido"
	msgAddressFormat  = "Informe um endereço completo, ex: Rua das Flores, 123, Centro"
)

// requiredFields lists the fields that must be non-empty, with their getters.
var requiredFields = []struct {
	name string
	get  func(r report.Report) string
}{
	{"schoolUnit", func(r report.Report) string { return r.SchoolUnit }},
	{"municipality", func(r report.Report) string { return r.Municipality }},
	{"state", func(r report.Report) string { return r.State }},
	{"studentName", func(r report.Report) string { return r.StudentName }},
	{"studentDob", func(r report.Report) string { return r.StudentDob }},
	{"occurrenceDateTime", func(r report.Report) string { return r.OccurrenceDateTime }},
	{"occurrenceLocation", func(r report.Report) string { return r.OccurrenceLocation }},
	{"occurrenceSeverity", func(r report.Report) string { return string(r.OccurrenceSeverity) }},
	{"detailedDescription", func(r report.Report) string { return r.DetailedDescription }},
	{"reporterName", func(r report.Report) string { return r.ReporterName }},
	{"reporterDate", func(r report.Report) string { return r.ReporterDate }},
}

// maxLengths holds the per-field length ceilings, with their getters.
var maxLengths = []struct {
	name  string
	limit int
	get   func(r report.Report) string
}{
	{"schoolUnit", 100, func(r report.Report) string { return r.SchoolUnit }},
	{"municipality", 100, func(r report.Report) string { return r.Municipality }},
	{"studentName", 150, func(r report.Report) string { return r.StudentName }},
	{"grade", 30, func(r report.Report) string { return r.Grade }},
	{"guardianName", 150, func(r report.Report) string { return r.GuardianName }},
	{"guardianAddress", 250, func(r report.Report) string { return r.GuardianAddress }},
	{"occurrenceLocation", 100, func(r report.Report) string { return r.OccurrenceLocation }},
	{"otherDescription", 200, func(r report.Report) string { return r.OtherDescription }},
	{"detailedDescription", 2000, func(r report.Report) string { return r.DetailedDescription }},
	{"peopleInvolved", 500, func(r report.Report) string { return r.PeopleInvolved }},
	{"immediateActions", 1000, func(r report.Report) string { return r.ImmediateActions }},
	{"referrals", 500, func(r report.Report) string { return r.Referrals }},
	{"socialObservations", 1000, func(r report.Report) string { return r.SocialObservations }},
	{"reporterName", 150, func(r report.Report) string { return r.ReporterName }},
}

// dateOnlyFields must not be after the end of the current local day.
var dateOnlyFields = []struct {
	name string
	get  func(r report.Report) string
}{
	{"studentDob", func(r report.Report) string { return r.StudentDob }},
	{"reporterDate", func(r report.Report) string { return r.ReporterDate }},
	{"guardianSignDate", func(r report.Report) string { return r.GuardianSignDate }},
	{"socialWorkerSignDate", func(r report.Report) string { return r.SocialWorkerSignDate }},
}

var (
	stateRe   = regexp.MustCompile(`^[A-Za-z]{2}$`)
	regCodeRe = regexp.MustCompile(`^[A-Za-z0-9-]*$`)
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsRe  = regexp.MustCompile(`\D`)
)

// Check validates a draft against the form business rules, using now as the
// reference instant for the future-date rules.
func Check(r report.Report, now time.Time) FieldErrors {
	errs := FieldErrors{}

	for _, f := range requiredFields {
		if strings.TrimSpace(f.get(r)) == "" {
			errs[f.name] = msgRequired
		}
	}

	for _, f := range maxLengths {
		if n := len([]rune(f.get(r))); n > f.limit {
			errs[f.name] = fmt.Sprintf("Máximo de %d caracteres para %s (informados: %d)", f.limit, f.name, n)
		}
	}

	if r.State != "" && !stateRe.MatchString(r.State) {
		errs["state"] = msgStateFormat
	}

	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	for _, f := range dateOnlyFields {
		value := f.get(r)
		if value == "" {
			continue
		}
		d, err := time.ParseInLocation(report.DateLayout, value, now.Location())
		if err != nil {
			errs[f.name] = "Data inválida"
			continue
		}
		if d.After(endOfToday) {
			errs[f.name] = msgFutureDate
		}
	}

	if r.OccurrenceDateTime != "" {
		dt, err := time.ParseInLocation(report.DateTimeLayout, r.OccurrenceDateTime, now.Location())
		if err != nil {
			errs["occurrenceDateTime"] = "Data e hora inválidas"
		} else if dt.After(now) {
			errs["occurrenceDateTime"] = msgFutureDateTime
		}
	}

	if r.RegistrationCode != "" {
		if len(r.RegistrationCode) > 20 || !regCodeRe.MatchString(r.RegistrationCode) {
			errs["registrationCode"] = msgRegCodeFormat
		}
	}

	if r.GuardianAddress != "" && !plausibleAddress(r.GuardianAddress) {
		errs["guardianAddress"] = msgAddressFormat
	}

	if digits := digitsRe.ReplaceAllString(r.GuardianPhone, ""); digits != "" {
		if !validPhone(digits) {
			errs["guardianPhone"] = msgPhoneFormat
		}
	}

	if r.GuardianEmail != "" && !emailRe.MatchString(r.GuardianEmail) {
		errs["guardianEmail"] = msgEmailFormat
	}

	if !r.OccurrenceTypes.Any() {
		errs["occurrenceTypes"] = msgSelectOneType
	}

	if r.OccurrenceTypes.Other && strings.TrimSpace(r.OtherDescription) == "" {
		errs["otherDescription"] = "Descreva o tipo de ocorrência marcado como Outros"
	}

	return errs
}

// plausibleAddress applies the address plausibility heuristic: at least 10
// characters, at least one digit, at least one comma, and at least 3
// whitespace-separated tokens.
func plausibleAddress(addr string) bool {
	if len([]rune(addr)) < 10 {
		return false
	}
	if !strings.ContainsAny(addr, "0123456789") {
		return false
	}
	if !strings.Contains(addr, ",") {
		return false
	}
	return len(strings.Fields(addr)) >= 3
}

// validPhone accepts Brazilian numbers as area code plus an 8 or 9 digit
// number. The digit-count rule decides; libphonenumber is consulted as a
// secondary plausibility check when it can parse the number.
func validPhone(digits string) bool {
	if len(digits) != 10 && len(digits) != 11 {
		return false
	}
	num, err := phonenumbers.Parse(digits, "BR")
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(num)
}
