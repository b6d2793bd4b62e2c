package migrate

import (
	"time"

	"github.com/hargabyte/sir/internal/report"
)

// Seed returns the built-in sample dataset used to populate an uninitialized
// history store on first run. Ids are fixed so reseeding a wiped data
// directory is reproducible.
func Seed(now time.Time) []report.SavedReport {
	savedAt := now.Format(time.RFC3339)

	first := report.SavedReport{SavedAt: savedAt}
	first.Report = report.Report{
		ID:                 "7a1d2f34-9c0b-4e8a-b1f6-0d5c8e2a4b91",
		SchoolUnit:         "EMEF Monteiro Lobato",
		Municipality:       "Campinas",
		State:              "SP",
		FillDate:           now.Format(report.DateLayout),
		FillTime:           "09:15",
		StudentName:        "João Pedro Almeida",
		StudentDob:         "2012-03-18",
		StudentAge:         14,
		Grade:              "8º ano B",
		Shift:              "Manhã",
		RegistrationCode:   "RA-2024-0318",
		GuardianName:       "Maria Almeida",
		GuardianRelationship: "Mãe",
		GuardianPhone:      "(19) 99876-5432",
		GuardianEmail:      "maria.almeida@example.com",
		GuardianAddress:    "Rua das Acácias, 45, Jardim Primavera",
		OccurrenceDateTime: now.AddDate(0, 0, -12).Format(report.DateLayout) + "T10:30",
		OccurrenceLocation: "Pátio",
		OccurrenceSeverity: report.SeverityModerada,
		OccurrenceTypes: report.OccurrenceTypes{
			VerbalAssault: true,
			Bullying:      true,
		},
		DetailedDescription: "Aluno envolvido em discussão com colegas durante o intervalo, " +
			"com ofensas verbais repetidas contra um colega de turma.",
		Images:              []report.Image{},
		PeopleInvolved:      "João Pedro, dois colegas da mesma turma",
		ImmediateActions:    "Conversa com os envolvidos e registro na coordenação.",
		Referrals:           "Orientação educacional",
		ReporterName:        "Carla Souza",
		ReporterDate:        now.Format(report.DateLayout),
		Status:              report.StatusEmAnalise,
		ModificationHistory: []string{},
	}

	second := report.SavedReport{SavedAt: savedAt}
	second.Report = report.Report{
		ID:                 "c58e6b0d-2a47-4f13-8e9c-6b21f4d7a3e5",
		SchoolUnit:         "EE Profª Ana Ribeiro",
		Municipality:       "Campinas",
		State:              "SP",
		FillDate:           now.Format(report.DateLayout),
		FillTime:           "14:40",
		StudentName:        "Larissa Mendes",
		StudentDob:         "2010-11-02",
		StudentAge:         15,
		Grade:              "1ª série EM",
		Shift:              "Tarde",
		GuardianName:       "Roberto Mendes",
		GuardianRelationship: "Pai",
		GuardianPhone:      "(19) 3232-1100",
		GuardianAddress:    "Avenida Brasil, 1203, Centro",
		OccurrenceDateTime: now.AddDate(0, 0, -30).Format(report.DateLayout) + "T16:05",
		OccurrenceLocation: "Sala de aula",
		OccurrenceSeverity: report.SeverityLeve,
		OccurrenceTypes: report.OccurrenceTypes{
			Truancy: true,
		},
		DetailedDescription: "Faltas recorrentes sem justificativa ao longo das últimas " +
			"três semanas, com queda de rendimento nas avaliações.",
		Images:              []report.Image{},
		ImmediateActions:    "Contato telefônico com o responsável.",
		Referrals:           "Conselho tutelar notificado para acompanhamento.",
		SocialObservations:  "Família em acompanhamento pelo CRAS desde o semestre anterior.",
		ReporterName:        "Carla Souza",
		ReporterDate:        now.Format(report.DateLayout),
		Status:              report.StatusResolvido,
		ModificationHistory: []string{},
	}

	return []report.SavedReport{first, second}
}
