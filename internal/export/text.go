package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/hargabyte/sir/internal/report"
)

// Text writes a print-ready rendering of one saved report.
func Text(w io.Writer, sr report.SavedReport) error {
	var b strings.Builder

	line := strings.Repeat("=", 72)
	sep := strings.Repeat("-", 72)

	b.WriteString(line + "\n")
	b.WriteString("FICHA DE OCORRÊNCIA ESCOLAR\n")
	fmt.Fprintf(&b, "Registro: %s  (salvo em %s)\n", sr.ID, sr.SavedAt)
	b.WriteString(line + "\n\n")

	b.WriteString("IDENTIFICAÇÃO\n" + sep + "\n")
	fmt.Fprintf(&b, "Unidade escolar: %s\n", sr.SchoolUnit)
	fmt.Fprintf(&b, "Município/UF: %s/%s\n", sr.Municipality, sr.State)
	fmt.Fprintf(&b, "Preenchido em: %s às %s\n\n", sr.FillDate, sr.FillTime)

	b.WriteString("ALUNO\n" + sep + "\n")
	fmt.Fprintf(&b, "Nome: %s\n", sr.StudentName)
	fmt.Fprintf(&b, "Nascimento: %s (idade: %d)\n", sr.StudentDob, sr.StudentAge)
	fmt.Fprintf(&b, "Turma: %s  Turno: %s\n", sr.Grade, sr.Shift)
	if sr.RegistrationCode != "" {
		fmt.Fprintf(&b, "Matrícula: %s\n", sr.RegistrationCode)
	}
	b.WriteString("\n")

	b.WriteString("RESPONSÁVEL\n" + sep + "\n")
	fmt.Fprintf(&b, "Nome: %s (%s)\n", sr.GuardianName, sr.GuardianRelationship)
	fmt.Fprintf(&b, "Telefone: %s  E-mail: %s\n", sr.GuardianPhone, sr.GuardianEmail)
	fmt.Fprintf(&b, "Endereço: %s\n\n", sr.GuardianAddress)

	b.WriteString("OCORRÊNCIA\n" + sep + "\n")
	fmt.Fprintf(&b, "Data e hora: %s\n", sr.OccurrenceDateTime)
	fmt.Fprintf(&b, "Local: %s\n", sr.OccurrenceLocation)
	fmt.Fprintf(&b, "Gravidade: %s\n", sr.OccurrenceSeverity)
	fmt.Fprintf(&b, "Tipos: %s\n", strings.Join(sr.OccurrenceTypes.Labels(), ", "))
	if sr.OccurrenceTypes.Other && sr.OtherDescription != "" {
		fmt.Fprintf(&b, "Outros: %s\n", sr.OtherDescription)
	}
	fmt.Fprintf(&b, "Descrição:\n%s\n", sr.DetailedDescription)
	if len(sr.Images) > 0 {
		fmt.Fprintf(&b, "Evidências anexadas: %d imagem(ns)\n", len(sr.Images))
	}
	b.WriteString("\n")

	b.WriteString("PROVIDÊNCIAS\n" + sep + "\n")
	fmt.Fprintf(&b, "Envolvidos: %s\n", sr.PeopleInvolved)
	fmt.Fprintf(&b, "Ações imediatas: %s\n", sr.ImmediateActions)
	fmt.Fprintf(&b, "Encaminhamentos: %s\n", sr.Referrals)
	if sr.SocialObservations != "" {
		fmt.Fprintf(&b, "Observações do serviço social: %s\n", sr.SocialObservations)
	}
	b.WriteString("\n")

	b.WriteString("FINALIZAÇÃO\n" + sep + "\n")
	fmt.Fprintf(&b, "Relator: %s em %s\n", sr.ReporterName, sr.ReporterDate)
	if sr.GuardianSignName != "" {
		fmt.Fprintf(&b, "Assinatura do responsável: %s em %s\n", sr.GuardianSignName, sr.GuardianSignDate)
	}
	if sr.SocialWorkerSignName != "" {
		fmt.Fprintf(&b, "Assinatura do assistente social: %s em %s\n", sr.SocialWorkerSignName, sr.SocialWorkerSignDate)
	}
	fmt.Fprintf(&b, "Situação: %s\n", sr.Status)
	if len(sr.ModificationHistory) > 0 {
		fmt.Fprintf(&b, "Alterações: %s\n", strings.Join(sr.ModificationHistory, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
