package cmd

import (
	"strings"

	"github.com/hargabyte/sir/internal/report"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports",
	Long: `List the report history, most recently saved first, with optional filters.

Examples:
  sir list
  sir list --status "Em Análise"
  sir list --severity Grave
  sir list --student ana`,
	RunE: runList,
}

var (
	listStatus   string
	listSeverity string
	listStudent  string
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (Novo, Em Análise, Resolvido, Arquivado)")
	listCmd.Flags().StringVar(&listSeverity, "severity", "", "Filter by severity (Leve, Moderada, Grave)")
	listCmd.Flags().StringVar(&listStudent, "student", "", "Filter by student name (substring, case-insensitive)")
}

// listEntry is one row of the list output.
type listEntry struct {
	ID       string `json:"id" yaml:"id"`
	SavedAt  string `json:"savedAt" yaml:"savedAt"`
	Student  string `json:"student" yaml:"student"`
	School   string `json:"school" yaml:"school"`
	Date     string `json:"date" yaml:"date"`
	Severity string `json:"severity" yaml:"severity"`
	Status   string `json:"status" yaml:"status"`
}

func runList(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := requireSession(st); err != nil {
		return err
	}

	history, err := st.LoadHistory()
	if err != nil {
		return err
	}

	entries := make([]listEntry, 0, len(history))
	for _, sr := range history {
		if !matchesFilters(sr) {
			continue
		}
		entries = append(entries, listEntry{
			ID:       sr.ID,
			SavedAt:  sr.SavedAt,
			Student:  sr.StudentName,
			School:   sr.SchoolUnit,
			Date:     sr.OccurrenceDateTime,
			Severity: string(sr.OccurrenceSeverity),
			Status:   string(sr.Status),
		})
	}

	return printOut(entries)
}

func matchesFilters(sr report.SavedReport) bool {
	if listStatus != "" && !strings.EqualFold(string(sr.Status), listStatus) {
		return false
	}
	if listSeverity != "" && !strings.EqualFold(string(sr.OccurrenceSeverity), listSeverity) {
		return false
	}
	if listStudent != "" && !strings.Contains(strings.ToLower(sr.StudentName), strings.ToLower(listStudent)) {
		return false
	}
	return true
}
