package cmd

import (
	"context"
	"strings"

	"github.com/hargabyte/sir/internal/ai"
	"github.com/hargabyte/sir/internal/report"
	"github.com/spf13/cobra"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the report history",
	Long: `Search saved reports. By default the query is matched as a case-insensitive
substring against the student name, school unit, location, and description.
With --ai the query is answered by the configured language model instead.

Each query is remembered; 'sir search --recent' lists the last five terms.`,
	RunE: runSearch,
}

var (
	searchAI     bool
	searchRecent bool
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(&searchAI, "ai", false, "Answer the query with the language model")
	searchCmd.Flags().BoolVar(&searchRecent, "recent", false, "List recent search terms instead of searching")
}

func runSearch(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := requireSession(st); err != nil {
		return err
	}

	if searchRecent {
		terms, err := st.RecentSearches()
		if err != nil {
			return err
		}
		return printOut(terms)
	}

	if len(args) == 0 {
		return cmd.Help()
	}
	query := strings.TrimSpace(strings.Join(args, " "))

	history, err := st.LoadHistory()
	if err != nil {
		return err
	}

	var matched []report.SavedReport
	if searchAI {
		matched, err = aiSearch(query, history)
		if err != nil {
			return err
		}
	} else {
		matched = substringSearch(query, history)
	}

	if err := st.AddRecentSearch(query); err != nil {
		return err
	}

	entries := make([]listEntry, 0, len(matched))
	for _, sr := range matched {
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

// substringSearch matches the query against the textual fields a secretary
// would scan for: student, school, location, and description.
func substringSearch(query string, history []report.SavedReport) []report.SavedReport {
	q := strings.ToLower(query)
	var matched []report.SavedReport
	for _, sr := range history {
		haystack := strings.ToLower(strings.Join([]string{
			sr.StudentName,
			sr.SchoolUnit,
			sr.OccurrenceLocation,
			sr.DetailedDescription,
		}, "\n"))
		if strings.Contains(haystack, q) {
			matched = append(matched, sr)
		}
	}
	return matched
}

func aiSearch(query string, history []report.SavedReport) ([]report.SavedReport, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client := ai.New(ai.Config{
		BaseURL:   cfg.AI.BaseURL,
		Model:     cfg.AI.Model,
		APIKeyEnv: cfg.AI.APIKeyEnv,
		Timeout:   cfg.AITimeout(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AITimeout())
	defer cancel()

	ids, err := client.SearchReports(ctx, query, history)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]report.SavedReport, len(history))
	for _, sr := range history {
		byID[sr.ID] = sr
	}
	matched := make([]report.SavedReport, 0, len(ids))
	for _, id := range ids {
		if sr, ok := byID[id]; ok {
			matched = append(matched, sr)
		}
	}
	return matched, nil
}
