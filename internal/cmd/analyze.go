package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hargabyte/sir/internal/ai"
	"github.com/hargabyte/sir/internal/report"
	"github.com/hargabyte/sir/internal/store"
	"github.com/spf13/cobra"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [id]",
	Short: "Analyze an incident with the language model",
	Long: `Send an incident to the configured language model for a summary, suggested
actions, referral recommendations, and a severity assessment. With no id the
current draft is analyzed; with an id the saved report is.

Images, signatures, and guardian contact data are never sent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := requireSession(st); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	target, err := loadAnalysisTarget(st, args)
	if err != nil {
		return err
	}

	client := ai.New(ai.Config{
		BaseURL:   cfg.AI.BaseURL,
		Model:     cfg.AI.Model,
		APIKeyEnv: cfg.AI.APIKeyEnv,
		Timeout:   cfg.AITimeout(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AITimeout())
	defer cancel()

	analysis, err := client.AnalyzeIncident(ctx, target)
	if err != nil {
		return err
	}
	return printOut(analysis)
}

func loadAnalysisTarget(st *store.Store, args []string) (report.Report, error) {
	if len(args) == 1 {
		sr, err := st.FindSaved(args[0])
		if err == sql.ErrNoRows {
			return report.Report{}, fmt.Errorf("ocorrência não encontrada: %s", args[0])
		}
		if err != nil {
			return report.Report{}, err
		}
		return sr.Report, nil
	}

	draft, found, err := st.LoadDraft()
	if err != nil {
		return report.Report{}, err
	}
	if !found {
		return report.Report{}, fmt.Errorf("nenhum rascunho em andamento: informe um id ou preencha o rascunho")
	}
	return draft, nil
}
