package cmd

import (
	"context"
	"fmt"

	"github.com/hargabyte/sir/internal/ai"
	"github.com/spf13/cobra"
)

// insightsCmd represents the insights command
var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Surface trends over the report history",
	Long: `Ask the configured language model for trend observations over the saved
reports, such as recurring incident types or locations.`,
	RunE: runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
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
	if len(history) == 0 {
		return fmt.Errorf("histórico vazio: nada a analisar")
	}

	cfg, err := loadConfig()
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

	insights, err := client.TrendInsights(ctx, history)
	if err != nil {
		return err
	}
	return printOut(insights)
}
