package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved report in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := requireSession(st); err != nil {
		return err
	}

	sr, err := st.FindSaved(args[0])
	if err == sql.ErrNoRows {
		return fmt.Errorf("ocorrência não encontrada: %s", args[0])
	}
	if err != nil {
		return err
	}

	return printOut(sr)
}
