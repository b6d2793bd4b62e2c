package cmd

import (
	"errors"
	"fmt"

	"github.com/hargabyte/sir/internal/lifecycle"
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved report from history",
	Long: `Remove a report from history. If the report is currently loaded as the
draft, the draft is reset to a fresh default as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteYes bool

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without prompting")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]

	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := requireSession(st); err != nil {
		return err
	}

	c, err := newController(st)
	if err != nil {
		return err
	}

	if !deleteYes && !confirm(fmt.Sprintf("Excluir a ocorrência %s?", id)) {
		fmt.Println("Operação cancelada.")
		return nil
	}

	err = c.DeleteSaved(id)
	if errors.Is(err, lifecycle.ErrNotFound) {
		return fmt.Errorf("ocorrência não encontrada: %s", id)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Ocorrência %s excluída.\n", id)
	return nil
}
