package cmd

import (
	"errors"
	"fmt"

	"github.com/hargabyte/sir/internal/lifecycle"
	"github.com/spf13/cobra"
)

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Load a saved report into the draft for editing",
	Long: `Copy a saved report back into the draft slot. The fill date/time and
reporter date are re-stamped to today; the id is kept so a later submit
updates the original entry instead of inserting a new one.

If an unsaved draft for a different report is in progress, a confirmation is
required before it is discarded (use --discard to skip the prompt).`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var editDiscard bool

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().BoolVar(&editDiscard, "discard", false, "Discard a dirty draft without prompting")
}

func runEdit(cmd *cobra.Command, args []string) error {
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

	err = c.LoadForEdit(id)
	if errors.Is(err, lifecycle.ErrDirtyDraft) {
		if !editDiscard && !confirm("Há um rascunho não enviado. Descartar e carregar a ocorrência?") {
			fmt.Println("Operação cancelada.")
			return nil
		}
		err = c.DiscardAndLoad(id)
	}
	if errors.Is(err, lifecycle.ErrNotFound) {
		return fmt.Errorf("ocorrência não encontrada: %s", id)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Ocorrência %s carregada para edição.\n", id)
	return nil
}
