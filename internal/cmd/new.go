package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCmd represents the new command
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a fresh draft, discarding any in-progress one",
	Long: `Reset the draft to a defaulted empty report stamped with today's date.

If an unsaved draft is in progress, a confirmation is required before it is
discarded (use --yes to skip the prompt).`,
	RunE: runNew,
}

var newYes bool

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolVarP(&newYes, "yes", "y", false, "Discard a dirty draft without prompting")
}

func runNew(cmd *cobra.Command, args []string) error {
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

	if c.IsDirty() && !newYes {
		if !confirm("Há um rascunho não enviado. Descartar?") {
			fmt.Println("Operação cancelada.")
			return nil
		}
	}

	if err := c.StartNew(); err != nil {
		return err
	}
	fmt.Println("Novo rascunho iniciado.")
	return nil
}
