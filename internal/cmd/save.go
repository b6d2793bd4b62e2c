package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// saveCmd represents the save command
var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persist the draft without validating",
	Long: `Persist the in-progress draft exactly as it is. No validation runs and
history is not touched; this is always allowed, even mid-edit, even with an
invalid draft.`,
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
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

	if err := c.SaveDraft(); err != nil {
		return err
	}
	fmt.Println("Rascunho salvo.")
	return nil
}
