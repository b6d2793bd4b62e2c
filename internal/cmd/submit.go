package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hargabyte/sir/internal/lifecycle"
	"github.com/hargabyte/sir/internal/report"
	"github.com/spf13/cobra"
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Validate the draft and commit it to history",
	Long: `Run the form validation rules against the draft and, on success, commit it
to history. A draft loaded from history replaces its original entry and gains
a modification record; a fresh draft is inserted with a new id. Either way
the draft slot is cleared afterwards.

On validation failure nothing is persisted; the failing fields are listed
grouped by form tab, starting at the first tab with an error.`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
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

	saved, err := c.Submit()
	var verr *lifecycle.ValidationError
	if errors.As(err, &verr) {
		printValidationError(verr)
		return fmt.Errorf("envio rejeitado: corrija os campos acima")
	}
	if err != nil {
		return err
	}

	fmt.Printf("Ocorrência registrada: %s\n", saved.ID)
	return nil
}

// printValidationError lists failing fields grouped by form tab, lowest tab
// first, mirroring how the form jumps to the first erroring tab.
func printValidationError(verr *lifecycle.ValidationError) {
	byTab := make(map[int][]string)
	for field := range verr.Fields {
		tab, ok := report.TabForField(field)
		if !ok {
			tab = report.TabIdentification
		}
		byTab[tab] = append(byTab[tab], field)
	}

	for _, tab := range verr.Tabs {
		fields := byTab[tab]
		sort.Strings(fields)
		fmt.Printf("%s:\n", report.TabNames[tab])
		for _, field := range fields {
			fmt.Printf("  %s: %s\n", field, verr.Fields[field])
		}
	}
}
