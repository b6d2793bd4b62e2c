package cmd

import (
	"fmt"
	"strings"

	"github.com/hargabyte/sir/internal/report"
	"github.com/spf13/cobra"
)

// setCmd represents the set command
var setCmd = &cobra.Command{
	Use:   "set <field>=<value> ...",
	Short: "Edit draft fields",
	Long: `Apply one or more field edits to the in-progress draft.

Field names match the form's JSON field names. Occurrence type flags are
addressed as occurrenceTypes.<flag> with true/false values. The draft is
persisted after the edits; validation only runs on submit.

Examples:
  sir set studentName="Ana Lima" state=SP
  sir set occurrenceSeverity=Grave occurrenceTypes.bullying=true
  sir set occurrenceDateTime=2026-08-12T10:30
  sir set --list   # show all field names`,
	RunE: runSet,
}

var setList bool

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().BoolVar(&setList, "list", false, "List all settable field names")
}

func runSet(cmd *cobra.Command, args []string) error {
	if setList {
		for _, name := range report.FieldNames() {
			fmt.Println(name)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("no edits given: expected <field>=<value> arguments")
	}

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

	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("invalid edit %q: expected <field>=<value>", arg)
		}
		if err := c.UpdateField(strings.TrimSpace(name), value); err != nil {
			return err
		}
	}

	if err := c.SaveDraft(); err != nil {
		return err
	}
	fmt.Printf("%d campo(s) atualizado(s).\n", len(args))
	return nil
}
