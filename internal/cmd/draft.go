package cmd

import (
	"time"

	"github.com/hargabyte/sir/internal/report"
	"github.com/hargabyte/sir/internal/validate"
	"github.com/spf13/cobra"
)

// draftCmd represents the draft command
var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Show the in-progress draft and a validation preview",
	Long: `Show the current draft, whether it differs from a fresh default, and the
validation errors a submit would hit right now. Previewing does not persist
anything.`,
	RunE: runDraft,
}

func init() {
	rootCmd.AddCommand(draftCmd)
}

// draftView is the draft command's output document.
type draftView struct {
	Mode    string               `json:"mode" yaml:"mode"`
	Dirty   bool                 `json:"dirty" yaml:"dirty"`
	Draft   report.Report        `json:"draft" yaml:"draft"`
	Errors  validate.FieldErrors `json:"errors,omitempty" yaml:"errors,omitempty"`
	ErrTabs []string             `json:"errorTabs,omitempty" yaml:"errorTabs,omitempty"`
}

func runDraft(cmd *cobra.Command, args []string) error {
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

	draft := c.Draft()
	view := draftView{
		Mode:  "new",
		Dirty: c.IsDirty(),
		Draft: draft,
	}
	if draft.ID != "" {
		view.Mode = "editing"
	}

	if errs := validate.Check(draft, time.Now()); len(errs) > 0 {
		view.Errors = errs
		seen := map[int]bool{}
		for field := range errs {
			if tab, ok := report.TabForField(field); ok && !seen[tab] {
				seen[tab] = true
			}
		}
		for tab := 0; tab < len(report.TabNames); tab++ {
			if seen[tab] {
				view.ErrTabs = append(view.ErrTabs, report.TabNames[tab])
			}
		}
	}

	return printOut(view)
}
