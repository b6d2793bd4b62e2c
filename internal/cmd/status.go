package cmd

import (
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session, draft, and history status",
	RunE:  runStatus,
}

// statusView is the status command output.
type statusView struct {
	LoggedIn     bool           `json:"loggedIn" yaml:"loggedIn"`
	DataDir      string         `json:"dataDir" yaml:"dataDir"`
	Reports      int            `json:"reports" yaml:"reports"`
	Draft        string         `json:"draft" yaml:"draft"`
	UnsavedDraft bool           `json:"unsavedDraft" yaml:"unsavedDraft"`
	ByStatus     map[string]int `json:"byStatus" yaml:"byStatus"`
	BySeverity   map[string]int `json:"bySeverity" yaml:"bySeverity"`
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, dataDir, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	view := statusView{DataDir: dataDir}

	view.LoggedIn, err = st.IsLoggedIn()
	if err != nil {
		return err
	}
	if !view.LoggedIn {
		return printOut(view)
	}

	history, err := st.LoadHistory()
	if err != nil {
		return err
	}
	view.Reports = len(history)
	view.ByStatus = make(map[string]int)
	view.BySeverity = make(map[string]int)
	for _, sr := range history {
		view.ByStatus[string(sr.Status)]++
		if sr.OccurrenceSeverity != "" {
			view.BySeverity[string(sr.OccurrenceSeverity)]++
		}
	}

	c, err := newController(st)
	if err != nil {
		return err
	}
	switch {
	case c.Editing():
		view.Draft = "editing " + c.Draft().ID
	case c.IsDirty():
		view.Draft = "in progress"
	default:
		view.Draft = "empty"
	}
	view.UnsavedDraft = c.NeedsExitConfirm()

	return printOut(view)
}
