package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hargabyte/sir/internal/export"
	"github.com/hargabyte/sir/internal/store"
	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export reports to CSV or a print-ready text sheet",
	Long: `Export the report history to a CSV spreadsheet, or a single report to a
print-ready text sheet.

Examples:
  sir export                     CSV of the whole history
  sir export --out reports.csv   CSV to an explicit path
  sir export c58e6b0d            text sheet of one report
  sir export c58e6b0d --stdout   text sheet to stdout`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var (
	exportOut    string
	exportStdout bool
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default: under the configured export dir)")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Write to stdout instead of a file")
}

func runExport(cmd *cobra.Command, args []string) error {
	st, dataDir, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := requireSession(st); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return exportSheet(st, cfg.Export.Dir, dataDir, args[0])
	}
	return exportCSV(st, cfg.Export.Dir, dataDir)
}

func exportCSV(st *store.Store, exportDir, dataDir string) error {
	history, err := st.LoadHistory()
	if err != nil {
		return err
	}

	if exportStdout {
		return export.CSV(os.Stdout, history)
	}

	path := exportOut
	if path == "" {
		path = filepath.Join(exportBase(exportDir, dataDir),
			fmt.Sprintf("ocorrencias-%s.csv", time.Now().Format("2006-01-02")))
	}
	f, err := createExportFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.CSV(f, history); err != nil {
		return err
	}
	fmt.Printf("Exported %d reports to %s\n", len(history), path)
	return nil
}

func exportSheet(st *store.Store, exportDir, dataDir, id string) error {
	sr, err := st.FindSaved(id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("ocorrência não encontrada: %s", id)
	}
	if err != nil {
		return err
	}

	if exportStdout {
		return export.Text(os.Stdout, sr)
	}

	path := exportOut
	if path == "" {
		path = filepath.Join(exportBase(exportDir, dataDir),
			fmt.Sprintf("ficha-%s.txt", sr.ID))
	}
	f, err := createExportFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.Text(f, sr); err != nil {
		return err
	}
	fmt.Printf("Exported report to %s\n", path)
	return nil
}

// exportBase resolves the export directory: absolute paths are used as-is,
// relative paths hang off the data directory's parent (the project root).
func exportBase(exportDir, dataDir string) string {
	if filepath.IsAbs(exportDir) {
		return exportDir
	}
	return filepath.Join(filepath.Dir(dataDir), exportDir)
}

func createExportFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create export file: %w", err)
	}
	return f, nil
}
