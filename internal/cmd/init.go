// Package cmd implements the init command for sir CLI.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hargabyte/sir/internal/config"
	"github.com/hargabyte/sir/internal/store"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .sir directory, database, and config",
	Long: `Initialize the .sir directory in the current directory.

This creates the sir.db database and a default config.yaml. On first load the
report history is seeded with a small sample dataset so the list and search
commands have something to show.

Examples:
  sir init          # Initialize in current directory
  sir init --force  # Reinitialize (overwrites existing database)`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if .sir already exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	dataDir := filepath.Join(cwd, config.DataDirName)
	dbPath := filepath.Join(dataDir, "sir.db")

	_, err = os.Stat(dbPath)
	if err == nil {
		if !initForce {
			relPath, _ := filepath.Rel(cwd, dataDir)
			fmt.Printf("Already initialized at %s\n", relPath)
			return nil
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("removing existing database: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking database path: %w", err)
	}

	st, err := store.Open(dataDir)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer st.Close()

	// An existing config.yaml is kept as-is; SaveDefault refuses to overwrite.
	if path, err := config.SaveDefault(cwd); err == nil {
		relConfig, _ := filepath.Rel(cwd, path)
		fmt.Printf("Wrote default config to %s\n", relConfig)
	}

	relPath, _ := filepath.Rel(cwd, dataDir)
	fmt.Printf("Initialized sir at %s\n", relPath)

	return nil
}
