package cmd

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/hargabyte/sir/internal/config"
	"github.com/hargabyte/sir/internal/lifecycle"
	"github.com/hargabyte/sir/internal/output"
	"github.com/hargabyte/sir/internal/store"
)

// openStore locates the .sir data directory and opens the store.
func openStore() (*store.Store, string, error) {
	dataDir, err := config.FindDataDir(".")
	if err != nil {
		return nil, "", fmt.Errorf("sir not initialized: run 'sir init' first")
	}

	st, err := store.Open(dataDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open store: %w", err)
	}
	return st, dataDir, nil
}

// loadConfig loads config from the nearest .sir directory, falling back to
// defaults.
func loadConfig() (*config.Config, error) {
	return config.Load(".")
}

// requireSession enforces the passphrase gate for data-touching commands.
func requireSession(st *store.Store) error {
	loggedIn, err := st.IsLoggedIn()
	if err != nil {
		return err
	}
	if !loggedIn {
		return fmt.Errorf("not logged in: run 'sir login' first")
	}
	return nil
}

// newController builds a lifecycle controller over the store.
func newController(st *store.Store) (*lifecycle.Controller, error) {
	return lifecycle.New(st)
}

// printOut renders v to stdout in the selected output format.
func printOut(v any) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	return output.Write(os.Stdout, v, format)
}

// hashPassphrase returns the SHA-256 hex digest of a passphrase.
func hashPassphrase(passphrase string) string {
	sum := sha256.Sum256([]byte(passphrase))
	return hex.EncodeToString(sum[:])
}

// confirm prompts the user with a yes/no question on stderr and reads the
// answer from stdin. Only "s", "sim", "y", and "yes" count as confirmation.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [s/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}
