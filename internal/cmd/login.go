package cmd

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login [passphrase]",
	Short: "Pass the shared passphrase gate",
	Long: `Unlock the data-touching commands by entering the shared passphrase.

The passphrase is compared against the SHA-256 digest stored in
.sir/config.yaml (auth.passphrase_sha256). The session flag persists until
'sir logout'.

Examples:
  sir login            # prompt for the passphrase
  sir login escola123  # pass it directly (visible in shell history)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var passphrase string
	if len(args) == 1 {
		passphrase = args[0]
	} else {
		fmt.Fprint(os.Stderr, "Senha de acesso: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
		passphrase = strings.TrimRight(line, "\r\n")
	}

	digest := hashPassphrase(passphrase)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(cfg.Auth.PassphraseSHA256)) != 1 {
		return fmt.Errorf("senha incorreta")
	}

	if err := st.SetLoggedIn(); err != nil {
		return err
	}
	fmt.Println("Acesso liberado.")
	return nil
}
