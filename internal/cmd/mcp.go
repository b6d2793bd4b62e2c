package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/hargabyte/sir/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio. This allows AI
agents to query the report history through MCP tools instead of spawning CLI
commands.

Available Tools:
  sir_list      List saved reports with optional filters
  sir_show      Show one report in full
  sir_search    Substring search over the history
  sir_status    History totals by status and severity
  sir_analyze   Language-model analysis of one incident
  sir_insights  Language-model trends over the history

Examples:
  sir mcp                             # Start with default tools
  sir mcp --tools list,show,analyze   # Start with specific tools only
  sir mcp --timeout 30m               # Auto-stop after 30 minutes idle
  sir mcp --list-tools                # Show available tools`,
	RunE: runMCP,
}

var (
	mcpTools     string
	mcpTimeout   string
	mcpListTools bool
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpTools, "tools", "", "Comma-separated list of tools to expose (default: list,show,search,status)")
	mcpCmd.Flags().StringVar(&mcpTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
	mcpCmd.Flags().BoolVar(&mcpListTools, "list-tools", false, "List available tools")
}

func runMCP(cmd *cobra.Command, args []string) error {
	if mcpListTools {
		fmt.Println("Available MCP tools:")
		fmt.Println()
		fmt.Println("  sir_list      List saved reports with optional filters")
		fmt.Println("  sir_show      Show one report in full")
		fmt.Println("  sir_search    Substring search over the history")
		fmt.Println("  sir_status    History totals by status and severity")
		fmt.Println("  sir_analyze   Language-model analysis of one incident")
		fmt.Println("  sir_insights  Language-model trends over the history")
		fmt.Println()
		fmt.Println("Default set: list, show, search, status")
		return nil
	}

	var timeout time.Duration
	if mcpTimeout != "" && mcpTimeout != "0" {
		var err error
		timeout, err = time.ParseDuration(mcpTimeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
	}

	var tools []string
	if mcpTools != "" {
		for _, t := range strings.Split(mcpTools, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			// Allow shorthand (list -> sir_list)
			if !strings.HasPrefix(t, "sir_") {
				t = "sir_" + t
			}
			tools = append(tools, t)
		}
	}

	srv, err := mcp.New(mcp.Config{Tools: tools, Timeout: timeout})
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.ServeStdio()
}
