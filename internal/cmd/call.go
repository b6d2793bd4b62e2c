package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hargabyte/sir/internal/mcp"
	"github.com/spf13/cobra"
)

var (
	callList bool
	callPipe bool
)

var callCmd = &cobra.Command{
	Use:   "call [tool] [json-args]",
	Short: "Call an MCP tool directly with JSON input/output",
	Long: `Call any sir MCP tool with structured JSON input and output, without
starting a server. Useful for scripting and for agents that shell out.

Modes:
  sir call --list                         List all tools and parameters
  sir call <tool> '{"key":"value"}'       Call a tool with JSON args
  sir call --pipe                         Read JSON lines from stdin

Tool names accept shorthand: "list" is equivalent to "sir_list".

Examples:
  sir call --list
  sir call list '{"severity":"Grave"}'
  sir call show '{"id":"c58e6b0d"}'
  sir call search '{"query":"pátio"}'
  echo '{"tool":"sir_search","args":{"query":"ana"}}' | sir call --pipe`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().BoolVar(&callList, "list", false, "List all available tools and their parameters")
	callCmd.Flags().BoolVar(&callPipe, "pipe", false, "Read JSON lines from stdin (pipe mode)")
}

func runCall(cmd *cobra.Command, args []string) error {
	if callList {
		return runCallList()
	}
	if callPipe {
		return runCallPipe()
	}
	if len(args) == 0 {
		return fmt.Errorf("tool name required (run 'sir call --list' to see available tools)")
	}
	return runCallSingle(args)
}

func runCallList() error {
	srv, err := mcp.New(mcp.Config{Tools: mcp.AllTools})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	return printOut(srv.GetToolSchemas())
}

func runCallSingle(args []string) error {
	toolName := normalizeToolName(args[0])

	var toolArgs map[string]interface{}
	if len(args) >= 2 {
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return fmt.Errorf("invalid JSON args: %w", err)
		}
	} else {
		toolArgs = make(map[string]interface{})
	}

	srv, err := mcp.New(mcp.Config{Tools: mcp.AllTools})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	result, err := srv.CallTool(toolName, toolArgs)
	if err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}

// pipeRequest is the JSON format for pipe mode input.
type pipeRequest struct {
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// pipeResponse is the JSON format for pipe mode output.
type pipeResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func runCallPipe() error {
	srv, err := mcp.New(mcp.Config{Tools: mcp.AllTools})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	enc := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	// Allow larger lines (1MB)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req pipeRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			enc.Encode(pipeResponse{Error: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}

		toolName := normalizeToolName(req.Tool)
		if req.Args == nil {
			req.Args = make(map[string]interface{})
		}

		result, err := srv.CallTool(toolName, req.Args)
		if err != nil {
			enc.Encode(pipeResponse{Error: err.Error()})
			continue
		}

		var raw json.RawMessage
		if err := json.Unmarshal([]byte(result), &raw); err != nil {
			b, _ := json.Marshal(result)
			raw = b
		}
		enc.Encode(pipeResponse{Result: raw})
	}

	return scanner.Err()
}

// normalizeToolName converts shorthand names to full tool names.
// "list" -> "sir_list", "sir_list" -> "sir_list"
func normalizeToolName(name string) string {
	if !strings.HasPrefix(name, "sir_") {
		return "sir_" + name
	}
	return name
}
