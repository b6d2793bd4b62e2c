// Package mcp provides an MCP (Model Context Protocol) server for sir.
// This allows AI agents to query the report history through MCP tools instead
// of CLI commands.
package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hargabyte/sir/internal/ai"
	"github.com/hargabyte/sir/internal/config"
	"github.com/hargabyte/sir/internal/report"
	"github.com/hargabyte/sir/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with sir-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	store        *store.Store
	ai           *ai.Client
	dataDir      string
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// DefaultTools is the default set of tools to expose
var DefaultTools = []string{"sir_list", "sir_show", "sir_search", "sir_status"}

// AllTools lists all available tools
var AllTools = []string{"sir_list", "sir_show", "sir_search", "sir_status", "sir_analyze", "sir_insights"}

// New creates a new MCP server for sir
func New(cfg Config) (*Server, error) {
	dataDir, err := config.FindDataDir(".")
	if err != nil {
		return nil, fmt.Errorf("sir not initialized: run 'sir init' first")
	}

	storeDB, err := store.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	appCfg, err := config.Load(".")
	if err != nil {
		storeDB.Close()
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		"sir",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer: mcpServer,
		store:     storeDB,
		ai: ai.New(ai.Config{
			BaseURL:   appCfg.AI.BaseURL,
			Model:     appCfg.AI.Model,
			APIKeyEnv: appCfg.AI.APIKeyEnv,
			Timeout:   appCfg.AITimeout(),
		}),
		dataDir:      dataDir,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = DefaultTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			storeDB.Close()
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "sir_list":
		return s.registerListTool()
	case "sir_show":
		return s.registerShowTool()
	case "sir_search":
		return s.registerSearchTool()
	case "sir_status":
		return s.registerStatusTool()
	case "sir_analyze":
		return s.registerAnalyzeTool()
	case "sir_insights":
		return s.registerInsightsTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "sir mcp: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Close closes the server and its resources
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// ListTools returns the list of registered tools
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry holds the schema definitions for all tools.
// These mirror the mcp.NewTool() definitions in the register*Tool() functions.
var toolSchemaRegistry = map[string]ToolSchema{
	"sir_list": {
		Name:        "sir_list",
		Description: "List saved incident reports, most recent first. Returns id, student, school, date, severity, and status per report.",
		Parameters: []ParameterSchema{
			{Name: "status", Type: "string", Description: "Filter by status (Novo, Em Análise, Resolvido, Arquivado)"},
			{Name: "severity", Type: "string", Description: "Filter by severity (Leve, Moderada, Grave)"},
			{Name: "student", Type: "string", Description: "Filter by student name (case-insensitive substring)"},
		},
	},
	"sir_show": {
		Name:        "sir_show",
		Description: "Show a saved incident report in full, including occurrence details and modification history.",
		Parameters: []ParameterSchema{
			{Name: "id", Type: "string", Description: "Report id to look up", Required: true},
		},
	},
	"sir_search": {
		Name:        "sir_search",
		Description: "Search saved reports by substring over student, school, location, and description.",
		Parameters: []ParameterSchema{
			{Name: "query", Type: "string", Description: "Search text", Required: true},
		},
	},
	"sir_status": {
		Name:        "sir_status",
		Description: "Summarize the report history: totals and counts by status and severity.",
		Parameters:  []ParameterSchema{},
	},
	"sir_analyze": {
		Name:        "sir_analyze",
		Description: "Analyze one incident with the configured language model. Returns a summary, suggested actions, referrals, and a severity assessment.",
		Parameters: []ParameterSchema{
			{Name: "id", Type: "string", Description: "Report id to analyze", Required: true},
		},
	},
	"sir_insights": {
		Name:        "sir_insights",
		Description: "Ask the configured language model for trend observations over the report history.",
		Parameters:  []ParameterSchema{},
	},
}

// GetToolSchemas returns schemas for all registered tools.
func (s *Server) GetToolSchemas() []ToolSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemas := make([]ToolSchema, 0, len(s.tools))
	for name := range s.tools {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the JSON result string or an error.
func (s *Server) CallTool(name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s (run 'sir call --list' to see available tools)", name)
	}

	switch name {
	case "sir_list":
		status, _ := args["status"].(string)
		severity, _ := args["severity"].(string)
		student, _ := args["student"].(string)
		return s.executeList(status, severity, student)

	case "sir_show":
		id, _ := args["id"].(string)
		if id == "" {
			return "", fmt.Errorf("id parameter is required")
		}
		return s.executeShow(id)

	case "sir_search":
		query, _ := args["query"].(string)
		if query == "" {
			return "", fmt.Errorf("query parameter is required")
		}
		return s.executeSearch(query)

	case "sir_status":
		return s.executeStatus()

	case "sir_analyze":
		id, _ := args["id"].(string)
		if id == "" {
			return "", fmt.Errorf("id parameter is required")
		}
		return s.executeAnalyze(id)

	case "sir_insights":
		return s.executeInsights()

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// registerListTool registers the sir_list tool
func (s *Server) registerListTool() error {
	tool := mcp.NewTool("sir_list",
		mcp.WithDescription("List saved incident reports, most recent first. Returns id, student, school, date, severity, and status per report."),
		mcp.WithString("status",
			mcp.Description("Filter by status (Novo, Em Análise, Resolvido, Arquivado)"),
		),
		mcp.WithString("severity",
			mcp.Description("Filter by severity (Leve, Moderada, Grave)"),
		),
		mcp.WithString("student",
			mcp.Description("Filter by student name (case-insensitive substring)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleList)
	return nil
}

// registerShowTool registers the sir_show tool
func (s *Server) registerShowTool() error {
	tool := mcp.NewTool("sir_show",
		mcp.WithDescription("Show a saved incident report in full, including occurrence details and modification history."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Report id to look up"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleShow)
	return nil
}

// registerSearchTool registers the sir_search tool
func (s *Server) registerSearchTool() error {
	tool := mcp.NewTool("sir_search",
		mcp.WithDescription("Search saved reports by substring over student, school, location, and description."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleSearch)
	return nil
}

// registerStatusTool registers the sir_status tool
func (s *Server) registerStatusTool() error {
	tool := mcp.NewTool("sir_status",
		mcp.WithDescription("Summarize the report history: totals and counts by status and severity."),
	)

	s.mcpServer.AddTool(tool, s.handleStatus)
	return nil
}

// registerAnalyzeTool registers the sir_analyze tool
func (s *Server) registerAnalyzeTool() error {
	tool := mcp.NewTool("sir_analyze",
		mcp.WithDescription("Analyze one incident with the configured language model. Returns a summary, suggested actions, referrals, and a severity assessment."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Report id to analyze"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleAnalyze)
	return nil
}

// registerInsightsTool registers the sir_insights tool
func (s *Server) registerInsightsTool() error {
	tool := mcp.NewTool("sir_insights",
		mcp.WithDescription("Ask the configured language model for trend observations over the report history."),
	)

	s.mcpServer.AddTool(tool, s.handleInsights)
	return nil
}

func (s *Server) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	status, _ := args["status"].(string)
	severity, _ := args["severity"].(string)
	student, _ := args["student"].(string)

	result, err := s.executeList(status, severity, student)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	result, err := s.executeShow(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	result, err := s.executeSearch(query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	result, err := s.executeStatus()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	result, err := s.executeAnalyze(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	result, err := s.executeInsights()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

// listResult is one row of the sir_list and sir_search output.
type listResult struct {
	ID       string `json:"id"`
	SavedAt  string `json:"savedAt"`
	Student  string `json:"student"`
	School   string `json:"school"`
	Date     string `json:"date"`
	Severity string `json:"severity"`
	Status   string `json:"status"`
}

func toListResults(reports []report.SavedReport) []listResult {
	out := make([]listResult, 0, len(reports))
	for _, sr := range reports {
		out = append(out, listResult{
			ID:       sr.ID,
			SavedAt:  sr.SavedAt,
			Student:  sr.StudentName,
			School:   sr.SchoolUnit,
			Date:     sr.OccurrenceDateTime,
			Severity: string(sr.OccurrenceSeverity),
			Status:   string(sr.Status),
		})
	}
	return out
}

func (s *Server) executeList(status, severity, student string) (string, error) {
	history, err := s.store.LoadHistory()
	if err != nil {
		return "", err
	}

	var matched []report.SavedReport
	for _, sr := range history {
		if status != "" && !strings.EqualFold(string(sr.Status), status) {
			continue
		}
		if severity != "" && !strings.EqualFold(string(sr.OccurrenceSeverity), severity) {
			continue
		}
		if student != "" && !strings.Contains(strings.ToLower(sr.StudentName), strings.ToLower(student)) {
			continue
		}
		matched = append(matched, sr)
	}

	return marshalResult(toListResults(matched))
}

func (s *Server) executeShow(id string) (string, error) {
	sr, err := s.store.FindSaved(id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("report not found: %s", id)
	}
	if err != nil {
		return "", err
	}
	return marshalResult(sr)
}

func (s *Server) executeSearch(query string) (string, error) {
	history, err := s.store.LoadHistory()
	if err != nil {
		return "", err
	}

	q := strings.ToLower(query)
	var matched []report.SavedReport
	for _, sr := range history {
		haystack := strings.ToLower(strings.Join([]string{
			sr.StudentName,
			sr.SchoolUnit,
			sr.OccurrenceLocation,
			sr.DetailedDescription,
		}, "\n"))
		if strings.Contains(haystack, q) {
			matched = append(matched, sr)
		}
	}

	if err := s.store.AddRecentSearch(query); err != nil {
		return "", err
	}
	return marshalResult(toListResults(matched))
}

// statusSummary is the sir_status output.
type statusSummary struct {
	Reports    int            `json:"reports"`
	ByStatus   map[string]int `json:"byStatus"`
	BySeverity map[string]int `json:"bySeverity"`
}

func (s *Server) executeStatus() (string, error) {
	history, err := s.store.LoadHistory()
	if err != nil {
		return "", err
	}

	summary := statusSummary{
		Reports:    len(history),
		ByStatus:   make(map[string]int),
		BySeverity: make(map[string]int),
	}
	for _, sr := range history {
		summary.ByStatus[string(sr.Status)]++
		if sr.OccurrenceSeverity != "" {
			summary.BySeverity[string(sr.OccurrenceSeverity)]++
		}
	}
	return marshalResult(summary)
}

func (s *Server) executeAnalyze(id string) (string, error) {
	sr, err := s.store.FindSaved(id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("report not found: %s", id)
	}
	if err != nil {
		return "", err
	}

	analysis, err := s.ai.AnalyzeIncident(context.Background(), sr.Report)
	if err != nil {
		return "", err
	}
	return marshalResult(analysis)
}

func (s *Server) executeInsights() (string, error) {
	history, err := s.store.LoadHistory()
	if err != nil {
		return "", err
	}
	if len(history) == 0 {
		return "", fmt.Errorf("history is empty: nothing to analyze")
	}

	insights, err := s.ai.TrendInsights(context.Background(), history)
	if err != nil {
		return "", err
	}
	return marshalResult(insights)
}

func marshalResult(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}
