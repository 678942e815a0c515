package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-command/pkg/interpret"
	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
)

// Interpreter turns command text into a structured result.
type Interpreter interface {
	Interpret(ctx context.Context, text string) (*interpret.Result, error)
}

// LexiconStatus reports on the published lexicon.
type LexiconStatus interface {
	Current() *lexicon.Snapshot
	Status() lexicon.Status
}

type healthResult struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type lexiconResult struct {
	Snapshot lexicon.Stats  `json:"snapshot"`
	Status   lexicon.Status `json:"status"`
	Modules  []string       `json:"modules"`
}

// RegisterInterpretTool adds interpret_command, which returns the full
// interpretation result including unmatched and rejected entities.
func (s *Server) RegisterInterpretTool(interpreter Interpreter) {
	tool := mcp.NewTool(
		"interpret_command",
		mcp.WithDescription("Interpret a free-text records command into intent, target module and corrected entity values"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("The operator command, e.g. \"show me fire incidents on 5th avenue\""),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.RegisterTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		command, err := req.RequireString("command")
		if err != nil {
			return mcp.NewToolResultError("No command provided"), nil
		}

		result, err := interpreter.Interpret(ctx, command)
		if errors.Is(err, apperrors.ErrNoCommand) {
			return mcp.NewToolResultError("No command provided"), nil
		}
		if err != nil {
			return nil, fmt.Errorf("interpret command: %w", err)
		}

		return jsonResult(result)
	})
}

// RegisterLexiconTool adds lexicon_status.
func (s *Server) RegisterLexiconTool(source LexiconStatus) {
	tool := mcp.NewTool(
		"lexicon_status",
		mcp.WithDescription("Describe the published lexicon snapshot: modules, column counts and refresh history"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.RegisterTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap := source.Current()
		return jsonResult(lexiconResult{
			Snapshot: snap.Stats(),
			Status:   source.Status(),
			Modules:  snap.ModuleNames(),
		})
	})
}

// RegisterHealthTool adds a health check tool returning the server version.
func (s *Server) RegisterHealthTool(version string) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status and version"),
	)

	s.RegisterTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(healthResult{Status: "ok", Version: version})
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
