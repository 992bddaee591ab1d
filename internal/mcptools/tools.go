// Package mcptools publishes the scanner, the reference tables and the threat
// monitor as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"cyberguard/internal/advisor"
	"cyberguard/internal/content"
	"cyberguard/internal/monitor"
	"cyberguard/internal/scanner"
)

const (
	ToolScanRisk        = "scan_risk"
	ToolSearchThreats   = "search_threats"
	ToolMonitorSnapshot = "monitor_snapshot"
)

// ScanParams is the input of scan_risk.
type ScanParams struct {
	Text string `json:"text" mcp:"URL or message to check for phishing and scam risk"`
}

type SearchParams struct {
	Query string `json:"query,omitempty" mcp:"case-insensitive filter on title and description; empty returns everything"`
}

type SnapshotParams struct{}

// Server holds the state behind the tools. Each MCP session shares one
// scanner, so concurrent scans from the same host are rejected as busy.
type Server struct {
	scanner *scanner.Scanner
	monitor *monitor.Simulator
	logger  zerolog.Logger
}

func New(adv *advisor.Advisor, mon *monitor.Simulator, logger zerolog.Logger, scanOpts ...scanner.Option) *Server {
	return &Server{
		scanner: scanner.New(adv.OneShot(), append([]scanner.Option{scanner.WithLogger(logger)}, scanOpts...)...),
		monitor: mon,
		logger:  logger,
	}
}

// Register adds every tool to srv.
func (s *Server) Register(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        ToolScanRisk,
		Description: "Grade a URL or message as safe or risky. Returns JSON {safe, message} with the explanation in Thai.",
	}, s.ScanRisk)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        ToolSearchThreats,
		Description: "Search the catalog of common attack types and emerging threats.",
	}, s.SearchThreats)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        ToolMonitorSnapshot,
		Description: "Current state of the simulated threat monitor: counters, threat level and latest alerts.",
	}, s.MonitorSnapshot)
}

func (s *Server) ScanRisk(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ScanParams]) (*mcp.CallToolResultFor[any], error) {
	res, err := s.scanner.Scan(ctx, params.Arguments.Text)
	switch {
	case errors.Is(err, scanner.ErrEmptyInput):
		return errorResult("text must not be empty"), nil
	case errors.Is(err, scanner.ErrBusy):
		return errorResult("another scan is in progress"), nil
	case err != nil:
		return errorResult(err.Error()), nil
	}
	s.logger.Info().Bool("safe", res.Safe).Msg("mcp scan completed")
	return jsonResult(res)
}

func (s *Server) SearchThreats(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[SearchParams]) (*mcp.CallToolResultFor[any], error) {
	return jsonResult(content.Search(strings.TrimSpace(params.Arguments.Query)))
}

func (s *Server) MonitorSnapshot(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[SnapshotParams]) (*mcp.CallToolResultFor[any], error) {
	if s.monitor == nil {
		return errorResult("threat monitor is not running"), nil
	}
	return jsonResult(s.monitor.Snapshot())
}

func jsonResult(v any) (*mcp.CallToolResultFor[any], error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

func errorResult(msg string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
