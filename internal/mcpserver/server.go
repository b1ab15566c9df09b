// Package mcpserver exposes the publishing pipeline as MCP (Model
// Context Protocol) tools over stdio, so an LLM client can inspect the
// vault and trigger publishes.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/snlxnet/bridge/internal/classify"
	"github.com/snlxnet/bridge/internal/history"
	"github.com/snlxnet/bridge/internal/publish"
	"github.com/snlxnet/bridge/internal/vault"
)

// Server wraps the MCP server with bridge tools.
type Server struct {
	mcp      *server.MCPServer
	store    vault.Provider
	pipeline *publish.Pipeline
	db       *history.DB // optional
}

// New creates an MCP server with the bridge tools registered. The
// history database may be nil when run tracking is disabled.
func New(store vault.Provider, pipeline *publish.Pipeline, db *history.DB) *Server {
	s := &Server{store: store, pipeline: pipeline, db: db}

	s.mcp = server.NewMCPServer(
		"Bridge",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_publishable",
		mcp.WithDescription("Classify every note in the vault without modifying it "+
			"and report which notes would go to the public site, which to the "+
			"secret store, and which stay private."),
	), s.listPublishable)

	s.mcp.AddTool(mcp.NewTool("publish_site",
		mcp.WithDescription("Run one full publish: classify notes, diff against the "+
			"publish ledger, and push changed public pages and secret artifacts "+
			"to their sinks. Modifies note frontmatter and the ledger."),
	), s.publishSite)

	s.mcp.AddTool(mcp.NewTool("publish_history",
		mcp.WithDescription("List the most recent publish runs with their artifact "+
			"counts and sink outcomes."),
		mcp.WithNumber("limit", mcp.Description("Maximum runs to return (default 10)")),
	), s.publishHistory)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type classReport struct {
	Public  []string `json:"public"`
	Secret  []string `json:"secret"`
	Private []string `json:"private"`
}

func (s *Server) listPublishable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c := classify.New(s.store, s.pipeline.Gen)
	c.ReadOnly = true
	res, err := c.Run(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := classReport{
		Public:  []string{},
		Secret:  []string{},
		Private: []string{},
	}
	for _, n := range res.Public {
		report.Public = append(report.Public, n.Name)
	}
	for _, n := range res.Secret {
		report.Secret = append(report.Secret, n.Name)
	}
	for _, n := range res.Private {
		report.Private = append(report.Private, n.Name)
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) publishSite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.pipeline.Run(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("publish complete"), nil
}

func (s *Server) publishHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.db == nil {
		return mcp.NewToolResultError("history is disabled"), nil
	}

	limit := 10
	if n, err := req.RequireFloat("limit"); err == nil && n > 0 {
		limit = int(n)
	}

	runs, err := s.db.Recent(limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("no publish runs recorded"), nil
	}

	type runReport struct {
		ID      int64  `json:"id"`
		Started string `json:"started"`
		Public  int    `json:"public"`
		Secret  int    `json:"secret"`
		SiteOK  bool   `json:"site_ok"`
		StoreOK bool   `json:"store_ok"`
		Detail  string `json:"detail,omitempty"`
	}
	var reports []runReport
	for _, r := range runs {
		reports = append(reports, runReport{
			ID:      r.ID,
			Started: r.StartedAt.Format(time.RFC3339),
			Public:  r.PublicNotes + r.PublicAssets,
			Secret:  r.SecretNotes + r.SecretAssets,
			SiteOK:  r.SiteOK,
			StoreOK: r.StoreOK,
			Detail:  r.Detail,
		})
	}

	out, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode history: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
