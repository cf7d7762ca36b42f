// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Ansuz template and frontmatter tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/match"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/presets"
	"github.com/starford/ansuz/internal/templates"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp      *server.MCPServer
	index    *templates.Index
	store    *presets.Store
	matchOpt match.Options
}

// New creates a new MCP server with all Ansuz tools registered.
func New(index *templates.Index, store *presets.Store, matchOpt match.Options) *Server {
	s := &Server{index: index, store: store, matchOpt: matchOpt}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the template documents currently in the index, with index status."),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("read_template",
		mcp.WithDescription("Read the full content of a template document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Template id (its path, e.g. templates/meeting.md)")),
	), s.readTemplate)

	s.mcp.AddTool(mcp.NewTool("match_presets",
		mcp.WithDescription("Score every stored frontmatter preset against a template and return them sorted by score."),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template id to match against")),
	), s.matchPresets)

	s.mcp.AddTool(mcp.NewTool("render_frontmatter",
		mcp.WithDescription("Resolve a preset's frontmatter against a template and render the final --- delimited block. "+
			"Read the template format contract first via the ansuz://template-format resource."),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template id to take embedded frontmatter from")),
		mcp.WithString("preset_id", mcp.Required(), mcp.Description("Preset id supplying field defaults and key ordering")),
	), s.renderFrontmatter)

	// Resource: template format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://template-format", "Template Format Contract",
			mcp.WithResourceDescription("Canonical template document format with embedded frontmatter and placeholders."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTemplateFormatResource,
	)

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

func (s *Server) listTemplates(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.index.Snapshot()
	type item struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	items := make([]item, len(snap.Documents))
	for i, d := range snap.Documents {
		items[i] = item{ID: d.ID, Name: d.Name}
	}
	out, _ := json.MarshalIndent(map[string]any{
		"status":    string(snap.Status),
		"templates": items,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readTemplate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, ok := s.index.TemplateByID(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) matchPresets(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tpl, ok := s.index.TemplateByID(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("template not found: %s", id)), nil
	}
	all, err := s.store.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := match.MatchPresets(tpl, all, s.matchOpt)
	type scored struct {
		PresetID string   `json:"preset_id"`
		Score    float64  `json:"score"`
		Reasons  []string `json:"reasons"`
	}
	out := make([]scored, len(results))
	for i, r := range results {
		out[i] = scored{PresetID: r.Preset.ID, Score: r.Score, Reasons: r.Reasons}
	}
	payload, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) renderFrontmatter(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := req.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	presetID, err := req.RequireString("preset_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tpl, ok := s.index.TemplateByID(templateID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("template not found: %s", templateID)), nil
	}
	preset, err := s.store.Get(presetID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("preset not found: %s", presetID)), nil
	}

	block, err := renderBlock(tpl, preset)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(block), nil
}

// renderBlock resolves the template's embedded frontmatter against the
// preset with no note metadata or user input.
func renderBlock(tpl models.TemplateDocument, preset models.FrontmatterPreset) (string, error) {
	parsed, err := parseTemplate(tpl)
	if err != nil {
		return "", err
	}
	record, err := frontmatter.Resolve(preset, frontmatter.NewRecord(), parsed, frontmatter.NewRecord())
	if err != nil {
		return "", err
	}
	return frontmatter.EncodeBlock(record)
}
