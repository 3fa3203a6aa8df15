// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes digest tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultdigest/internal/digest"
	"github.com/starford/vaultdigest/internal/digestservice"
)

const formatURI = "vaultdigest://digest-format"

// Server wraps the MCP server with digest tools.
type Server struct {
	mcp *server.MCPServer
	svc *digestservice.Service
}

// New creates a new MCP server with all digest tools registered.
func New(svc *digestservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"vaultdigest",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("generate_digest",
		mcp.WithDescription("Regenerate the vault digest and write it into the vault. "+
			"Omitted arguments fall back to the configured options. "+
			"Read the format via get_digest_format or the "+formatURI+" resource."),
		mcp.WithString("destination", mcp.Description("Vault-relative output path")),
		mcp.WithString("title", mcp.Description("Digest title")),
		mcp.WithBoolean("include_content", mcp.Description("Include note bodies")),
		mcp.WithNumber("max_bytes", mcp.Description("Per-note body byte limit")),
		mcp.WithString("exclude", mcp.Description("Comma-separated folder prefixes to skip")),
		mcp.WithString("sort", mcp.Description("Section order"),
			mcp.Enum(string(digest.SortByPath), string(digest.SortByName), string(digest.SortByModified), string(digest.SortByCreated))),
		mcp.WithNumber("heading_level", mcp.Description("Section heading depth, 1 to 6")),
		mcp.WithBoolean("keep_frontmatter", mcp.Description("Keep each note's YAML frontmatter")),
		mcp.WithBoolean("skip_destination", mcp.Description("Leave the previous digest out of the new one")),
		mcp.WithString("on_read_error", mcp.Description("What to do when a note cannot be read"),
			mcp.Enum(string(digest.OnReadErrorAbort), string(digest.OnReadErrorSkip))),
	), s.generateDigest)

	s.mcp.AddTool(mcp.NewTool("pick_random_note",
		mcp.WithDescription("Pick one note uniformly at random, skipping excluded folders."),
		mcp.WithString("exclude", mcp.Description("Comma-separated folders to skip (defaults to the random section of the config)")),
	), s.pickRandomNote)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recent digest generation runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs")),
	), s.listRuns)

	s.mcp.AddTool(mcp.NewTool("verify_digest",
		mcp.WithDescription("Check that a written digest's contents list matches its sections."),
		mcp.WithString("path", mcp.Description("Digest path (defaults to the configured destination)")),
	), s.verifyDigest)

	s.mcp.AddTool(mcp.NewTool("get_digest_format",
		mcp.WithDescription("Returns the layout of a generated digest."),
	), s.getDigestFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Digest Format",
			mcp.WithResourceDescription("Layout of a generated vault digest."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDigestFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) generateDigest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Arguments share their names with the JSON form of digest.Overrides.
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var ov digest.Overrides
	if err := json.Unmarshal(raw, &ov); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	report, err := s.svc.Generate(ctx, ov.Apply(s.svc.Defaults()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (s *Server) pickRandomNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exclude := s.svc.RandomDefaults().Exclude
	if _, ok := req.GetArguments()["exclude"]; ok {
		exclude = digest.ParseExcludes(req.GetString("exclude", ""))
	}
	doc, err := s.svc.PickRandom(ctx, exclude)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

func (s *Server) listRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.svc.Runs(ctx, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("no runs recorded"), nil
	}
	return jsonResult(runs)
}

func (s *Server) verifyDigest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.svc.Verify(ctx, req.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) getDigestFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DigestFormatContract), nil
}

func (s *Server) readDigestFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     DigestFormatContract,
		},
	}, nil
}
