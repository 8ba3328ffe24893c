// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the case library to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/casefolio/internal/apperr"
	"github.com/starford/casefolio/internal/assets"
	"github.com/starford/casefolio/internal/caseservice"
	"github.com/starford/casefolio/internal/filter"
	"github.com/starford/casefolio/internal/index"
	"github.com/starford/casefolio/internal/parser"
)

const contractURI = "casefolio://case-format"

// Server wraps the MCP server with case tools.
type Server struct {
	mcp *server.MCPServer
	svc *caseservice.Service
	lib *assets.Library
}

// New creates a new MCP server with all tools registered. lib may be nil,
// in which case upload_asset is not offered.
func New(svc *caseservice.Service, lib *assets.Library, version string) *Server {
	s := &Server{svc: svc, lib: lib}

	s.mcp = server.NewMCPServer(
		"Casefolio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_cases",
		mcp.WithDescription("List published case studies, newest first. "+
			"Optional comma-separated tag filters: OR within a dimension, AND across dimensions."),
		mcp.WithString("sector", mcp.Description("Sector tags, comma-separated")),
		mcp.WithString("category", mcp.Description("Category tags, comma-separated")),
		mcp.WithString("role", mcp.Description("Role tags, comma-separated")),
	), s.listCases)

	s.mcp.AddTool(mcp.NewTool("get_case",
		mcp.WithDescription("Read one published case: metadata and Markdown body."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Case slug (filename without extension)")),
	), s.getCase)

	s.mcp.AddTool(mcp.NewTool("search_cases",
		mcp.WithDescription("Full-text search through case titles, summaries, tags and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchCases)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("Tag vocabulary per dimension (sector, category, role)."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("create_case",
		mcp.WithDescription("Create a new case document. Content MUST follow the case format; "+
			"read it first via get_case_contract or the "+contractURI+" resource."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug for the new case")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Frontmatter plus Markdown body")),
	), s.createCase)

	s.mcp.AddTool(mcp.NewTool("get_case_contract",
		mcp.WithDescription("Returns the case document format. Call this before creating cases."),
	), s.getCaseContract)

	if lib != nil {
		s.mcp.AddTool(mcp.NewTool("upload_asset",
			mcp.WithDescription("Store an image (http(s) URL or base64 data URI) in the public "+
				"directory. Returns the site path and a Markdown image snippet."),
			mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
			mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when absent")),
		), s.uploadAsset)
	}

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Case Format",
			mcp.WithResourceDescription("Frontmatter keys and body conventions for case documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCaseFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Server) listCases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cases, err := s.svc.ListCases(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f := filter.New()
	for _, d := range filter.Dimensions {
		for _, v := range splitList(req.GetString(string(d), "")) {
			f.Toggle(d, v)
		}
	}
	return jsonResult(f.Visible(cases)), nil
}

func (s *Server) getCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.svc.GetCase(ctx, slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(struct {
		*caseservice.CaseDetail
		DisplayDate string `json:"display_date,omitempty"`
	}{c, parser.DisplayDate(c.CaseMeta)}), nil
}

func (s *Server) searchCases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, index.SearchOptions{Limit: req.GetInt("limit", 20)})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}
	return jsonResult(results), nil
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vocab, err := s.svc.Vocabulary(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(vocab), nil
}

func (s *Server) createCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.svc.CreateCase(ctx, slug, []byte(content)); err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			return mcp.NewToolResultError(fmt.Sprintf("case already exists: %s", slug)), nil
		case errors.Is(err, apperr.ErrInvalidSlug):
			return mcp.NewToolResultError(fmt.Sprintf("invalid slug: %s", slug)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", slug)), nil
}

func (s *Server) getCaseContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CaseFormatContract), nil
}

func (s *Server) readCaseFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     CaseFormatContract,
		},
	}, nil
}
