// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Folio tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/blog"
	"github.com/starford/folio/internal/richtext"
)

const contentFormatURI = "folio://content-format"

// Server wraps the MCP server with Folio tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *blog.Service
	sanitize bool
}

// New creates a new MCP server with all Folio tools registered. sanitize
// controls whether render_post output goes through the HTML policy.
func New(svc *blog.Service, sanitize bool) *Server {
	s := &Server{svc: svc, sanitize: sanitize}

	s.mcp = server.NewMCPServer(
		"Folio",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through post titles, excerpts and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("get_post",
		mcp.WithDescription("Fetch a post by slug with its author, category, tags and media populated."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug")),
		mcp.WithNumber("depth", mcp.Description("Relationship depth (default 2)")),
	), s.getPost)

	s.mcp.AddTool(mcp.NewTool("render_post",
		mcp.WithDescription("Render a post's rich-text content to HTML. Pass either a slug or raw "+
			"content JSON (see get_content_format). Rendering problems come back as a second text item."),
		mcp.WithString("slug", mcp.Description("Slug of a stored post")),
		mcp.WithString("content", mcp.Description("Rich-text JSON to render instead of a stored post")),
	), s.renderPost)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List posts, newest first."),
		mcp.WithString("status", mcp.Description("Filter by status: draft, published or archived")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 10)")),
		mcp.WithNumber("page", mcp.Description("Page number starting at 1")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("get_content_format",
		mcp.WithDescription("Returns the rich-text JSON format used in post content. "+
			"Call this before building or editing post content."),
	), s.getContentFormat)

	s.mcp.AddTool(mcp.NewTool("import_media",
		mcp.WithDescription("Import an image into media storage from an http(s) URL or a base64 data URI. "+
			"Returns the media id to use in upload nodes and mediaImage blocks."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
		mcp.WithString("filename", mcp.Description("Optional filename; derived from the URL when empty")),
		mcp.WithString("alt", mcp.Description("Alt text")),
		mcp.WithString("caption", mcp.Description("Caption")),
	), s.importMedia)

	s.mcp.AddResource(
		mcp.NewResource(contentFormatURI, "Content Format",
			mcp.WithResourceDescription("Rich-text JSON format of post content."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormatResource,
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

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, _, err := s.svc.PostBySlug(ctx, slug, req.GetInt("depth", blog.DefaultPostDepth))
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p), nil
}

func (s *Server) renderPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var res *richtext.Result
	if raw := req.GetString("content", ""); raw != "" {
		res = s.svc.RenderJSON([]byte(raw))
	} else {
		slug := req.GetString("slug", "")
		if slug == "" {
			return mcp.NewToolResultError("either slug or content is required"), nil
		}
		p, _, err := s.svc.PostBySlug(ctx, slug, blog.DefaultPostDepth)
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res = s.svc.RenderPost(p)
	}

	out := res.HTML()
	if s.sanitize {
		out = richtext.Sanitize(out)
	}
	result := mcp.NewToolResultText(out)
	if len(res.Diagnostics) > 0 {
		lines := make([]string, len(res.Diagnostics))
		for i, d := range res.Diagnostics {
			lines[i] = d.String()
		}
		result.Content = append(result.Content, mcp.NewTextContent(strings.Join(lines, "\n")))
	}
	return result, nil
}

type postSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	ReadingTime int        `json:"readingTime"`
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.svc.Posts(ctx, blog.ListParams{
		Status: req.GetString("status", ""),
		Limit:  req.GetInt("limit", blog.DefaultLimit),
		Page:   req.GetInt("page", 1),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items := make([]postSummary, 0, len(page.Docs))
	for _, p := range page.Docs {
		items = append(items, postSummary{
			ID:          p.ID,
			Title:       p.Title,
			Slug:        p.Slug,
			Status:      string(p.Status),
			PublishedAt: p.PublishedAt,
			ReadingTime: p.ReadingTime,
		})
	}
	return jsonResult(map[string]any{
		"posts":      items,
		"totalDocs":  page.TotalDocs,
		"page":       page.Page,
		"totalPages": page.TotalPages,
	}), nil
}

func (s *Server) getContentFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentFormat), nil
}

func (s *Server) readContentFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contentFormatURI,
			MIMEType: "text/markdown",
			Text:     ContentFormat,
		},
	}, nil
}
