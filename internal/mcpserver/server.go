// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes recall tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/recall/internal/apperr"
	"github.com/starford/recall/internal/engine"
	"github.com/starford/recall/internal/itemservice"
	"github.com/starford/recall/internal/models"
)

const itemFormatURI = "recall://item-format"

// Server wraps the MCP server with recall tools. Every tool acts inside a
// single owner scope fixed at construction.
type Server struct {
	mcp   *server.MCPServer
	svc   *itemservice.Service
	scope models.OwnerScope
}

// New creates a new MCP server acting as owner, or on public items when
// owner is empty.
func New(svc *itemservice.Service, owner string) *Server {
	s := &Server{svc: svc, scope: models.ScopePublic()}
	if owner != "" {
		s.scope = models.ScopeOwner(owner)
	}

	s.mcp = server.NewMCPServer(
		"recall",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Search saved items by case-insensitive substring over title, content and summary. "+
			"Results are newest first and include their tags."),
		mcp.WithString("query", mcp.Description("Substring to look for (empty for all items)")),
		mcp.WithString("kind", mcp.Description("Restrict to one kind"), mcp.Enum("note", "link", "insight")),
		mcp.WithArray("tags", mcp.Description("Tag names; items with any of them match"), mcp.WithStringItems()),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Answer a natural-language question using only the saved items. "+
			"Returns the answer and the items it was based on."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
	), s.ask)

	s.mcp.AddTool(mcp.NewTool("get_item",
		mcp.WithDescription("Read one item with its tags."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	), s.getItem)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with its id and slug."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("create_item",
		mcp.WithDescription("Capture a new item. Read the contract first via the get_item_contract "+
			"tool or the "+itemFormatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short human-readable title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Item body")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Item kind"), mcp.Enum("note", "link", "insight")),
		mcp.WithString("source_url", mcp.Description("Where the item came from, for links")),
		mcp.WithArray("tags", mcp.Description("Tag names to attach"), mcp.WithStringItems()),
	), s.createItem)

	s.mcp.AddTool(mcp.NewTool("get_item_contract",
		mcp.WithDescription("Returns the recall item format contract. "+
			"Call this before creating items to ensure correct structure."),
	), s.getItemContract)

	s.mcp.AddResource(
		mcp.NewResource(itemFormatURI, "Item Format Contract",
			mcp.WithResourceDescription("Fields, kinds and tagging rules for recall items."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readItemFormatResource,
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

func (s *Server) searchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := models.SearchFilter{Scope: s.scope, Text: req.GetString("query", "")}
	if raw := req.GetString("kind", ""); raw != "" {
		kind, err := models.ParseItemKind(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Kind = &kind
	}
	if names := req.GetStringSlice("tags", nil); len(names) > 0 {
		ids, err := s.tagIDs(ctx, names)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(ids) == 0 {
			return jsonResult([]models.Item{})
		}
		f.TagIDs = ids
	}

	items, err := s.svc.ListItems(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

// tagIDs maps tag names to the ids of existing tags with the same slug.
// Unknown names are ignored.
func (s *Server) tagIDs(ctx context.Context, names []string) ([]string, error) {
	tags, err := s.svc.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]string, len(tags))
	for _, t := range tags {
		bySlug[t.Slug] = t.ID
	}
	var ids []string
	for _, n := range names {
		if id, ok := bySlug[engine.Slugify(n)]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Server) ask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Ask(ctx, question, s.scope)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	it, err := s.svc.GetItem(ctx, id, s.scope)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(it)
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.ListTags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tags)
}

func (s *Server) createItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	it, err := s.svc.CreateItem(ctx, s.scope, itemservice.CreateItemInput{
		Title:     title,
		Body:      content,
		Kind:      kind,
		SourceURL: req.GetString("source_url", ""),
		Tags:      req.GetStringSlice("tags", nil),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(it)
}

func (s *Server) getItemContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ItemFormatContract), nil
}

func (s *Server) readItemFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      itemFormatURI,
			MIMEType: "text/markdown",
			Text:     ItemFormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
