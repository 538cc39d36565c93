package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/recall/internal/engine"
	"github.com/starford/recall/internal/itemservice"
	"github.com/starford/recall/internal/models"
	"github.com/starford/recall/internal/testutil"
)

func testServer(t *testing.T, owner string) *Server {
	t.Helper()
	db := testutil.TestDB(t)
	p := &testutil.FakeProvider{Answer: "From your notes: badly."}
	svc := itemservice.NewService(db, engine.New(db, p), p, nil)
	return New(svc, owner)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so dispatch to the handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_items":
		result, err = srv.searchItems(ctx, req)
	case "ask":
		result, err = srv.ask(ctx, req)
	case "get_item":
		result, err = srv.getItem(ctx, req)
	case "list_tags":
		result, err = srv.listTags(ctx, req)
	case "create_item":
		result, err = srv.createItem(ctx, req)
	case "get_item_contract":
		result, err = srv.getItemContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createItem(t *testing.T, srv *Server, title, content string, tags ...any) models.Item {
	t.Helper()
	r := callTool(t, srv, "create_item", map[string]any{
		"title":   title,
		"content": content,
		"type":    "note",
		"tags":    tags,
	})
	if r.IsError {
		t.Fatalf("create_item failed: %s", resultText(r))
	}
	var it models.Item
	if err := json.Unmarshal([]byte(resultText(r)), &it); err != nil {
		t.Fatal(err)
	}
	return it
}

func TestCreateAndGetItem(t *testing.T) {
	srv := testServer(t, "u1")
	created := createItem(t, srv, "Sleep", "I didn't sleep well", "Health")
	if len(created.Tags) != 1 || created.Tags[0].Slug != "health" {
		t.Errorf("tags = %+v", created.Tags)
	}

	r := callTool(t, srv, "get_item", map[string]any{"id": created.ID})
	var got models.Item
	_ = json.Unmarshal([]byte(resultText(r)), &got)
	if got.ID != created.ID || got.Body != "I didn't sleep well" {
		t.Errorf("get_item = %q", resultText(r))
	}
}

func TestCreateItem_InvalidKind(t *testing.T) {
	srv := testServer(t, "u1")
	r := callTool(t, srv, "create_item", map[string]any{"title": "t", "content": "c", "type": "essay"})
	if !r.IsError {
		t.Error("expected error for invalid type")
	}
}

func TestGetItemMissing(t *testing.T) {
	srv := testServer(t, "u1")
	r := callTool(t, srv, "get_item", map[string]any{"id": "nope"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("expected not found error, got %q", resultText(r))
	}
}

func TestSearchItems(t *testing.T) {
	srv := testServer(t, "u1")
	sleep := createItem(t, srv, "Sleep", "slept badly", "rest")
	createItem(t, srv, "Food", "pasta")

	r := callTool(t, srv, "search_items", map[string]any{"query": "SLEPT"})
	var items []models.Item
	_ = json.Unmarshal([]byte(resultText(r)), &items)
	if len(items) != 1 || items[0].ID != sleep.ID {
		t.Errorf("query search = %s", resultText(r))
	}

	r = callTool(t, srv, "search_items", map[string]any{"tags": []any{"Rest"}})
	items = nil
	_ = json.Unmarshal([]byte(resultText(r)), &items)
	if len(items) != 1 || items[0].ID != sleep.ID {
		t.Errorf("tag search = %s", resultText(r))
	}

	r = callTool(t, srv, "search_items", map[string]any{"tags": []any{"unknown"}})
	if strings.TrimSpace(resultText(r)) != "[]" {
		t.Errorf("unknown tag search = %s, want []", resultText(r))
	}
}

func TestAsk(t *testing.T) {
	srv := testServer(t, "u1")
	item := createItem(t, srv, "Sleep", "I didn't sleep well")

	r := callTool(t, srv, "ask", map[string]any{"question": "What have I saved about sleep?"})
	var res models.AnswerResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("ask result: %v (%s)", err, resultText(r))
	}
	if res.Answer != "From your notes: badly." || len(res.Sources) != 1 || res.Sources[0].ID != item.ID {
		t.Errorf("ask = %+v", res)
	}

	r = callTool(t, srv, "ask", map[string]any{"question": "  "})
	if !r.IsError {
		t.Error("expected error for blank question")
	}
}

func TestPublicScopeWhenNoOwner(t *testing.T) {
	owned := testServer(t, "u1")
	createItem(t, owned, "Private sleep", "x")

	public := New(owned.svc, "")
	r := callTool(t, public, "search_items", map[string]any{"query": "sleep"})
	if strings.TrimSpace(resultText(r)) != "[]" {
		t.Errorf("public scope should not see owned items: %s", resultText(r))
	}
}

func TestListTagsAndContract(t *testing.T) {
	srv := testServer(t, "u1")
	createItem(t, srv, "t", "c", "Deep Work")

	r := callTool(t, srv, "list_tags", nil)
	if !strings.Contains(resultText(r), `"slug": "deep-work"`) {
		t.Errorf("list_tags = %s", resultText(r))
	}

	r = callTool(t, srv, "get_item_contract", nil)
	if resultText(r) != ItemFormatContract {
		t.Error("contract mismatch")
	}
}
