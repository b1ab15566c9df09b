package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/snlxnet/bridge/internal/history"
	"github.com/snlxnet/bridge/internal/idgen"
	"github.com/snlxnet/bridge/internal/publish"
	"github.com/snlxnet/bridge/internal/testutil"
	"github.com/snlxnet/bridge/internal/vault"
)

func testServer(t *testing.T) (*Server, vault.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)

	p := &publish.Pipeline{Store: store, Gen: idgen.UUID{}}
	srv := New(store, p, nil)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_publishable":
		result, err = srv.listPublishable(ctx, req)
	case "publish_history":
		result, err = srv.publishHistory(ctx, req)
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

func TestListPublishable(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("pub.md", []byte("---\npost: snlx.net\n---\nhello"))
	_ = store.Write("hidden.md", []byte("---\npost: draft\n---\nshh"))
	_ = store.Write("diary.md", []byte("private thoughts"))

	r := callTool(t, srv, "list_publishable", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}

	var report classReport
	if err := json.Unmarshal([]byte(resultText(r)), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Public) != 1 || report.Public[0] != "pub" {
		t.Errorf("public = %v, want [pub]", report.Public)
	}
	if len(report.Secret) != 1 || report.Secret[0] != "hidden" {
		t.Errorf("secret = %v, want [hidden]", report.Secret)
	}
	if len(report.Private) != 1 || report.Private[0] != "diary" {
		t.Errorf("private = %v, want [diary]", report.Private)
	}
}

func TestListPublishableLeavesVaultUntouched(t *testing.T) {
	srv, store := testServer(t)
	original := []byte("---\npost: draft\n---\nshh")
	_ = store.Write("hidden.md", original)

	callTool(t, srv, "list_publishable", map[string]interface{}{})

	data, err := store.Read("hidden.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(original) {
		t.Errorf("note was modified by dry run:\n%s", data)
	}
}

func TestPublishHistory(t *testing.T) {
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	srv := New(store, &publish.Pipeline{Store: store, Gen: idgen.UUID{}}, db)

	id, err := db.Begin(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Finish(id, time.Now(), history.Outcome{PublicNotes: 2, SiteOK: true, StoreOK: true}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "publish_history", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"public": 2`) {
		t.Errorf("history = %s", resultText(r))
	}
}

func TestPublishHistoryDisabled(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "publish_history", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error when history is disabled")
	}
	if !strings.Contains(resultText(r), "disabled") {
		t.Errorf("error text = %q", resultText(r))
	}
}
