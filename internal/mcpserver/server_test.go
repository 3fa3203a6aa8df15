package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vaultdigest/internal/digestservice"
	"github.com/starford/vaultdigest/internal/history"
	"github.com/starford/vaultdigest/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	vaultDir, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	svc := digestservice.NewService(store, db)
	return New(svc, "test"), vaultDir
}

func writeNote(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	abs := filepath.Join(vaultDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper; call the handlers.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "generate_digest":
		result, err = srv.generateDigest(ctx, req)
	case "pick_random_note":
		result, err = srv.pickRandomNote(ctx, req)
	case "list_runs":
		result, err = srv.listRuns(ctx, req)
	case "verify_digest":
		result, err = srv.verifyDigest(ctx, req)
	case "get_digest_format":
		result, err = srv.getDigestFormat(ctx, req)
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

func TestGenerateDigest(t *testing.T) {
	srv, vaultDir := testServer(t)
	writeNote(t, vaultDir, "b.md", "B")
	writeNote(t, vaultDir, "a.md", "A")

	r := callTool(t, srv, "generate_digest", map[string]any{
		"destination":     "Out/Digest.md",
		"include_content": false,
		"max_bytes":       500,
	})
	if r.IsError {
		t.Fatalf("generate failed: %s", resultText(r))
	}
	var rep digestservice.Report
	if err := json.Unmarshal([]byte(resultText(r)), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Destination != "Out/Digest.md" || rep.Documents != 2 || rep.Status != history.StatusCompleted {
		t.Errorf("report = %+v", rep.Run)
	}

	data, err := os.ReadFile(filepath.Join(vaultDir, "Out", "Digest.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "includeContent: false") {
		t.Errorf("header missing includeContent: false:\n%s", data)
	}
}

func TestGenerateDigest_InvalidSort(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "generate_digest", map[string]any{"sort": "size"})
	if !r.IsError {
		t.Error("expected error for unknown sort mode")
	}
}

func TestListRuns(t *testing.T) {
	srv, vaultDir := testServer(t)

	r := callTool(t, srv, "list_runs", map[string]any{})
	if got := resultText(r); got != "no runs recorded" {
		t.Errorf("empty list = %q", got)
	}

	writeNote(t, vaultDir, "a.md", "A")
	_ = callTool(t, srv, "generate_digest", map[string]any{})
	r = callTool(t, srv, "list_runs", map[string]any{"limit": 5})
	var runs []history.Run
	if err := json.Unmarshal([]byte(resultText(r)), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("runs = %d, want 1", len(runs))
	}
}

func TestVerifyDigest(t *testing.T) {
	srv, vaultDir := testServer(t)
	r := callTool(t, srv, "verify_digest", map[string]any{})
	if !r.IsError {
		t.Error("expected error before any digest exists")
	}

	writeNote(t, vaultDir, "a.md", "A")
	_ = callTool(t, srv, "generate_digest", map[string]any{})
	r = callTool(t, srv, "verify_digest", map[string]any{})
	if r.IsError {
		t.Fatalf("verify failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"unchanged": true`) {
		t.Errorf("verify = %s", resultText(r))
	}
}

func TestPickRandomNote(t *testing.T) {
	srv, vaultDir := testServer(t)
	writeNote(t, vaultDir, "MOC/index.md", "x")
	writeNote(t, vaultDir, "only.md", "y")

	r := callTool(t, srv, "pick_random_note", map[string]any{"exclude": "MOC"})
	if r.IsError {
		t.Fatalf("pick failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"path": "only.md"`) {
		t.Errorf("picked = %s", resultText(r))
	}

	r = callTool(t, srv, "pick_random_note", map[string]any{"exclude": "MOC, only.md"})
	if !r.IsError {
		t.Error("expected error when everything is excluded")
	}
}

func TestPickRandomNote_DefaultExclusions(t *testing.T) {
	srv, vaultDir := testServer(t)
	writeNote(t, vaultDir, "MOC/index.md", "x")

	r := callTool(t, srv, "pick_random_note", map[string]any{})
	if !r.IsError {
		t.Errorf("MOC should be skipped by default, got %s", resultText(r))
	}
}

func TestGetDigestFormat(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_digest_format", map[string]any{})
	if !strings.Contains(resultText(r), "## Contents") {
		t.Error("format contract should describe the contents list")
	}
}
