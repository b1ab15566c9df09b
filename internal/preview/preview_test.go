package preview

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/snlxnet/bridge/internal/render"
	"github.com/snlxnet/bridge/internal/vault"
)

func testServer(t *testing.T) (*Server, *vault.FS) {
	t.Helper()
	dir := t.TempDir()
	v, err := vault.NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	s := New(v, dir, render.New("/style.css", "https://example.com/src"), slog.Default())
	t.Cleanup(s.Close)
	return s, v
}

func TestRebuildAndServe(t *testing.T) {
	s, v := testServer(t)
	_ = v.Write("garden.md", []byte("---\npost: snlx.net\n---\nGrowing things.\n"))
	_ = v.Write("hidden.md", []byte("not published\n"))

	if err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/garden")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if want := "Growing things."; !strings.Contains(string(body), want) {
		t.Errorf("body missing %q", want)
	}

	resp2, _ := srv.Client().Get(srv.URL + "/hidden")
	resp2.Body.Close()
	if resp2.StatusCode != 404 {
		t.Errorf("private page status = %d, want 404", resp2.StatusCode)
	}
}

func TestRebuild_DoesNotMutateVault(t *testing.T) {
	s, v := testServer(t)
	raw := []byte("---\npost: draft\n---\nsecret body\n")
	_ = v.Write("draft.md", raw)

	if err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	got, _ := v.Read("draft.md")
	if string(got) != string(raw) {
		t.Errorf("preview mutated the vault:\n%s", got)
	}
}

func TestServe_Asset(t *testing.T) {
	s, v := testServer(t)
	_ = v.Write("img.png", []byte("pngbytes"))
	if err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/img.png")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "pngbytes" {
		t.Errorf("asset body = %q", body)
	}
}

func TestContentChanged(t *testing.T) {
	s, v := testServer(t)
	_ = v.Write("a.md", []byte("one"))

	if !s.contentChanged("a.md") {
		t.Error("first sighting should count as changed")
	}
	if s.contentChanged("a.md") {
		t.Error("same content should not count as changed")
	}
	_ = v.Write("a.md", []byte("two"))
	if !s.contentChanged("a.md") {
		t.Error("new content should count as changed")
	}
}
