package render

import (
	"strings"
	"testing"
	"time"

	"github.com/snlxnet/bridge/internal/graph"
	"github.com/snlxnet/bridge/internal/models"
)

func testRenderer() *Renderer {
	r := New("/style.css", "https://github.com/snlxnet/site")
	r.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }
	return r
}

func pubNote(name, body string) models.PublicNote {
	return models.PublicNote{
		Note: models.Note{
			Name:        name,
			Path:        name,
			Body:        body,
			Frontmatter: map[string]any{},
		},
		Created: "2026-08-29",
		Updated: "2026-08-29",
	}
}

func TestRender_PlainTextRoundTrip(t *testing.T) {
	r := testRenderer()
	doc, err := r.Render(pubNote("garden.md", "Just plain text."), &graph.Graph{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(doc, "Just plain text.") {
		t.Error("body text missing from document")
	}
	if !strings.Contains(doc, `<li class="current">garden</li>`) {
		t.Error("self-entry missing from navigation")
	}
	if !strings.Contains(doc, "<!DOCTYPE html>") {
		t.Error("shell doctype missing")
	}
	if !strings.Contains(doc, `href="/style.css"`) {
		t.Error("stylesheet reference missing")
	}
	// No links in, no note entries out.
	if strings.Count(doc, "<li><a href=") != 0 {
		t.Errorf("unexpected nav entries in:\n%s", doc)
	}
}

func TestRender_Navigation(t *testing.T) {
	r := testRenderer()
	g := &graph.Graph{Edges: []models.LinkEdge{
		{From: "other.md", To: "garden.md"},
		{From: "garden.md", To: "seeds.md"},
	}}
	doc, err := r.Render(pubNote("garden.md", "body"), g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	backIdx := strings.Index(doc, `<a href="/other">other</a>`)
	selfIdx := strings.Index(doc, `class="current"`)
	fwdIdx := strings.Index(doc, `<a href="/seeds">seeds</a>`)
	if backIdx < 0 || selfIdx < 0 || fwdIdx < 0 {
		t.Fatalf("nav entries missing:\n%s", doc)
	}
	if !(backIdx < selfIdx && selfIdx < fwdIdx) {
		t.Error("nav order must be back-links, self, forward-links")
	}
	if !strings.Contains(doc, `href="https://github.com/snlxnet/site"`) {
		t.Error("source link missing")
	}
}

func TestRender_SourceURLEscaped(t *testing.T) {
	r := New("/style.css", `https://example.com/?a=1&b="2"`)
	r.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }
	doc, err := r.Render(pubNote("garden.md", "body"), &graph.Graph{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(doc, `href="https://example.com/?a=1&amp;b=&#34;2&#34;"`) {
		t.Errorf("source URL not escaped in:\n%s", doc)
	}
}

func TestRender_MetadataAges(t *testing.T) {
	r := testRenderer()

	tests := []struct {
		created string
		want    string
	}{
		{"2024-08-28", "2.00 years"},
		{"2026-08-29", "hours"},
		{"2026-08-19", "10 days"},
	}
	for _, tt := range tests {
		got := r.relativeAge(tt.created)
		if !strings.Contains(got, tt.want) {
			t.Errorf("relativeAge(%q) = %q, want contains %q", tt.created, got, tt.want)
		}
	}
}

func TestRender_Labels(t *testing.T) {
	r := testRenderer()
	n := pubNote("garden.md", "body")
	n.Frontmatter[models.KeyTags] = []any{"gardening", "notes"}
	doc, err := r.Render(n, &graph.Graph{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(doc, "<li>gardening</li>") || !strings.Contains(doc, "<li>notes</li>") {
		t.Errorf("labels missing:\n%s", doc)
	}
}

func TestRender_MarkdownBody(t *testing.T) {
	r := testRenderer()
	doc, err := r.Render(pubNote("n.md", "# Heading\n\nSome *emphasis*."), &graph.Graph{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(doc, "Heading</h1>") {
		t.Error("heading not rendered")
	}
	if !strings.Contains(doc, "<em>emphasis</em>") {
		t.Error("emphasis not rendered")
	}
}

func TestRender_Redirect(t *testing.T) {
	r := testRenderer()
	n := pubNote("moved.md", "this body must not render")
	n.Frontmatter[models.KeyRedirect] = "https://elsewhere.example/page"
	doc, err := r.Render(n, &graph.Graph{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(doc, `http-equiv="refresh"`) {
		t.Error("redirect meta missing")
	}
	if !strings.Contains(doc, "https://elsewhere.example/page") {
		t.Error("redirect target missing")
	}
	if strings.Contains(doc, "this body must not render") {
		t.Error("redirect document must skip body rendering")
	}
}
