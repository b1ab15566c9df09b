package graph

import (
	"testing"
	"time"

	"github.com/snlxnet/bridge/internal/models"
	"github.com/snlxnet/bridge/internal/vault"
)

func md(name string) vault.FileMeta {
	return vault.FileMeta{Name: name, Path: name, IsMarkdown: true, ModTime: time.Now()}
}

func bin(name string) vault.FileMeta {
	return vault.FileMeta{Name: name, Path: name, ModTime: time.Now()}
}

func note(name, body string) models.Note {
	return models.Note{Name: name, Path: name, Body: body}
}

func TestBuild_EdgesAndAssets(t *testing.T) {
	files := []vault.FileMeta{md("a.md"), md("b.md"), bin("img.png")}
	classOf := map[string]models.Class{"a.md": models.Public, "b.md": models.Public}
	b := NewBuilder(files, classOf)

	g := b.Build([]models.Note{note("a.md", "link [[b]] and ![[img.png]]")})
	if len(g.Edges) != 1 || g.Edges[0] != (models.LinkEdge{From: "a.md", To: "b.md"}) {
		t.Errorf("edges = %v", g.Edges)
	}
	if len(g.Assets) != 1 || g.Assets[0].Name != "img.png" {
		t.Errorf("assets = %v", g.Assets)
	}
}

func TestBuild_ResolvesMarkdownExtension(t *testing.T) {
	b := NewBuilder([]vault.FileMeta{md("a.md"), md("target.md")},
		map[string]models.Class{"a.md": models.Public, "target.md": models.Public})

	for _, body := range []string{"[[target]]", "[[target.md]]", "[x](target.md)"} {
		g := b.Build([]models.Note{note("a.md", body)})
		if len(g.Edges) != 1 || g.Edges[0].To != "target.md" {
			t.Errorf("body %q: edges = %v", body, g.Edges)
		}
	}
}

func TestBuild_UnresolvedDropped(t *testing.T) {
	b := NewBuilder([]vault.FileMeta{md("a.md")}, map[string]models.Class{"a.md": models.Public})
	g := b.Build([]models.Note{note("a.md", "[[nowhere]] and ![[ghost.png]]")})
	if len(g.Edges) != 0 || len(g.Assets) != 0 {
		t.Errorf("edges = %v, assets = %v", g.Edges, g.Assets)
	}
}

func TestBuild_PrunesPrivateEndpoints(t *testing.T) {
	files := []vault.FileMeta{md("pub.md"), md("priv.md"), md("other.md")}
	classOf := map[string]models.Class{
		"pub.md":   models.Public,
		"other.md": models.Public,
		"priv.md":  models.Private,
	}
	b := NewBuilder(files, classOf)

	g := b.Build([]models.Note{
		note("pub.md", "[[priv]] and [[other]]"),
	})
	if len(g.Edges) != 1 || g.Edges[0].To != "other.md" {
		t.Errorf("edges = %v, want only pub→other", g.Edges)
	}
	for _, e := range g.Edges {
		if classOf[e.From] == models.Private || classOf[e.To] == models.Private {
			t.Errorf("edge with private endpoint: %v", e)
		}
	}
}

func TestBuild_UnknownTargetClassTreatedPrivate(t *testing.T) {
	// target.md exists in the collection but has no class entry.
	b := NewBuilder([]vault.FileMeta{md("a.md"), md("target.md")},
		map[string]models.Class{"a.md": models.Public})
	g := b.Build([]models.Note{note("a.md", "[[target]]")})
	if len(g.Edges) != 0 {
		t.Errorf("edges = %v, want none", g.Edges)
	}
}

func TestBuild_SetSemantics(t *testing.T) {
	b := NewBuilder([]vault.FileMeta{md("a.md"), md("b.md"), bin("img.png")},
		map[string]models.Class{"a.md": models.Public, "b.md": models.Public})
	g := b.Build([]models.Note{
		note("a.md", "[[b]] again [[b]] ![[img.png]] ![[img.png]]"),
	})
	if len(g.Edges) != 1 {
		t.Errorf("edges = %v, want 1", g.Edges)
	}
	if len(g.Assets) != 1 {
		t.Errorf("assets = %v, want 1", g.Assets)
	}
}

func TestBacklinksAndForwardLinks(t *testing.T) {
	g := &Graph{Edges: []models.LinkEdge{
		{From: "a.md", To: "b.md"},
		{From: "c.md", To: "b.md"},
		{From: "b.md", To: "a.md"},
	}}
	back := g.Backlinks("b.md")
	if len(back) != 2 || back[0] != "a.md" || back[1] != "c.md" {
		t.Errorf("backlinks = %v", back)
	}
	fwd := g.ForwardLinks("b.md")
	if len(fwd) != 1 || fwd[0] != "a.md" {
		t.Errorf("forward = %v", fwd)
	}
}
