// Package graph resolves extracted references into a navigable link graph
// and a per-class referenced-asset set.
package graph

import (
	"sort"

	"github.com/snlxnet/bridge/internal/models"
	"github.com/snlxnet/bridge/internal/parser"
	"github.com/snlxnet/bridge/internal/vault"
)

// Graph is the resolved link structure for one publication class.
type Graph struct {
	Edges  []models.LinkEdge
	Assets []models.AssetRef
}

// Backlinks returns the names of notes linking to the given note.
func (g *Graph) Backlinks(name string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.To == name {
			out = append(out, e.From)
		}
	}
	return out
}

// ForwardLinks returns the names of notes the given note links to.
func (g *Graph) ForwardLinks(name string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.From == name {
			out = append(out, e.To)
		}
	}
	return out
}

// Builder resolves raw reference targets against the whole vault
// collection and prunes edges that touch private notes.
type Builder struct {
	byName  map[string]vault.FileMeta
	byPath  map[string]vault.FileMeta
	classOf map[string]models.Class
}

// NewBuilder indexes the full collection. classOf maps note name to its
// publication class; notes absent from the map are treated as private.
func NewBuilder(files []vault.FileMeta, classOf map[string]models.Class) *Builder {
	b := &Builder{
		byName:  make(map[string]vault.FileMeta, len(files)),
		byPath:  make(map[string]vault.FileMeta, len(files)),
		classOf: classOf,
	}
	for _, f := range files {
		b.byName[f.Name] = f
		b.byPath[f.Path] = f
	}
	return b
}

// Build extracts and resolves references from each note of one class.
// A target resolving to a markdown note becomes an edge; any other
// resolved file becomes an asset reference; unresolved targets are
// dropped. Duplicate edges and assets within the class are collapsed.
func (b *Builder) Build(notes []models.Note) *Graph {
	g := &Graph{}
	edgeSeen := make(map[models.LinkEdge]struct{})
	assetSeen := make(map[string]struct{})

	for _, note := range notes {
		refs := parser.ExtractRefs(note.Body)
		for _, target := range append(refs.Links, refs.Embeds...) {
			meta, ok := b.resolve(target)
			if !ok {
				continue
			}
			if meta.IsMarkdown {
				edge := models.LinkEdge{From: note.Name, To: meta.Name}
				if _, dup := edgeSeen[edge]; dup {
					continue
				}
				edgeSeen[edge] = struct{}{}
				g.Edges = append(g.Edges, edge)
				continue
			}
			if _, dup := assetSeen[meta.Path]; dup {
				continue
			}
			assetSeen[meta.Path] = struct{}{}
			g.Assets = append(g.Assets, models.AssetRef{
				Name:    meta.Name,
				Path:    meta.Path,
				ModTime: meta.ModTime,
			})
		}
	}

	g.Edges = b.pruneExcluded(g.Edges)
	sort.Slice(g.Assets, func(i, j int) bool { return g.Assets[i].Path < g.Assets[j].Path })
	return g
}

// resolve tries the raw target, then the raw target with a markdown
// extension appended, first by name then by path.
func (b *Builder) resolve(target string) (vault.FileMeta, bool) {
	for _, candidate := range []string{target, target + ".md"} {
		if meta, ok := b.byName[candidate]; ok {
			return meta, true
		}
		if meta, ok := b.byPath[candidate]; ok {
			return meta, true
		}
	}
	return vault.FileMeta{}, false
}

// pruneExcluded drops every edge with a private endpoint. Private notes
// may be referenced textually but must never leak into navigation.
func (b *Builder) pruneExcluded(edges []models.LinkEdge) []models.LinkEdge {
	kept := edges[:0]
	for _, e := range edges {
		if b.classOf[e.From] == models.Private || b.classOf[e.To] == models.Private {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
