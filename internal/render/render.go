// Package render turns one public note into a styled standalone HTML
// document with navigation, metadata, and rewritten links.
package render

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/snlxnet/bridge/internal/graph"
	"github.com/snlxnet/bridge/internal/models"
)

const dateLayout = "2006-01-02"

// Renderer produces standalone documents for public notes.
type Renderer struct {
	// Stylesheet is the href placed in the page shell.
	Stylesheet string
	// SourceURL is the static source-code link appended to navigation.
	SourceURL string

	now func() time.Time
}

// New creates a Renderer with the given shell parameters.
func New(stylesheet, sourceURL string) *Renderer {
	return &Renderer{Stylesheet: stylesheet, SourceURL: sourceURL, now: time.Now}
}

// Render assembles the full document for one note. Redirect notes skip
// body rendering entirely and yield a minimal redirect document.
func (r *Renderer) Render(note models.PublicNote, g *graph.Graph) (string, error) {
	if target, ok := note.Frontmatter[models.KeyRedirect].(string); ok && target != "" {
		return redirectDocument(target), nil
	}

	body, err := renderMarkdown(note.Body)
	if err != nil {
		return "", err
	}

	body = stripAnchorAttrs(body)
	body = rewriteResourceURLs(body)
	body = removeCopyButtons(body)

	var doc strings.Builder
	doc.WriteString(r.navBlock(note, g))
	doc.WriteString(r.metaBlock(note))
	doc.WriteString("<article>\n")
	doc.WriteString(body)
	doc.WriteString("</article>\n")

	return r.shell(displayName(note.Name), doc.String()), nil
}

// navBlock renders back-links, the current self-entry, forward-links,
// and the static source link as a list.
func (r *Renderer) navBlock(note models.PublicNote, g *graph.Graph) string {
	var b strings.Builder
	b.WriteString(`<nav><ul>`)

	back := g.Backlinks(note.Name)
	sort.Strings(back)
	for _, name := range back {
		writeNavEntry(&b, name)
	}

	fmt.Fprintf(&b, `<li class="current">%s</li>`, html.EscapeString(displayName(note.Name)))

	fwd := g.ForwardLinks(note.Name)
	sort.Strings(fwd)
	for _, name := range fwd {
		writeNavEntry(&b, name)
	}

	fmt.Fprintf(&b, `<li class="source"><a href="%s">source</a></li>`, html.EscapeString(r.SourceURL))
	b.WriteString("</ul></nav>\n")
	return b.String()
}

func writeNavEntry(b *strings.Builder, name string) {
	display := displayName(name)
	fmt.Fprintf(b, `<li><a href="/%s">%s</a></li>`,
		html.EscapeString(display), html.EscapeString(display))
}

// metaBlock renders relative-age strings for the note's timestamps and
// its label list.
func (r *Renderer) metaBlock(note models.PublicNote) string {
	var b strings.Builder
	b.WriteString(`<div class="meta">`)
	fmt.Fprintf(&b, `<p>planted %s ago, last tended %s ago</p>`,
		r.relativeAge(note.Created), r.relativeAge(note.Updated))

	if labels := noteLabels(note.Frontmatter); len(labels) > 0 {
		b.WriteString(`<ul class="tags">`)
		for _, label := range labels {
			fmt.Fprintf(&b, `<li>%s</li>`, html.EscapeString(label))
		}
		b.WriteString(`</ul>`)
	}
	b.WriteString("</div>\n")
	return b.String()
}

// relativeAge formats the age of a YYYY-MM-DD date: years with two
// decimals past a year, hours with two decimals under a day, whole days
// otherwise.
func (r *Renderer) relativeAge(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "?"
	}
	age := r.now().Sub(t)
	switch {
	case age >= 365*24*time.Hour:
		return fmt.Sprintf("%.2f years", age.Hours()/(365*24))
	case age < 24*time.Hour:
		return fmt.Sprintf("%.2f hours", age.Hours())
	default:
		return fmt.Sprintf("%d days", int(age.Hours()/24))
	}
}

// shell wraps content in the fixed page frame and pretty-prints it.
func (r *Renderer) shell(title, content string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>")
	b.WriteString(`<html lang="en">`)
	b.WriteString(`<head>`)
	b.WriteString(`<meta charset="utf-8">`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	fmt.Fprintf(&b, `<title>%s</title>`, html.EscapeString(title))
	fmt.Fprintf(&b, `<link rel="stylesheet" href="%s">`, r.Stylesheet)
	b.WriteString(`</head>`)
	b.WriteString(`<body>`)
	b.WriteString(content)
	b.WriteString(`</body></html>`)
	return prettyPrint(b.String())
}

// redirectDocument is the minimal page emitted for notes that declare an
// explicit redirect target instead of body content.
func redirectDocument(target string) string {
	escaped := html.EscapeString(target)
	return prettyPrint(fmt.Sprintf(
		`<!DOCTYPE html><html><head><meta http-equiv="refresh" content="0; url=%s"></head>`+
			`<body><a href="%s">moved</a></body></html>`, escaped, escaped))
}

// prettyPrint puts adjacent tags on separate lines. Readability only;
// the document is semantically unchanged.
func prettyPrint(doc string) string {
	out := strings.ReplaceAll(doc, "><", ">\n<")
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

// displayName is the note name without the markdown extension.
func displayName(name string) string {
	return strings.TrimSuffix(name, ".md")
}

func noteLabels(fm map[string]any) []string {
	raw, ok := fm[models.KeyTags]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
