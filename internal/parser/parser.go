// Package parser extracts frontmatter and outbound references from Markdown
// content, and composes frontmatter back for metadata write-back.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikiEmbedRe = regexp.MustCompile(`!\[\[(.*?)\]\]`)
	wikiLinkRe  = regexp.MustCompile(`\[\[(.*?)\]\]`)
	mdImageRe   = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	mdLinkRe    = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
}

// Refs holds the outbound references extracted from a note body, split by
// style. Links are navigable page references; Embeds are asset references
// (image embeds).
type Refs struct {
	Links  []string
	Embeds []string
}

// Parse separates YAML frontmatter (between leading --- delimiters) from the
// Markdown body. If no frontmatter is found the entire content is body.
func Parse(data []byte) (*Result, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return &Result{Body: string(data)}, nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter — treat everything as body.
		return &Result{Body: string(data)}, nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML — return body only, no error.
		return &Result{Body: string(data)}, nil
	}

	return &Result{Frontmatter: fm, Body: body}, nil
}

// Compose serializes frontmatter and body back into raw Markdown bytes.
// A nil or empty frontmatter yields the bare body.
func Compose(fm map[string]any, body string) ([]byte, error) {
	if len(fm) == 0 {
		return []byte(body), nil
	}
	block, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("parser: marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(block)
	buf.WriteString("---\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// ExtractRefs returns the raw outbound reference targets in body, in order
// of appearance, split into page links and asset embeds. Extraction is
// purely textual; no resolution happens here.
//
// Embed syntax is a superset of link syntax, so embeds are matched and
// removed before links are scanned.
func ExtractRefs(body string) Refs {
	var refs Refs

	for _, m := range wikiEmbedRe.FindAllStringSubmatch(body, -1) {
		if t := wikiTarget(m[1]); t != "" {
			refs.Embeds = append(refs.Embeds, t)
		}
	}
	for _, m := range mdImageRe.FindAllStringSubmatch(body, -1) {
		if t := strings.TrimSpace(m[2]); t != "" {
			refs.Embeds = append(refs.Embeds, t)
		}
	}

	stripped := wikiEmbedRe.ReplaceAllString(body, "")
	stripped = mdImageRe.ReplaceAllString(stripped, "")

	for _, m := range wikiLinkRe.FindAllStringSubmatch(stripped, -1) {
		if t := wikiTarget(m[1]); t != "" {
			refs.Links = append(refs.Links, t)
		}
	}
	for _, m := range mdLinkRe.FindAllStringSubmatch(stripped, -1) {
		if t := strings.TrimSpace(m[2]); t != "" {
			refs.Links = append(refs.Links, t)
		}
	}

	return refs
}

// wikiTarget normalises a wiki reference: [[Target|Display]] → Target.
func wikiTarget(raw string) string {
	target := raw
	if i := strings.Index(raw, "|"); i >= 0 {
		target = raw[:i]
	}
	return strings.TrimSpace(target)
}
