// Package models defines the domain types for the bridge publishing pipeline.
package models

import "time"

// Frontmatter keys the pipeline reads and writes.
const (
	KeyPost     = "post"
	KeyID       = "id"
	KeyCreated  = "created"
	KeyUpdated  = "updated"
	KeyLayout   = "layout"
	KeyTags     = "tags"
	KeyRedirect = "redirect"
)

// PublicMarker is the publish-intent tag value that makes a note public.
const PublicMarker = "snlx.net"

// DefaultLayout is assigned to any non-private note without a layout tag.
const DefaultLayout = "note"

// Note represents a Markdown file in the vault.
type Note struct {
	Name        string         // filename, e.g. "garden.md"
	Path        string         // path relative to vault root
	Body        string         // text after the frontmatter block
	Frontmatter map[string]any // parsed YAML frontmatter, nil when absent
	CreatedAt   time.Time      // file creation (birth) time
	UpdatedAt   time.Time      // file modification time
}

// Class is a note's publication class, recomputed every run.
type Class int

const (
	Private Class = iota
	Public
	Secret
)

func (c Class) String() string {
	switch c {
	case Public:
		return "public"
	case Secret:
		return "secret"
	default:
		return "private"
	}
}

// PublicNote is a note classified public. It carries the normalized
// timestamps later stages render and the ledger compares.
type PublicNote struct {
	Note
	Created string // YYYY-MM-DD, normalized during classification
	Updated string // YYYY-MM-DD, stamped during classification
}

// SecretNote is a note classified secret. Identifier is its address in
// the blob store; it may be empty if assignment failed, in which case
// the sink drops the note with a warning.
type SecretNote struct {
	Note
	Identifier string
	Created    string
	Updated    string
}

// PrivateNote is a note excluded from all publishing. No normalized
// fields: classification never mutates a private note.
type PrivateNote struct {
	Note
}

// LinkEdge is a directed navigational reference between two notes,
// identified by note name.
type LinkEdge struct {
	From string
	To   string
}

// AssetRef is a binary vault file reachable from at least one note of a
// given class.
type AssetRef struct {
	Name    string // filename, e.g. "img.png"
	Path    string // path relative to vault root
	ModTime time.Time
}
