// Package vault defines the note-collection file-system abstraction.
package vault

import "time"

// FileMeta describes one file in the vault.
type FileMeta struct {
	Name       string // base filename, e.g. "garden.md"
	Path       string // path relative to vault root
	IsMarkdown bool
	CreatedAt  time.Time
	ModTime    time.Time
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns metadata for every file in the vault, markdown and
	// binary alike.
	List() ([]FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating it if absent.
	Write(path string, content []byte) error
	// Stat returns metadata for a single file.
	Stat(path string) (FileMeta, error)
}
