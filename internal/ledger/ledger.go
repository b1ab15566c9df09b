// Package ledger decides which artifacts changed since the last publish.
// The ledger is persisted as frontmatter on a dedicated sentinel note and
// is read once and written once per publish run.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/snlxnet/bridge/internal/apperr"
	"github.com/snlxnet/bridge/internal/parser"
	"github.com/snlxnet/bridge/internal/vault"
)

// SentinelPath is the vault-relative path of the ledger note.
const SentinelPath = "publish-ledger.md"

// AssetTolerance absorbs clock and filesystem jitter from the host: two
// asset modification times closer than this are considered unchanged.
// Tunable, not structural.
const AssetTolerance = 15 * time.Minute

const sentinelBody = "Publish ledger. Managed by bridge; do not edit.\n"

// Ledger is the in-memory view of the sentinel note's marker maps.
// Notes and assets are tracked in separate maps so a note and an asset
// sharing a name cannot collide.
type Ledger struct {
	store  vault.Provider
	notes  map[string]string
	assets map[string]int64
}

// Open loads the ledger, creating the sentinel note idempotently if it
// does not exist yet.
func Open(store vault.Provider) (*Ledger, error) {
	l := &Ledger{
		store:  store,
		notes:  make(map[string]string),
		assets: make(map[string]int64),
	}

	data, err := store.Read(SentinelPath)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("ledger: open: %w", err)
		}
		raw, composeErr := parser.Compose(map[string]any{"notes": map[string]any{}, "assets": map[string]any{}}, sentinelBody)
		if composeErr != nil {
			return nil, fmt.Errorf("ledger: init sentinel: %w", composeErr)
		}
		if err := store.Write(SentinelPath, raw); err != nil {
			return nil, fmt.Errorf("ledger: create sentinel: %w", err)
		}
		return l, nil
	}

	parsed, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("ledger: parse sentinel: %w", err)
	}
	if m, ok := parsed.Frontmatter["notes"].(map[string]any); ok {
		for k, v := range m {
			if s, ok := v.(string); ok {
				l.notes[k] = s
			}
		}
	}
	if m, ok := parsed.Frontmatter["assets"].(map[string]any); ok {
		for k, v := range m {
			if n, ok := toInt64(v); ok {
				l.assets[k] = n
			}
		}
	}
	return l, nil
}

// ShouldPublishNote reports whether the note changed since its last
// publish. Note markers are update-timestamp strings compared exactly.
// The stored marker is advanced either way, so the next run compares
// against the current value.
func (l *Ledger) ShouldPublishNote(name, updated string) bool {
	prev, seen := l.notes[name]
	l.notes[name] = updated
	return !seen || prev != updated
}

// ShouldPublishAsset reports whether the asset changed since its last
// publish, using the modification-time tolerance window: a delta
// strictly inside the window is unchanged; at the boundary and beyond
// it is changed. Like note markers, the stored marker is refreshed to
// the observed value either way.
func (l *Ledger) ShouldPublishAsset(name string, mtime time.Time) bool {
	now := mtime.Unix()
	prev, seen := l.assets[name]
	if seen {
		delta := now - prev
		if delta < 0 {
			delta = -delta
		}
		if delta < int64(AssetTolerance/time.Second) {
			// Unchanged, but the marker follows the observed value so
			// the next run compares against what it actually saw.
			l.assets[name] = now
			return false
		}
	}
	l.assets[name] = now
	return true
}

// Commit writes the updated marker maps back to the sentinel note. It
// must be called exactly once per publish run, after all filtering
// decisions have been made.
func (l *Ledger) Commit() error {
	notes := make(map[string]any, len(l.notes))
	for k, v := range l.notes {
		notes[k] = v
	}
	assets := make(map[string]any, len(l.assets))
	for k, v := range l.assets {
		assets[k] = v
	}
	raw, err := parser.Compose(map[string]any{"notes": notes, "assets": assets}, sentinelBody)
	if err != nil {
		return fmt.Errorf("ledger: compose: %w", err)
	}
	if err := l.store.Write(SentinelPath, raw); err != nil {
		return fmt.Errorf("ledger: commit: %w", err)
	}
	return nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
