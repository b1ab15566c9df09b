// Package classify assigns every vault note a publication class and
// normalizes its frontmatter as a side effect.
package classify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/snlxnet/bridge/internal/idgen"
	"github.com/snlxnet/bridge/internal/models"
	"github.com/snlxnet/bridge/internal/parser"
	"github.com/snlxnet/bridge/internal/vault"
)

const dateLayout = "2006-01-02"

// Result is the outcome of one classification pass, split by class.
// Slices are sorted by note name.
type Result struct {
	Public  []models.PublicNote
	Secret  []models.SecretNote
	Private []models.PrivateNote
}

// Classifier visits every note once, assigns its class, and commits any
// frontmatter normalization before the pipeline proceeds.
type Classifier struct {
	store vault.Provider
	gen   idgen.Generator
	now   func() time.Time

	// ReadOnly computes classes without assigning identifiers or
	// writing normalization back, for preview and dry-run surfaces.
	ReadOnly bool
}

// New creates a Classifier. The generator is injected so identifier
// assignment is substitutable in tests.
func New(store vault.Provider, gen idgen.Generator) *Classifier {
	return &Classifier{store: store, gen: gen, now: time.Now}
}

// Run classifies every markdown file in the vault. Notes are processed
// concurrently; returning from Run guarantees every note's metadata
// write has completed, so later stages can trust class membership.
func (c *Classifier) Run(ctx context.Context) (*Result, error) {
	metas, err := c.store.List()
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	var (
		mu  sync.Mutex
		res Result
	)

	g, _ := errgroup.WithContext(ctx)
	for _, meta := range metas {
		if !meta.IsMarkdown {
			continue
		}
		g.Go(func() error {
			public, secret, private, err := c.classifyNote(meta)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case public != nil:
				res.Public = append(res.Public, *public)
			case secret != nil:
				res.Secret = append(res.Secret, *secret)
			default:
				res.Private = append(res.Private, *private)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	sort.Slice(res.Public, func(i, j int) bool { return res.Public[i].Name < res.Public[j].Name })
	sort.Slice(res.Secret, func(i, j int) bool { return res.Secret[i].Name < res.Secret[j].Name })
	sort.Slice(res.Private, func(i, j int) bool { return res.Private[i].Name < res.Private[j].Name })

	return &res, nil
}

// classifyNote performs the single read-modify-write for one note.
// Exactly one of the returned pointers is non-nil.
func (c *Classifier) classifyNote(meta vault.FileMeta) (*models.PublicNote, *models.SecretNote, *models.PrivateNote, error) {
	data, err := c.store.Read(meta.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	parsed, err := parser.Parse(data)
	if err != nil {
		return nil, nil, nil, err
	}

	note := models.Note{
		Name:        meta.Name,
		Path:        meta.Path,
		Body:        parsed.Body,
		Frontmatter: parsed.Frontmatter,
		CreatedAt:   meta.CreatedAt,
		UpdatedAt:   meta.ModTime,
	}

	post := strValue(parsed.Frontmatter, models.KeyPost)
	id := strValue(parsed.Frontmatter, models.KeyID)

	// Decision table: marker → public; non-marker tag → secret with a
	// fresh identifier; bare identifier → secret; neither → private.
	var class models.Class
	switch {
	case post == models.PublicMarker:
		class = models.Public
	case post != "":
		class = models.Secret
	case id != "":
		class = models.Secret
	default:
		return nil, nil, &models.PrivateNote{Note: note}, nil
	}

	fm := parsed.Frontmatter
	if fm == nil {
		fm = make(map[string]any)
	}
	dirty := false

	if class == models.Secret && id == "" && !c.ReadOnly {
		id = c.gen.NewID()
		fm[models.KeyID] = id
		delete(fm, models.KeyPost)
		dirty = true
	}

	created := strValue(fm, models.KeyCreated)
	if created == "" {
		created = meta.CreatedAt.Format(dateLayout)
		fm[models.KeyCreated] = created
		dirty = true
	}
	updated := c.now().Format(dateLayout)
	if strValue(fm, models.KeyUpdated) != updated {
		fm[models.KeyUpdated] = updated
		dirty = true
	}
	if strValue(fm, models.KeyLayout) == "" {
		fm[models.KeyLayout] = models.DefaultLayout
		dirty = true
	}

	note.Frontmatter = fm

	if dirty && !c.ReadOnly {
		raw, err := parser.Compose(fm, parsed.Body)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := c.store.Write(meta.Path, raw); err != nil {
			return nil, nil, nil, err
		}
	}

	switch class {
	case models.Public:
		return &models.PublicNote{Note: note, Created: created, Updated: updated}, nil, nil, nil
	default:
		return nil, &models.SecretNote{Note: note, Identifier: id, Created: created, Updated: updated}, nil, nil
	}
}

func strValue(fm map[string]any, key string) string {
	if fm == nil {
		return ""
	}
	if s, ok := fm[key].(string); ok {
		return s
	}
	return ""
}
