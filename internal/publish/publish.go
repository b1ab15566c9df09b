// Package publish orchestrates the classify → graph → ledger → render →
// sink pipeline over a vault.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/snlxnet/bridge/internal/apperr"
	"github.com/snlxnet/bridge/internal/classify"
	"github.com/snlxnet/bridge/internal/graph"
	"github.com/snlxnet/bridge/internal/history"
	"github.com/snlxnet/bridge/internal/idgen"
	"github.com/snlxnet/bridge/internal/ledger"
	"github.com/snlxnet/bridge/internal/models"
	"github.com/snlxnet/bridge/internal/notify"
	"github.com/snlxnet/bridge/internal/parser"
	"github.com/snlxnet/bridge/internal/render"
	"github.com/snlxnet/bridge/internal/sink"
	"github.com/snlxnet/bridge/internal/vault"
)

// SiteSink publishes public pages and assets as one atomic commit.
type SiteSink interface {
	PublishCommit(ctx context.Context, pages []sink.Page, assets []sink.Blob, message string) error
}

// StoreSink uploads secret artifacts individually.
type StoreSink interface {
	UploadBatch(ctx context.Context, items []sink.Item) []error
}

// Pipeline wires the pipeline stages together for one vault.
type Pipeline struct {
	Store    vault.Provider
	Gen      idgen.Generator
	Renderer *render.Renderer
	Site     SiteSink
	Blob     StoreSink
	// BlobBaseURL is the public base used when rewriting secret image
	// embeds to remote-resolvable form.
	BlobBaseURL string
	Notifier    notify.Notifier
	History     *history.DB // optional
	Logger      *slog.Logger

	now func() time.Time
}

// Run executes one full publish. Sink failures are reported through the
// notifier and the returned error, but never roll back the ledger or the
// peer sink.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.now == nil {
		p.now = time.Now
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	started := p.now()

	res, err := classify.New(p.Store, p.Gen).Run(ctx)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	logger.Info("classified vault",
		slog.Int("public", len(res.Public)),
		slog.Int("secret", len(res.Secret)),
		slog.Int("private", len(res.Private)))

	files, err := p.Store.List()
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	classOf := make(map[string]models.Class)
	for _, n := range res.Public {
		classOf[n.Name] = models.Public
	}
	for _, n := range res.Secret {
		classOf[n.Name] = models.Secret
	}

	builder := graph.NewBuilder(files, classOf)
	publicGraph := builder.Build(bareNotes(res.Public))
	secretGraph := builder.Build(secretBareNotes(res.Secret))

	// Ledger filtering is one critical section: every decision is made
	// against the loaded state, then committed in a single write.
	led, err := ledger.Open(p.Store)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	var publicNotes []models.PublicNote
	for _, n := range res.Public {
		if led.ShouldPublishNote(n.Name, n.Updated) {
			publicNotes = append(publicNotes, n)
		}
	}
	var secretNotes []models.SecretNote
	for _, n := range res.Secret {
		if led.ShouldPublishNote(n.Name, n.Updated) {
			secretNotes = append(secretNotes, n)
		}
	}
	// An asset may be referenced by both classes; its ledger decision is
	// made once and applied to each class's list so the sinks stay in
	// agreement.
	decisions := assetDecisions(led, publicGraph.Assets, secretGraph.Assets)
	publicAssets := filterAssets(decisions, publicGraph.Assets)
	secretAssets := filterAssets(decisions, secretGraph.Assets)

	if err := led.Commit(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	var runID int64
	if p.History != nil {
		if runID, err = p.History.Begin(started); err != nil {
			logger.Warn("history unavailable", slog.String("error", err.Error()))
			p.History = nil
		}
	}

	siteErr := make(chan error, 1)
	storeErr := make(chan error, 1)
	go func() { siteErr <- p.publishSite(ctx, publicNotes, publicGraph, publicAssets) }()
	go func() { storeErr <- p.publishStore(ctx, secretNotes, secretAssets) }()
	siteFailure := <-siteErr
	storeFailure := <-storeErr

	if p.History != nil {
		p.recordRun(runID, publicNotes, secretNotes, publicAssets, secretAssets, siteFailure, storeFailure)
	}

	return errors.Join(siteFailure, storeFailure)
}

// publishSite renders surviving public notes and builds the site commit.
func (p *Pipeline) publishSite(ctx context.Context, notes []models.PublicNote, g *graph.Graph, assets []models.AssetRef) error {
	if len(notes) == 0 && len(assets) == 0 {
		p.Notifier.Info("site: nothing to publish")
		return nil
	}

	var pages []sink.Page
	for _, n := range notes {
		html, err := p.Renderer.Render(n, g)
		if err != nil {
			p.Notifier.Failed("site render", err)
			return err
		}
		pages = append(pages, sink.Page{Path: n.Path, HTML: html})
	}

	var blobs []sink.Blob
	for _, a := range assets {
		data, err := p.Store.Read(a.Path)
		if err != nil {
			p.Notifier.Failed("site asset read", err)
			return err
		}
		blobs = append(blobs, sink.Blob{Path: a.Path, Data: data})
	}

	message := fmt.Sprintf("publish %s", p.now().Format("2006-01-02"))
	if err := p.Site.PublishCommit(ctx, pages, blobs, message); err != nil {
		p.Notifier.Failed("site publish", err)
		return err
	}
	p.Notifier.Info(fmt.Sprintf("site: published %d notes, %d assets", len(pages), len(blobs)))
	return nil
}

// publishStore uploads surviving secret notes and assets as independent
// items. A note without an identifier is dropped with a warning.
func (p *Pipeline) publishStore(ctx context.Context, notes []models.SecretNote, assets []models.AssetRef) error {
	if len(notes) == 0 && len(assets) == 0 {
		p.Notifier.Info("store: nothing to publish")
		return nil
	}

	var items []sink.Item
	for _, n := range notes {
		if n.Identifier == "" {
			p.Notifier.Warn(fmt.Sprintf("store: dropping %s: %v", n.Name, apperr.ErrMissingIdentifier))
			continue
		}
		body := sink.RewriteSecretBody(n.Body, p.BlobBaseURL)
		raw, err := parser.Compose(n.Frontmatter, body)
		if err != nil {
			p.Notifier.Warn(fmt.Sprintf("store: dropping %s: %v", n.Name, err))
			continue
		}
		items = append(items, sink.Item{ID: n.Identifier, Name: n.Name, Data: raw})
	}
	for _, a := range assets {
		data, err := p.Store.Read(a.Path)
		if err != nil {
			p.Notifier.Warn(fmt.Sprintf("store: dropping %s: %v", a.Name, err))
			continue
		}
		items = append(items, sink.Item{ID: a.Name, Name: a.Name, Data: data})
	}
	if len(items) == 0 {
		p.Notifier.Info("store: nothing to publish")
		return nil
	}

	errs := p.Blob.UploadBatch(ctx, items)
	for _, err := range errs {
		p.Notifier.Failed("store upload", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish: store: %d of %d uploads failed", len(errs), len(items))
	}
	p.Notifier.Info(fmt.Sprintf("store: published %d items", len(items)))
	return nil
}

func (p *Pipeline) recordRun(runID int64, publicNotes []models.PublicNote, secretNotes []models.SecretNote,
	publicAssets, secretAssets []models.AssetRef, siteFailure, storeFailure error) {

	for _, n := range publicNotes {
		_ = p.History.RecordArtifact(runID, n.Name, "note", "public")
	}
	for _, n := range secretNotes {
		_ = p.History.RecordArtifact(runID, n.Name, "note", "secret")
	}
	for _, a := range publicAssets {
		_ = p.History.RecordArtifact(runID, a.Name, "asset", "public")
	}
	for _, a := range secretAssets {
		_ = p.History.RecordArtifact(runID, a.Name, "asset", "secret")
	}

	detail := ""
	if joined := errors.Join(siteFailure, storeFailure); joined != nil {
		detail = joined.Error()
	}
	_ = p.History.Finish(runID, p.now(), history.Outcome{
		PublicNotes:  len(publicNotes),
		PublicAssets: len(publicAssets),
		SecretNotes:  len(secretNotes),
		SecretAssets: len(secretAssets),
		SiteOK:       siteFailure == nil,
		StoreOK:      storeFailure == nil,
		Detail:       detail,
	})
}

func assetDecisions(led *ledger.Ledger, lists ...[]models.AssetRef) map[string]bool {
	decisions := make(map[string]bool)
	for _, assets := range lists {
		for _, a := range assets {
			if _, done := decisions[a.Name]; done {
				continue
			}
			decisions[a.Name] = led.ShouldPublishAsset(a.Name, a.ModTime)
		}
	}
	return decisions
}

func filterAssets(decisions map[string]bool, assets []models.AssetRef) []models.AssetRef {
	var out []models.AssetRef
	for _, a := range assets {
		if decisions[a.Name] {
			out = append(out, a)
		}
	}
	return out
}

func bareNotes(notes []models.PublicNote) []models.Note {
	out := make([]models.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Note
	}
	return out
}

func secretBareNotes(notes []models.SecretNote) []models.Note {
	out := make([]models.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Note
	}
	return out
}
