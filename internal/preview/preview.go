// Package preview serves the rendered public site locally, re-rendering
// on vault changes with live-reload events over SSE.
package preview

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/snlxnet/bridge/internal/checksum"
	"github.com/snlxnet/bridge/internal/classify"
	"github.com/snlxnet/bridge/internal/graph"
	"github.com/snlxnet/bridge/internal/idgen"
	"github.com/snlxnet/bridge/internal/models"
	"github.com/snlxnet/bridge/internal/render"
	"github.com/snlxnet/bridge/internal/sse"
	"github.com/snlxnet/bridge/internal/vault"
)

// Server renders public notes on demand and serves them with
// live-reload.
type Server struct {
	store    vault.Provider
	root     string // absolute vault root, for the watcher
	renderer *render.Renderer
	broker   *sse.Broker
	logger   *slog.Logger

	mu    sync.RWMutex
	pages map[string]string // site path without extension → html
	sums  map[string]string // vault path → content checksum
}

// New creates a preview server over the given vault.
func New(store vault.Provider, root string, renderer *render.Renderer, logger *slog.Logger) *Server {
	return &Server{
		store:    store,
		root:     root,
		renderer: renderer,
		broker:   sse.NewBroker(500 * time.Millisecond),
		logger:   logger,
	}
}

// Close stops the live-reload broker.
func (s *Server) Close() {
	s.broker.Close()
}

// Rebuild classifies the vault read-only and renders every public note
// into memory. Classification side effects are suppressed: previewing
// must never mutate the vault.
func (s *Server) Rebuild(ctx context.Context) error {
	c := classify.New(s.store, idgen.UUID{})
	c.ReadOnly = true
	res, err := c.Run(ctx)
	if err != nil {
		return err
	}

	files, err := s.store.List()
	if err != nil {
		return err
	}
	classOf := make(map[string]models.Class)
	for _, n := range res.Public {
		classOf[n.Name] = models.Public
	}
	for _, n := range res.Secret {
		classOf[n.Name] = models.Secret
	}

	notes := make([]models.Note, len(res.Public))
	for i, n := range res.Public {
		notes[i] = n.Note
	}
	g := graph.NewBuilder(files, classOf).Build(notes)

	pages := make(map[string]string, len(res.Public))
	for _, n := range res.Public {
		html, err := s.renderer.Render(n, g)
		if err != nil {
			s.logger.Warn("preview: render failed",
				slog.String("note", n.Name), slog.String("error", err.Error()))
			continue
		}
		pages[strings.TrimSuffix(n.Path, ".md")] = html
	}

	s.mu.Lock()
	s.pages = pages
	s.mu.Unlock()

	s.logger.Info("preview: rebuilt", slog.Int("pages", len(pages)))
	return nil
}

// Router builds the preview HTTP routes: rendered pages, raw assets,
// and the SSE live-reload endpoint.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/events", s.broker.ServeHTTP)
	r.Get("/*", s.servePage)
	return r
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index"
	}

	s.mu.RLock()
	html, ok := s.pages[path]
	s.mu.RUnlock()
	if ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
		return
	}

	// Fall through to raw assets (images referenced by pages).
	if data, err := s.store.Read(path); err == nil && !strings.HasSuffix(path, ".md") {
		http.ServeContent(w, r, path, time.Time{}, strings.NewReader(string(data)))
		return
	}
	http.NotFound(w, r)
}

// Watch runs an fsnotify watcher on the vault root until ctx is
// cancelled, rebuilding and broadcasting a reload when note content
// actually changes. Events are debounced; unchanged checksums are
// skipped so editor save storms do not trigger redundant rebuilds.
func (s *Server) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, s.root); err != nil {
		return err
	}

	s.logger.Info("preview: watcher started", slog.String("root", s.root))

	var rebuildTimer *time.Timer
	var rebuildCh <-chan time.Time
	var pending string

	scheduleRebuild := func(path string) {
		pending = path
		if rebuildTimer == nil {
			rebuildTimer = time.NewTimer(200 * time.Millisecond)
			rebuildCh = rebuildTimer.C
		} else {
			rebuildTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			s.logger.Info("preview: watcher stopped")
			return nil

		case <-rebuildCh:
			if err := s.Rebuild(ctx); err != nil {
				s.logger.Warn("preview: rebuild failed", slog.String("error", err.Error()))
				continue
			}
			s.broker.PublishReload(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						s.logger.Warn("preview: add new dir failed",
							slog.String("path", ev.Name), slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			rel, relErr := filepath.Rel(s.root, ev.Name)
			if relErr != nil || strings.HasPrefix(filepath.Base(rel), ".") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !s.contentChanged(rel) {
				continue
			}
			scheduleRebuild(rel)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("preview: watcher error", slog.String("error", err.Error()))
		}
	}
}

// contentChanged compares the file's checksum against the last one seen,
// recording the new value. Deleted files always count as changed.
func (s *Server) contentChanged(rel string) bool {
	data, err := s.store.Read(rel)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sums == nil {
		s.sums = make(map[string]string)
	}
	if err != nil {
		delete(s.sums, rel)
		return true
	}
	sum := checksum.Sum(data)
	if s.sums[rel] == sum {
		return false
	}
	s.sums[rel] = sum
	return true
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
