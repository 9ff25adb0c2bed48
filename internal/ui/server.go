// Package ui provides a browser UI for exploring type dependency graphs.
package ui

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/typegraph/internal/engine"
	"github.com/leapstack-labs/typegraph/internal/ui/router"
)

// DefaultWatchExtensions are the module file extensions that trigger a reload.
var DefaultWatchExtensions = []string{".yaml", ".yml", ".go", ".mod"}

// DebounceInterval is how long the watcher waits for changes to settle.
const DebounceInterval = 200 * time.Millisecond

// Server is the UI server.
type Server struct {
	engine     *engine.Engine
	port       int
	watch      bool
	modulesDir string
	extensions []string
	logger     *slog.Logger
}

// Config holds configuration for the UI server.
type Config struct {
	Engine *engine.Engine
	Port   int
	// Watch rediscovers modules when files under ModulesDir change.
	Watch      bool
	ModulesDir string
	// WatchExtensions defaults to DefaultWatchExtensions.
	WatchExtensions []string
	Logger          *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	exts := cfg.WatchExtensions
	if len(exts) == 0 {
		exts = DefaultWatchExtensions
	}
	modulesDir := cfg.ModulesDir
	if modulesDir == "" && cfg.Engine != nil {
		modulesDir = cfg.Engine.ModulesDir()
	}

	return &Server{
		engine:     cfg.Engine,
		port:       cfg.Port,
		watch:      cfg.Watch,
		modulesDir: modulesDir,
		extensions: exts,
		logger:     logger,
	}
}

// Handler returns the UI routes. Builds started through it run under ctx.
func (s *Server) Handler(ctx context.Context) (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(ctx, r, s.engine, s.logger); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	handler, err := s.Handler(egctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchFiles rediscovers modules when a module file changes. The engine
// publishes the reload to event stream clients.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, s.modulesDir); err != nil {
		s.logger.Error("failed to watch modules directory", "error", err)
	}

	reload := make(chan string, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case name := <-reload:
			s.logger.Debug("file changed, re-discovering", "file", name)
			if _, err := s.engine.Discover(ctx); err != nil {
				s.logger.Error("discover failed", "error", err)
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDirRecursive(watcher, event.Name); err != nil {
						s.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !s.watched(event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(DebounceInterval, func() {
				select {
				case reload <- name:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func (s *Server) watched(name string) bool {
	return slices.Contains(s.extensions, filepath.Ext(name))
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
