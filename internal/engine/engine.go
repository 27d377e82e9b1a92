// Package engine wires the catalog, store, fetcher, reconciler, downloader
// and launcher into the request surface used by the CLI and the server.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"

	"github.com/blackwell-systems/vertexctl/internal/cache"
	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/config"
	"github.com/blackwell-systems/vertexctl/internal/download"
	"github.com/blackwell-systems/vertexctl/internal/events"
	"github.com/blackwell-systems/vertexctl/internal/fetch"
	"github.com/blackwell-systems/vertexctl/internal/launch"
	"github.com/blackwell-systems/vertexctl/internal/logging"
	"github.com/blackwell-systems/vertexctl/internal/reconcile"
	"github.com/blackwell-systems/vertexctl/internal/store"
)

// Options are the engine settings, usually derived from config.
type Options struct {
	CatalogURL    string
	CatalogAccept string
	GamesDir      string
	StorePath     string
	UpdateRate    time.Duration
	ExtractToDisk bool
	HTTPTimeout   time.Duration
	Version       string
	// Workers bounds concurrent entry reconciliation during bootstrap.
	Workers int
}

// OptionsFromConfig maps the loaded configuration onto engine options.
func OptionsFromConfig(cfg *config.Config, version string) Options {
	return Options{
		CatalogURL:    cfg.Catalog.URL,
		CatalogAccept: cfg.Catalog.Accept,
		GamesDir:      cfg.GamesDir(),
		StorePath:     cfg.StorePath(),
		UpdateRate:    cfg.Download.UpdateRate,
		ExtractToDisk: cfg.Download.ExtractToDisk,
		HTTPTimeout:   cfg.HTTP.Timeout,
		Version:       version,
	}
}

// Deps are the collaborators that tests and callers may substitute.
type Deps struct {
	Fetcher *fetch.Client
	Sink    events.Sink
	Clock   clock.Clock
	Logger  hclog.Logger
}

// Engine is the launcher core. All methods are safe for concurrent use.
type Engine struct {
	opts Options

	catalog    *catalog.Shared
	store      *store.Store
	cache      *cache.Manager
	fetcher    *fetch.Client
	reconciler *reconcile.Reconciler
	runner     download.Runner
	launcher   *launch.Launcher
	sink       events.Sink
	log        hclog.Logger

	// loaded is set once the catalog holds the stored entries. Until then
	// Close must not overwrite the store.
	loaded atomic.Bool
}

// New builds an Engine.
func New(opts Options, deps Deps) *Engine {
	log := logging.OrNull(deps.Logger)
	sink := events.OrNop(deps.Sink)
	clk := deps.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	if opts.CatalogAccept == "" {
		opts.CatalogAccept = "application/json"
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = fetch.New(fetch.Options{
			Timeout:   opts.HTTPTimeout,
			UserAgent: "vertexctl/" + opts.Version,
		})
	}

	shared := catalog.NewShared()
	st := store.Open(opts.StorePath)
	cm := cache.New(opts.GamesDir)

	e := &Engine{
		opts:       opts,
		catalog:    shared,
		store:      st,
		cache:      cm,
		fetcher:    fetcher,
		reconciler: reconcile.New(fetcher, cm, log),
		launcher:   launch.New(shared, sink, log),
		sink:       sink,
		log:        log.Named("engine"),
	}
	e.runner = download.Runner{
		Catalog:       shared,
		Store:         st,
		Fetcher:       fetcher,
		Cache:         cm,
		Sink:          sink,
		Clock:         clk,
		UpdateRate:    opts.UpdateRate,
		ExtractToDisk: opts.ExtractToDisk,
		Logger:        log,
	}
	return e
}

// Catalog exposes the shared catalog.
func (e *Engine) Catalog() *catalog.Shared { return e.catalog }

// Launcher exposes the process launcher.
func (e *Engine) Launcher() *launch.Launcher { return e.launcher }

// GetGameList returns every game ordered by descending weight.
func (e *Engine) GetGameList() []catalog.Game {
	return e.catalog.List()
}

// GetGameListJSON returns the game list as a JSON array.
func (e *Engine) GetGameListJSON() ([]byte, error) {
	return catalog.MarshalList(e.catalog.List())
}

// GetGame returns one game or a NotFound error.
func (e *Engine) GetGame(id uint8) (catalog.Game, error) {
	g, ok := e.catalog.Get(id)
	if !ok {
		return catalog.Game{}, catalog.GameError(catalog.KindNotFound, id, "looking up game", nil)
	}
	return g, nil
}

// Download fetches and installs the archive of game id.
func (e *Engine) Download(ctx context.Context, id uint8) (catalog.Game, error) {
	return e.DownloadWith(ctx, id, nil)
}

// DownloadWith is Download with an extra sink for this request only, such
// as a terminal progress bar.
func (e *Engine) DownloadWith(ctx context.Context, id uint8, extra events.Sink) (catalog.Game, error) {
	r := e.runner
	if extra != nil {
		r.Sink = events.Multi(e.sink, extra)
	}
	return r.Run(ctx, id)
}

// Launch starts game id and blocks until it exits.
func (e *Engine) Launch(ctx context.Context, id uint8) (int, error) {
	return e.launcher.Launch(ctx, id)
}

// LauncherVersion returns the running launcher version.
func (e *Engine) LauncherVersion() string {
	return e.opts.Version
}

// LoadLocal fills the catalog from the store without contacting the remote.
func (e *Engine) LoadLocal() error {
	local, err := e.store.LoadLocal()
	if err != nil {
		return err
	}
	e.catalog.ReplaceAll(local)
	e.loaded.Store(true)
	return nil
}

// Close flushes the catalog to the store. Nothing is written when the
// catalog was never loaded, so an aborted start keeps the stored entries.
func (e *Engine) Close() error {
	if !e.loaded.Load() {
		e.log.Debug("catalog never loaded, skipping flush", "path", e.store.Path())
		return nil
	}
	if err := e.store.SaveLocal(e.catalog.Snapshot()); err != nil {
		e.log.Error("flushing catalog on shutdown failed", "path", e.store.Path(), "error", err)
		return fmt.Errorf("closing engine: %w", err)
	}
	return nil
}
