// Package reconcile merges a remote catalog entry into its local counterpart
// using revision numbers as the only staleness signal.
package reconcile

import (
	"bytes"
	"context"
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/blackwell-systems/vertexctl/internal/cache"
	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/logging"
)

// Fetcher reads a small remote resource whole.
type Fetcher interface {
	Get(ctx context.Context, url, accept string) ([]byte, error)
}

// Reconciler applies revision-based invalidation and fetches stale images.
type Reconciler struct {
	fetcher Fetcher
	cache   *cache.Manager
	log     hclog.Logger
}

// New creates a Reconciler.
func New(f Fetcher, c *cache.Manager, logger hclog.Logger) *Reconciler {
	return &Reconciler{
		fetcher: f,
		cache:   c,
		log:     logging.OrNull(logger).Named("reconcile"),
	}
}

// Reconcile returns local updated from remote. A nil local is treated as a
// fresh install. The background image and navigation icon are fetched when
// they have no materialized file; the archive is only flagged.
//
// On an image fetch failure the partially updated entry is still returned,
// with that link's LocalPath empty so the next run retries it.
func (r *Reconciler) Reconcile(ctx context.Context, local *catalog.Game, remote catalog.Game) (catalog.Game, bool, error) {
	var g catalog.Game
	if local == nil {
		g = fresh(remote)
	} else {
		g = local.Clone()
		g.ID = remote.ID
	}

	g.Title = remote.Title
	g.Subtitle = remote.Subtitle
	g.Description = remote.Description
	g.Version = remote.Version
	g.Weight = remote.Weight
	g.Platforms = append([]string{}, remote.Platforms...)
	g.Tags = append([]string{}, remote.Tags...)

	r.invalidate(&g, "background_image", &g.BackgroundImage, remote.BackgroundImage)
	r.invalidate(&g, "navigation_icon", &g.NavigationIcon, remote.NavigationIcon)
	if r.invalidate(&g, "archive", &g.Archive.Link, remote.Archive.Link) {
		g.Archive.NeedExtract = remote.Archive.NeedExtract
		g.Archive.StripTopLevelFolder = remote.Archive.StripTopLevelFolder
		g.Archive.PathToExecutable = remote.Archive.PathToExecutable
	}

	var errs []error
	folder := g.FolderName()
	if g.BackgroundImage.NeedsFetch() {
		if err := r.materialize(ctx, g.ID, folder, "fetching background image", &g.BackgroundImage); err != nil {
			errs = append(errs, err)
		}
	}
	if g.NavigationIcon.NeedsFetch() {
		if err := r.materialize(ctx, g.ID, folder, "fetching navigation icon", &g.NavigationIcon); err != nil {
			errs = append(errs, err)
		}
	}

	g.Archive.NeedUpdate = g.Archive.Link.NeedsFetch()
	return g, g.Archive.NeedUpdate, errors.Join(errs...)
}

// invalidate adopts remote's identity when its revision is newer, deleting
// the stale file. Reports whether the remote revision was adopted.
func (r *Reconciler) invalidate(g *catalog.Game, field string, local *catalog.Link, remote catalog.Link) bool {
	if local.Revision >= remote.Revision {
		return false
	}
	r.log.Debug("resource is stale", "game_id", g.ID, "field", field,
		"local_revision", local.Revision, "remote_revision", remote.Revision)

	local.URL = remote.URL
	local.Name = remote.Name
	local.Revision = remote.Revision
	if local.LocalPath != "" {
		if err := r.cache.Remove(local.LocalPath); err != nil {
			r.log.Error("deleting stale resource", "game_id", g.ID, "path", local.LocalPath, "error", err)
		}
		local.LocalPath = ""
	}
	return true
}

func (r *Reconciler) materialize(ctx context.Context, id uint8, folder, phase string, link *catalog.Link) error {
	data, err := r.fetcher.Get(ctx, link.URL, "")
	if err != nil {
		r.log.Error("resource fetch failed", "game_id", id, "url", link.URL, "error", err)
		return catalog.GameError(catalog.KindTransfer, id, phase, err)
	}
	path, err := r.cache.Store(folder, link.Name, bytes.NewReader(data))
	if err != nil {
		r.log.Error("storing resource failed", "game_id", id, "name", link.Name, "error", err)
		return catalog.GameError(catalog.KindIO, id, phase, err)
	}
	link.LocalPath = path
	r.log.Debug("resource stored", "game_id", id, "path", path)
	return nil
}

// fresh builds a first-install entry from remote: every link carries the
// remote identity and nothing is materialized.
func fresh(remote catalog.Game) catalog.Game {
	g := remote.Clone()
	g.BackgroundImage.LocalPath = ""
	g.NavigationIcon.LocalPath = ""
	g.Archive.Link.LocalPath = ""
	return g
}
