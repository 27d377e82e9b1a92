package engine

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
)

// Summary describes what a bootstrap did.
type Summary struct {
	Games         int
	Skipped       int
	NeedsUpdate   []uint8
	ImageFailures int
	// Offline is set when the remote catalog was unusable and the stored
	// local catalog was used instead.
	Offline bool
}

// Job is a running bootstrap.
type Job struct {
	done    chan struct{}
	err     error
	summary Summary
}

// Done is closed when the bootstrap finishes.
func (j *Job) Done() <-chan struct{} { return j.done }

// Err returns the bootstrap error once Done is closed, nil before.
func (j *Job) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Summary returns the outcome once Done is closed.
func (j *Job) Summary() Summary {
	<-j.done
	return j.summary
}

// Wait blocks until the bootstrap finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bootstrap reconciles the stored catalog against the remote one in the
// background. A non-nil job error means the launcher has no usable catalog
// and should shut down.
func (e *Engine) Bootstrap(ctx context.Context) *Job {
	j := &Job{done: make(chan struct{})}
	go func() {
		defer close(j.done)
		j.summary, j.err = e.bootstrap(ctx)
	}()
	return j
}

func (e *Engine) bootstrap(ctx context.Context) (Summary, error) {
	var sum Summary
	log := e.log.Named("bootstrap")

	local, err := e.store.LoadLocal()
	if err != nil {
		log.Warn("local catalog is unreadable, starting from empty", "path", e.store.Path(), "error", err)
	}

	raw, fetchErr := e.fetcher.Get(ctx, e.opts.CatalogURL, e.opts.CatalogAccept)
	var doc catalog.RemoteDocument
	var remoteErr error
	if fetchErr != nil {
		remoteErr = catalog.NewError(catalog.KindTransfer, "fetching remote catalog", fetchErr)
	} else {
		if err := e.store.SaveRemote(raw); err != nil {
			log.Error("saving remote catalog failed", "error", err)
		}
		if doc, err = catalog.ParseRemoteDocument(raw); err != nil {
			remoteErr = catalog.NewError(catalog.KindSchema, "parsing remote catalog", err)
		}
	}

	if remoteErr != nil {
		if len(local) == 0 {
			return sum, remoteErr
		}
		log.Warn("remote catalog unavailable, using stored catalog", "games", len(local), "error", remoteErr)
		e.catalog.ReplaceAll(local)
		e.loaded.Store(true)
		sum.Offline = true
		sum.Games = len(local)
		for _, g := range local {
			if g.Archive.NeedUpdate {
				sum.NeedsUpdate = append(sum.NeedsUpdate, g.ID)
			}
		}
		e.finish(log)
		return sum, nil
	}

	// Entries that vanished from the remote catalog are kept.
	e.catalog.ReplaceAll(local)
	e.loaded.Store(true)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, item := range doc.Games {
		remote, err := catalog.ParseRemoteGame(item)
		if err != nil {
			log.Error("skipping invalid catalog entry", "index", i, "error", err)
			sum.Skipped++
			continue
		}
		g.Go(func() error {
			var prev *catalog.Game
			if l, ok := local[remote.ID]; ok {
				prev = &l
			}
			updated, _, err := e.reconciler.Reconcile(gctx, prev, remote)
			stored := e.catalog.Merge(updated, keepInstalledArchive)
			needsArchive := stored.Archive.NeedUpdate

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("entry reconciled with missing images", "game_id", remote.ID, "error", err)
				sum.ImageFailures++
			}
			if needsArchive {
				sum.NeedsUpdate = append(sum.NeedsUpdate, remote.ID)
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	sum.Games = e.catalog.Len()
	if err := e.store.SaveLocal(e.catalog.Snapshot()); err != nil {
		log.Error("persisting reconciled catalog failed", "path", e.store.Path(), "error", err)
	}
	e.finish(log)
	return sum, nil
}

// keepInstalledArchive keeps an archive that was downloaded while its entry
// was being reconciled, as long as the reconciled revision is the same.
func keepInstalledArchive(cur catalog.Game, next *catalog.Game) {
	if cur.Downloaded() && cur.Archive.Link.Revision == next.Archive.Link.Revision {
		next.Archive = cur.Archive
	}
}

func (e *Engine) finish(log hclog.Logger) {
	e.sink.Initialized()
	e.sink.CatalogUpdated(e.catalog.List())
	log.Debug("bootstrap complete", "games", e.catalog.Len())
}
