package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"

	"github.com/blackwell-systems/vertexctl/internal/cache"
	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/events"
	"github.com/blackwell-systems/vertexctl/internal/extract"
	"github.com/blackwell-systems/vertexctl/internal/fetch"
	"github.com/blackwell-systems/vertexctl/internal/logging"
)

const maxPrealloc = 64 << 20

// Streamer opens an archive for chunked reading.
type Streamer interface {
	Stream(ctx context.Context, url, accept string) (*fetch.Stream, error)
}

// Persister saves the local catalog.
type Persister interface {
	SaveLocal(games map[uint8]catalog.Game) error
}

// Runner executes download sessions against the shared catalog.
type Runner struct {
	Catalog *catalog.Shared
	Store   Persister
	Fetcher Streamer
	Cache   *cache.Manager
	Sink    events.Sink
	Clock   clock.Clock
	// UpdateRate is the minimum interval between Downloading snapshots.
	UpdateRate time.Duration
	// ExtractToDisk buffers the archive in a temp file instead of memory.
	ExtractToDisk bool
	Logger        hclog.Logger
}

// CompleteMessage is the notification body sent after a successful download.
func CompleteMessage(title string) string {
	return fmt.Sprintf("%s has been successfully downloaded.", title)
}

// Run downloads, optionally extracts, and commits the archive of game id.
// Only one Run per id may be active; a concurrent call fails with
// DownloadInProgress. On failure the catalog is left unchanged.
func (r *Runner) Run(ctx context.Context, id uint8) (catalog.Game, error) {
	if err := r.Catalog.BeginDownload(id); err != nil {
		return catalog.Game{}, err
	}
	defer r.Catalog.EndDownload(id)

	clk := r.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	sink := events.OrNop(r.Sink)
	log := logging.OrNull(r.Logger).Named("download").With("game_id", id)

	game, ok := r.Catalog.Get(id)
	if !ok {
		return catalog.Game{}, catalog.GameError(catalog.KindNotFound, id, "starting download", nil)
	}
	archive := game.Archive
	folder := game.FolderName()
	dest := r.Cache.Dir(folder)

	sess := NewSession(id, archive.NeedExtract)
	if err := r.Cache.EnsureDir(folder); err != nil {
		return catalog.Game{}, catalog.GameError(catalog.KindIO, id, "creating game directory", err)
	}
	sink.DownloadProgress(sess.Snapshot(clk.Now()))

	stream, err := r.Fetcher.Stream(ctx, archive.Link.URL, "")
	if err != nil {
		return catalog.Game{}, catalog.GameError(catalog.KindTransfer, id, "downloading", err)
	}
	defer stream.Close()

	buf, err := r.newBuffer(stream.Total())
	if err != nil {
		return catalog.Game{}, catalog.GameError(catalog.KindIO, id, "downloading", err)
	}
	defer buf.discard()

	sess.FileSize = stream.Total()
	if err := sess.Advance(Downloading); err != nil {
		return catalog.Game{}, catalog.GameError(catalog.KindIO, id, "downloading", err)
	}
	sess.Started = clk.Now()
	log.Debug("download started", "url", archive.Link.URL, "size", humanize.IBytes(sess.FileSize))

	throttle := NewThrottle(clk, r.UpdateRate)
	for {
		if err := ctx.Err(); err != nil {
			return catalog.Game{}, catalog.GameError(catalog.KindTransfer, id, "downloading", err)
		}
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return catalog.Game{}, catalog.GameError(catalog.KindTransfer, id, "downloading", err)
		}
		if _, err := buf.Write(chunk); err != nil {
			return catalog.Game{}, catalog.GameError(catalog.KindIO, id, "downloading", err)
		}
		sess.Downloaded = stream.Downloaded()
		if throttle.Allow() {
			sink.DownloadProgress(sess.Snapshot(clk.Now()))
		}
	}
	if sess.Downloaded < sess.FileSize {
		return catalog.Game{}, catalog.GameError(catalog.KindTransfer, id, "downloading",
			fmt.Errorf("short body: received %d of %d bytes", sess.Downloaded, sess.FileSize))
	}
	sink.DownloadProgress(sess.Snapshot(clk.Now()))

	var localPath string
	if archive.NeedExtract {
		if err := sess.Advance(Extracting); err != nil {
			return catalog.Game{}, catalog.GameError(catalog.KindExtraction, id, "extracting", err)
		}
		sink.DownloadProgress(sess.Snapshot(clk.Now()))

		src, size := buf.readerAt()
		n, err := extract.Extract(src, size, dest, extract.Options{StripTopLevel: archive.StripTopLevelFolder})
		if err != nil {
			return catalog.Game{}, catalog.GameError(catalog.KindExtraction, id, "extracting", err)
		}
		log.Debug("archive extracted", "files", n, "dest", dest)

		if err := sess.Advance(Cleaning); err != nil {
			return catalog.Game{}, catalog.GameError(catalog.KindIO, id, "cleaning", err)
		}
		sink.DownloadProgress(sess.Snapshot(clk.Now()))
		buf.discard()

		localPath = filepath.Join(dest, filepath.FromSlash(archive.PathToExecutable))
	} else {
		src, size := buf.readerAt()
		path, err := r.Cache.StoreFile(folder, archive.Link.Name, io.NewSectionReader(src, 0, size), 0o755)
		if err != nil {
			return catalog.Game{}, catalog.GameError(catalog.KindIO, id, "storing archive", err)
		}
		buf.discard()
		localPath = path
	}

	if err := sess.Advance(Complete); err != nil {
		return catalog.Game{}, catalog.GameError(catalog.KindIO, id, "completing", err)
	}

	err = r.Catalog.Update(id, func(g *catalog.Game) error {
		g.Archive.Link.LocalPath = localPath
		g.Archive.NeedUpdate = false
		return nil
	})
	if err != nil {
		return catalog.Game{}, err
	}
	if r.Store != nil {
		if err := r.Store.SaveLocal(r.Catalog.Snapshot()); err != nil {
			log.Error("persisting catalog after download failed", "error", err)
		}
	}

	sink.DownloadProgress(sess.Snapshot(clk.Now()))
	sink.CatalogUpdated(r.Catalog.List())
	sink.Notify(game.Title, CompleteMessage(game.Title))

	updated, _ := r.Catalog.Get(id)
	log.Info("download complete", "path", localPath, "revision", updated.Archive.Link.Revision)
	return updated, nil
}

// buffer holds the downloaded archive either in memory or in a temp file.
type buffer struct {
	mem  *bytes.Buffer
	file *os.File
	size int64
}

func (r *Runner) newBuffer(total uint64) (*buffer, error) {
	if r.ExtractToDisk {
		f, err := os.CreateTemp(r.Cache.BaseDir(), ".download-*")
		if err != nil {
			return nil, err
		}
		return &buffer{file: f}, nil
	}
	b := &bytes.Buffer{}
	b.Grow(int(min(total, maxPrealloc)))
	return &buffer{mem: b}, nil
}

func (b *buffer) Write(p []byte) (int, error) {
	var n int
	var err error
	if b.file != nil {
		n, err = b.file.Write(p)
	} else {
		n, err = b.mem.Write(p)
	}
	b.size += int64(n)
	return n, err
}

func (b *buffer) readerAt() (io.ReaderAt, int64) {
	if b.file != nil {
		return b.file, b.size
	}
	return bytes.NewReader(b.mem.Bytes()), b.size
}

// discard releases the buffer. Safe to call more than once.
func (b *buffer) discard() {
	if b.file != nil {
		name := b.file.Name()
		_ = b.file.Close()
		_ = os.Remove(name)
		b.file = nil
	}
	b.mem = nil
}
