package app

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/blackwell-systems/vertexctl/internal/engine"
)

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Println(color.CyanString(fmt.Sprintf(format, a...)))
}

func humanBytes(n uint64) string {
	return humanize.IBytes(n)
}

// loadCatalog fills e from the store when offline, otherwise runs a full
// bootstrap against the remote catalog.
func loadCatalog(ctx context.Context, e *engine.Engine, offline bool) (engine.Summary, error) {
	if offline {
		if err := e.LoadLocal(); err != nil {
			return engine.Summary{}, err
		}
		return engine.Summary{Games: e.Catalog().Len(), Offline: true}, nil
	}
	job := e.Bootstrap(ctx)
	if err := job.Wait(ctx); err != nil {
		return engine.Summary{}, err
	}
	sum := job.Summary()
	if sum.Offline {
		warn("Remote catalog unavailable, showing the stored catalog")
	}
	return sum, nil
}
