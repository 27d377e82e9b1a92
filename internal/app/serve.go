package app

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/vertexctl/internal/events"
	"github.com/blackwell-systems/vertexctl/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the launcher API for a front end",
		Long: `Serve the game library over HTTP for a graphical front end.

The catalog is synced in the background; clients should wait for the
app_initialized event on /events before listing games.

Routes:
  GET  /games                 game list, highest weight first
  GET  /games/{id}            one game
  POST /games/{id}/download   download and install the archive
  POST /games/{id}/launch     run the game, returns its exit code
  GET  /version               launcher version
  GET  /events                websocket event stream`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("host") {
				host = cfg.Serve.Host
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Serve.Port
			}
			addr := net.JoinHostPort(host, strconv.Itoa(port))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := events.NewHub(logger)
			e := newEngine(hub)
			srv := server.New(e, hub, logger)

			g, gctx := errgroup.WithContext(ctx)
			job := e.Bootstrap(gctx)
			// A failed bootstrap leaves nothing to serve.
			g.Go(func() error { return job.Wait(gctx) })
			g.Go(func() error { return srv.ListenAndServe(gctx, addr) })

			header("Serving on http://%s", addr)
			err := g.Wait()
			// Bootstrap still writes to the catalog until Done.
			<-job.Done()
			if closeErr := e.Close(); closeErr != nil {
				warn("%v", closeErr)
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")
	return cmd
}
