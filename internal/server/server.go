// Package server exposes the engine over HTTP, with events streamed to
// websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/events"
	"github.com/blackwell-systems/vertexctl/internal/logging"
	"github.com/blackwell-systems/vertexctl/internal/util"
)

// Backend is the request surface served over HTTP.
type Backend interface {
	GetGameList() []catalog.Game
	GetGame(id uint8) (catalog.Game, error)
	Download(ctx context.Context, id uint8) (catalog.Game, error)
	Launch(ctx context.Context, id uint8) (int, error)
	LauncherVersion() string
}

// Server routes HTTP requests to a Backend.
type Server struct {
	backend Backend
	hub     *events.Hub
	router  *mux.Router
	log     hclog.Logger
}

// New creates a Server. hub may be nil, in which case /events is not routed.
func New(b Backend, hub *events.Hub, logger hclog.Logger) *Server {
	s := &Server{
		backend: b,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     logging.OrNull(logger).Named("server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)
	r.HandleFunc("/games", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/games/{id:[0-9]+}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/games/{id:[0-9]+}/download", s.handleDownload).Methods(http.MethodPost)
	r.HandleFunc("/games/{id:[0-9]+}/launch", s.handleLaunch).Methods(http.MethodPost)
	if s.hub != nil {
		r.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"version": s.backend.LauncherVersion()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	games := s.backend.GetGameList()
	if games == nil {
		games = []catalog.Game{}
	}
	s.writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	g, err := s.backend.GetGame(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	g, err := s.backend.Download(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	code, err := s.backend.Launch(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, events.Termination{GameID: id, ExitCode: code})
}

func (s *Server) gameID(w http.ResponseWriter, r *http.Request) (uint8, bool) {
	id, err := util.ParseGameID(mux.Vars(r)["id"])
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"kind":    "BadRequest",
			"message": err.Error(),
		})
		return 0, false
	}
	return id, true
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(kind catalog.Kind) int {
	switch kind {
	case catalog.KindNotFound:
		return http.StatusNotFound
	case catalog.KindDownloadInProgress:
		return http.StatusConflict
	case catalog.KindTransfer:
		return http.StatusBadGateway
	case catalog.KindSchema:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	ce := catalog.AsError(err)
	status := StatusFor(ce.Kind)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "kind", ce.Kind, "error", err)
	}
	s.writeJSON(w, status, ce)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encoding response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
