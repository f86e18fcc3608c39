// Package httpapi provides the JSON control API of the playback session.
package httpapi

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/trackcore/internal/app/session"
)

// TokenHeader carries the API token.
const TokenHeader = "X-Admin-Token"

// Handler serves the control API for one session.
type Handler struct {
	session *session.Manager
	token   string
	mux     *http.ServeMux
}

// NewHandler creates the API handler. An empty token disables authentication.
func NewHandler(m *session.Manager, token string) *Handler {
	h := &Handler{
		session: m,
		token:   token,
		mux:     http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /v1/player", h.setupPlayer)
	h.mux.HandleFunc("PUT /v1/queue/now-playing", h.setNowPlaying)
	h.mux.HandleFunc("POST /v1/playback", h.updatePlayback)
	h.mux.HandleFunc("POST /v1/reset", h.reset)
	h.mux.HandleFunc("GET /v1/options", h.getOptions)
	h.mux.HandleFunc("PUT /v1/options", h.updateOptions)
	h.mux.HandleFunc("PATCH /v1/tracks/{id}", h.updateTrack)
	h.mux.HandleFunc("POST /v1/remote/{signal}", h.remote)
	h.mux.HandleFunc("GET /v1/capabilities", h.capabilities)
	h.mux.HandleFunc("GET /v1/status", h.status)
	h.mux.HandleFunc("GET /v1/events", h.events)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.token != "" {
		got := r.Header.Get(TokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing or invalid token"})
			return
		}
	}
	h.mux.ServeHTTP(w, r)
}

// Server is the HTTP server of the control API, with h2c support.
type Server struct {
	srv *http.Server
}

// NewServer creates a server for handler on addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is done, then shuts down gracefully.
// Open event streams end when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	s.srv.BaseContext = func(net.Listener) context.Context { return base }

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("httpapi: listening: addr=%s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "httpapi: server failed")
		}
		return nil
	case <-ctx.Done():
	}

	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "httpapi: shutdown failed")
	}
	zlog.Info().Msg("httpapi: stopped")
	return nil
}
