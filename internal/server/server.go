// Package server exposes rooms over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/store"
)

const (
	maxBodyBytes    = 1 << 16
	shutdownTimeout = 5 * time.Second
	createAttempts  = 5
)

// Option configures a Server.
type Option func(*Server)

// WithMaxPlayers caps the number of players per room. Zero means no cap.
func WithMaxPlayers(n int) Option {
	return func(s *Server) {
		s.maxPlayers = n
	}
}

// WithSweepInterval sets how often Serve runs the idle room janitor.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Server) {
		s.sweepInterval = d
	}
}

// Server routes HTTP requests to the engine through the room store.
type Server struct {
	logger        zerolog.Logger
	engine        *game.Engine
	rooms         *store.Manager
	hub           *Hub
	mux           *http.ServeMux
	upgrader      websocket.Upgrader
	maxPlayers    int
	sweepInterval time.Duration
}

// New creates a server. hub must be the one registered with the store's
// change callback so watchers see committed updates.
func New(engine *game.Engine, rooms *store.Manager, hub *Hub, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		logger: logger.With().Str("component", "server").Logger(),
		engine: engine,
		rooms:  rooms,
		hub:    hub,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	s.mux.HandleFunc("POST /api/rooms/{roomId}/join", s.handleJoin)
	s.mux.HandleFunc("POST /api/rooms/{roomId}/start", s.handleStart)
	s.mux.HandleFunc("POST /api/rooms/{roomId}/play", s.handlePlay)
	s.mux.HandleFunc("POST /api/rooms/{roomId}/draw", s.handleDraw)
	s.mux.HandleFunc("POST /api/rooms/{roomId}/uno", s.handleUno)
	s.mux.HandleFunc("GET /api/rooms/{roomId}/state", s.handleState)
	s.mux.HandleFunc("GET /api/rooms/{roomId}/ws", s.handleWatch)
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return requestLogger(s.logger, s.mux)
}

// Serve accepts connections on ln until ctx is cancelled, running the idle
// room janitor alongside. It returns after a graceful shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return s.rooms.RunJanitor(gctx, s.sweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info().Msg("Shutting down server")
		s.hub.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
