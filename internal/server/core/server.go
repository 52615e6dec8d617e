package core

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tturner/ocppfuzz/internal/config"
	"github.com/tturner/ocppfuzz/internal/logging"
	"github.com/tturner/ocppfuzz/internal/server/handlers"
)

// NewServer creates a central system harness answering every charge point
// and central system action.
func NewServer(cfg *config.ServerConfig, logger *logging.Logger) (*Server, error) {
	registry := handlers.NewRegistry()
	handlers.RegisterCentralSystem(registry, nil)
	return NewServerWithRegistry(cfg, logger, registry)
}

// NewServerWithRegistry creates a harness dispatching to registry.
func NewServerWithRegistry(cfg *config.ServerConfig, logger *logging.Logger, registry *handlers.Registry) (*Server, error) {
	if cfg == nil {
		cfg = &config.ServerConfig{}
	}
	if logger == nil {
		logger, _ = logging.NewLogger(logging.LogLevelSilent, "")
	}
	if registry == nil {
		registry = handlers.NewRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:   cfg,
		logger:   logger,
		handlers: registry,
		faults:   resolveFaultPolicy(cfg),
		clients:  make(map[*chargePoint]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	if cfg.RequiredSubprotocol != "" {
		s.upgrader.Subprotocols = []string{cfg.RequiredSubprotocol}
	}
	return s, nil
}

// Handlers returns the action registry.
func (s *Server) Handlers() *handlers.Registry {
	return s.handlers
}

// Stats returns a snapshot of server counters.
func (s *Server) Stats() Stats {
	s.clientsMu.Lock()
	active := len(s.clients)
	s.clientsMu.Unlock()
	return Stats{
		Connections: s.stats.connections.Load(),
		Active:      active,
		Frames:      s.stats.frames.Load(),
		Results:     s.stats.results.Load(),
		CallErrors:  s.stats.callErrors.Load(),
		Dropped:     s.stats.dropped.Load(),
		Closed:      s.stats.closed.Load(),
	}
}
