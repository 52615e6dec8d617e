package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/transport"
)

const closeWriteWait = time.Second

// Start binds the listener and serves WebSocket upgrades in the background.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.ListenIP, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}

	s.logger.Info("OCPP server listening on ws://%s (subprotocol %q)", ln.Addr(), s.config.RequiredSubprotocol)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP serve: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address after Start.
func (s *Server) Addr() *net.TCPAddr {
	if s.listener == nil {
		return nil
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr
	}
	return nil
}

// URL returns the ws:// URL for chargePointID on the bound address.
func (s *Server) URL(chargePointID string) string {
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	return fmt.Sprintf("ws://%s/%s", addr, chargePointID)
}

// Stop closes the listener and every open connection, then waits for the
// connection goroutines to exit.
func (s *Server) Stop() error {
	s.cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Close()
	}

	s.clientsMu.Lock()
	for cp := range s.clients {
		deadline := time.Now().Add(closeWriteWait)
		cp.writeMu.Lock()
		_ = cp.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"), deadline)
		cp.writeMu.Unlock()
		cp.conn.Close()
	}
	s.clientsMu.Unlock()

	s.wg.Wait()
	s.logger.Info("Server stopped")
	return err
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleWebSocket)
	r.Get("/{chargePointID}", s.handleWebSocket)
	return r
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Verbose("Upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	cpID := transport.ChargePointID(chi.URLParam(r, "chargePointID"))
	s.logger.Info("[HS] %s %q %s", r.RemoteAddr, conn.Subprotocol(), r.URL.Path)

	if required := s.config.RequiredSubprotocol; required != "" && conn.Subprotocol() != required {
		msg := websocket.FormatCloseMessage(websocket.CloseProtocolError, "Subprotocol required: "+required)
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		conn.Close()
		s.logger.Info("[%s] rejected: subprotocol %q", cpID, conn.Subprotocol())
		return
	}
	if s.config.MaxMessageBytes > 0 {
		conn.SetReadLimit(s.config.MaxMessageBytes)
	}

	cp := &chargePoint{id: cpID, remoteAddr: r.RemoteAddr, conn: conn, connectedAt: time.Now()}
	if !s.addClient(cp) {
		conn.Close()
		return
	}
	defer s.removeClient(cp)

	s.serveConn(r.Context(), cp)
}

func (s *Server) addClient(cp *chargePoint) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.clients[cp] = struct{}{}
	s.wg.Add(1)
	s.stats.connections.Add(1)
	s.logger.Info("[%s] connected from %s", cp.id, cp.remoteAddr)
	return true
}

func (s *Server) removeClient(cp *chargePoint) {
	s.clientsMu.Lock()
	delete(s.clients, cp)
	s.clientsMu.Unlock()
	cp.conn.Close()
	s.logger.Info("[%s] disconnected after %s", cp.id, time.Since(cp.connectedAt).Round(time.Millisecond))
	s.wg.Done()
}

func (s *Server) serveConn(ctx context.Context, cp *chargePoint) {
	for {
		_, data, err := cp.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Verbose("[%s] read: %v", cp.id, err)
			}
			return
		}
		s.stats.frames.Add(1)
		s.logger.LogFrame(cp.id+" <-", data)

		reply := s.dispatch(ctx, cp.id, data)
		if reply == nil {
			continue
		}
		out, err := ocpp.Marshal(reply)
		if err != nil {
			s.logger.Error("[%s] encode reply: %v", cp.id, err)
			continue
		}
		if err := s.writeResponse(ctx, cp, out); err != nil {
			if !errors.Is(err, errFaultClose) {
				s.logger.Error("[%s] write: %v", cp.id, err)
			}
			return
		}
	}
}
