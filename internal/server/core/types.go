package core

import (
	"context"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tturner/ocppfuzz/internal/config"
	"github.com/tturner/ocppfuzz/internal/logging"
	"github.com/tturner/ocppfuzz/internal/server/handlers"
)

// Server is an OCPP 1.6-J central system harness.
type Server struct {
	config     *config.ServerConfig
	logger     *logging.Logger
	listener   net.Listener
	httpServer *http.Server
	upgrader   websocket.Upgrader
	handlers   *handlers.Registry
	faults     faultPolicy
	clients    map[*chargePoint]struct{}
	clientsMu  sync.Mutex
	stats      serverStats
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// chargePoint is one connected WebSocket client.
type chargePoint struct {
	id          string
	remoteAddr  string
	conn        *websocket.Conn
	writeMu     sync.Mutex
	connectedAt time.Time
}

type serverStats struct {
	connections atomic.Int64
	frames      atomic.Int64
	results     atomic.Int64
	callErrors  atomic.Int64
	dropped     atomic.Int64
	closed      atomic.Int64
}

// Stats is a snapshot of server activity.
type Stats struct {
	Connections int64
	Active      int
	Frames      int64
	Results     int64
	CallErrors  int64
	Dropped     int64
	Closed      int64
}

type faultPolicy struct {
	latencyBase   time.Duration
	latencyJitter time.Duration
	dropEveryN    int
	closeEveryN   int

	mu            sync.Mutex
	responseCount int
	rng           *rand.Rand
}

type responseFaultAction struct {
	drop  bool
	delay time.Duration
	close bool
}
