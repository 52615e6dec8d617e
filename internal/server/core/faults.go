package core

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tturner/ocppfuzz/internal/config"
)

// errFaultClose reports a connection closed by fault injection.
var errFaultClose = errors.New("connection closed by fault policy")

func resolveFaultPolicy(cfg *config.ServerConfig) faultPolicy {
	seed := cfg.RNGSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return faultPolicy{
		latencyBase:   time.Duration(cfg.Faults.DelayMs) * time.Millisecond,
		latencyJitter: time.Duration(cfg.Faults.JitterMs) * time.Millisecond,
		dropEveryN:    cfg.Faults.DropResponseEveryN,
		closeEveryN:   cfg.Faults.CloseConnectionEveryN,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

func (p *faultPolicy) enabled() bool {
	return p.latencyBase > 0 || p.latencyJitter > 0 || p.dropEveryN > 0 || p.closeEveryN > 0
}

// next returns the fault to apply to the next response. Responses are
// counted across all connections.
func (p *faultPolicy) next() responseFaultAction {
	if !p.enabled() {
		return responseFaultAction{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.responseCount++
	count := p.responseCount
	delay := p.latencyBase
	if p.latencyJitter > 0 {
		delay += time.Duration(p.rng.Int63n(int64(p.latencyJitter) + 1))
	}

	return responseFaultAction{
		drop:  p.dropEveryN > 0 && count%p.dropEveryN == 0,
		delay: delay,
		close: p.closeEveryN > 0 && count%p.closeEveryN == 0,
	}
}

// writeResponse sends resp subject to the fault policy. A close fault drops
// the TCP connection without a close frame so the peer sees 1006.
func (s *Server) writeResponse(ctx context.Context, cp *chargePoint, resp []byte) error {
	action := s.faults.next()
	if action.delay > 0 {
		timer := time.NewTimer(action.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	if action.close {
		s.stats.closed.Add(1)
		s.logger.Info("[%s] fault: closing connection", cp.id)
		cp.conn.NetConn().Close()
		return errFaultClose
	}
	if action.drop {
		s.stats.dropped.Add(1)
		s.logger.Verbose("[%s] fault: dropping response", cp.id)
		return nil
	}

	cp.writeMu.Lock()
	defer cp.writeMu.Unlock()
	s.logger.LogFrame(cp.id+" ->", resp)
	return cp.conn.WriteMessage(websocket.TextMessage, resp)
}
