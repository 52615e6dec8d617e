package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tturner/ocppfuzz/internal/logging"
	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/transport"
)

// DefaultTimeout bounds the wait for each response.
const DefaultTimeout = 8 * time.Second

// Result is the outcome of one replayed input.
type Result struct {
	Input  string
	Action string
	UID    string
	Label  string
	RTT    time.Duration
	Err    error
	Sent   bool
}

// Config wires a Sender.
type Config struct {
	Dialer     transport.Dialer
	Timeout    time.Duration
	ReplaceUID bool

	// Reconnect redials after the peer closes the connection. Without it,
	// every later frame fails on the closed connection.
	Reconnect bool
	NewUID    ocpp.UIDGenerator
	Logger    *logging.Logger

	// OnConnect is called with the negotiated subprotocol after the first
	// successful dial.
	OnConnect func(subprotocol string)

	// OnResult is called after each input is classified.
	OnResult func(Result)
}

// Sender replays inputs over one persistent connection, one frame at a time.
type Sender struct {
	dialer     transport.Dialer
	timeout    time.Duration
	replaceUID bool
	reconnect  bool
	newUID     ocpp.UIDGenerator
	logger     *logging.Logger
	onConnect  func(string)
	onResult   func(Result)
}

// NewSender validates cfg and returns a Sender.
func NewSender(cfg Config) (*Sender, error) {
	if cfg.Dialer == nil {
		return nil, fmt.Errorf("no dialer configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	newUID := cfg.NewUID
	if newUID == nil {
		newUID = ocpp.NewUID
	}
	logger := cfg.Logger
	if logger == nil {
		logger, _ = logging.NewLogger(logging.LogLevelSilent, "")
	}
	return &Sender{
		dialer:     cfg.Dialer,
		timeout:    timeout,
		replaceUID: cfg.ReplaceUID,
		reconnect:  cfg.Reconnect,
		newUID:     newUID,
		logger:     logger,
		onConnect:  cfg.OnConnect,
		onResult:   cfg.OnResult,
	}, nil
}

// Replay connects once and replays inputs in order, returning one result per
// input. Only the initial connection failure or ctx cancellation is an
// error; per-frame failures are recorded in the results.
func (s *Sender) Replay(ctx context.Context, inputs []Input) ([]Result, error) {
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	s.logger.Verbose("Connected, negotiated subprotocol %q", conn.Subprotocol())
	if s.onConnect != nil {
		s.onConnect(conn.Subprotocol())
	}

	sess := &session{dialer: s.dialer, reconnect: s.reconnect, conn: conn, logger: s.logger}
	defer sess.close()

	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := s.replayOne(ctx, sess, in)
		results = append(results, res)
		s.logger.LogReplay(res.Input, res.Action, res.Label, float64(res.RTT.Microseconds())/1000, res.Err)
		if s.onResult != nil {
			s.onResult(res)
		}
	}
	return results, nil
}

func (s *Sender) replayOne(ctx context.Context, sess *session, in Input) Result {
	res := Result{Input: in.Name, Action: actionOf(in.Value)}
	finish := func(r Response) Result {
		res.Err = r.Err
		res.Label = Classify(r)
		return res
	}

	if in.Err != nil {
		return finish(Response{Err: in.Err})
	}
	frame, err := PrepareFrame(in.Value, s.replaceUID, s.newUID)
	if err != nil {
		return finish(Response{Err: err})
	}
	if id, ok := frame[1].(string); ok {
		res.UID = id
	}
	data, err := ocpp.Marshal(frame)
	if err != nil {
		return finish(Response{Err: fmt.Errorf("encode frame: %w", err)})
	}

	conn, err := sess.get(ctx)
	if err != nil {
		return finish(Response{Err: err})
	}
	if n := conn.Drain(); n > 0 {
		s.logger.Verbose("Discarded %d late response(s) before %s", n, in.Name)
	}

	s.logger.LogFrame("send "+in.Name, data)
	start := time.Now()
	res.Sent = true
	if err := conn.Send(ctx, data); err != nil {
		sess.markDead()
		return finish(Response{Err: err})
	}
	raw, err := conn.Receive(ctx, s.timeout)
	res.RTT = time.Since(start)
	if err != nil {
		if !errors.Is(err, transport.ErrTimeout) && ctx.Err() == nil {
			sess.markDead()
		}
		return finish(Response{Err: err})
	}
	s.logger.LogFrame("recv "+in.Name, raw)

	v, err := ocpp.Unmarshal(raw)
	if err != nil {
		return finish(Response{Err: fmt.Errorf("invalid response JSON: %w", err)})
	}
	return finish(Response{Raw: v})
}

func actionOf(v any) string {
	frame, ok := ocpp.AsFrame(v)
	if !ok {
		return ""
	}
	action, _ := frame.Action()
	return action
}

// session owns the current connection and redials it after a close.
type session struct {
	dialer    transport.Dialer
	reconnect bool
	logger    *logging.Logger

	conn    transport.Conn
	dead    bool
	dialErr error
}

func (s *session) get(ctx context.Context) (transport.Conn, error) {
	if !s.dead || !s.reconnect {
		return s.conn, nil
	}
	if s.dialErr != nil {
		return nil, s.dialErr
	}
	s.conn.Close()
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		s.dialErr = fmt.Errorf("reconnect: %w", err)
		s.logger.Error("Reconnect failed: %v", err)
		return nil, s.dialErr
	}
	s.logger.Info("Reconnected, negotiated subprotocol %q", conn.Subprotocol())
	s.conn = conn
	s.dead = false
	return conn, nil
}

func (s *session) markDead() {
	s.dead = true
}

func (s *session) close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
