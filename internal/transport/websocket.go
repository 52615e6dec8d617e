package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketDialer dials a WebSocket endpoint offering the given subprotocols.
type WebSocketDialer struct {
	URI          string
	Subprotocols []string
	Header       http.Header
	Options      Options
}

// NewWebSocketDialer returns a dialer with default options.
func NewWebSocketDialer(uri string, subprotocols []string) *WebSocketDialer {
	return &WebSocketDialer{URI: uri, Subprotocols: subprotocols, Options: DefaultOptions()}
}

// Dial performs the opening handshake.
func (d *WebSocketDialer) Dial(ctx context.Context) (Conn, error) {
	u, err := ParseURI(d.URI)
	if err != nil {
		return nil, err
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.Options.HandshakeTimeout,
		Subprotocols:     d.Subprotocols,
	}
	c, resp, err := dialer.DialContext(ctx, u.String(), d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (HTTP %d)", u, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return NewConn(c, d.Options), nil
}

type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	messages chan []byte
	done     chan struct{} // closed when the read loop exits
	closing  chan struct{} // closed by Close
	readErr  error

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewConn wraps an established gorilla connection. A background reader
// queues incoming messages so a Receive timeout never interrupts a frame
// read in progress.
func NewConn(c *websocket.Conn, opts Options) Conn {
	if opts.ReadLimit > 0 {
		c.SetReadLimit(opts.ReadLimit)
	}
	queue := opts.QueueSize
	if queue <= 0 {
		queue = DefaultOptions().QueueSize
	}
	w := &wsConn{
		conn:         c,
		writeTimeout: opts.WriteTimeout,
		messages:     make(chan []byte, queue),
		done:         make(chan struct{}),
		closing:      make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *wsConn) readLoop() {
	defer close(w.done)
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			w.readErr = readError(err)
			return
		}
		select {
		case w.messages <- data:
		case <-w.closing:
			w.readErr = errClosedLocally
			return
		}
	}
}

var errClosedLocally = errors.New("connection closed locally")

func readError(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return &ClosedError{Code: ce.Code, Text: ce.Text}
	}
	return err
}

func (w *wsConn) Send(ctx context.Context, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	select {
	case <-w.done:
		if _, ok := IsClosed(w.readErr); ok {
			return w.readErr
		}
	default:
	}

	deadline := time.Time{}
	if w.writeTimeout > 0 {
		deadline = time.Now().Add(w.writeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return readError(err)
	}
	return nil
}

func (w *wsConn) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	select {
	case data := <-w.messages:
		return data, nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case data := <-w.messages:
		return data, nil
	case <-w.done:
		select {
		case data := <-w.messages:
			return data, nil
		default:
		}
		return nil, w.readErr
	case <-expired:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *wsConn) Drain() int {
	n := 0
	for {
		select {
		case <-w.messages:
			n++
		default:
			return n
		}
	}
}

func (w *wsConn) Subprotocol() string {
	return w.conn.Subprotocol()
}

func (w *wsConn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closing)
		w.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		w.writeMu.Unlock()
		err = w.conn.Close()
	})
	return err
}
