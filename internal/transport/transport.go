// Package transport provides the WebSocket connection used to replay frames
// against a central system.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned by Receive when no message arrives in time.
var ErrTimeout = errors.New("receive timed out")

// ClosedError reports that the peer closed the connection.
type ClosedError struct {
	Code int
	Text string
}

func (e *ClosedError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("connection closed (code %d)", e.Code)
	}
	return fmt.Sprintf("connection closed (code %d): %s", e.Code, e.Text)
}

// Conn is an open message connection.
type Conn interface {
	// Send writes one text message.
	Send(ctx context.Context, data []byte) error

	// Receive waits up to timeout for the next message. A timeout of zero
	// waits until ctx is done. It returns ErrTimeout or a *ClosedError when
	// no message is available.
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)

	// Drain discards messages that arrived but were never received and
	// returns how many were dropped.
	Drain() int

	// Subprotocol returns the negotiated subprotocol ("" if none).
	Subprotocol() string

	// Close sends a normal close frame and releases the connection.
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Options configures connection behavior.
type Options struct {
	HandshakeTimeout time.Duration // Opening handshake limit
	WriteTimeout     time.Duration // Per-message write limit
	ReadLimit        int64         // Largest accepted message in bytes (0 = no limit)
	QueueSize        int           // Received messages buffered ahead of Receive
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadLimit:        2 << 20,
		QueueSize:        64,
	}
}

// IsClosed reports whether err means the peer closed the connection and
// returns the close details.
func IsClosed(err error) (*ClosedError, bool) {
	var ce *ClosedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
