package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, handle func(c *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{Subprotocols: []string{"ocpp1.6"}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handle(c)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/CP_TEST"
}

func dial(t *testing.T, uri string) Conn {
	t.Helper()
	c, err := NewWebSocketDialer(uri, []string{"ocpp1.6"}).Dial(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func echo(c *websocket.Conn) {
	defer c.Close()
	for {
		mt, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		if err := c.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

func TestSendReceive(t *testing.T) {
	c := dial(t, startServer(t, echo))
	require.Equal(t, "ocpp1.6", c.Subprotocol())

	ctx := context.Background()
	require.NoError(t, c.Send(ctx, []byte(`[2,"1","Heartbeat",{}]`)))
	data, err := c.Receive(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, `[2,"1","Heartbeat",{}]`, string(data))
}

func TestReceiveTimeoutKeepsConnection(t *testing.T) {
	release := make(chan struct{})
	uri := startServer(t, func(c *websocket.Conn) {
		defer c.Close()
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
		<-release
		c.WriteMessage(websocket.TextMessage, []byte("late"))
		echo(c)
	})
	c := dial(t, uri)
	ctx := context.Background()

	require.NoError(t, c.Send(ctx, []byte("first")))
	_, err := c.Receive(ctx, 50*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	close(release)
	data, err := c.Receive(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, "late", string(data))

	require.NoError(t, c.Send(ctx, []byte("second")))
	data, err = c.Receive(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, "second", string(data))
}

func TestReceivePeerClose(t *testing.T) {
	uri := startServer(t, func(c *websocket.Conn) {
		defer c.Close()
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
		msg := websocket.FormatCloseMessage(4000, "bye")
		c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.ReadMessage()
	})
	c := dial(t, uri)
	ctx := context.Background()

	require.NoError(t, c.Send(ctx, []byte("x")))
	_, err := c.Receive(ctx, 2*time.Second)
	ce, ok := IsClosed(err)
	require.True(t, ok, "want ClosedError, got %v", err)
	require.Equal(t, 4000, ce.Code)
	require.Equal(t, "bye", ce.Text)

	err = c.Send(ctx, []byte("y"))
	require.Error(t, err)
}

func TestReceiveAbruptClose(t *testing.T) {
	uri := startServer(t, func(c *websocket.Conn) {
		c.ReadMessage()
		c.UnderlyingConn().Close()
	})
	c := dial(t, uri)
	ctx := context.Background()

	require.NoError(t, c.Send(ctx, []byte("x")))
	_, err := c.Receive(ctx, 2*time.Second)
	ce, ok := IsClosed(err)
	require.True(t, ok, "want ClosedError, got %v", err)
	require.Equal(t, websocket.CloseAbnormalClosure, ce.Code)
}

func TestReceiveContextCanceled(t *testing.T) {
	c := dial(t, startServer(t, echo))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Receive(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDrain(t *testing.T) {
	uri := startServer(t, func(c *websocket.Conn) {
		defer c.Close()
		for _, m := range []string{"a", "b", "c"} {
			c.WriteMessage(websocket.TextMessage, []byte(m))
		}
		c.ReadMessage()
	})
	c := dial(t, uri)

	total := 0
	require.Eventually(t, func() bool {
		total += c.Drain()
		return total == 3
	}, 2*time.Second, 10*time.Millisecond)

	_, err := c.Receive(context.Background(), 20*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	uri := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, err := NewWebSocketDialer(uri, nil).Dial(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP 404")
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"ws://127.0.0.1:9000/CP_REPLAY", "ws://127.0.0.1:9000/CP_REPLAY", false},
		{"wss://csms.example.com/ocpp/CP1", "wss://csms.example.com/ocpp/CP1", false},
		{"localhost:9000/CP", "ws://localhost:9000/CP", false},
		{"http://localhost:9000/CP", "", true},
		{"ws:///CP", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		u, err := ParseURI(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, u.String())
	}
}

func TestChargePointID(t *testing.T) {
	require.Equal(t, "CP_1", ChargePointID("/CP_1"))
	require.Equal(t, "ocpp/CP_1", ChargePointID("/ocpp/CP_1/"))
	require.Equal(t, DefaultChargePointID, ChargePointID("/"))
	require.Equal(t, DefaultChargePointID, ChargePointID(""))
}

func TestClosedErrorMessage(t *testing.T) {
	err := error(&ClosedError{Code: 1002, Text: "Subprotocol required: ocpp1.6"})
	require.Equal(t, "connection closed (code 1002): Subprotocol required: ocpp1.6", err.Error())
	require.Equal(t, "connection closed (code 1000)", (&ClosedError{Code: 1000}).Error())

	_, ok := IsClosed(errors.New("other"))
	require.False(t, ok)
}
