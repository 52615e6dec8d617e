package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/ocppfuzz/internal/config"
	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/server/handlers"
)

func newTestServer(t *testing.T, cfg *config.ServerConfig) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &config.ServerConfig{ListenIP: "127.0.0.1", RequiredSubprotocol: ocpp.Subprotocol16}
	}
	srv, err := NewServer(cfg, nil)
	require.NoError(t, err)
	return srv
}

func TestDispatch(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		in   string
		tag  int
		uid  string
		code string
	}{
		{"invalid json", `[2,"1","Heartbeat"`, 4, "", ocpp.ErrorFormationViolation},
		{"object", `{"a":1}`, 4, "", ocpp.ErrorFormationViolation},
		{"bare string", `"hi"`, 4, "", ocpp.ErrorFormationViolation},
		{"short array", `[2,"u1"]`, 4, "u1", ocpp.ErrorFormationViolation},
		{"string tag", `["2","u1","Heartbeat",{}]`, 4, "u1", ocpp.ErrorProtocolError},
		{"unknown tag", `[9,"u1","Heartbeat",{}]`, 4, "u1", ocpp.ErrorProtocolError},
		{"numeric uid", `[2,7,"Heartbeat",{}]`, 4, "", ocpp.ErrorFormationViolation},
		{"numeric action", `[2,"u1",5,{}]`, 4, "u1", ocpp.ErrorFormationViolation},
		{"missing payload", `[2,"u1","Heartbeat"]`, 4, "u1", ocpp.ErrorFormationViolation},
		{"array payload", `[2,"u1","Heartbeat",[]]`, 4, "u1", ocpp.ErrorFormationViolation},
		{"unknown action", `[2,"u1","TotallyUnknownAction",{}]`, 4, "u1", ocpp.ErrorNotImplemented},
		{"missing field", `[2,"u1","BootNotification",{}]`, 4, "u1", ocpp.ErrorFormationViolation},
		{"wrong type", `[2,"u1","Authorize",{"idTag":5}]`, 4, "u1", ocpp.ErrorTypeConstraintViolation},
		{"heartbeat", `[2,"u1","Heartbeat",{}]`, 3, "u1", ""},
		{"violation action", `[2,"u1","Reset",{"type":"Soft"}]`, 3, "u1", ""},
		{"extra elements", `[2,"u1","Heartbeat",{},"x"]`, 3, "u1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := srv.dispatch(context.Background(), "CP_1", []byte(tt.in))
			require.NotNil(t, reply)
			tag, ok := reply.MessageType()
			require.True(t, ok)
			assert.Equal(t, tt.tag, tag)
			assert.Equal(t, tt.uid, reply[1])
			if tt.code != "" {
				require.Len(t, reply, 5)
				assert.Equal(t, tt.code, reply[2])
				assert.Equal(t, map[string]any{}, reply[4])
			}
		})
	}
}

func TestDispatchIgnoresResponses(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.Nil(t, srv.dispatch(context.Background(), "CP_1", []byte(`[3,"u1",{}]`)))
	assert.Nil(t, srv.dispatch(context.Background(), "CP_1", []byte(`[4,"u1","GenericError","",{}]`)))
}

func TestDispatchCountsReplies(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.dispatch(context.Background(), "CP_1", []byte(`[2,"a","Heartbeat",{}]`))
	srv.dispatch(context.Background(), "CP_1", []byte(`[2,"b","Nope",{}]`))

	stats := srv.Stats()
	assert.Equal(t, int64(1), stats.Results)
	assert.Equal(t, int64(1), stats.CallErrors)
}

func TestFaultPolicy(t *testing.T) {
	p := resolveFaultPolicy(&config.ServerConfig{
		RNGSeed: 1,
		Faults:  config.ServerFaultConfig{DropResponseEveryN: 2, CloseConnectionEveryN: 3},
	})

	var drops, closes []int
	for i := 1; i <= 6; i++ {
		a := p.next()
		if a.drop {
			drops = append(drops, i)
		}
		if a.close {
			closes = append(closes, i)
		}
		assert.Zero(t, a.delay)
	}
	assert.Equal(t, []int{2, 4, 6}, drops)
	assert.Equal(t, []int{3, 6}, closes)
}

func TestFaultPolicyDelay(t *testing.T) {
	p := resolveFaultPolicy(&config.ServerConfig{
		RNGSeed: 1,
		Faults:  config.ServerFaultConfig{DelayMs: 5, JitterMs: 5},
	})
	for i := 0; i < 20; i++ {
		a := p.next()
		assert.GreaterOrEqual(t, a.delay.Milliseconds(), int64(5))
		assert.LessOrEqual(t, a.delay.Milliseconds(), int64(10))
	}

	disabled := resolveFaultPolicy(&config.ServerConfig{})
	assert.Equal(t, responseFaultAction{}, disabled.next())
	assert.Zero(t, disabled.responseCount)
}

func TestDispatchHandlerPanic(t *testing.T) {
	reg := handlers.NewRegistry()
	reg.Register("Heartbeat", func(context.Context, handlers.Request) (map[string]any, error) {
		panic("boom")
	})
	srv, err := NewServerWithRegistry(&config.ServerConfig{RequiredSubprotocol: ocpp.Subprotocol16}, nil, reg)
	require.NoError(t, err)

	resp := srv.dispatch(context.Background(), "CP1", []byte(`[2,"u1","Heartbeat",{}]`))
	require.Len(t, resp, 5)
	assert.Equal(t, ocpp.ErrorInternalError, resp[2])
	assert.Equal(t, int64(1), srv.Stats().CallErrors)
}
