package handlers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tturner/ocppfuzz/internal/ocpp"
)

// Request is one decoded CALL addressed to the central system.
type Request struct {
	ChargePointID string
	UniqueID      string
	Action        string
	Payload       map[string]any
}

// HandlerFunc answers a CALL with a CALLRESULT payload. Returning a
// *CallError produces a CALLERROR frame instead.
type HandlerFunc func(ctx context.Context, req Request) (map[string]any, error)

// CallError is an OCPP-J CALLERROR raised by a handler.
type CallError struct {
	Code        string
	Description string
	Details     map[string]any
}

// NewCallError returns a CallError with a formatted description.
func NewCallError(code, format string, args ...any) *CallError {
	return &CallError{Code: code, Description: fmt.Sprintf(format, args...)}
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Frame renders the error as [4, uid, code, description, details].
func (e *CallError) Frame(uid string) ocpp.Frame {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	return ocpp.Frame{ocpp.MessageTypeCallError, uid, e.Code, e.Description, details}
}

// Registry maps action names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register installs handler for action, replacing any previous one.
func (r *Registry) Register(action string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[action] = handler
}

// Handle runs the handler for req.Action. handled is false when no handler
// is registered.
func (r *Registry) Handle(ctx context.Context, req Request) (map[string]any, bool, error) {
	if r == nil {
		return nil, false, nil
	}
	r.mu.RLock()
	handler, ok := r.handlers[req.Action]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	resp, err := handler(ctx, req)
	return resp, true, err
}

// Actions returns the registered action names in sorted order.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	actions := make([]string, 0, len(r.handlers))
	for action := range r.handlers {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}
