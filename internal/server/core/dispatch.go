package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/server/handlers"
)

// dispatch decodes one inbound message and returns the reply frame, or nil
// when the message gets no reply (CALLRESULT or CALLERROR from the client).
func (s *Server) dispatch(ctx context.Context, cpID string, data []byte) ocpp.Frame {
	v, err := ocpp.Unmarshal(data)
	if err != nil {
		return s.callError("", handlers.NewCallError(ocpp.ErrorFormationViolation, "invalid JSON: %v", err))
	}
	frame, ok := ocpp.AsFrame(v)
	if !ok {
		return s.callError("", handlers.NewCallError(ocpp.ErrorFormationViolation, "message is not a JSON array"))
	}
	uid, _ := frame.UniqueID().(string)
	if !frame.Valid() {
		return s.callError(uid, handlers.NewCallError(ocpp.ErrorFormationViolation, "message has %d elements, want at least %d", len(frame), ocpp.MinFrameFields))
	}

	mt, ok := frame.MessageType()
	switch {
	case ok && (mt == ocpp.MessageTypeCallResult || mt == ocpp.MessageTypeCallError):
		s.logger.Verbose("[%s] ignoring unsolicited message type %d", cpID, mt)
		return nil
	case !ok || mt != ocpp.MessageTypeCall:
		return s.callError(uid, handlers.NewCallError(ocpp.ErrorProtocolError, "unknown message type %v", frame[0]))
	}

	if _, isString := frame.UniqueID().(string); !isString {
		return s.callError("", handlers.NewCallError(ocpp.ErrorFormationViolation, "unique id must be a string"))
	}
	action, ok := frame.Action()
	if !ok {
		return s.callError(uid, handlers.NewCallError(ocpp.ErrorFormationViolation, "action must be a string"))
	}
	raw, ok := frame.Payload()
	if !ok {
		return s.callError(uid, handlers.NewCallError(ocpp.ErrorFormationViolation, "missing payload"))
	}
	payload, ok := raw.(map[string]any)
	if !ok {
		return s.callError(uid, handlers.NewCallError(ocpp.ErrorFormationViolation, "payload must be an object"))
	}

	req := handlers.Request{ChargePointID: cpID, UniqueID: uid, Action: action, Payload: payload}
	resp, handled, err := s.handle(ctx, req)
	if !handled {
		return s.callError(uid, handlers.NewCallError(ocpp.ErrorNotImplemented, "No handler for %s registered.", action))
	}
	if err != nil {
		var cerr *handlers.CallError
		if !errors.As(err, &cerr) {
			cerr = handlers.NewCallError(ocpp.ErrorInternalError, "%v", err)
		}
		s.logger.Verbose("[%s] %s -> %s", cpID, action, cerr.Code)
		return s.callError(uid, cerr)
	}
	if resp == nil {
		resp = map[string]any{}
	}
	s.stats.results.Add(1)
	s.logger.Verbose("[%s] %s -> CallResult", cpID, action)
	return ocpp.Frame{ocpp.MessageTypeCallResult, uid, resp}
}

// handle runs the registered handler. A panicking handler yields an error
// instead of killing the connection.
func (s *Server) handle(ctx context.Context, req handlers.Request) (resp map[string]any, handled bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("[%s] handler %s panicked: %v", req.ChargePointID, req.Action, r)
			resp, handled, err = nil, true, fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.handlers.Handle(ctx, req)
}

func (s *Server) callError(uid string, cerr *handlers.CallError) ocpp.Frame {
	s.stats.callErrors.Add(1)
	return cerr.Frame(uid)
}
