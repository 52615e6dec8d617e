package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tturner/ocppfuzz/internal/ocpp"
	"github.com/tturner/ocppfuzz/internal/seeds"
)

var fixedClock = func() time.Time { return time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC) }

func TestRegistryHandle(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register("Heartbeat", func(ctx context.Context, req Request) (map[string]any, error) {
		called = true
		if req.ChargePointID != "CP_1" {
			t.Errorf("unexpected charge point %q", req.ChargePointID)
		}
		return map[string]any{"ok": true}, nil
	})

	resp, handled, err := r.Handle(context.Background(), Request{ChargePointID: "CP_1", Action: "Heartbeat"})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if !handled || !called {
		t.Fatal("expected handler to run")
	}
	if resp["ok"] != true {
		t.Errorf("unexpected response %v", resp)
	}
}

func TestRegistryUnhandled(t *testing.T) {
	r := NewRegistry()
	_, handled, err := r.Handle(context.Background(), Request{Action: "Nope"})
	if handled || err != nil {
		t.Fatalf("expected unhandled, got handled=%v err=%v", handled, err)
	}

	var nilReg *Registry
	if _, handled, _ := nilReg.Handle(context.Background(), Request{Action: "Nope"}); handled {
		t.Fatal("nil registry should not handle")
	}
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry()
	r.Register("A", func(context.Context, Request) (map[string]any, error) { return map[string]any{"v": 1}, nil })
	r.Register("A", func(context.Context, Request) (map[string]any, error) { return map[string]any{"v": 2}, nil })
	resp, _, _ := r.Handle(context.Background(), Request{Action: "A"})
	if resp["v"] != 2 {
		t.Fatalf("expected replaced handler, got %v", resp)
	}
}

func TestRegistryHandlerError(t *testing.T) {
	r := NewRegistry()
	want := NewCallError(ocpp.ErrorInternalError, "boom %d", 1)
	r.Register("A", func(context.Context, Request) (map[string]any, error) { return nil, want })
	_, handled, err := r.Handle(context.Background(), Request{Action: "A"})
	var cerr *CallError
	if !handled || !errors.As(err, &cerr) || cerr.Description != "boom 1" {
		t.Fatalf("expected CallError, got handled=%v err=%v", handled, err)
	}
}

func TestCallErrorFrame(t *testing.T) {
	got := NewCallError(ocpp.ErrorNotImplemented, "Action %s not supported", "X").Frame("42")
	want := ocpp.Frame{4, "42", "NotImplemented", "Action X not supported", map[string]any{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("frame mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaValidate(t *testing.T) {
	schema := Schema{
		{Name: "connectorId", Kind: KindInteger},
		{Name: "idTag", Kind: KindString},
		{Name: "key", Kind: KindArray, Optional: true},
	}
	tests := []struct {
		name    string
		payload map[string]any
		code    string
	}{
		{"valid json.Number", map[string]any{"connectorId": json.Number("1"), "idTag": "A"}, ""},
		{"valid integral float", map[string]any{"connectorId": 2.0, "idTag": "A"}, ""},
		{"valid optional present", map[string]any{"connectorId": 1, "idTag": "A", "key": []any{}}, ""},
		{"extra fields ignored", map[string]any{"connectorId": 1, "idTag": "A", "x": nil}, ""},
		{"missing", map[string]any{"idTag": "A"}, ocpp.ErrorFormationViolation},
		{"string for integer", map[string]any{"connectorId": "1", "idTag": "A"}, ocpp.ErrorTypeConstraintViolation},
		{"fraction for integer", map[string]any{"connectorId": json.Number("1.5"), "idTag": "A"}, ocpp.ErrorTypeConstraintViolation},
		{"null for string", map[string]any{"connectorId": 1, "idTag": nil}, ocpp.ErrorTypeConstraintViolation},
		{"object for array", map[string]any{"connectorId": 1, "idTag": "A", "key": map[string]any{}}, ocpp.ErrorTypeConstraintViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(tt.payload)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || err.Code != tt.code {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestCentralSystemAcceptsSeeds(t *testing.T) {
	r := NewRegistry()
	RegisterCentralSystem(r, fixedClock)

	catalog := seeds.DefaultCatalog()
	for _, seed := range append(catalog.Normal, catalog.Violation...) {
		action, _ := seed.Action()
		payload, _ := seed.Payload()
		resp, handled, err := r.Handle(context.Background(), Request{Action: action, Payload: payload.(map[string]any)})
		if !handled {
			t.Errorf("%s: not handled", action)
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", action, err)
		}
		if resp == nil {
			t.Errorf("%s: nil response", action)
		}
	}
	if got, want := len(r.Actions()), len(ChargePointActions)+len(CentralSystemActions); got != want {
		t.Fatalf("expected %d actions, got %d", want, got)
	}
}

func TestCentralSystemReplies(t *testing.T) {
	r := NewRegistry()
	RegisterCentralSystem(r, fixedClock)

	tests := []struct {
		action  string
		payload map[string]any
		want    map[string]any
	}{
		{"Heartbeat", map[string]any{}, map[string]any{"currentTime": "2025-08-31T12:00:00Z"}},
		{"BootNotification", map[string]any{"chargePointModel": "M", "chargePointVendor": "V"},
			map[string]any{"currentTime": "2025-08-31T12:00:00Z", "interval": 10, "status": "Accepted"}},
		{"StartTransaction", map[string]any{"connectorId": 1, "idTag": "A", "meterStart": 0, "timestamp": "t"},
			map[string]any{"transactionId": 12345, "idTagInfo": map[string]any{"status": "Accepted"}}},
		{"DataTransfer", map[string]any{"vendorId": "V"}, map[string]any{"status": "Accepted", "data": "ok"}},
		{"UnlockConnector", map[string]any{"connectorId": 1}, map[string]any{"status": "Unlocked"}},
		{"GetLocalListVersion", map[string]any{}, map[string]any{"listVersion": 1}},
		{"UpdateFirmware", map[string]any{"location": "l", "retrieveDate": "d"}, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got, _, err := r.Handle(context.Background(), Request{Action: tt.action, Payload: tt.payload})
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("reply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCentralSystemEdgeCases(t *testing.T) {
	r := NewRegistry()
	RegisterCentralSystem(r, nil)

	_, _, err := r.Handle(context.Background(), Request{Action: "BootNotification", Payload: map[string]any{}})
	var cerr *CallError
	if !errors.As(err, &cerr) || cerr.Code != ocpp.ErrorFormationViolation {
		t.Fatalf("expected FormationViolation, got %v", err)
	}

	_, _, err = r.Handle(context.Background(), Request{Action: "Authorize", Payload: map[string]any{"idTag": json.Number("5")}})
	if !errors.As(err, &cerr) || cerr.Code != ocpp.ErrorTypeConstraintViolation {
		t.Fatalf("expected TypeConstraintViolation, got %v", err)
	}

	if _, handled, _ := r.Handle(context.Background(), Request{Action: "TotallyUnknownAction"}); handled {
		t.Fatal("unknown action should not be handled")
	}
}
