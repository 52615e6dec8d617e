package handlers

// OCPP 1.6 central system acknowledgments

import (
	"context"
	"time"
)

// Clock returns the time reported in currentTime fields.
type Clock func() time.Time

// Action describes how the central system answers one action.
type Action struct {
	Name   string
	Schema Schema
	Reply  func(now time.Time, req Request) map[string]any
}

func accepted(time.Time, Request) map[string]any {
	return map[string]any{"status": "Accepted"}
}

func empty(time.Time, Request) map[string]any {
	return map[string]any{}
}

func idTagInfo() map[string]any {
	return map[string]any{"status": "Accepted"}
}

func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ChargePointActions are the requests a charge point legitimately sends.
var ChargePointActions = []Action{
	{
		Name:   "BootNotification",
		Schema: Schema{{Name: "chargePointModel", Kind: KindString}, {Name: "chargePointVendor", Kind: KindString}},
		Reply: func(now time.Time, _ Request) map[string]any {
			return map[string]any{"currentTime": isoTime(now), "interval": 10, "status": "Accepted"}
		},
	},
	{
		Name:   "Authorize",
		Schema: Schema{{Name: "idTag", Kind: KindString}},
		Reply: func(time.Time, Request) map[string]any {
			return map[string]any{"idTagInfo": idTagInfo()}
		},
	},
	{
		Name: "StartTransaction",
		Schema: Schema{
			{Name: "connectorId", Kind: KindInteger},
			{Name: "idTag", Kind: KindString},
			{Name: "meterStart", Kind: KindInteger},
			{Name: "timestamp", Kind: KindString},
		},
		Reply: func(time.Time, Request) map[string]any {
			return map[string]any{"transactionId": 12345, "idTagInfo": idTagInfo()}
		},
	},
	{
		Name: "StopTransaction",
		Schema: Schema{
			{Name: "transactionId", Kind: KindInteger},
			{Name: "meterStop", Kind: KindInteger},
			{Name: "timestamp", Kind: KindString},
		},
		Reply: empty,
	},
	{
		Name: "Heartbeat",
		Reply: func(now time.Time, _ Request) map[string]any {
			return map[string]any{"currentTime": isoTime(now)}
		},
	},
	{
		Name:   "MeterValues",
		Schema: Schema{{Name: "connectorId", Kind: KindInteger}, {Name: "meterValue", Kind: KindArray}},
		Reply:  empty,
	},
	{
		Name: "StatusNotification",
		Schema: Schema{
			{Name: "connectorId", Kind: KindInteger},
			{Name: "errorCode", Kind: KindString},
			{Name: "status", Kind: KindString},
		},
		Reply: empty,
	},
	{
		Name:   "DiagnosticsStatusNotification",
		Schema: Schema{{Name: "status", Kind: KindString}},
		Reply:  empty,
	},
	{
		Name:   "FirmwareStatusNotification",
		Schema: Schema{{Name: "status", Kind: KindString}},
		Reply:  empty,
	},
	{
		Name:   "DataTransfer",
		Schema: Schema{{Name: "vendorId", Kind: KindString}},
		Reply: func(time.Time, Request) map[string]any {
			return map[string]any{"status": "Accepted", "data": "ok"}
		},
	},
}

// CentralSystemActions are requests only a central system should send. The
// harness still acknowledges them so direction violations reach a handler.
var CentralSystemActions = []Action{
	{
		Name:   "ChangeAvailability",
		Schema: Schema{{Name: "connectorId", Kind: KindInteger}, {Name: "type", Kind: KindString}},
		Reply:  accepted,
	},
	{
		Name:   "ChangeConfiguration",
		Schema: Schema{{Name: "key", Kind: KindString}, {Name: "value", Kind: KindString}},
		Reply:  accepted,
	},
	{Name: "ClearCache", Reply: accepted},
	{
		Name:   "GetConfiguration",
		Schema: Schema{{Name: "key", Kind: KindArray, Optional: true}},
		Reply: func(time.Time, Request) map[string]any {
			return map[string]any{
				"configurationKey": []any{
					map[string]any{"key": "AllowOfflineTxForUnknownId", "readonly": true, "value": "true"},
				},
				"unknownKey": []any{},
			}
		},
	},
	{
		Name:   "RemoteStartTransaction",
		Schema: Schema{{Name: "idTag", Kind: KindString}},
		Reply:  accepted,
	},
	{
		Name:   "RemoteStopTransaction",
		Schema: Schema{{Name: "transactionId", Kind: KindInteger}},
		Reply:  accepted,
	},
	{
		Name:   "Reset",
		Schema: Schema{{Name: "type", Kind: KindString}},
		Reply:  accepted,
	},
	{
		Name:   "UnlockConnector",
		Schema: Schema{{Name: "connectorId", Kind: KindInteger}},
		Reply: func(time.Time, Request) map[string]any {
			return map[string]any{"status": "Unlocked"}
		},
	},
	{
		Name:   "GetDiagnostics",
		Schema: Schema{{Name: "location", Kind: KindString}},
		Reply: func(time.Time, Request) map[string]any {
			return map[string]any{"fileName": "diag_0001.tar"}
		},
	},
	{
		Name:   "UpdateFirmware",
		Schema: Schema{{Name: "location", Kind: KindString}, {Name: "retrieveDate", Kind: KindString}},
		Reply:  empty,
	},
	{
		Name: "GetLocalListVersion",
		Reply: func(time.Time, Request) map[string]any {
			return map[string]any{"listVersion": 1}
		},
	},
	{
		Name:   "SendLocalList",
		Schema: Schema{{Name: "listVersion", Kind: KindInteger}, {Name: "updateType", Kind: KindString}},
		Reply:  accepted,
	},
	{
		Name:   "TriggerMessage",
		Schema: Schema{{Name: "requestedMessage", Kind: KindString}},
		Reply:  accepted,
	},
	{
		Name: "ReserveNow",
		Schema: Schema{
			{Name: "connectorId", Kind: KindInteger},
			{Name: "expiryDate", Kind: KindString},
			{Name: "idTag", Kind: KindString},
			{Name: "reservationId", Kind: KindInteger},
		},
		Reply: accepted,
	},
	{
		Name:   "CancelReservation",
		Schema: Schema{{Name: "reservationId", Kind: KindInteger}},
		Reply:  accepted,
	},
	{
		Name:   "GetCompositeSchedule",
		Schema: Schema{{Name: "connectorId", Kind: KindInteger}, {Name: "duration", Kind: KindInteger}},
		Reply: func(_ time.Time, req Request) map[string]any {
			return map[string]any{
				"status":      "Accepted",
				"connectorId": req.Payload["connectorId"],
				"chargingSchedule": map[string]any{
					"chargingRateUnit": "W",
					"chargingSchedulePeriod": []any{
						map[string]any{"startPeriod": 0, "limit": 11000},
					},
				},
			}
		},
	},
	{
		Name:   "SetChargingProfile",
		Schema: Schema{{Name: "connectorId", Kind: KindInteger}, {Name: "csChargingProfiles", Kind: KindObject}},
		Reply:  accepted,
	},
	{Name: "ClearChargingProfile", Reply: accepted},
}

// RegisterCentralSystem installs handlers for every charge point and
// central system action. A nil clock uses time.Now.
func RegisterCentralSystem(reg *Registry, clock Clock) {
	if clock == nil {
		clock = time.Now
	}
	for _, group := range [][]Action{ChargePointActions, CentralSystemActions} {
		for _, action := range group {
			reg.Register(action.Name, action.handler(clock))
		}
	}
}

func (a Action) handler(clock Clock) HandlerFunc {
	return func(_ context.Context, req Request) (map[string]any, error) {
		if cerr := a.Schema.Validate(req.Payload); cerr != nil {
			return nil, cerr
		}
		return a.Reply(clock(), req), nil
	}
}
