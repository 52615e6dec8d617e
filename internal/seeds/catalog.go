package seeds

// OCPP 1.6 charge point -> central system seed frames

import (
	"strings"

	"github.com/tturner/ocppfuzz/internal/ocpp"
)

// Group names a seed category.
type Group string

const (
	// GroupNormal holds direction-correct CP -> CSMS requests.
	GroupNormal Group = "normal"
	// GroupViolation holds CSMS -> CP requests sent by the charge point.
	GroupViolation Group = "violation"
	// GroupEdgeCase holds boundary and malformed-by-construction requests.
	GroupEdgeCase Group = "edge_case"
)

// Groups lists the seed groups in catalog order.
var Groups = []Group{GroupNormal, GroupViolation, GroupEdgeCase}

// Catalog is a set of seed frames split by group.
type Catalog struct {
	Normal    []ocpp.Frame
	Violation []ocpp.Frame
	EdgeCase  []ocpp.Frame
}

// DefaultCatalog returns a fresh copy of the built-in seeds.
func DefaultCatalog() Catalog {
	return Catalog{
		Normal:    Normal(),
		Violation: Violation(),
		EdgeCase:  EdgeCase(),
	}
}

// Default returns the built-in seed pool: normal, violation and edge-case
// seeds concatenated.
func Default() []ocpp.Frame {
	return DefaultCatalog().Pool()
}

// Pool concatenates the groups in catalog order.
func (c Catalog) Pool() []ocpp.Frame {
	pool := make([]ocpp.Frame, 0, len(c.Normal)+len(c.Violation)+len(c.EdgeCase))
	pool = append(pool, c.Normal...)
	pool = append(pool, c.Violation...)
	pool = append(pool, c.EdgeCase...)
	return pool
}

// Group returns the seeds of one group.
func (c Catalog) Group(g Group) []ocpp.Frame {
	switch g {
	case GroupNormal:
		return c.Normal
	case GroupViolation:
		return c.Violation
	case GroupEdgeCase:
		return c.EdgeCase
	}
	return nil
}

// Len returns the total number of seeds.
func (c Catalog) Len() int {
	return len(c.Normal) + len(c.Violation) + len(c.EdgeCase)
}

func call(action string, payload map[string]any) ocpp.Frame {
	return ocpp.Frame{ocpp.MessageTypeCall, ocpp.UIDPlaceholder, action, payload}
}

// Normal returns the direction-correct charge point requests.
func Normal() []ocpp.Frame {
	return []ocpp.Frame{
		call("BootNotification", map[string]any{
			"chargePointVendor": "SeedCo",
			"chargePointModel":  "S-01",
			"firmwareVersion":   "1.0.0",
		}),
		call("Authorize", map[string]any{"idTag": "ABC123"}),
		call("StartTransaction", map[string]any{
			"connectorId": 1,
			"idTag":       "ABC123",
			"meterStart":  0,
			"timestamp":   "2025-08-31T00:00:00Z",
		}),
		call("StopTransaction", map[string]any{
			"transactionId": 12345,
			"meterStop":     100,
			"timestamp":     "2025-08-31T00:05:00Z",
		}),
		call("Heartbeat", map[string]any{}),
		call("MeterValues", map[string]any{
			"connectorId": 1,
			"meterValue": []any{
				map[string]any{
					"timestamp": "2025-08-31T00:01:00Z",
					"sampledValue": []any{
						map[string]any{"value": "10.0"},
					},
				},
			},
		}),
		call("MeterValues", map[string]any{
			"connectorId": 1,
			"meterValue": []any{
				map[string]any{
					"timestamp": "2025-08-31T00:02:00Z",
					"sampledValue": []any{
						map[string]any{"measurand": "Voltage", "value": "220.0"},
						map[string]any{"measurand": "Current.Import", "value": "10.5"},
					},
				},
			},
		}),
		call("StatusNotification", map[string]any{
			"connectorId": 1,
			"errorCode":   "NoError",
			"status":      "Available",
			"timestamp":   "2025-08-31T00:00:00Z",
		}),
		call("DiagnosticsStatusNotification", map[string]any{"status": "Idle"}),
		call("DiagnosticsStatusNotification", map[string]any{"status": "Uploading"}),
		call("DiagnosticsStatusNotification", map[string]any{"status": "Uploaded"}),
		call("DiagnosticsStatusNotification", map[string]any{"status": "UploadFailed"}),
		call("FirmwareStatusNotification", map[string]any{"status": "Downloading"}),
		call("FirmwareStatusNotification", map[string]any{"status": "Downloaded"}),
		call("FirmwareStatusNotification", map[string]any{"status": "Installing"}),
		call("FirmwareStatusNotification", map[string]any{"status": "Installed"}),
		call("DataTransfer", map[string]any{"vendorId": "VENDORX"}),
		call("DataTransfer", map[string]any{
			"vendorId":  "VENDORX",
			"messageId": "customMsg",
			"data":      "opaque-payload",
		}),
	}
}

// Violation returns central-system-initiated actions sent as charge point
// calls.
func Violation() []ocpp.Frame {
	return []ocpp.Frame{
		call("ChangeAvailability", map[string]any{"connectorId": 1, "type": "Operative"}),
		call("ChangeConfiguration", map[string]any{"key": "MeterValueSampleInterval", "value": "10"}),
		call("ClearCache", map[string]any{}),
		call("GetConfiguration", map[string]any{"key": []any{"AllowOfflineTxForUnknownId"}}),
		call("RemoteStartTransaction", map[string]any{"idTag": "ABC12345"}),
		call("RemoteStopTransaction", map[string]any{"transactionId": 12345}),
		call("Reset", map[string]any{"type": "Soft"}),
		call("UnlockConnector", map[string]any{"connectorId": 1}),
		call("GetDiagnostics", map[string]any{"location": "http://example.com/diag/"}),
		call("UpdateFirmware", map[string]any{
			"location":     "http://example.com/fw.bin",
			"retrieveDate": "2025-08-31T00:00:00Z",
		}),
		call("GetLocalListVersion", map[string]any{}),
		call("SendLocalList", map[string]any{
			"listVersion": 2,
			"updateType":  "Full",
			"localAuthorisationList": []any{
				map[string]any{"idTag": "ABC12345", "idTagInfo": map[string]any{"status": "Accepted"}},
			},
		}),
		call("TriggerMessage", map[string]any{"requestedMessage": "BootNotification"}),
		call("ReserveNow", map[string]any{
			"connectorId":   1,
			"expiryDate":    "2025-08-31T00:20:00Z",
			"idTag":         "ABC12345",
			"reservationId": 777,
		}),
		call("CancelReservation", map[string]any{"reservationId": 777}),
		call("GetCompositeSchedule", map[string]any{"connectorId": 1, "duration": 1800}),
		call("SetChargingProfile", map[string]any{
			"connectorId": 1,
			"csChargingProfiles": map[string]any{
				"chargingProfileId":      1,
				"stackLevel":             0,
				"chargingProfilePurpose": "TxProfile",
				"chargingProfileKind":    "Absolute",
				"chargingSchedule": map[string]any{
					"chargingRateUnit": "W",
					"chargingSchedulePeriod": []any{
						map[string]any{"startPeriod": 0, "limit": 11000},
					},
				},
			},
		}),
		call("ClearChargingProfile", map[string]any{}),
	}
}

// EdgeCase returns boundary seeds: empty payloads, unknown actions, odd
// strings, malformed timestamps and extreme numbers.
func EdgeCase() []ocpp.Frame {
	return []ocpp.Frame{
		call("BootNotification", map[string]any{}),
		call("TotallyUnknownAction", map[string]any{}),
		call("Authorize", map[string]any{"idTag": strings.Repeat("🔥", 10)}),
		call("StartTransaction", map[string]any{
			"connectorId": 1,
			"idTag":       "ABC123",
			"meterStart":  0,
			"timestamp":   "31-08-2025 00:00",
		}),
		call("StopTransaction", map[string]any{
			"transactionId": -1,
			"meterStop":     1000000000,
			"timestamp":     "2025-08-31T00:05:00Z",
		}),
		call("MeterValues", map[string]any{
			"connectorId": 1,
			"meterValue": []any{
				map[string]any{"timestamp": "2025-08-31T00:01:00Z", "sampledValue": []any{}},
			},
		}),
	}
}
