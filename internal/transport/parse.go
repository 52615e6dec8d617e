package transport

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultChargePointID is used when an endpoint URI has no path.
const DefaultChargePointID = "UNKNOWN_CP"

// ParseURI validates a WebSocket endpoint URI.
// Supported formats:
//   - "ws://host:port/ChargePointID"
//   - "wss://host:port/ChargePointID"
//   - "host:port/ChargePointID" (ws:// is assumed)
func ParseURI(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("endpoint URI is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse URI: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URI scheme: %s (want ws or wss)", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("URI host is required")
	}
	return u, nil
}

// ChargePointID returns the charge point identity carried in a URL path:
// the path without its leading slash, or DefaultChargePointID.
func ChargePointID(path string) string {
	id := strings.Trim(path, "/")
	if id == "" {
		return DefaultChargePointID
	}
	return id
}
