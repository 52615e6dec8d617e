package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapConnectError wraps a failed WebSocket connection with user-friendly context
func WrapConnectError(err error, uri string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to connect to central system at %s", uri),
		Reason:  extractConnectReason(err),
		Hint:    "The endpoint may be down, the path may be wrong, or the server may reject the offered subprotocol",
		Try:     "ocppfuzz server --port 9000   (then replay against ws://127.0.0.1:9000/CP_REPLAY)",
		Err:     err,
	}
}

// WrapCorpusError wraps corpus input/output errors with user-friendly context
func WrapCorpusError(err error, path string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Corpus error at %s", path),
		Reason:  extractCorpusReason(err),
		Hint:    "Corpus inputs are a directory of *.json files, a *.jsonl file, or a single JSON file",
		Try:     fmt.Sprintf("ocppfuzz generate --dir %s --target 10", path),
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Print a complete example with: ocppfuzz config print-default",
		Try:     fmt.Sprintf("ocppfuzz config validate --config %s", configPath),
		Err:     err,
	}
}

func extractConnectReason(err error) string {
	errStr := err.Error()

	// Common dial and handshake failure patterns
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Connection timeout - endpoint may be offline or unreachable"
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused - nothing is listening on this port"
	}
	if strings.Contains(errStr, "no route to host") {
		return "No route to host - network routing issue or endpoint unreachable"
	}
	if strings.Contains(errStr, "bad handshake") || strings.Contains(errStr, "HTTP ") {
		return "WebSocket handshake rejected - check the URI path and subprotocol"
	}
	if strings.Contains(errStr, "unsupported URI scheme") || strings.Contains(errStr, "parse URI") {
		return "Invalid endpoint URI - use ws://host:port/ChargePointID"
	}

	return "WebSocket connection failed"
}

func extractCorpusReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "no such file") || strings.Contains(errStr, "cannot find") {
		return "Path does not exist"
	}
	if strings.Contains(errStr, "permission denied") {
		return "Permission denied"
	}
	if strings.Contains(errStr, "no inputs") {
		return "No replayable inputs found"
	}

	return "Corpus could not be read or written"
}
