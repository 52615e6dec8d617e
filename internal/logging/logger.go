package logging

// Structured logging for ocppfuzz

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelVerbose
	LogLevelDebug
)

// Logger provides leveled logging to the console and an optional file
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	format   string
	logEvery int
	counter  int
	file     *os.File
	fileLog  *log.Logger
	stdout   *log.Logger
	stderr   *log.Logger
}

// NewLogger creates a new text logger
func NewLogger(level LogLevel, logFile string) (*Logger, error) {
	return NewLoggerWithOptions(level, logFile, "text", 1)
}

// NewLoggerWithOptions creates a logger with an output format ("text" or
// "json") and console sampling: only every logEvery-th non-error message is
// printed to the console. The log file always receives every message.
func NewLoggerWithOptions(level LogLevel, logFile, format string, logEvery int) (*Logger, error) {
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	if logEvery < 1 {
		logEvery = 1
	}
	l := &Logger{
		level:    level,
		format:   format,
		logEvery: logEvery,
		stdout:   log.New(os.Stdout, "", 0),
		stderr:   log.New(os.Stderr, "", 0),
	}

	if logFile != "" {
		file, err := os.Create(logFile)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		l.file = file
		flags := log.LstdFlags
		if format == "json" {
			flags = 0
		}
		l.fileLog = log.New(file, "", flags)
	}

	return l, nil
}

// SetOutput redirects console output (used by tests and the server harness)
func (l *Logger) SetOutput(stdout, stderr io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = log.New(stdout, "", 0)
	l.stderr = log.New(stderr, "", 0)
}

// Close closes the logger and flushes all data
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.fileLog = nil
		return err
	}
	return nil
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	if l.GetLevel() >= LogLevelError {
		l.write(LogLevelError, fmt.Sprintf(format, v...))
	}
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	if l.GetLevel() >= LogLevelInfo {
		l.write(LogLevelInfo, fmt.Sprintf(format, v...))
	}
}

// Verbose logs a verbose message
func (l *Logger) Verbose(format string, v ...interface{}) {
	if l.GetLevel() >= LogLevelVerbose {
		l.write(LogLevelVerbose, fmt.Sprintf(format, v...))
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	if l.GetLevel() >= LogLevelDebug {
		l.write(LogLevelDebug, fmt.Sprintf(format, v...))
	}
}

// write writes a message to the appropriate outputs
func (l *Logger) write(level LogLevel, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := l.formatLine(level, msg)

	if l.fileLog != nil {
		l.fileLog.Println(line)
	}

	if level == LogLevelError {
		l.stderr.Println(line)
		return
	}

	// Console output only at verbose or debug, sampled by logEvery
	l.counter++
	if l.logEvery > 1 && l.counter%l.logEvery != 0 {
		return
	}
	if l.level >= LogLevelVerbose {
		l.stdout.Println(line)
	}
}

func (l *Logger) formatLine(level LogLevel, msg string) string {
	if l.format == "json" {
		data, err := json.Marshal(struct {
			Time    string `json:"time"`
			Level   string `json:"level"`
			Message string `json:"message"`
		}{
			Time:    time.Now().UTC().Format(time.RFC3339Nano),
			Level:   levelLabel(level),
			Message: msg,
		})
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%s: %s", levelPrefix(level), msg)
}

func levelLabel(level LogLevel) string {
	switch level {
	case LogLevelError:
		return "error"
	case LogLevelVerbose:
		return "verbose"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

func levelPrefix(level LogLevel) string {
	switch level {
	case LogLevelError:
		return "ERROR"
	case LogLevelVerbose:
		return "VERBOSE"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "INFO"
	}
}

// ParseLevel maps a config or flag value to a LogLevel. Unknown values
// fall back to info.
func ParseLevel(value string) LogLevel {
	switch value {
	case "silent":
		return LogLevelSilent
	case "error":
		return LogLevelError
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// LogReplay logs the outcome of one replayed frame
func (l *Logger) LogReplay(input, action, result string, rttMs float64, err error) {
	var errStr string
	if err != nil {
		errStr = fmt.Sprintf(" - error: %v", err)
	}

	msg := fmt.Sprintf("%s [%s] -> %s (RTT: %.3fms)%s", input, action, result, rttMs, errStr)

	if result == "CallResult" {
		l.Verbose("%s", msg)
	} else {
		l.Info("%s", msg)
	}
}

// LogStartup logs replay startup information
func (l *Logger) LogStartup(input, uri string, subprotocols []string, timeout time.Duration, replaceUID bool) {
	l.Info("Starting ocppfuzz replay")
	l.Verbose("  Input: %s", input)
	l.Verbose("  Target: %s", uri)
	l.Verbose("  Subprotocols: %v", subprotocols)
	l.Verbose("  Timeout: %s", timeout)
	l.Verbose("  Replace UID: %t", replaceUID)
}

// LogFrame logs a raw frame (for debug level)
func (l *Logger) LogFrame(label string, data []byte) {
	if l.GetLevel() >= LogLevelDebug {
		const maxLen = 512
		text := string(data)
		if len(text) > maxLen {
			text = fmt.Sprintf("%s... (%d bytes)", text[:maxLen], len(data))
		}
		l.Debug("%s: %s", label, text)
	}
}
