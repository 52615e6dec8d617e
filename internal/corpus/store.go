package corpus

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/tturner/ocppfuzz/internal/ocpp"
)

// Store persists corpus entries.
type Store interface {
	Write(e Entry) error
}

// DirStore writes one pretty-printed JSON file per entry into a directory.
type DirStore struct {
	dir string
}

// NewDirStore creates dir if needed and returns a store writing into it.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the output directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// Write stores the entry atomically under its generated name.
func (s *DirStore) Write(e Entry) error {
	data, err := ocpp.MarshalIndent(e.Frame)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Name(), err)
	}
	path := filepath.Join(s.dir, e.Name())
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// JSONLStore writes one compact frame per line.
type JSONLStore struct {
	file *os.File
	w    *bufio.Writer
}

// NewJSONLStore creates (or truncates) path.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create JSONL file: %w", err)
	}
	return &JSONLStore{file: file, w: bufio.NewWriter(file)}, nil
}

// Write appends the entry as one line.
func (s *JSONLStore) Write(e Entry) error {
	data, err := ocpp.Marshal(e.Frame)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Name(), err)
	}
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write JSONL line: %w", err)
	}
	return nil
}

// Close flushes buffered lines and closes the file.
func (s *JSONLStore) Close() error {
	if err := s.w.Flush(); err != nil {
		s.file.Close()
		return fmt.Errorf("flush JSONL file: %w", err)
	}
	return s.file.Close()
}

// MultiStore writes every entry to all of its stores.
type MultiStore []Store

// Write forwards e to each store, stopping at the first error.
func (m MultiStore) Write(e Entry) error {
	for _, s := range m {
		if err := s.Write(e); err != nil {
			return err
		}
	}
	return nil
}
