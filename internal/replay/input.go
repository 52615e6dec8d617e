package replay

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tturner/ocppfuzz/internal/ocpp"
)

// Input is one message to replay. Err is set when the document could not be
// parsed; such inputs are classified without being sent.
type Input struct {
	Name  string
	Value any
	Err   error
}

// ReadInputs loads replay inputs from path:
//   - a directory yields one input per *.json file in lexical order
//   - a *.jsonl file yields one input per non-blank line, named "file:line"
//   - any other file yields a single input
//
// Unparseable documents become inputs carrying their error. Paths that
// cannot be read are an error.
func ReadInputs(path string) ([]Input, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return readDir(path)
	}
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return readJSONL(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return []Input{parseInput(path, data)}, nil
}

func readDir(dir string) ([]Input, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	sort.Strings(paths)

	inputs := make([]Input, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		if info.IsDir() {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		inputs = append(inputs, parseInput(p, data))
	}
	return inputs, nil
}

func readJSONL(path string) ([]Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	base := filepath.Base(path)
	r := bufio.NewReader(f)
	var inputs []Input
	for lineNo := 1; ; lineNo++ {
		line, err := r.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			inputs = append(inputs, parseInput(fmt.Sprintf("%s:%d", base, lineNo), trimmed))
		}
		if err == io.EOF {
			return inputs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
}

func parseInput(name string, data []byte) Input {
	v, err := ocpp.Unmarshal(data)
	if err != nil {
		return Input{Name: name, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	return Input{Name: name, Value: v}
}
