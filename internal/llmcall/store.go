package llmcall

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// QueryFilter specifies filters for listing calls. Zero fields match all.
type QueryFilter struct {
	RunID      string
	Image      string
	PromptHash string
	FailedOnly bool
}

func (f QueryFilter) match(c Call) bool {
	if f.RunID != "" && c.RunID != f.RunID {
		return false
	}
	if f.Image != "" && c.Image != f.Image {
		return false
	}
	if f.PromptHash != "" && c.PromptHash != f.PromptHash {
		return false
	}
	if f.FailedOnly && c.Success {
		return false
	}
	return true
}

// Read parses JSON lines from r, keeping calls that match filter.
func Read(r io.Reader, filter QueryFilter) ([]Call, error) {
	var calls []Call
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var c Call
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if filter.match(c) {
			calls = append(calls, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return calls, nil
}

// ReadFile reads a trace file written by a Recorder.
func ReadFile(path string, filter QueryFilter) ([]Call, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, filter)
}
