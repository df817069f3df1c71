// Package llmcall records recognition attempts as JSON lines for later
// inspection. Every model call is written with its prompt hash, reply and
// outcome.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/tabscan/internal/recognize"
)

// Call represents a recorded model call.
type Call struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	LatencyMs int       `json:"latency_ms" yaml:"latency_ms"`

	// Context references
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Image string `json:"image" yaml:"image"`

	// Prompt traceability
	Mode            string `json:"mode" yaml:"mode"`
	Attempt         int    `json:"attempt" yaml:"attempt"`
	ExpectedColumns int    `json:"expected_columns,omitempty" yaml:"expected_columns,omitempty"`
	PreviousError   string `json:"previous_error,omitempty" yaml:"previous_error,omitempty"`
	PromptHash      string `json:"prompt_hash" yaml:"prompt_hash"`

	// Model info
	Provider    string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string   `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// Response
	Response string `json:"response,omitempty" yaml:"response,omitempty"`

	// Status
	Success bool   `json:"success" yaml:"success"`
	Failure string `json:"failure,omitempty" yaml:"failure,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RecordOptions provides context for recording a call.
type RecordOptions struct {
	RunID       string
	Provider    string
	Model       string
	Temperature *float64
}

// FromAttempt creates a Call from a recognition attempt.
func FromAttempt(a recognize.Attempt, opts RecordOptions) *Call {
	call := &Call{
		ID:              uuid.New().String(),
		Timestamp:       time.Now(),
		LatencyMs:       int(a.Latency.Milliseconds()),
		RunID:           opts.RunID,
		Image:           a.Image,
		Mode:            a.Mode.String(),
		Attempt:         a.Index + 1,
		ExpectedColumns: a.ExpectedColumns,
		PreviousError:   a.PreviousError,
		PromptHash:      a.PromptHash,
		Provider:        opts.Provider,
		Model:           opts.Model,
		Temperature:     opts.Temperature,
		Response:        a.Raw,
		Success:         a.Failure() == recognize.FailureNone,
	}
	if !call.Success {
		call.Failure = string(a.Failure())
		call.Error = a.Err().Error()
	}
	return call
}
