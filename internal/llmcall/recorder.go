package llmcall

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/jackzampolin/tabscan/internal/recognize"
)

// Recorder appends calls to a writer as JSON lines. It is safe for
// concurrent use. Write errors are logged, not returned; recording never
// fails a recognition.
type Recorder struct {
	mu     sync.Mutex
	enc    *json.Encoder
	count  int
	logger *slog.Logger
}

// NewRecorder creates a recorder writing to w. A nil w records nothing.
func NewRecorder(w io.Writer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{logger: logger}
	if w != nil {
		r.enc = json.NewEncoder(w)
	}
	return r
}

// RecordCall writes an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || r.enc == nil || call == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(call); err != nil {
		r.logger.Warn("failed to record call", "image", call.Image, "error", err)
		return
	}
	r.count++
}

// Observer returns a recognize.Observer that records every attempt.
func (r *Recorder) Observer(opts RecordOptions) recognize.Observer {
	return func(a recognize.Attempt) {
		r.RecordCall(FromAttempt(a, opts))
	}
}

// Count returns the number of calls written.
func (r *Recorder) Count() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
