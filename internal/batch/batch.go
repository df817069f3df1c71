// Package batch recognizes a directory of images into one spreadsheet.
//
// Images are processed one at a time in path order. A failed image is
// recorded and skipped; the run continues with the next one. The workbook
// is written only when at least one image produced rows.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jackzampolin/tabscan/internal/imagesrc"
	"github.com/jackzampolin/tabscan/internal/prompts"
	"github.com/jackzampolin/tabscan/internal/recognize"
	"github.com/jackzampolin/tabscan/internal/table"
)

// DefaultPacing is the minimum gap between two images.
const DefaultPacing = 500 * time.Millisecond

// ErrFreeform is returned when a batch is configured without fixed headers.
// Rows from different images must share one header row.
var ErrFreeform = errors.New("batch recognition requires headers or a profile")

// Sink receives accepted rows. *sheet.Writer implements it.
type Sink interface {
	Append(rows []table.Row, source string) error
	Save(path string) error
}

// Status of one image.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Item is the result for one image.
type Item struct {
	Path     string        `json:"path" yaml:"path"`
	Name     string        `json:"name" yaml:"name"`
	Status   Status        `json:"status" yaml:"status"`
	Attempts int           `json:"attempts" yaml:"attempts"`
	Rows     int           `json:"rows" yaml:"rows"`
	Reason   string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Report summarizes a run.
type Report struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Started   time.Time `json:"started" yaml:"started"`
	Finished  time.Time `json:"finished" yaml:"finished"`
	Items     []Item    `json:"items" yaml:"items"`
	Succeeded int       `json:"succeeded" yaml:"succeeded"`
	Failed    int       `json:"failed" yaml:"failed"`
	Output    string    `json:"output,omitempty" yaml:"output,omitempty"`
}

// Produced reports whether any image contributed rows.
func (r *Report) Produced() bool {
	return r.Succeeded > 0
}

// Config configures a Runner.
type Config struct {
	Recognizer *recognize.Recognizer
	Mode       recognize.Mode
	Sink       Sink
	Logger     *slog.Logger

	// MaxRetries per image; 0 uses recognize.DefaultMaxRetries.
	MaxRetries int

	// Pacing between images. Zero or negative disables pacing.
	Pacing time.Duration

	// RunID labels the report; generated when empty.
	RunID string
}

// Runner drives recognition over a list of images.
type Runner struct {
	recognizer *recognize.Recognizer
	mode       recognize.Mode
	sink       Sink
	retries    int
	runID      string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewRunner validates cfg and creates a runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Recognizer == nil {
		return nil, fmt.Errorf("batch requires a recognizer")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("batch requires a sink")
	}
	switch cfg.Mode.Kind {
	case prompts.ModeHeaders:
		if len(cfg.Mode.Headers) == 0 {
			return nil, recognize.ErrNoHeaders
		}
	case prompts.ModeProfile:
		if err := cfg.Mode.Profile.Validate(); err != nil {
			return nil, err
		}
	default:
		return nil, ErrFreeform
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		recognizer: cfg.Recognizer,
		mode:       cfg.Mode,
		sink:       cfg.Sink,
		retries:    cfg.MaxRetries,
		runID:      cfg.RunID,
		limiter:    rate.NewLimiter(pacingLimit(cfg.Pacing), 1),
		logger:     logger,
	}, nil
}

// SetPacing changes the gap between images. It is safe to call while Run is
// in progress and applies from the next image.
func (r *Runner) SetPacing(d time.Duration) {
	r.limiter.SetLimit(pacingLimit(d))
}

func pacingLimit(d time.Duration) rate.Limit {
	if d <= 0 {
		return rate.Inf
	}
	return rate.Every(d)
}

// Run processes paths in order and, if any image succeeded and out is set,
// saves the sink to out. The report is always returned. The error is non-nil
// only when the context ended the run early or the save failed.
func (r *Runner) Run(ctx context.Context, paths []string, out string) (*Report, error) {
	runID := r.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	report := &Report{
		RunID:   runID,
		Started: time.Now(),
		Items:   make([]Item, 0, len(paths)),
	}
	logger := r.logger.With("run_id", report.RunID)
	logger.Info("batch started", "images", len(paths), "mode", r.mode.Kind.String())

	var runErr error
	for i, path := range paths {
		if err := r.limiter.Wait(ctx); err != nil {
			runErr = err
			report.skipRemaining(paths[i:])
			break
		}

		item := r.process(ctx, path)
		report.add(item)
		logger.Info("image processed",
			"index", i+1,
			"total", len(paths),
			"image", item.Name,
			"status", item.Status,
			"rows", item.Rows,
			"attempts", item.Attempts,
		)

		if err := ctx.Err(); err != nil {
			runErr = err
			report.skipRemaining(paths[i+1:])
			break
		}
	}

	if report.Produced() && out != "" {
		if err := r.sink.Save(out); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to save %s: %w", out, err))
		} else {
			report.Output = out
		}
	}
	report.Finished = time.Now()

	logger.Info("batch finished",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"output", report.Output,
		"elapsed", report.Finished.Sub(report.Started),
	)
	return report, runErr
}

func (r *Runner) process(ctx context.Context, path string) Item {
	start := time.Now()
	item := Item{Path: path, Status: StatusFailed}

	img, err := imagesrc.Load(path)
	if err != nil {
		item.Name = filepath.Base(path)
		item.Reason = err.Error()
		item.Elapsed = time.Since(start)
		return item
	}
	item.Name = img.Name

	outcome := r.recognizer.Run(ctx, img, r.mode, r.retries)
	item.Attempts = outcome.Attempts
	item.Elapsed = time.Since(start)
	if !outcome.Accepted() {
		item.Reason = outcome.Reason
		return item
	}

	if err := r.sink.Append(outcome.Table.Rows, img.Name); err != nil {
		item.Reason = err.Error()
		return item
	}
	item.Status = StatusSucceeded
	item.Rows = outcome.Table.RowCount()
	return item
}

func (r *Report) add(item Item) {
	r.Items = append(r.Items, item)
	switch item.Status {
	case StatusSucceeded:
		r.Succeeded++
	case StatusFailed:
		r.Failed++
	}
}

func (r *Report) skipRemaining(paths []string) {
	for _, p := range paths {
		r.Items = append(r.Items, Item{Path: p, Status: StatusSkipped, Reason: "run cancelled"})
	}
}
