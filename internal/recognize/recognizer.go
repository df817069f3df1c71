// Package recognize runs the recognition retry loop and the profile deriver.
//
// Each image is one independent run: build an instruction, call the model,
// strip fencing, parse CSV, validate widths. A rejected attempt feeds its
// diagnostic into the next instruction until the attempt budget is spent.
package recognize

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/tabscan/internal/imagesrc"
	"github.com/jackzampolin/tabscan/internal/profile"
	"github.com/jackzampolin/tabscan/internal/prompts"
	"github.com/jackzampolin/tabscan/internal/providers"
	"github.com/jackzampolin/tabscan/internal/table"
)

// DefaultMaxRetries is the attempt budget when callers pass zero or less.
const DefaultMaxRetries = 3

// Option configures a Recognizer or Deriver.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	prompts  *prompts.Resolver
	observer Observer
	retries  int
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPrompts sets the prompt resolver used for system and instruction text.
func WithPrompts(r *prompts.Resolver) Option {
	return func(o *options) { o.prompts = r }
}

// WithObserver registers a callback for every attempt.
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

// WithRetries sets the Deriver attempt budget.
func WithRetries(n int) Option {
	return func(o *options) { o.retries = n }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.prompts == nil {
		o.prompts = prompts.Default()
	}
	return o
}

// Outcome is the result of one run. Table is set only when accepted.
type Outcome struct {
	Table    *table.Data
	Attempts int
	Reason   string
	Err      error
}

// Accepted reports whether the run produced a validated table.
func (o Outcome) Accepted() bool {
	return o.Table != nil
}

// Recognizer turns images into validated tables. It holds no per-image state
// and may be reused across a batch.
type Recognizer struct {
	builder   *providers.Builder
	transport providers.Transport
	opts      options
}

// New creates a recognizer.
func New(builder *providers.Builder, transport providers.Transport, opts ...Option) *Recognizer {
	return &Recognizer{
		builder:   builder,
		transport: transport,
		opts:      buildOptions(opts),
	}
}

// Run recognizes img under mode with at most maxRetries model calls.
//
// Hint handling between attempts:
//   - transport failure: hint unchanged
//   - parse failure: hint cleared
//   - validation failure: hint set to the observed header width
//
// The previous diagnostic is passed to every subsequent instruction.
func (r *Recognizer) Run(ctx context.Context, img imagesrc.Image, mode Mode, maxRetries int) Outcome {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if err := mode.validate(); err != nil {
		return Outcome{Reason: err.Error(), Err: err}
	}

	logger := r.opts.logger.With("image", img.Name, "mode", mode.Kind.String())
	system := r.opts.prompts.Text(prompts.KeyRecognitionSystem)

	var (
		attempts int
		hint     int
		diag     string
		accepted *table.Data
	)

	err := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return retry.Unrecoverable(err)
			}

			a := Attempt{
				Image:           img.Name,
				Index:           attempts,
				Mode:            mode.Kind,
				ExpectedColumns: hint,
				PreviousError:   diag,
			}

			data, err := r.attempt(ctx, img, mode, system, &a)
			if err != nil && a.Failure() == FailureNone {
				// The request could not be built; no call was made.
				return retry.Unrecoverable(err)
			}
			attempts++
			r.report(logger, a)

			switch a.Failure() {
			case FailureNone:
				data.Source = img.Name
				accepted = data
				return nil
			case FailureParse:
				hint = 0
			case FailureValidation:
				hint = len(data.Headers)
			}
			diag = a.Err().Error()
			return a.Err()
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxRetries)),
		retry.Delay(0),
		retry.DelayType(func(uint, error, *retry.Config) time.Duration { return 0 }),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("retrying recognition", "attempt", n+1, "error", err)
		}),
	)

	if err == nil && accepted != nil {
		logger.Info("table accepted", "attempts", attempts, "rows", accepted.RowCount(), "columns", accepted.ColumnCount)
		return Outcome{Table: accepted, Attempts: attempts}
	}

	reason := diag
	if cerr := ctx.Err(); cerr != nil {
		reason = cerr.Error()
		err = cerr
	} else if reason == "" && err != nil {
		reason = err.Error()
	}
	logger.Warn("recognition exhausted", "attempts", attempts, "reason", reason)
	return Outcome{
		Attempts: attempts,
		Reason:   reason,
		Err:      &ExhaustedError{Attempts: attempts, Reason: reason, Err: err},
	}
}

// attempt performs one model call and classifies the result on a. A non-nil
// error with no failure set on a means the request could not be built.
func (r *Recognizer) attempt(ctx context.Context, img imagesrc.Image, mode Mode, system string, a *Attempt) (*table.Data, error) {
	instruction, err := r.opts.prompts.Render(mode.instruction(a.Index, a.ExpectedColumns, a.PreviousError))
	if err != nil {
		return nil, err
	}
	a.PromptHash = prompts.Hash(system + "\n" + instruction)

	req, err := r.builder.Build(providers.Prompt{
		System:      system,
		Instruction: instruction,
		Image:       img.Data,
		MIME:        img.MIME,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := providers.Complete(ctx, r.transport, req)
	a.Latency = time.Since(start)
	if err != nil {
		a.TransportErr = err
		return nil, err
	}
	a.Raw = raw

	text := table.StripFencing(raw)
	a.CSV = text
	headers, rows, err := table.Parse(text)
	if err != nil {
		a.ParseErr = err
		return nil, err
	}

	data := &table.Data{
		Headers:     headers,
		Rows:        rows,
		ColumnCount: len(headers),
		Raw:         text,
	}
	if w := mode.width(); w > 0 {
		data.ColumnCount = w
	}
	if err := table.Validate(data); err != nil {
		a.ValidationErr = err
		return data, err
	}
	return data, nil
}

func (r *Recognizer) report(logger *slog.Logger, a Attempt) {
	attrs := []any{
		"attempt", a.Index + 1,
		"expected_columns", a.ExpectedColumns,
		"prompt_hash", shortHash(a.PromptHash),
		"latency", a.Latency,
	}
	if f := a.Failure(); f != FailureNone {
		logger.Info("attempt rejected", append(attrs, "failure", string(f), "error", a.Err())...)
	} else {
		logger.Debug("attempt completed", attrs...)
	}
	if r.opts.observer != nil {
		r.opts.observer(a)
	}
}

// RecognizeFreeform lets the model find the table and its header row.
func (r *Recognizer) RecognizeFreeform(ctx context.Context, img imagesrc.Image, maxRetries int) (*table.Data, error) {
	out := r.Run(ctx, img, FreeformMode(), maxRetries)
	if !out.Accepted() {
		return nil, out.Err
	}
	return out.Table, nil
}

// RecognizeWithHeaders pins headers and returns the accepted CSV text.
func (r *Recognizer) RecognizeWithHeaders(ctx context.Context, img imagesrc.Image, headers []string, maxRetries int) (string, error) {
	out := r.Run(ctx, img, HeadersMode(headers), maxRetries)
	if !out.Accepted() {
		return "", out.Err
	}
	return out.Table.Raw, nil
}

// RecognizeWithProfile drives the instruction from p and returns the
// accepted CSV text.
func (r *Recognizer) RecognizeWithProfile(ctx context.Context, img imagesrc.Image, p *profile.Profile, maxRetries int) (string, error) {
	out := r.Run(ctx, img, ProfileMode(p), maxRetries)
	if !out.Accepted() {
		return "", out.Err
	}
	return out.Table.Raw, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
