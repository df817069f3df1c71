package recognize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/tabscan/internal/imagesrc"
	"github.com/jackzampolin/tabscan/internal/profile"
	"github.com/jackzampolin/tabscan/internal/prompts"
	"github.com/jackzampolin/tabscan/internal/providers"
)

// DefaultProfileRetries is the Deriver attempt budget.
const DefaultProfileRetries = 2

// Deriver infers a reusable table profile from a trial image.
type Deriver struct {
	builder   *providers.Builder
	transport providers.Transport
	opts      options
}

// NewDeriver creates a deriver. WithRetries sets the attempt budget.
func NewDeriver(builder *providers.Builder, transport providers.Transport, opts ...Option) *Deriver {
	o := buildOptions(opts)
	if o.retries <= 0 {
		o.retries = DefaultProfileRetries
	}
	return &Deriver{builder: builder, transport: transport, opts: o}
}

// Derive asks the model to describe the table structure in img.
//
// Transport failures and unparseable replies are retried up to the budget.
// A reply that parses but violates the profile schema is terminal.
func (d *Deriver) Derive(ctx context.Context, img imagesrc.Image) (*profile.Profile, error) {
	instruction, err := d.opts.prompts.DeriveInstruction()
	if err != nil {
		return nil, err
	}
	return d.analyze(ctx, img, instruction, "derive")
}

// Refine revises base using free-text feedback. Blank feedback returns base
// without calling the model.
func (d *Deriver) Refine(ctx context.Context, img imagesrc.Image, base *profile.Profile, feedback string) (*profile.Profile, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("invalid base profile: %w", err)
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return base, nil
	}

	current, err := base.JSON()
	if err != nil {
		return nil, err
	}
	instruction, err := d.opts.prompts.RefineInstruction(prompts.Refinement{
		ProfileJSON: current,
		Feedback:    feedback,
	})
	if err != nil {
		return nil, err
	}
	return d.analyze(ctx, img, instruction, "refine")
}

func (d *Deriver) analyze(ctx context.Context, img imagesrc.Image, instruction, op string) (*profile.Profile, error) {
	logger := d.opts.logger.With("image", img.Name, "op", op)
	system := d.opts.prompts.Text(prompts.KeyAnalysisSystem)
	hash := shortHash(prompts.Hash(system + "\n" + instruction))

	req, err := d.builder.Build(providers.Prompt{
		System:      system,
		Instruction: instruction,
		Image:       img.Data,
		MIME:        img.MIME,
	})
	if err != nil {
		return nil, err
	}

	var (
		attempts int
		result   *profile.Profile
	)
	err = retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return retry.Unrecoverable(err)
			}
			attempts++

			start := time.Now()
			raw, err := providers.Complete(ctx, d.transport, req)
			latency := time.Since(start)
			if err != nil {
				logger.Info("profile attempt rejected", "attempt", attempts, "prompt_hash", hash, "latency", latency, "failure", "transport", "error", err)
				return err
			}

			p, err := profile.Parse(raw)
			if err != nil {
				logger.Info("profile attempt rejected", "attempt", attempts, "prompt_hash", hash, "latency", latency, "failure", "parse", "error", err)
				var schemaErr *profile.SchemaError
				if errors.As(err, &schemaErr) {
					return retry.Unrecoverable(err)
				}
				return err
			}

			result = p
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(d.opts.retries)),
		retry.Delay(0),
		retry.DelayType(func(uint, error, *retry.Config) time.Duration { return 0 }),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		logger.Warn("profile analysis failed", "attempts", attempts, "error", err)
		return nil, &ExhaustedError{Attempts: attempts, Reason: err.Error(), Err: err}
	}

	logger.Info("profile derived", "attempts", attempts, "columns", result.ColumnCount)
	return result, nil
}
