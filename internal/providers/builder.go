package providers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Request is a fully formed provider call. Building one does no I/O.
type Request struct {
	ID       string
	Provider string
	Model    string
	Endpoint string
	Dialect  DialectKind
	Header   http.Header
	Payload  []byte
	Timeout  time.Duration
	APIKey   string
}

// Builder turns prompts into provider requests. The dialect is chosen once,
// when the builder is created.
type Builder struct {
	cfg     Config
	dialect Dialect
}

// NewBuilder creates a builder for cfg. Defaults are applied; the config is
// expected to have passed Resolve.
func NewBuilder(cfg Config) *Builder {
	cfg = cfg.WithDefaults()
	return &Builder{
		cfg:     cfg,
		dialect: DialectFor(cfg.Dialect),
	}
}

// Config returns the effective configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

// Dialect returns the selected dialect.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Build assembles a request for p.
func (b *Builder) Build(p Prompt) (*Request, error) {
	if len(p.Image) == 0 {
		return nil, fmt.Errorf("prompt has no image")
	}
	if p.Instruction == "" {
		return nil, fmt.Errorf("prompt has no instruction")
	}
	if p.MIME == "" {
		p.MIME = "image/jpeg"
	}

	payload, err := b.dialect.BuildPayload(Sampling{
		Model:       b.cfg.Model,
		Temperature: b.cfg.Temperature,
		MaxTokens:   b.cfg.MaxTokens,
	}, p)
	if err != nil {
		return nil, err
	}

	return &Request{
		ID:       uuid.New().String(),
		Provider: b.cfg.Provider,
		Model:    b.cfg.Model,
		Endpoint: b.cfg.Endpoint,
		Dialect:  b.dialect.Kind(),
		Header:   b.dialect.BuildHeaders(b.cfg.APIKey),
		Payload:  payload,
		Timeout:  b.cfg.Timeout,
		APIKey:   b.cfg.APIKey,
	}, nil
}
