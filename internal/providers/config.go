package providers

import (
	"strings"
	"time"
)

const (
	// DefaultTemperature keeps transcription close to deterministic.
	DefaultTemperature = 0.01
	// MaxTemperature caps configured temperatures.
	MaxTemperature = 0.2
	// DefaultMaxTokens bounds the reply length.
	DefaultMaxTokens = 4096
	// DefaultTimeout bounds one network call.
	DefaultTimeout = 180 * time.Second
)

// Transport names accepted in Config.Transport.
const (
	TransportHTTP = "http"
	TransportSDK  = "sdk"
)

// Config selects a provider and its request parameters.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	Endpoint    string // full request URL; catalog default when empty
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Transport   string // "http" (default) or "sdk"
	Dialect     DialectKind
}

// WithDefaults returns a copy with zero values replaced by defaults and the
// temperature capped at MaxTemperature.
func (c Config) WithDefaults() Config {
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Temperature > MaxTemperature {
		c.Temperature = MaxTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Transport == "" {
		c.Transport = TransportHTTP
	}
	return c
}

// Resolve fills Endpoint and Dialect from the catalog, applies defaults, and
// validates the result.
func (c Config) Resolve(reg *Registry) (Config, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	c = c.WithDefaults()
	c.Provider = strings.TrimSpace(c.Provider)
	if info, ok := reg.Get(c.Provider); ok {
		if c.Endpoint == "" {
			c.Endpoint = info.Endpoint
		}
		if c.Dialect == "" {
			c.Dialect = info.Dialect
		}
	}
	if c.Dialect == "" {
		c.Dialect = DialectOpenAI
	}
	if err := c.Validate(reg); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the config against the catalog.
func (c Config) Validate(reg *Registry) error {
	if reg == nil {
		reg = NewRegistry()
	}
	if c.Provider == "" {
		return &ConfigError{Field: "provider", Reason: "no provider selected"}
	}
	info, ok := reg.Get(c.Provider)
	if !ok {
		return &ConfigError{Field: "provider", Reason: "unsupported provider " + c.Provider}
	}
	if c.APIKey == "" {
		return &ConfigError{Field: "api_key", Reason: "api key is required"}
	}
	if c.Model == "" {
		return &ConfigError{Field: "model", Reason: "model is required"}
	}
	if c.Endpoint == "" && info.Endpoint == "" {
		return &ConfigError{Field: "base_url", Reason: "endpoint is required for provider " + c.Provider}
	}
	if !info.Vision {
		return &ConfigError{Field: "provider", Reason: info.Name + " does not support image input"}
	}
	if c.Temperature < 0 || c.Temperature > MaxTemperature {
		return &ConfigError{Field: "temperature", Reason: "temperature must be between 0 and 0.2"}
	}
	switch c.Transport {
	case "", TransportHTTP, TransportSDK:
	default:
		return &ConfigError{Field: "transport", Reason: "unknown transport " + c.Transport}
	}
	return nil
}
