package config

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry is one configuration key with its default and description.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every known key with its default. The manager
// registers these with viper so that env overrides apply to all of them.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		// LLM
		{Key: "llm.provider", Value: d.LLM.Provider, Description: "Provider ID from the built-in catalog"},
		{Key: "llm.model", Value: d.LLM.Model, Description: "Vision model name (or endpoint ID for doubao)"},
		{Key: "llm.api_key", Value: d.LLM.APIKey, Description: "API key, supports ${ENV_VAR}; empty falls back to the provider's env var"},
		{Key: "llm.base_url", Value: d.LLM.BaseURL, Description: "Full request URL; required for the custom provider"},
		{Key: "llm.temperature", Value: d.LLM.Temperature, Description: "Sampling temperature, capped at 0.2"},
		{Key: "llm.max_tokens", Value: d.LLM.MaxTokens, Description: "Maximum reply tokens"},
		{Key: "llm.timeout_seconds", Value: d.LLM.TimeoutSeconds, Description: "Timeout for one model call"},
		{Key: "llm.transport", Value: d.LLM.Transport, Description: "http (plain JSON POST) or sdk (vendor SDK client)"},

		// Recognition
		{Key: "recognition.max_retries", Value: d.Recognition.MaxRetries, Description: "Model calls allowed per image"},
		{Key: "recognition.profile_retries", Value: d.Recognition.ProfileRetries, Description: "Model calls allowed when deriving a profile"},

		// Batch
		{Key: "batch.pacing_ms", Value: d.Batch.PacingMS, Description: "Minimum gap between images in milliseconds"},
		{Key: "batch.source_column", Value: d.Batch.SourceColumn, Description: "Header of the trailing source-image column"},
		{Key: "batch.sheet_name", Value: d.Batch.SheetName, Description: "Worksheet name"},
		{Key: "batch.recursive", Value: d.Batch.Recursive, Description: "Descend into subdirectories"},
	}
}

// GetDefault returns the default entry for a key, or nil.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ValidateKey checks that key is well formed and known.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	if GetDefault(key) == nil {
		return fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	return nil
}
