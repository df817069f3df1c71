package config

import (
	"errors"
	"testing"
)

func TestDefaultEntries(t *testing.T) {
	entries := DefaultEntries()

	if len(entries) == 0 {
		t.Fatal("DefaultEntries() returned empty slice")
	}

	requiredKeys := []string{
		"llm.provider",
		"llm.model",
		"llm.api_key",
		"llm.base_url",
		"llm.transport",
		"recognition.max_retries",
		"recognition.profile_retries",
		"batch.pacing_ms",
		"batch.source_column",
	}

	keys := make(map[string]bool)
	for _, e := range entries {
		if keys[e.Key] {
			t.Errorf("duplicate key %s", e.Key)
		}
		keys[e.Key] = true
		if e.Description == "" {
			t.Errorf("key %s has no description", e.Key)
		}
	}

	for _, key := range requiredKeys {
		if !keys[key] {
			t.Errorf("DefaultEntries() missing required key: %s", key)
		}
	}
}

func TestGetDefault(t *testing.T) {
	t.Run("existing_key", func(t *testing.T) {
		entry := GetDefault("recognition.max_retries")
		if entry == nil {
			t.Fatal("GetDefault() returned nil for existing key")
		}
		if entry.Value != 3 {
			t.Errorf("GetDefault() Value = %v, want 3", entry.Value)
		}
	})

	t.Run("non_existent_key", func(t *testing.T) {
		entry := GetDefault("does.not.exist")
		if entry != nil {
			t.Errorf("GetDefault() = %v, want nil for non-existent key", entry)
		}
	})
}

func TestValidateKey(t *testing.T) {
	tests := map[string]error{
		"llm.model":       nil,
		"":                ErrInvalidKey,
		"llm model":       ErrInvalidKey,
		".llm":            ErrInvalidKey,
		"llm.":            ErrInvalidKey,
		"llm.temperature": nil,
		"llm.voice":       ErrNoDefault,
	}
	for key, want := range tests {
		err := ValidateKey(key)
		if want == nil && err != nil {
			t.Errorf("ValidateKey(%q) = %v, want nil", key, err)
		}
		if want != nil && !errors.Is(err, want) {
			t.Errorf("ValidateKey(%q) = %v, want %v", key, err, want)
		}
	}
}
