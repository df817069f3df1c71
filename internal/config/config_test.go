package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/tabscan/internal/providers"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected openai provider, got %s", cfg.LLM.Provider)
	}
	if cfg.Recognition.MaxRetries != 3 || cfg.Recognition.ProfileRetries != 2 {
		t.Errorf("unexpected retry defaults: %+v", cfg.Recognition)
	}
	if cfg.Pacing() != 500*time.Millisecond {
		t.Errorf("expected 500ms pacing, got %v", cfg.Pacing())
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})

	t.Run("expands inside a url", func(t *testing.T) {
		t.Setenv("TEST_HOST", "llm.internal")
		result := ResolveEnvVars("https://${TEST_HOST}/v1/chat/completions")
		if result != "https://llm.internal/v1/chat/completions" {
			t.Errorf("got %s", result)
		}
	})
}

func TestConfig_ResolveAPIKey(t *testing.T) {
	reg := providers.NewRegistry()

	t.Run("resolves env var reference", func(t *testing.T) {
		t.Setenv("TEST_TABSCAN_KEY", "sk-123")
		cfg := &Config{LLM: LLMConfig{Provider: "openai", APIKey: "${TEST_TABSCAN_KEY}"}}
		if got := cfg.ResolveAPIKey(reg); got != "sk-123" {
			t.Errorf("expected sk-123, got %s", got)
		}
	})

	t.Run("returns literal value", func(t *testing.T) {
		cfg := &Config{LLM: LLMConfig{Provider: "openai", APIKey: "direct-key"}}
		if got := cfg.ResolveAPIKey(reg); got != "direct-key" {
			t.Errorf("expected direct-key, got %s", got)
		}
	})

	t.Run("falls back to provider env var", func(t *testing.T) {
		t.Setenv("DASHSCOPE_API_KEY", "ds-key")
		cfg := &Config{LLM: LLMConfig{Provider: "qwen"}}
		if got := cfg.ResolveAPIKey(reg); got != "ds-key" {
			t.Errorf("expected ds-key, got %s", got)
		}
	})
}

func TestConfig_ProviderConfig(t *testing.T) {
	reg := providers.NewRegistry()

	t.Run("resolves catalog endpoint and dialect", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.Provider = "anthropic"
		cfg.LLM.Model = "claude-sonnet-4-20250514"
		cfg.LLM.APIKey = "ak"
		cfg.LLM.Temperature = 0.9

		pc, err := cfg.ProviderConfig(reg)
		if err != nil {
			t.Fatalf("ProviderConfig() error = %v", err)
		}
		if pc.Endpoint != "https://api.anthropic.com/v1/messages" || pc.Dialect != providers.DialectAnthropic {
			t.Errorf("pc = %+v", pc)
		}
		if pc.Temperature != providers.MaxTemperature {
			t.Errorf("temperature = %v, want capped", pc.Temperature)
		}
		if pc.Timeout != 180*time.Second {
			t.Errorf("timeout = %v", pc.Timeout)
		}
	})

	t.Run("custom requires base_url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.Provider = "custom"
		cfg.LLM.APIKey = "k"

		_, err := cfg.ProviderConfig(reg)
		var cfgErr *providers.ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "base_url" {
			t.Fatalf("error = %v, want base_url ConfigError", err)
		}

		cfg.LLM.BaseURL = "http://localhost:8000/v1/chat/completions"
		if _, err := cfg.ProviderConfig(reg); err != nil {
			t.Errorf("with base_url: %v", err)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "${DEFINITELY_NOT_SET_12345}"
		_, err := cfg.ProviderConfig(reg)
		var cfgErr *providers.ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "api_key" {
			t.Errorf("error = %v, want api_key ConfigError", err)
		}
	})
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
llm:
  provider: zhipu
  model: glm-4v
recognition:
  max_retries: 5
`)

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.LLM.Provider != "zhipu" || cfg.LLM.Model != "glm-4v" {
			t.Errorf("llm = %+v", cfg.LLM)
		}
		if cfg.Recognition.MaxRetries != 5 {
			t.Errorf("expected 5 retries, got %d", cfg.Recognition.MaxRetries)
		}
		// Unset keys keep their defaults.
		if cfg.Recognition.ProfileRetries != 2 || cfg.Batch.SheetName != "Data" {
			t.Errorf("defaults lost: %+v %+v", cfg.Recognition, cfg.Batch)
		}
		if mgr.File() != configFile {
			t.Errorf("File() = %s", mgr.File())
		}
	})

	t.Run("empty file matches defaults", func(t *testing.T) {
		mgr, err := NewManager(writeConfig(t, ""))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if !reflect.DeepEqual(mgr.Get(), DefaultConfig()) {
			t.Errorf("Get() = %+v, want %+v", mgr.Get(), DefaultConfig())
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("TABSCAN_LLM_MODEL", "gpt-4.1")
		t.Setenv("TABSCAN_BATCH_PACING_MS", "0")
		mgr, err := NewManager(writeConfig(t, "llm:\n  model: gpt-4o\n"))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		cfg := mgr.Get()
		if cfg.LLM.Model != "gpt-4.1" || cfg.Batch.PacingMS != 0 {
			t.Errorf("cfg = %+v", cfg)
		}
		v, err := mgr.Value("llm.model")
		if err != nil || v != "gpt-4.1" {
			t.Errorf("Value() = %v, %v", v, err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		if _, err := NewManager(writeConfig(t, "llm: [unclosed")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestManager_Value(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Value("llm.voice"); !errors.Is(err, ErrNoDefault) {
		t.Errorf("unknown key error = %v", err)
	}
	v, err := mgr.Value("batch.sheet_name")
	if err != nil || v != "Data" {
		t.Errorf("Value() = %v, %v", v, err)
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				cfg := mgr.Get()
				_ = cfg.LLM.Model
			}
			done <- struct{}{}
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "llm:\n  model: initial-model\n")

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	if got := mgr.Get().LLM.Model; got != "initial-model" {
		t.Errorf("initial value mismatch: expected initial-model, got %s", got)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.LLM.Model)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("llm:\n  model: updated-model\n"), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().LLM.Model; got != "updated-model" {
		t.Errorf("config not updated: expected updated-model, got %s", got)
	}
	if v := lastValue.Load(); v != "updated-model" {
		t.Errorf("callback received wrong value: expected updated-model, got %v", v)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if !reflect.DeepEqual(mgr.Get(), DefaultConfig()) {
		t.Errorf("round trip = %+v", mgr.Get())
	}
}
