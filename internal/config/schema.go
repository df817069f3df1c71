package config

// Config holds tabscan configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLM         LLMConfig         `mapstructure:"llm" yaml:"llm"`
	Recognition RecognitionConfig `mapstructure:"recognition" yaml:"recognition"`
	Batch       BatchConfig       `mapstructure:"batch" yaml:"batch"`
}

// LLMConfig selects the vision model.
type LLMConfig struct {
	Provider       string  `mapstructure:"provider" yaml:"provider"`               // catalog ID, see `tabscan providers`
	Model          string  `mapstructure:"model" yaml:"model"`                     // model name or endpoint ID
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`                 // supports ${ENV_VAR}; empty uses the provider's env var
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`               // full request URL; empty uses the catalog endpoint
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`         // capped at 0.2
	MaxTokens      int     `mapstructure:"max_tokens" yaml:"max_tokens"`           // per response
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // per request
	Transport      string  `mapstructure:"transport" yaml:"transport"`             // "http" or "sdk"
}

// RecognitionConfig bounds model calls per image.
type RecognitionConfig struct {
	MaxRetries     int `mapstructure:"max_retries" yaml:"max_retries"`
	ProfileRetries int `mapstructure:"profile_retries" yaml:"profile_retries"`
}

// BatchConfig configures directory runs and the output workbook.
type BatchConfig struct {
	PacingMS     int    `mapstructure:"pacing_ms" yaml:"pacing_ms"`
	SourceColumn string `mapstructure:"source_column" yaml:"source_column"`
	SheetName    string `mapstructure:"sheet_name" yaml:"sheet_name"`
	Recursive    bool   `mapstructure:"recursive" yaml:"recursive"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o",
			APIKey:         "${OPENAI_API_KEY}",
			Temperature:    0.01,
			MaxTokens:      4096,
			TimeoutSeconds: 180,
			Transport:      "http",
		},
		Recognition: RecognitionConfig{
			MaxRetries:     3,
			ProfileRetries: 2,
		},
		Batch: BatchConfig{
			PacingMS:     500,
			SourceColumn: "Source Image",
			SheetName:    "Data",
			Recursive:    true,
		},
	}
}
