package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Provider IDs known to the built-in catalog.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderDoubao    = "doubao"
	ProviderQwen      = "qwen"
	ProviderZhipu     = "zhipu"
	ProviderBaidu     = "baidu"
	ProviderTencent   = "tencent"
	ProviderDeepSeek  = "deepseek"
	ProviderMoonshot  = "moonshot"
	ProviderCustom    = "custom"
)

// ProviderInfo describes a model vendor.
type ProviderInfo struct {
	ID        string      `json:"id" yaml:"id"`
	Name      string      `json:"name" yaml:"name"`
	Endpoint  string      `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Models    []string    `json:"models,omitempty" yaml:"models,omitempty"`
	APIKeyEnv string      `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	Vision    bool        `json:"vision" yaml:"vision"`
	Dialect   DialectKind `json:"dialect" yaml:"dialect"`
	// EndpointModels means the model field holds a deployment/endpoint ID
	// rather than a public model name.
	EndpointModels bool `json:"endpoint_models,omitempty" yaml:"endpoint_models,omitempty"`
}

// Registry is the provider catalog. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ProviderInfo
	logger    *slog.Logger
}

// NewRegistry creates a registry seeded with the built-in catalog.
func NewRegistry() *Registry {
	r := &Registry{
		providers: make(map[string]ProviderInfo),
		logger:    slog.Default(),
	}
	for _, p := range builtinProviders() {
		r.providers[p.ID] = p
	}
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds or replaces a provider entry.
func (r *Registry) Register(p ProviderInfo) error {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return fmt.Errorf("provider id is required")
	}
	if p.Dialect == "" {
		p.Dialect = DialectOpenAI
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID] = p
	if r.logger != nil {
		r.logger.Debug("registered provider", "id", p.ID, "dialect", p.Dialect)
	}
	return nil
}

// Get returns a provider by ID.
func (r *Registry) Get(id string) (ProviderInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// Has checks if a provider is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// List returns all providers sorted by ID.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// DialectOf returns the wire dialect for a provider ID. Unknown and custom
// providers are OpenAI-compatible.
func (r *Registry) DialectOf(id string) DialectKind {
	if p, ok := r.Get(id); ok && p.Dialect != "" {
		return p.Dialect
	}
	return DialectOpenAI
}

func builtinProviders() []ProviderInfo {
	return []ProviderInfo{
		{
			ID:        ProviderOpenAI,
			Name:      "OpenAI",
			Endpoint:  "https://api.openai.com/v1/chat/completions",
			Models:    []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1", "gpt-4.1-mini"},
			APIKeyEnv: "OPENAI_API_KEY",
			Vision:    true,
			Dialect:   DialectOpenAI,
		},
		{
			ID:        ProviderAnthropic,
			Name:      "Anthropic",
			Endpoint:  "https://api.anthropic.com/v1/messages",
			Models:    []string{"claude-sonnet-4-20250514", "claude-3-5-sonnet-20241022", "claude-3-5-haiku-20241022"},
			APIKeyEnv: "ANTHROPIC_API_KEY",
			Vision:    true,
			Dialect:   DialectAnthropic,
		},
		{
			ID:             ProviderDoubao,
			Name:           "Doubao (ByteDance)",
			Endpoint:       "https://ark.cn-beijing.volces.com/api/v3/chat/completions",
			APIKeyEnv:      "ARK_API_KEY",
			Vision:         true,
			Dialect:        DialectOpenAI,
			EndpointModels: true,
		},
		{
			ID:        ProviderQwen,
			Name:      "Qwen (Alibaba)",
			Endpoint:  "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions",
			Models:    []string{"qwen-vl-max", "qwen-vl-plus"},
			APIKeyEnv: "DASHSCOPE_API_KEY",
			Vision:    true,
			Dialect:   DialectOpenAI,
		},
		{
			ID:        ProviderZhipu,
			Name:      "Zhipu AI",
			Endpoint:  "https://open.bigmodel.cn/api/paas/v4/chat/completions",
			Models:    []string{"glm-4v", "glm-4v-plus"},
			APIKeyEnv: "ZHIPU_API_KEY",
			Vision:    true,
			Dialect:   DialectOpenAI,
		},
		{
			ID:        ProviderBaidu,
			Name:      "Baidu ERNIE",
			Endpoint:  "https://aip.baidubce.com/rpc/2.0/ai_custom/v1/wenxinworkshop/chat",
			APIKeyEnv: "BAIDU_API_KEY",
			Vision:    false,
			Dialect:   DialectOpenAI,
		},
		{
			ID:        ProviderTencent,
			Name:      "Tencent Hunyuan",
			Endpoint:  "https://hunyuan.tencentcloudapi.com/v1/chat/completions",
			Models:    []string{"hunyuan-vision"},
			APIKeyEnv: "TENCENT_API_KEY",
			Vision:    true,
			Dialect:   DialectOpenAI,
		},
		{
			ID:        ProviderDeepSeek,
			Name:      "DeepSeek",
			Endpoint:  "https://api.deepseek.com/v1/chat/completions",
			Models:    []string{"deepseek-chat"},
			APIKeyEnv: "DEEPSEEK_API_KEY",
			Vision:    false,
			Dialect:   DialectOpenAI,
		},
		{
			ID:        ProviderMoonshot,
			Name:      "Moonshot (Kimi)",
			Endpoint:  "https://api.moonshot.cn/v1/chat/completions",
			Models:    []string{"moonshot-v1-8k", "moonshot-v1-32k", "moonshot-v1-128k"},
			APIKeyEnv: "MOONSHOT_API_KEY",
			Vision:    false,
			Dialect:   DialectOpenAI,
		},
		{
			ID:      ProviderCustom,
			Name:    "Custom (OpenAI-compatible)",
			Vision:  true,
			Dialect: DialectOpenAI,
		},
	}
}
