package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"text/template"
)

// Resolver resolves prompts with file overrides.
// Resolution order: override file > embedded default
type Resolver struct {
	overrideDir string
	embedded    map[string]EmbeddedPrompt
	parsed      map[string]*template.Template // by text hash
	mu          sync.RWMutex
	logger      *slog.Logger
}

// NewResolver creates a resolver with all embedded prompts registered.
// An empty overrideDir disables overrides.
func NewResolver(overrideDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		overrideDir: overrideDir,
		embedded:    make(map[string]EmbeddedPrompt),
		parsed:      make(map[string]*template.Template),
		logger:      logger,
	}
	registerDefaults(r)
	return r
}

// Register registers an embedded prompt.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = Hash(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// Resolve returns the override file for key if one exists, otherwise the
// embedded default. An override that fails to parse as a template is skipped
// with a warning.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	r.mu.RLock()
	embedded, ok := r.embedded[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}

	if r.overrideDir != "" {
		path := filepath.Join(r.overrideDir, key+".tmpl")
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			text := string(data)
			if _, perr := r.template(key, text); perr != nil {
				r.logger.Warn("ignoring unparseable prompt override", "key", key, "path", path, "error", perr)
				break
			}
			return &ResolvedPrompt{
				Key:        key,
				Text:       text,
				Variables:  ExtractVariables(text),
				Hash:       Hash(text),
				IsOverride: true,
				Path:       path,
			}, nil
		case !errors.Is(err, fs.ErrNotExist):
			r.logger.Warn("failed to read prompt override", "key", key, "path", path, "error", err)
		}
	}

	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
	}, nil
}

// Text returns the resolved text for key, or "" if the key is unknown.
func (r *Resolver) Text(key string) string {
	p, err := r.Resolve(key)
	if err != nil {
		return ""
	}
	return p.Text
}

// Execute resolves key and executes it as a template with data.
func (r *Resolver) Execute(key string, data any) (string, error) {
	p, err := r.Resolve(key)
	if err != nil {
		return "", err
	}
	tmpl, err := r.template(key, p.Text)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt %s: %w", key, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", key, err)
	}
	return buf.String(), nil
}

func (r *Resolver) template(key, text string) (*template.Template, error) {
	h := Hash(text)
	r.mu.RLock()
	tmpl, ok := r.parsed[h]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := parseTemplate(key, text)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.parsed[h] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}

// GetEmbedded returns the embedded default for a key.
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// AllEmbedded returns all registered embedded prompts sorted by key.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}
