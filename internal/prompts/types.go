// Package prompts provides prompt management with embedded defaults and
// file-based overrides.
//
// Embedded .tmpl files are the source of truth for defaults. A prompt can be
// customized by dropping <key>.tmpl into the override directory (usually
// ~/.tabscan/prompts). Resolution order:
//  1. Override file, if present and parseable
//  2. Embedded default
//
// Every resolved prompt carries a sha256 hash so a recognition attempt can be
// traced back to the exact text that produced it.
package prompts

// Prompt keys.
const (
	KeyRecognitionSystem = "recognition.system"
	KeyFreeform          = "recognition.freeform"
	KeyHeaders           = "recognition.headers"
	KeyProfile           = "recognition.profile"
	KeyAnalysisSystem    = "analysis.system"
	KeyDerive            = "analysis.derive"
	KeyRefine            = "analysis.refine"
)

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: recognition.headers
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key" yaml:"key"`
	Text       string   `json:"text" yaml:"text"`
	Variables  []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Hash       string   `json:"hash" yaml:"hash"`
	IsOverride bool     `json:"is_override" yaml:"is_override"`
	Path       string   `json:"path,omitempty" yaml:"path,omitempty"` // override file, when IsOverride
}
