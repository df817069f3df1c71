package prompts

import (
	_ "embed"
	"log/slog"
)

//go:embed analysis_system.tmpl
var analysisSystemPrompt string

//go:embed derive.tmpl
var derivePrompt string

//go:embed refine.tmpl
var refinePrompt string

// Refinement is the data the refine template renders from.
type Refinement struct {
	ProfileJSON string
	Feedback    string
}

// DeriveInstruction returns the profile analysis instruction.
func (r *Resolver) DeriveInstruction() (string, error) {
	return r.Execute(KeyDerive, nil)
}

// RefineInstruction renders the refinement instruction.
func (r *Resolver) RefineInstruction(ref Refinement) (string, error) {
	return r.Execute(KeyRefine, ref)
}

func registerAnalysis(r *Resolver) {
	r.Register(EmbeddedPrompt{
		Key:         KeyAnalysisSystem,
		Text:        analysisSystemPrompt,
		Description: "Profile analysis system prompt - infers table structure, returns JSON",
	})
	r.Register(EmbeddedPrompt{
		Key:         KeyDerive,
		Text:        derivePrompt,
		Description: "Profile derivation from a trial image",
	})
	r.Register(EmbeddedPrompt{
		Key:         KeyRefine,
		Text:        refinePrompt,
		Description: "Profile refinement from user feedback",
	})
}

func registerDefaults(r *Resolver) {
	registerRecognition(r)
	registerAnalysis(r)
}

var defaultResolver = NewResolver("", slog.Default())

// Default returns the resolver holding only embedded prompts.
func Default() *Resolver {
	return defaultResolver
}

// RecognitionSystem returns the embedded recognition system prompt.
func RecognitionSystem() string {
	return recognitionSystemPrompt
}

// AnalysisSystem returns the embedded profile analysis system prompt.
func AnalysisSystem() string {
	return analysisSystemPrompt
}

// Render renders a recognition instruction from the embedded templates.
func Render(in Instruction) (string, error) {
	return defaultResolver.Render(in)
}
