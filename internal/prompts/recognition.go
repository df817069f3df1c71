package prompts

import (
	_ "embed"
	"fmt"
)

//go:embed recognition_system.tmpl
var recognitionSystemPrompt string

//go:embed freeform.tmpl
var freeformPrompt string

//go:embed headers.tmpl
var headersPrompt string

//go:embed profile.tmpl
var profilePrompt string

// Mode selects the recognition instruction template.
type Mode int

const (
	// ModeFreeform lets the model find the table and use its own header row.
	ModeFreeform Mode = iota
	// ModeHeaders pins a literal header list and width.
	ModeHeaders
	// ModeProfile builds guidance sections from a derived profile.
	ModeProfile
)

func (m Mode) String() string {
	switch m {
	case ModeFreeform:
		return "freeform"
	case ModeHeaders:
		return "headers"
	case ModeProfile:
		return "profile"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) key() (string, error) {
	switch m {
	case ModeFreeform:
		return KeyFreeform, nil
	case ModeHeaders:
		return KeyHeaders, nil
	case ModeProfile:
		return KeyProfile, nil
	default:
		return "", fmt.Errorf("unknown instruction mode %d", int(m))
	}
}

// Instruction is the data a recognition template renders from.
type Instruction struct {
	Mode Mode
	// Attempt is zero-based; retries get reinforcement text.
	Attempt int
	// ExpectedColumns is a width hint for free-form mode. Zero means none.
	ExpectedColumns int
	// PreviousError is the diagnostic from the last failed attempt, appended verbatim.
	PreviousError string

	Headers     []string
	ColumnNotes []string
	RowRules    []string
	OutputRules []string
}

// ColumnCount is the pinned width for header and profile modes.
func (in Instruction) ColumnCount() int {
	return len(in.Headers)
}

// Retry reports whether this is a retry attempt.
func (in Instruction) Retry() bool {
	return in.Attempt > 0
}

// Render renders the instruction through r.
func (r *Resolver) Render(in Instruction) (string, error) {
	key, err := in.Mode.key()
	if err != nil {
		return "", err
	}
	if in.Mode != ModeFreeform && len(in.Headers) == 0 {
		return "", fmt.Errorf("%s instruction requires headers", in.Mode)
	}
	return r.Execute(key, in)
}

func registerRecognition(r *Resolver) {
	r.Register(EmbeddedPrompt{
		Key:         KeyRecognitionSystem,
		Text:        recognitionSystemPrompt,
		Description: "Recognition system prompt - table to CSV transcription rules",
	})
	r.Register(EmbeddedPrompt{
		Key:         KeyFreeform,
		Text:        freeformPrompt,
		Description: "Free-form recognition - model picks the header row and width",
	})
	r.Register(EmbeddedPrompt{
		Key:         KeyHeaders,
		Text:        headersPrompt,
		Description: "Fixed-header recognition - literal headers and exact width",
	})
	r.Register(EmbeddedPrompt{
		Key:         KeyProfile,
		Text:        profilePrompt,
		Description: "Profile-driven recognition - headers plus column, row and output rules",
	})
}
