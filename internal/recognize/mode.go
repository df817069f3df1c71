package recognize

import (
	"errors"

	"github.com/jackzampolin/tabscan/internal/profile"
	"github.com/jackzampolin/tabscan/internal/prompts"
)

// ErrNoHeaders is returned when fixed-header recognition is asked for
// without headers.
var ErrNoHeaders = errors.New("fixed-header recognition requires at least one header")

// Mode is the acceptance target of a recognition run: what the instruction
// asks for and what width the reply must have.
type Mode struct {
	Kind    prompts.Mode
	Headers []string
	Profile *profile.Profile
}

// FreeformMode lets the model choose the header row.
func FreeformMode() Mode {
	return Mode{Kind: prompts.ModeFreeform}
}

// HeadersMode pins the header list and width.
func HeadersMode(headers []string) Mode {
	return Mode{Kind: prompts.ModeHeaders, Headers: headers}
}

// ProfileMode drives the instruction from a derived profile.
func ProfileMode(p *profile.Profile) Mode {
	m := Mode{Kind: prompts.ModeProfile, Profile: p}
	if p != nil {
		m.Headers = p.Headers
	}
	return m
}

// validate checks preconditions that no retry can fix.
func (m Mode) validate() error {
	switch m.Kind {
	case prompts.ModeFreeform:
		return nil
	case prompts.ModeHeaders:
		if len(m.Headers) == 0 {
			return ErrNoHeaders
		}
		return nil
	case prompts.ModeProfile:
		return m.Profile.Validate()
	default:
		return errors.New("unknown recognition mode " + m.Kind.String())
	}
}

// width is the required column count, or 0 when the model decides.
func (m Mode) width() int {
	if m.Kind == prompts.ModeFreeform {
		return 0
	}
	return len(m.Headers)
}

func (m Mode) instruction(attempt, hint int, previousError string) prompts.Instruction {
	in := prompts.Instruction{
		Mode:            m.Kind,
		Attempt:         attempt,
		ExpectedColumns: hint,
		PreviousError:   previousError,
		Headers:         m.Headers,
	}
	if m.Profile != nil {
		in.ColumnNotes = m.Profile.ColumnNotes
		in.RowRules = m.Profile.RowRules
		in.OutputRules = m.Profile.OutputRules
	}
	return in
}
