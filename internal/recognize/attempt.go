package recognize

import (
	"time"

	"github.com/jackzampolin/tabscan/internal/prompts"
)

// Failure classifies why an attempt was rejected.
type Failure string

const (
	FailureNone       Failure = ""
	FailureTransport  Failure = "transport"
	FailureParse      Failure = "parse"
	FailureValidation Failure = "validation"
)

// Attempt records one model call within a run. Attempts are logged and
// handed to the observer.
type Attempt struct {
	Image           string
	Index           int
	Mode            prompts.Mode
	ExpectedColumns int
	PreviousError   string
	PromptHash      string
	Raw             string
	CSV             string

	TransportErr  error
	ParseErr      error
	ValidationErr error

	Latency time.Duration
}

// Failure returns the failure kind, or FailureNone if the attempt was accepted.
func (a *Attempt) Failure() Failure {
	switch {
	case a.TransportErr != nil:
		return FailureTransport
	case a.ParseErr != nil:
		return FailureParse
	case a.ValidationErr != nil:
		return FailureValidation
	default:
		return FailureNone
	}
}

// Err returns whichever error rejected the attempt.
func (a *Attempt) Err() error {
	switch {
	case a.TransportErr != nil:
		return a.TransportErr
	case a.ParseErr != nil:
		return a.ParseErr
	default:
		return a.ValidationErr
	}
}

// Observer receives every attempt after it completes.
type Observer func(Attempt)
