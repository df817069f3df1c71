package providers

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxErrorBody caps how much of a failed response body is kept in errors.
// The error text is fed back into the next prompt, so it must stay short.
const maxErrorBody = 512

// TransportError covers network failures, timeouts, and non-success HTTP
// statuses. Every TransportError is retryable from the caller's view.
type TransportError struct {
	Provider   string
	StatusCode int // 0 when no response was received
	Body       string
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("transport error")
	if e.Provider != "" {
		fmt.Fprintf(&b, " (%s)", e.Provider)
	}
	switch {
	case e.Timeout:
		b.WriteString(": request timed out")
	case e.StatusCode != 0:
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
		if e.Body != "" {
			fmt.Fprintf(&b, ": %s", e.Body)
		}
	}
	if e.Err != nil && e.StatusCode == 0 {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseShapeError means the provider answered but the envelope lacked the
// expected text content.
type ResponseShapeError struct {
	Dialect DialectKind
	Reason  string
	Err     error
}

func (e *ResponseShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected %s response: %s: %v", e.Dialect, e.Reason, e.Err)
	}
	return fmt.Sprintf("unexpected %s response: %s", e.Dialect, e.Reason)
}

func (e *ResponseShapeError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid provider configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid provider config: " + e.Reason
	}
	return fmt.Sprintf("invalid provider config: %s: %s", e.Field, e.Reason)
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
