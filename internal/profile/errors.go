package profile

import "fmt"

// ParseError means the response held no decodable JSON object.
// Reissuing the same request may help, so callers retry on it.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("profile parse error: %s: %v", e.Reason, e.Err)
	}
	return "profile parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError means the object decoded but violates the profile schema.
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("profile schema error: %s: %v", e.Reason, e.Err)
	}
	return "profile schema error: " + e.Reason
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
