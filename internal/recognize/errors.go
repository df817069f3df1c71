package recognize

import "fmt"

// ExhaustedError is returned when every attempt was rejected. Reason is the
// diagnostic of the last attempt.
type ExhaustedError struct {
	Attempts int
	Reason   string
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no acceptable result after %d attempts: %s", e.Attempts, e.Reason)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
