package normalize

import "fmt"

// DecodeError means a candidate could not be read as an image.
type DecodeError struct {
	File string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.File, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Rejection means a candidate decoded fine but failed the aspect gate or
// the minimum side floor. It is a skip, not a failure.
type Rejection struct {
	File   string
	Reason string
}

func (e *Rejection) Error() string {
	return fmt.Sprintf("skip %s: %s", e.File, e.Reason)
}
