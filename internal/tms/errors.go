package tms

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth indicates the upstream login or session setup failed.
	ErrAuth = errors.New("tms authentication failed")
	// ErrUpstream indicates a trace call failed or returned an unusable body.
	ErrUpstream = errors.New("tms upstream error")
	// ErrPayload indicates a request form did not satisfy its schema.
	ErrPayload = errors.New("invalid tms payload")
)

const maxBodyExcerpt = 4096

// ResponseError describes an upstream response that could not be used.
// Body holds the raw response text, truncated, for operator diagnosis.
type ResponseError struct {
	Err    error
	Op     string
	Status int
	Reason string
	Body   string
}

func newResponseError(kind error, op string, status int, reason string, body []byte) *ResponseError {
	if len(body) > maxBodyExcerpt {
		body = body[:maxBodyExcerpt]
	}
	return &ResponseError{
		Err:    kind,
		Op:     op,
		Status: status,
		Reason: reason,
		Body:   string(body),
	}
}

func (e *ResponseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s (status %d)", e.Err, e.Op, e.Reason, e.Status)
	}
	return fmt.Sprintf("%s: %s: status %d", e.Err, e.Op, e.Status)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// Details returns the diagnostic text for err: the raw upstream body when err
// carries a ResponseError, otherwise the error message.
func Details(err error) string {
	var re *ResponseError
	if errors.As(err, &re) && re.Body != "" {
		return re.Body
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
