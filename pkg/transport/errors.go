package transport

import "fmt"

// Error is returned for non-success responses and network failures.
// StatusCode is zero when no response was received.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind names the failure class.
func (e *Error) Kind() string {
	return "TransportError"
}

// ParseError is returned when a response body cannot be decoded.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Kind names the failure class.
func (e *ParseError) Kind() string {
	return "ParseError"
}

// RequestError is returned when a request cannot be built; nothing was sent.
type RequestError struct {
	Operation string
	Message   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid %s request: %s", e.Operation, e.Message)
}

// Kind names the failure class.
func (e *RequestError) Kind() string {
	return "RequestError"
}
