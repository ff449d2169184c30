package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ConnectionError means the request never produced an HTTP response:
// dial failure, reset connection or timeout.
type ConnectionError struct {
	Class CallClass
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("upstream %s call failed: %v", e.Class, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline
func (e *ConnectionError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// StatusError means upstream answered with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
}

// MalformedBodyError means a 2xx response whose body is not JSON
type MalformedBodyError struct {
	Err error
}

func (e *MalformedBodyError) Error() string {
	return fmt.Sprintf("upstream returned a malformed body: %v", e.Err)
}

func (e *MalformedBodyError) Unwrap() error {
	return e.Err
}

// GraphQLErrors carries the errors array upstream reported inside a 2xx
// envelope
type GraphQLErrors struct {
	Errors []GraphQLError
}

func (e *GraphQLErrors) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		messages = append(messages, ge.Message)
	}
	return fmt.Sprintf("upstream reported %d GraphQL error(s): %s", len(e.Errors), strings.Join(messages, "; "))
}
