package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrUnauthorized is wrapped by a ServerError carrying HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError is a local input problem detected before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NetworkError is a transport-level failure (DNS, refused connection, timeout).
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("network error during %s %s: %v", e.Op, redactURL(e.URL), e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request ran out of time.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// ServerError is a non-2xx response. Message holds the backend's "error" field
// when the body carried one.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

func (e *ServerError) Unwrap() error {
	if e.Status == 401 {
		return ErrUnauthorized
	}
	return nil
}

// MalformedResponseError means a 2xx response did not have the expected shape,
// e.g. JSON where audio was expected.
type MalformedResponseError struct {
	Reason      string
	ContentType string
}

func (e *MalformedResponseError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("invalid response (%s): %s", e.ContentType, e.Reason)
	}
	return "invalid response: " + e.Reason
}

func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}
	parsed.User = nil
	return parsed.String()
}
