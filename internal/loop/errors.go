package loop

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// ErrMalformedPayload is returned when the service answers with a call URL
// payload that cannot be used.
var ErrMalformedPayload = errors.New("malformed call url payload")

// ErrRequestPending is returned by Fetch when a request is already in flight.
var ErrRequestPending = errors.New("a call url request is already pending")

// ErrSessionClosed is returned by Fetch after Close.
var ErrSessionClosed = errors.New("call url session is closed")

// TransientError wraps failures that are likely caused by temporary transport issues.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransientError reports whether the provided error (or any wrapped error) is transient.
func IsTransientError(err error) bool {
	var terr *TransientError
	return errors.As(err, &terr)
}

// ServiceError is a non-success answer from the call URL service.
type ServiceError struct {
	Status  int
	Code    int
	Errno   int
	Message string
}

func (e *ServiceError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "unexpected response"
	}
	if e.Errno != 0 {
		return fmt.Sprintf("call url service returned %d (errno %d): %s", e.Status, e.Errno, msg)
	}
	return fmt.Sprintf("call url service returned %d: %s", e.Status, msg)
}

// Retryable reports whether the service signalled a temporary condition.
func (e *ServiceError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

func wrapIfTransient(err error) error {
	if err == nil || IsTransientError(err) {
		return err
	}
	if isLikelyTransient(err) {
		return &TransientError{Err: err}
	}
	return err
}

func isLikelyTransient(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		return isLikelyTransient(urlErr.Err)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
