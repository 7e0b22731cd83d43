package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Sentinel errors for the taxonomy. Typed errors below match them with errors.Is.
var (
	// ErrTransient marks a retryable transport failure.
	ErrTransient = errors.New("rpc: transient transport error")

	// ErrValidation marks malformed stack mutations or type/params alignment.
	ErrValidation = errors.New("rpc: validation error")

	// ErrNotFound marks an absent block, transaction or receipt.
	ErrNotFound = errors.New("rpc: not found")

	// ErrTimeoutExhausted marks a bounded wait that gave up.
	ErrTimeoutExhausted = errors.New("rpc: timeout exhausted")
)

// TransientKind classifies a transient transport failure.
type TransientKind int

const (
	// KindConnection covers refused, reset and otherwise failed connections.
	KindConnection TransientKind = iota
	// KindTimeout covers request and dial timeouts.
	KindTimeout
	// KindTooManyRedirects is returned when the HTTP redirect limit is hit.
	KindTooManyRedirects
	// KindHTTP covers non-2xx HTTP status responses.
	KindHTTP
)

func (k TransientKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindTooManyRedirects:
		return "too-many-redirects"
	case KindHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// TransientError is a transport failure the retry stage may retry.
type TransientError struct {
	Kind TransientKind
	Err  error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("rpc: %s error: %v", e.Kind, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransient) hold for every TransientError.
func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// IsTransient reports whether err is a retryable transport failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// ValidationError reports a malformed request to the pipeline itself.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Op, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validationf builds a ValidationError.
func Validationf(op, format string, args ...any) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that the node has no such object.
type NotFoundError struct {
	Kind string // block, transaction, receipt
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("rpc: %s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TimeoutExhaustedError reports that a polling helper stopped waiting.
// Last carries the most recent non-fatal error seen while polling, if any.
// It is not unwrapped: a wait that ran out of time never matches ErrNotFound.
type TimeoutExhaustedError struct {
	What    string
	Timeout time.Duration
	Last    error
}

func (e *TimeoutExhaustedError) Error() string {
	return fmt.Sprintf("rpc: gave up waiting for %s after %s", e.What, e.Timeout)
}

func (e *TimeoutExhaustedError) Is(target error) bool { return target == ErrTimeoutExhausted }

// ClassifyTransportError wraps err in a TransientError when it is one of the
// retryable transport failure kinds. Other errors are returned unchanged.
func ClassifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	var te *TransientError
	if errors.As(err, &te) {
		return err
	}

	var httpErr gethrpc.HTTPError
	if errors.As(err, &httpErr) {
		return &TransientError{Kind: KindHTTP, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransientError{Kind: KindTimeout, Err: err}
	}
	if strings.Contains(err.Error(), "stopped after") && strings.Contains(err.Error(), "redirects") {
		return &TransientError{Kind: KindTooManyRedirects, Err: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return &TransientError{Kind: KindConnection, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &TransientError{Kind: KindConnection, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransientError{Kind: KindConnection, Err: err}
	}
	return err
}
