// Package completion defines the boundary to generative-AI providers.
//
// A Gateway performs exactly one provider call per Complete. Failures are
// returned as *Error values carrying a Kind, so callers branch on the kind
// instead of inspecting provider-specific errors.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"chatbot/internal/prompt"
)

// Gateway is a single-shot client of a completion provider
type Gateway interface {
	// Dialect is the role vocabulary and preamble policy the provider expects
	Dialect() prompt.Dialect
	// Complete sends the payload and returns the generated text
	Complete(ctx context.Context, payload prompt.Payload) (string, error)
}

// Kind classifies a completion failure
type Kind int

const (
	KindUnknown Kind = iota
	KindUnavailable
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ErrEmptyCompletion is wrapped when a provider answers with no text
var ErrEmptyCompletion = errors.New("empty completion")

// Error is the failure value of every Gateway
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: provider %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: provider %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unavailable reports a transport-level failure
func Unavailable(provider string, err error) *Error {
	return &Error{Kind: KindUnavailable, Provider: provider, Err: err}
}

// Rejected reports an error status returned by the provider
func Rejected(provider string, status int, err error) *Error {
	return &Error{Kind: KindRejected, Provider: provider, StatusCode: status, Err: err}
}

// Unknown reports any other failure
func Unknown(provider string, err error) *Error {
	return &Error{Kind: KindUnknown, Provider: provider, Err: err}
}

// KindOf returns the kind of err, KindUnknown when err is not an *Error
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return KindUnknown
}

// Classify converts an arbitrary error into an *Error using transport heuristics.
// Provider-specific status errors must be handled by the caller first.
func Classify(provider string, err error) *Error {
	if err == nil {
		return nil
	}

	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Unavailable(provider, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Unavailable(provider, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return Unavailable(provider, err)
	}

	return Unknown(provider, err)
}

type timeoutGateway struct {
	next    Gateway
	timeout time.Duration
}

// WithTimeout bounds every Complete call. Expiry is reported as KindUnavailable.
// A non-positive timeout returns next unchanged.
func WithTimeout(next Gateway, timeout time.Duration) Gateway {
	if timeout <= 0 {
		return next
	}
	return &timeoutGateway{next: next, timeout: timeout}
}

func (g *timeoutGateway) Dialect() prompt.Dialect {
	return g.next.Dialect()
}

func (g *timeoutGateway) Complete(parent context.Context, payload prompt.Payload) (string, error) {
	ctx, cancel := context.WithTimeout(parent, g.timeout)
	defer cancel()

	text, err := g.next.Complete(ctx, payload)
	if err != nil {
		// Only our own deadline is reported as a timeout; a cancelled parent keeps its cause
		if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", Unavailable(g.next.Dialect().Name, fmt.Errorf("completion timed out after %s: %w", g.timeout, ctx.Err()))
		}
		return "", Classify(g.next.Dialect().Name, err)
	}
	return text, nil
}
