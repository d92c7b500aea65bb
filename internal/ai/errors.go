package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

var ErrEmptyResponse = errors.New("empty response from model")

// Kind decides how the pipeline reacts to a failed call.
type Kind int

const (
	// Transient errors (rate limits, timeouts, 5xx) are retried.
	Transient Kind = iota
	// Permanent errors fail one chapter without retry.
	Permanent
	// Auth errors abort the whole run.
	Auth
	// Fatal errors (unknown model, unsupported provider) abort the whole run.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case Auth:
		return "auth"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Aborts reports whether errors of this kind recur on every chapter.
func (k Kind) Aborts() bool { return k == Auth || k == Fatal }

type ProviderError struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (HTTP %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf classifies any error returned by a Summarizer.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return classify(0, err)
}

func classifyStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return Auth
	case code == http.StatusNotFound:
		return Fatal
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code == http.StatusConflict:
		return Transient
	case code >= 500:
		return Transient
	}
	return Permanent
}

func classify(status int, err error) Kind {
	if status != 0 {
		return classifyStatus(status)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Transient
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return Transient
	}
	return Permanent
}

// wrapError builds a ProviderError from an SDK error and the HTTP status it
// carried, if any.
func wrapError(provider string, status int, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Kind: classify(status, err), StatusCode: status, Err: err}
}
