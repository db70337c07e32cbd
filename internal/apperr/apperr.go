// Package apperr classifies failures so callers can tell a bad request from a
// missing project from an unreachable store.
package apperr

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Kind identifies the category of a failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindFetch      Kind = "fetch"
	KindInternal   Kind = "internal"
)

// Error carries a Kind plus, for fetch failures, the input section that failed.
type Error struct {
	Kind    Kind
	Section string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if e.Section != "" {
		b.WriteString(" [")
		b.WriteString(e.Section)
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports input that was rejected before any computation.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing project header.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Fetch wraps an upstream store failure for the named input section.
func Fetch(section string, cause error) error {
	return &Error{Kind: KindFetch, Section: section, Msg: "fetch failed", Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// SectionOf returns the failed input section of a fetch error, if any.
func SectionOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Section
	}
	return ""
}

// IsTransient returns true if err matches common transient patterns (network
// timeouts, connection resets, DNS failures) anywhere in its chain.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"temporary failure in name resolution",
		"i/o timeout",
		"too many clients",
		"the database system is starting up",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindFetch:
		if IsTransient(err) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
