// Package apperror classifies failures so each layer can decide between
// degrading, retrying and surfacing an error.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

type Kind string

const (
	KindInput      Kind = "input"
	KindTransient  Kind = "transient"
	KindTerminal   Kind = "terminal"
	KindEvaluation Kind = "evaluation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
)

// Error carries a Kind plus the operation that failed.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Transient(op string, err error) *Error {
	return Wrap(KindTransient, op, err)
}

func Terminal(op string, err error) *Error {
	return Wrap(KindTerminal, op, err)
}

// content-policy markers used by the supported vendors
var policyMarkers = []string{
	"content_policy",
	"content policy",
	"safety",
	"blocked",
	"content_filter",
}

// FromStatus maps an upstream HTTP status to a Kind.
// 408, 429 and 5xx are retried; other 4xx are terminal. Policy markers are
// only read from client-error bodies so an overloaded upstream saying
// "temporarily blocked" is still retried.
func FromStatus(op string, status int, body string) *Error {
	msg := fmt.Sprintf("status %d: %s", status, truncate(body, 512))

	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return New(KindTransient, op, msg)
	case status >= 400:
		if isPolicyRejection(body) {
			return New(KindTerminal, op, "content policy rejection: "+msg)
		}
		return New(KindTerminal, op, msg)
	default:
		return New(KindTerminal, op, "unexpected "+msg)
	}
}

func isPolicyRejection(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range policyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// KindOf returns the Kind of err, inferring transient for timeouts and
// network failures that were never classified.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindTerminal
}

func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
