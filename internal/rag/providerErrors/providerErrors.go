package providerErrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind string

const (
	KindQuota       Kind = "quota"
	KindTimeout     Kind = "timeout"
	KindEmptyOutput Kind = "empty_output"
	KindGeneric     Kind = "generic"
)

// ErrEmptyOutput is returned by a generator that answered with nothing.
var ErrEmptyOutput = errors.New("model returned an empty answer")

// StatusError carries the HTTP status of a failed provider call.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := e.Provider + " returned " + http.StatusText(e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

var quotaMarkers = []string{"quota", "429", "rate limit", "ratelimit", "rate_limit", "too many requests", "resource_exhausted", "resource exhausted"}
var timeoutMarkers = []string{"timeout", "timed out", "deadline exceeded", "deadline_exceeded"}
var emptyMarkers = []string{"empty response", "empty answer", "empty output"}

// Classify looks at typed errors in the chain first and falls back to the error text.
func Classify(err error) Kind {
	if err == nil {
		return KindGeneric
	}

	if errors.Is(err, ErrEmptyOutput) {
		return KindEmptyOutput
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusPaymentRequired:
			return KindQuota
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return KindTimeout
		}
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted:
			return KindQuota
		case codes.DeadlineExceeded:
			return KindTimeout
		}
	}

	text := strings.ToLower(err.Error())
	switch {
	case containsAny(text, quotaMarkers):
		return KindQuota
	case containsAny(text, timeoutMarkers):
		return KindTimeout
	case containsAny(text, emptyMarkers):
		return KindEmptyOutput
	}
	return KindGeneric
}

// Retryable reports whether another attempt at the same provider could succeed.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch Classify(err) {
	case KindQuota, KindTimeout, KindEmptyOutput:
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.Internal, codes.Aborted:
			return true
		case codes.Unknown:
		default:
			return false
		}
	}

	text := strings.ToLower(err.Error())
	return containsAny(text, []string{"unavailable", "connection reset", "connection refused", "eof", "503", "502", "overloaded", "loading"})
}

// TypeName is the short error type shown to users next to the message. Plain wrapping
// and string errors are skipped so the provider's own error type is reported when there is one.
func TypeName(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "DeadlineExceeded"
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		name := strings.TrimPrefix(fmt.Sprintf("%T", e), "*")
		switch name {
		case "fmt.wrapError", "fmt.wrapErrors", "errors.errorString", "errors.joinError":
			continue
		}
		return name
	}
	return "Error"
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
