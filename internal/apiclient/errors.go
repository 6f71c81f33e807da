package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a call failed.
type Kind string

const (
	// KindTransientServer is a 5xx that survived every retry.
	KindTransientServer Kind = "transient_server_error"
	// KindAuthExpired is a 401 that could not be recovered by a refresh.
	KindAuthExpired Kind = "auth_expired"
	// KindClient is any other 4xx. Never retried.
	KindClient Kind = "client_error"
	// KindNetwork means no response was received.
	KindNetwork Kind = "network_failure"
)

// ErrRefreshFailed wraps every failed credential refresh.
var ErrRefreshFailed = errors.New("apiclient: credential refresh failed")

// Error is returned by Send for every unresolved failure.
type Error struct {
	Kind       Kind
	StatusCode int
	Method     string
	Path       string
	// Body is the upstream response body, when there was one.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("apiclient: %s %s: %s", e.Method, e.Path, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (%d %s)", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Message extracts the upstream's {"message": ...} or {"error": ...} text, if any.
func (e *Error) Message() string {
	return upstreamMessage(e.Body)
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
