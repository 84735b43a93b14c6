// Package apierror classifies failures of calls to the job-board backend.
//
// Every *Error also matches one github.com/containerd/errdefs class through
// errors.Is, so callers can branch with errdefs.IsNotFound, errdefs.IsUnauthorized
// and friends without knowing this package.
package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/containerd/errdefs"
)

type Kind int

const (
	KindNetwork Kind = iota + 1
	KindAuthExpired
	KindValidation
	KindServer
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthExpired:
		return "auth_expired"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

const (
	FallbackMessage    = "Something went wrong. Please try again."
	networkMessage     = "Network error. Please check your connection."
	timeoutMessage     = "The request timed out. Please try again."
	authExpiredMessage = "Your session has expired. Please log in again."
	serverMessage      = "Server error. Please try again later."
	parseMessage       = "Unexpected response from server."
)

// Error is a classified backend failure. Message is always safe to show to a user.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil && e.Err.Error() != e.Message {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is maps the error kind onto the errdefs class it belongs to.
func (e *Error) Is(target error) bool {
	return target == e.class()
}

func (e *Error) class() error {
	switch e.Kind {
	case KindNetwork:
		return errdefs.ErrUnavailable
	case KindAuthExpired:
		return errdefs.ErrUnauthenticated
	case KindValidation:
		switch e.Status {
		case http.StatusForbidden:
			return errdefs.ErrPermissionDenied
		case http.StatusNotFound:
			return errdefs.ErrNotFound
		case http.StatusConflict:
			return errdefs.ErrConflict
		default:
			return errdefs.ErrInvalidArgument
		}
	case KindServer:
		return errdefs.ErrInternal
	case KindParse:
		return errdefs.ErrDataLoss
	default:
		return errdefs.ErrUnknown
	}
}

// Network reports a transport failure: no response was received.
func Network(op string, err error) *Error {
	msg := networkMessage
	if errors.Is(err, context.DeadlineExceeded) {
		msg = timeoutMessage
	}
	return &Error{Kind: KindNetwork, Op: op, Message: msg, Err: err}
}

// AuthExpired reports a 401 that could not be recovered by a token refresh.
func AuthExpired(op string, err error) *Error {
	return &Error{Kind: KindAuthExpired, Op: op, Status: http.StatusUnauthorized, Message: authExpiredMessage, Err: err}
}

// Parse reports a response whose shape does not match what the endpoint promises.
func Parse(op string, err error) *Error {
	return &Error{Kind: KindParse, Op: op, Message: parseMessage, Err: err}
}

// FromResponse classifies a non-2xx status. It returns nil for 2xx.
// The server's "message" field is used verbatim when present.
func FromResponse(op string, status int, body []byte) *Error {
	if status >= 200 && status < 300 {
		return nil
	}

	serverMsg := MessageFromBody(body)
	e := &Error{Op: op, Status: status, Message: serverMsg}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuthExpired
		if e.Message == "" {
			e.Message = authExpiredMessage
		}
	case status >= 500:
		e.Kind = KindServer
		if e.Message == "" {
			e.Message = serverMessage
		}
	default:
		e.Kind = KindValidation
		if e.Message == "" {
			e.Message = fmt.Sprintf("Request failed with status %d.", status)
		}
	}
	if serverMsg != "" {
		e.Err = errors.New(serverMsg)
	}
	return e
}

// MessageFromBody extracts a top-level "message" string from a JSON body.
func MessageFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.Message)
}

// Message returns the user-facing message of err, or fallback when err is not
// classified or carries no message.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// KindOf returns the kind of err, or 0 when err is not classified.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

func IsAuthExpired(err error) bool { return KindOf(err) == KindAuthExpired }

// IsSessionExpired is an alias of IsAuthExpired.
func IsSessionExpired(err error) bool { return IsAuthExpired(err) }

func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }
