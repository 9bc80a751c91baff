package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so callers can decide how to react
// without matching on message text.
type Kind string

const (
	// KindConfiguration marks missing or invalid credentials/endpoints.
	// Never retried; surfaced as an actionable message.
	KindConfiguration Kind = "configuration"
	// KindRemote marks a non-success status or malformed payload from the
	// completion backend.
	KindRemote Kind = "remote"
	// KindTimeout marks an expired completion call. Treated like KindRemote.
	KindTimeout Kind = "timeout"
	// KindEmptyResponse marks a successful backend reply with no usable text.
	KindEmptyResponse Kind = "empty_response"
	// KindMalformedReply marks a group-chat reply whose speaker prefix is
	// missing or unresolvable. The whole turn is discarded.
	KindMalformedReply Kind = "malformed_reply"
	// KindBusy marks a rejected trigger while a turn for the same character
	// is already in flight.
	KindBusy Kind = "busy"
)

// Error is the application error type. All failures that cross a component
// boundary are one of these.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// New creates an application error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an application error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *Error {
	return New(KindConfiguration, message)
}

// NewRemoteError creates a remote backend error
func NewRemoteError(message string) *Error {
	return New(KindRemote, message)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *Error {
	return New(KindTimeout, message)
}

// NewEmptyResponseError creates an empty-response error
func NewEmptyResponseError() *Error {
	return New(KindEmptyResponse, "AI response was empty")
}

// NewMalformedReplyError creates a malformed-reply error
func NewMalformedReplyError(message string) *Error {
	return New(KindMalformedReply, message)
}

// NewBusyError creates a busy error for a character with a turn in flight
func NewBusyError(name string) *Error {
	return Newf(KindBusy, "a reply for %s is already in progress", name)
}

// KindOf returns the kind of err, or the empty Kind for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err is an application error of the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
