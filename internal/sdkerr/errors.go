// Package sdkerr classifies the failures the Commserve object model can report.
package sdkerr

import (
	"errors"
	"fmt"
)

// Kind is the classification of an SDK error.
type Kind string

const (
	// KindTransport means the request could not be completed or the
	// Commserve answered with a non-success HTTP status.
	KindTransport Kind = "transport"

	// KindMalformedResponse means the body was empty or did not carry the
	// keys the operation expects.
	KindMalformedResponse Kind = "malformed_response"

	// KindServer means the Commserve reported a non-zero error code.
	KindServer Kind = "server"

	KindInvalidArgument   Kind = "invalid_argument"
	KindNotFound          Kind = "not_found"
	KindAlreadyExists     Kind = "already_exists"
	KindInvalidTimeFormat Kind = "invalid_time_format"
	KindTimeNotInFuture   Kind = "time_not_in_future"

	// KindIndex means an indexed registry lookup matched neither a name nor an id.
	KindIndex Kind = "index"

	// KindUnsupported means no implementation is registered for a discriminator.
	KindUnsupported Kind = "unsupported"
)

// Sentinels for errors.Is comparisons by kind.
var (
	ErrTransport         = &Error{Kind: KindTransport}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrServer            = &Error{Kind: KindServer}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists}
	ErrInvalidTimeFormat = &Error{Kind: KindInvalidTimeFormat}
	ErrTimeNotInFuture   = &Error{Kind: KindTimeNotInFuture}
	ErrIndex             = &Error{Kind: KindIndex}
	ErrUnsupported       = &Error{Kind: KindUnsupported}
)

// Error is a classified SDK error.
type Error struct {
	Kind Kind

	// Entity names the kind of object involved ("Agent", "Subclient", ...).
	Entity string

	Message string

	// Key is the name, id or discriminator the failure is about.
	Key string

	// Code is the Commserve error code for KindServer errors.
	Code int

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Entity != "" {
		msg = e.Entity + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsPrecondition reports whether err was raised by a local check before any
// request was sent.
func IsPrecondition(err error) bool {
	switch KindOf(err) {
	case KindInvalidArgument, KindNotFound, KindIndex, KindAlreadyExists,
		KindInvalidTimeFormat, KindTimeNotInFuture, KindUnsupported:
		return true
	}
	return false
}

// Transport wraps a failed or non-success request.
func Transport(entity, message string, err error) *Error {
	return &Error{Kind: KindTransport, Entity: entity, Message: message, Err: err}
}

// Malformed reports a response that lacks the expected structure.
func Malformed(entity, message string) *Error {
	return &Error{Kind: KindMalformedResponse, Entity: entity, Message: message}
}

// Server reports an error code returned by the Commserve, keeping its message verbatim.
func Server(entity string, code int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("error code %d", code)
	}
	return &Error{Kind: KindServer, Entity: entity, Message: message, Code: code}
}

// InvalidArgument reports a rejected caller input.
func InvalidArgument(entity, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidArgument, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a name that is not in a registry.
func NotFound(entity, key string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Key: key, Message: fmt.Sprintf("%q does not exist", key)}
}

// AlreadyExists reports a name that is already present in a registry.
func AlreadyExists(entity, key string) *Error {
	return &Error{Kind: KindAlreadyExists, Entity: entity, Key: key, Message: fmt.Sprintf("%q already exists", key)}
}

// Index reports a lookup value that is neither a known name nor a known id.
func Index(entity, key string) *Error {
	return &Error{Kind: KindIndex, Entity: entity, Key: key, Message: fmt.Sprintf("no name or id matches %q", key)}
}

// InvalidTimeFormat reports a timestamp that does not parse with layout.
func InvalidTimeFormat(entity, value, layout string) *Error {
	return &Error{
		Kind:    KindInvalidTimeFormat,
		Entity:  entity,
		Key:     value,
		Message: fmt.Sprintf("time %q does not match format %q", value, layout),
	}
}

// TimeNotInFuture reports a timestamp that is not after the current time.
func TimeNotInFuture(entity, value string) *Error {
	return &Error{Kind: KindTimeNotInFuture, Entity: entity, Key: value, Message: fmt.Sprintf("time %q is not in the future", value)}
}

// Unsupported reports a discriminator with no registered implementation.
func Unsupported(entity, discriminator string) *Error {
	return &Error{
		Kind:    KindUnsupported,
		Entity:  entity,
		Key:     discriminator,
		Message: fmt.Sprintf("%q is not supported", discriminator),
	}
}
