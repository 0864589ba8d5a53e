package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures so the transport layer can pick a status code
// without looking at error text.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindThrottled
	KindUpstream
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindThrottled:
		return "throttled"
	case KindUpstream:
		return "upstream"
	case KindPersistence:
		return "persistence"
	default:
		return "internal"
	}
}

// Machine-readable error codes sent to clients.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeValidation     = "VALIDATION_ERROR"
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeEmptyMessage   = "EMPTY_MESSAGE"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUpstream       = "UPSTREAM_ERROR"
	CodePersistence    = "PERSISTENCE_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

var (
	ErrChatNotFound      = errors.New("chat not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrEmptyCompletion   = errors.New("completion service returned empty text")
	ErrMalformedEnvelope = errors.New("malformed request envelope")
	ErrSchemaViolation   = errors.New("request schema violation")
)

// Error is a classified failure. Message is safe to show to clients;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func Invalid(code, msg string, err error) *Error {
	return &Error{Kind: KindInvalid, Code: code, Message: msg, Err: err}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: msg}
}

func NotFound(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: msg, Err: err}
}

// Upstream marks a completion service failure. The client message is generic.
func Upstream(err error) *Error {
	return &Error{Kind: KindUpstream, Code: CodeUpstream, Message: "the assistant is temporarily unavailable", Err: err}
}

// Persistence marks a critical store failure. The client message is generic.
func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Code: CodePersistence, Message: msg, Err: err}
}

// Unauthenticated marks a request without a valid identity.
func Unauthenticated(err error) *Error {
	return &Error{Kind: KindUnauthenticated, Code: CodeUnauthorized, Message: "Authorization required", Err: err}
}

func Throttled() *Error {
	return &Error{Kind: KindThrottled, Code: CodeRateLimited, Message: "Too many requests. Please try again later."}
}
