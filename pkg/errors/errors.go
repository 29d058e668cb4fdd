// Package errors carries the application error taxonomy: a Code per failure
// class, its HTTP mapping, and the message a user gets to see.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
	CodeDeclined     Code = "CONFIRMATION_DECLINED"
)

// Metadata describes how a Code is surfaced over HTTP.
type Metadata struct {
	HTTPStatus    int
	Retryable     bool
	PublicMessage string
	// DetailsAllowed lets structured details reach the response body.
	DetailsAllowed bool
	// Exposed lets the error's own message replace PublicMessage.
	Exposed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true, Exposed: true},
	CodeUnauthorized: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required", Exposed: true},
	CodeForbidden:    {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied", Exposed: true},
	CodeNotFound:     {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", Exposed: true},
	CodeConflict:     {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", Exposed: true},
	CodeRateLimit:    {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "rate limit exceeded", Exposed: true},
	CodeInternal:     {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency:   {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},
	CodeDeclined:     {HTTPStatus: http.StatusOK, PublicMessage: "action cancelled"},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// CodeForStatus maps an HTTP response status onto the taxonomy.
func CodeForStatus(status int) Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimit
	}
	if status >= http.StatusInternalServerError {
		return CodeDependency
	}
	return CodeInternal
}

// APIDetail is attached to errors built from a non-2xx API response.
type APIDetail struct {
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Error is a coded failure with an optional cause and details payload.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// FromResponse builds the error for a failed API call; detail is the
// server's "detail" text and may be empty.
func FromResponse(status int, detail string) *Error {
	detail = strings.TrimSpace(detail)
	msg := detail
	if msg == "" {
		msg = fmt.Sprintf("api responded with status %d", status)
	}
	return New(CodeForStatus(status), msg).WithDetails(APIDetail{Status: status, Detail: detail})
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets the details payload and returns e.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(string(e.code))
	b.WriteString(": ")
	b.WriteString(e.message)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost *Error in err's chain has code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// StatusOf returns the HTTP status of an API failure, or 0 when err did not
// come from an API response.
func StatusOf(err error) int {
	if detail, ok := As(err).Details().(APIDetail); ok {
		return detail.Status
	}
	return 0
}

// UserMessage returns the text shown to the user for a failed action. The
// server's detail wins, then messages of validation and declined errors,
// then fallback.
func UserMessage(err error, fallback string) string {
	typed := As(err)
	if typed == nil {
		return fallback
	}
	if d, ok := typed.Details().(APIDetail); ok {
		if d.Detail != "" {
			return d.Detail
		}
		return fallback
	}
	if c := typed.Code(); (c == CodeValidation || c == CodeDeclined) && typed.Message() != "" {
		return typed.Message()
	}
	return fallback
}
