package wrapx

import "net/http"

// Kind enumerates every expected failure class. The status mapping below
// is a total function over these values; adding a kind without extending
// the switch is caught by TestStatusCodeTotal.
type Kind int

const (
	// KindUnknown is the zero value and only appears when an Error is
	// constructed without a kind. It maps to Conflict's status code,
	// preserving the fallback the original service exposed.
	KindUnknown Kind = iota

	KindBadRequest
	KindConflict
	KindExpectationFailed
	KindForbidden
	KindGatewayTimeout
	KindInternalServerError
	KindNotFound
	KindServiceUnavailable
	KindUnauthorized
)

// Kinds lists every declared failure class, KindUnknown excluded.
var Kinds = []Kind{
	KindBadRequest,
	KindConflict,
	KindExpectationFailed,
	KindForbidden,
	KindGatewayTimeout,
	KindInternalServerError,
	KindNotFound,
	KindServiceUnavailable,
	KindUnauthorized,
}

// StatusCode maps the kind to its transport status code.
func (k Kind) StatusCode() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindExpectationFailed:
		return http.StatusExpectationFailed
	case KindForbidden:
		return http.StatusForbidden
	case KindGatewayTimeout:
		return http.StatusGatewayTimeout
	case KindInternalServerError:
		return http.StatusInternalServerError
	case KindNotFound:
		return http.StatusNotFound
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUnknown:
		return http.StatusConflict
	}
	return http.StatusConflict
}

// String returns the default feed for the kind.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "Bad Request"
	case KindConflict:
		return "Conflict"
	case KindExpectationFailed:
		return "Expectation Failed"
	case KindForbidden:
		return "Forbidden"
	case KindGatewayTimeout:
		return "Gateway Timeout"
	case KindInternalServerError:
		return "Internal Server Error"
	case KindNotFound:
		return "Not Found"
	case KindServiceUnavailable:
		return "Service Unavailable"
	case KindUnauthorized:
		return "Unauthorized"
	case KindUnknown:
		return "Unknown"
	}
	return "Unknown"
}

// Error is the tagged failure type carried by a Result.
type Error struct {
	Kind Kind
	Feed string // human-readable message shown to the caller
	Data any    // optional structured detail
	Code int    // optional explicit body-code override
}

// NewError builds an Error; an empty feed falls back to the kind's
// default message.
func NewError(kind Kind, feed string) *Error {
	if feed == "" {
		feed = kind.String()
	}
	return &Error{Kind: kind, Feed: feed}
}

// WithData attaches structured detail and returns the same Error.
func (e *Error) WithData(data any) *Error {
	e.Data = data
	return e
}

// WithCode overrides the numeric code reported in the envelope body
// (the transport status still follows the kind mapping).
func (e *Error) WithCode(code int) *Error {
	e.Code = code
	return e
}

// Error implements the error interface so an *Error can be logged or
// wrapped like any other Go error.
func (e *Error) Error() string { return e.Feed }
