// Package wrapx defines the uniform result envelope every service
// operation returns. Expected failures travel as a typed *Error inside a
// Result instead of a Go error crossing the component boundary; the HTTP
// layer turns the Result into the wire envelope
// {success, code, ms, data, feed}.
package wrapx

// Result carries either a payload or an error, never both. A Result with
// neither populated is a programming bug, not a valid state.
type Result struct {
	Err  *Error
	Data any
}

// OK reports whether the result carries a payload.
func (r *Result) OK() bool { return r.Err == nil }

// Data wraps a success payload.
func Data(v any) *Result {
	return &Result{Data: v}
}

// Fail wraps an expected failure of the given kind.
func Fail(kind Kind, feed string) *Result {
	return &Result{Err: NewError(kind, feed)}
}

// FailErr wraps an already-built Error.
func FailErr(e *Error) *Result {
	return &Result{Err: e}
}

// Envelope is the JSON body written for every operation, success or not.
type Envelope struct {
	Success bool    `json:"success"`
	Code    int     `json:"code"`
	Ms      float64 `json:"ms"`
	Data    any     `json:"data"`
	Feed    *string `json:"feed"`
}

// Envelope renders the result into a transport status code and body.
// On failure the status comes from the kind mapping while the body code
// honours an explicit per-error override, matching the original wire
// behaviour.
func (r *Result) Envelope(ms float64) (int, Envelope) {
	if r.Err == nil {
		return 200, Envelope{
			Success: true,
			Code:    200,
			Ms:      ms,
			Data:    r.Data,
		}
	}

	status := r.Err.Kind.StatusCode()
	code := status
	if r.Err.Code != 0 {
		code = r.Err.Code
	}

	feed := r.Err.Feed
	return status, Envelope{
		Success: false,
		Code:    code,
		Ms:      ms,
		Data:    r.Err.Data,
		Feed:    &feed,
	}
}
