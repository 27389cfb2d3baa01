package httpx

import (
	"context"
	"time"
)

type ctxKey string

const (
	// CtxKeyStart holds the time the request entered the middleware
	// chain; WriteResult derives the envelope's ms field from it.
	CtxKeyStart ctxKey = "request_start"
)

// WithStartTime records the request start time in the context.
func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, CtxKeyStart, t)
}

// StartTime returns the recorded request start time, if any.
func StartTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(CtxKeyStart).(time.Time)
	return t, ok
}

// ElapsedMs returns the milliseconds elapsed since the recorded start
// time, or 0 when no start time was recorded.
func ElapsedMs(ctx context.Context) float64 {
	start, ok := StartTime(ctx)
	if !ok {
		return 0
	}
	return float64(time.Since(start).Microseconds()) / 1000.0
}
