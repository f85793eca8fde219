package middleware

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/latticehttp/corekit/core/event"
)

var logger *zap.Logger = zap.NewNop()

// SetLogger lets the engine install a real *zap.Logger; the default is a
// no-op sink so this package has no hard startup-ordering dependency on
// the logging package.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

func logRequest(e *event.Event) {
	logger.Info("request", zap.String("method", e.Method.String()), zap.String("path", e.Path()))
}

func applyCORSHeaders(e *event.Event) {
	e.SetResponseHeader("Access-Control-Allow-Origin", "*")
	e.SetResponseHeader("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	e.SetResponseHeader("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func applySecurityHeaders(e *event.Event) {
	e.SetResponseHeader("X-Content-Type-Options", "nosniff")
	e.SetResponseHeader("X-Frame-Options", "DENY")
	e.SetResponseHeader("X-XSS-Protection", "1; mode=block")
}

// Logger logs one structured line per request. Outside the chain's fast
// path this runs through the generic entry loop like any other
// middleware; the fast path inlines the same behavior directly.
func Logger() HandlerFunc {
	return func(e *event.Event) (Result, error) {
		logRequest(e)
		return Continue, nil
	}
}

// CORS sets the three standard CORS headers, short-circuiting OPTIONS
// requests with a 204.
func CORS() HandlerFunc {
	return func(e *event.Event) (Result, error) {
		applyCORSHeaders(e)
		if e.Method == event.MethodOPTIONS {
			_ = e.SendBytes(204, "text/plain", nil, false)
			return TerminateEarly, nil
		}
		return Continue, nil
	}
}

// Security sets a conservative default set of security response headers.
func Security() HandlerFunc {
	return func(e *event.Event) (Result, error) {
		applySecurityHeaders(e)
		return Continue, nil
	}
}

const timingContextKey = "__timing_start_ns"

// Timing records the current time into the Event's context so TimingEnd
// can compute an elapsed duration later in the chain.
func Timing() HandlerFunc {
	return func(e *event.Event) (Result, error) {
		e.SetContextInt64(timingContextKey, time.Now().UnixNano())
		return Continue, nil
	}
}

// TimingEnd reads the start time Timing recorded and writes an
// X-Response-Time header in milliseconds. It is a no-op (not an error)
// if Timing was never registered, since a missing start time is a setup
// mistake, not a per-request failure worth aborting the response for.
func TimingEnd() HandlerFunc {
	return func(e *event.Event) (Result, error) {
		start, ok := e.GetContextInt64(timingContextKey)
		if !ok {
			return Continue, nil
		}
		elapsedMS := float64(time.Now().UnixNano()-start) / float64(time.Millisecond)
		e.SetResponseHeader("X-Response-Time", strconv.FormatFloat(elapsedMS, 'f', 3, 64)+"ms")
		return Continue, nil
	}
}

// RequestID stamps a UUID-backed request identifier onto both the
// request headers (so downstream handlers can read it back via
// GetHeader) and the response. An atomic counter would be cheaper but
// isn't useful across process restarts or for correlating logs between
// independent servers; a real UUID is.
func RequestID() HandlerFunc {
	return func(e *event.Event) (Result, error) {
		id := uuid.NewString()
		e.SetHeader("X-Request-ID", id)
		e.SetResponseHeader("X-Request-ID", id)
		return Continue, nil
	}
}

// RateLimit is a placeholder: registering it tags the chain's shape
// but it does not actually throttle anything.
func RateLimit(requestsPerSecond int) HandlerFunc {
	_ = requestsPerSecond
	return func(e *event.Event) (Result, error) {
		return Continue, nil
	}
}
