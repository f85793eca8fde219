// Package middleware implements the ordered middleware chain that runs
// ahead of route lookup and a request's final handler, following the
// Pipeline/Execute/Use shape of an ordered, short-circuiting chain, with
// the synchronous execution model kept and an async worker-pool
// variant dropped (see DESIGN.md: it conflicts with this module's
// single-threaded-per-worker concurrency model).
package middleware

import (
	"errors"

	"github.com/latticehttp/corekit/core/event"
)

// ErrTooManyMiddlewares is a setup-time error: the chain enforces a hard
// 16-entry cap so the fast-path check below stays a cheap count compare.
var ErrTooManyMiddlewares = errors.New("middleware: chain exceeds maximum of 16 entries")

// ErrMiddleware wraps an error returned by a middleware's Handle call.
type ErrMiddleware struct {
	Kind Kind
	Err  error
}

func (e *ErrMiddleware) Error() string { return "middleware[" + e.Kind.String() + "]: " + e.Err.Error() }
func (e *ErrMiddleware) Unwrap() error { return e.Err }

// Result is what a middleware's Handle function returns.
type Result int

const (
	Continue Result = iota
	TerminateEarly
	Error
)

// Kind tags what a middleware entry does. The chain uses this tag to
// decide fast-path eligibility instead of comparing function pointers or
// method values, which is not a reliable identity test in Go — two
// closures built from the same function literal are not comparable at
// all, and bound method values compare unequal across calls even for the
// same receiver and method.
type Kind int

const (
	KindCustom Kind = iota
	KindLogger
	KindCORS
	KindSecurity
	KindTiming
)

func (k Kind) String() string {
	switch k {
	case KindLogger:
		return "logger"
	case KindCORS:
		return "cors"
	case KindSecurity:
		return "security"
	case KindTiming:
		return "timing"
	default:
		return "custom"
	}
}

// HandlerFunc is a middleware's body: given the in-flight Event, it
// returns how the chain should proceed.
type HandlerFunc func(e *event.Event) (Result, error)

type entry struct {
	kind    Kind
	handler HandlerFunc
}

const maxMiddlewares = 16

// Chain is an ordered list of up to 16 middlewares, each tagged with a
// Kind so the chain can precompute fast-path eligibility at registration
// time rather than re-deriving it on every request.
type Chain struct {
	entries []entry

	hasLogger   bool
	hasCORS     bool
	hasSecurity bool
	hasTiming   bool
}

// NewChain returns an empty Chain ready for Use calls.
func NewChain() *Chain {
	return &Chain{entries: make([]entry, 0, maxMiddlewares)}
}

// Use appends a middleware tagged with its Kind. Registration order is
// execution order.
func (c *Chain) Use(kind Kind, handler HandlerFunc) error {
	if len(c.entries) >= maxMiddlewares {
		return ErrTooManyMiddlewares
	}
	c.entries = append(c.entries, entry{kind: kind, handler: handler})
	switch kind {
	case KindLogger:
		c.hasLogger = true
	case KindCORS:
		c.hasCORS = true
	case KindSecurity:
		c.hasSecurity = true
	case KindTiming:
		c.hasTiming = true
	}
	return nil
}

// Len reports the number of registered middlewares.
func (c *Chain) Len() int { return len(c.entries) }

// fastPathEligible mirrors this module's documented fast path: at most 3
// middlewares, with logger and CORS both present and the only possible
// third entry being security. Any other shape (e.g. a custom or timing
// middleware alongside logger+CORS) falls through to the general loop so
// that entry is never silently skipped.
func (c *Chain) fastPathEligible() bool {
	if !c.hasLogger || !c.hasCORS {
		return false
	}
	switch len(c.entries) {
	case 2:
		return true
	case 3:
		return c.hasSecurity
	default:
		return false
	}
}

// Execute runs every middleware in registration order against e, then —
// unless a middleware short-circuited — the final handler. On
// TerminateEarly, neither later middlewares nor the final handler run,
// and Execute returns nil. On Error, Execute returns the wrapped
// error and stops immediately.
func (c *Chain) Execute(e *event.Event, final HandlerFunc) error {
	if c.fastPathEligible() {
		return c.executeFastPath(e, final)
	}

	for _, en := range c.entries {
		result, err := en.handler(e)
		switch result {
		case TerminateEarly:
			return nil
		case Error:
			return &ErrMiddleware{Kind: en.kind, Err: err}
		}
	}
	_, err := final(e)
	return err
}

// executeFastPath inlines the logger + CORS (+ optional security) chain
// described in this module: one structured log line, the three CORS
// headers, an immediate 204 on OPTIONS, and the security headers if
// registered, before falling through to the final handler. It skips the
// generic entries loop entirely for the commonest chain shape.
func (c *Chain) executeFastPath(e *event.Event, final HandlerFunc) error {
	logRequest(e)
	applyCORSHeaders(e)

	if e.Method == event.MethodOPTIONS {
		e.SetStatus(204)
		_ = e.SendBytes(204, "text/plain", nil, false)
		return nil
	}

	if c.hasSecurity {
		applySecurityHeaders(e)
	}

	_, err := final(e)
	return err
}
