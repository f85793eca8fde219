package middleware

import (
	"errors"
	"testing"

	"github.com/latticehttp/corekit/core/event"
)

// TestChainTerminateEarlySkipsLaterMiddlewareAndHandler: a
// TerminateEarly result skips every later middleware and the final
// handler, and Execute still reports success.
func TestChainTerminateEarlySkipsLaterMiddlewareAndHandler(t *testing.T) {
	c := NewChain()
	var secondRan, handlerRan bool

	_ = c.Use(KindCustom, func(e *event.Event) (Result, error) {
		return TerminateEarly, nil
	})
	_ = c.Use(KindCustom, func(e *event.Event) (Result, error) {
		secondRan = true
		return Continue, nil
	})

	e := event.NewEvent()
	err := c.Execute(e, func(e *event.Event) (Result, error) {
		handlerRan = true
		return Continue, nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if secondRan {
		t.Fatalf("second middleware must not run after terminate_early")
	}
	if handlerRan {
		t.Fatalf("final handler must not run after terminate_early")
	}
}

func TestChainErrorAbortsAndWraps(t *testing.T) {
	c := NewChain()
	wantErr := errors.New("boom")
	_ = c.Use(KindCustom, func(e *event.Event) (Result, error) {
		return Error, wantErr
	})

	e := event.NewEvent()
	var handlerRan bool
	err := c.Execute(e, func(e *event.Event) (Result, error) {
		handlerRan = true
		return Continue, nil
	})

	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if handlerRan {
		t.Fatalf("final handler must not run after an error")
	}
}

func TestChainContinueRunsEveryMiddlewareThenHandler(t *testing.T) {
	c := NewChain()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		_ = c.Use(KindCustom, func(e *event.Event) (Result, error) {
			order = append(order, i)
			return Continue, nil
		})
	}

	e := event.NewEvent()
	err := c.Execute(e, func(e *event.Event) (Result, error) {
		order = append(order, -1)
		return Continue, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 1, 2, -1}
	if len(order) != len(want) {
		t.Fatalf("expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

// TestChainFastPathCORSPreflight: chain = [Logger, CORS], taking the
// fast path. An OPTIONS request gets a 204 with the CORS header, and
// the final handler never runs.
func TestChainFastPathCORSPreflight(t *testing.T) {
	c := NewChain()
	_ = c.Use(KindLogger, Logger())
	_ = c.Use(KindCORS, CORS())

	e := event.NewEvent()
	e.Method = event.MethodOPTIONS
	e.SetPath(event.Owned("/anything"))

	var handlerRan bool
	err := c.Execute(e, func(e *event.Event) (Result, error) {
		handlerRan = true
		return Continue, nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handlerRan {
		t.Fatalf("final handler must not run on an OPTIONS preflight")
	}
	if e.Status() != 204 {
		t.Fatalf("expected status 204, got %d", e.Status())
	}
	origin, ok := e.GetResponseHeader("Access-Control-Allow-Origin")
	if !ok || origin != "*" {
		t.Fatalf("expected Access-Control-Allow-Origin: *, got %q ok=%v", origin, ok)
	}
}

func TestChainFastPathNonOptionsRunsFinalHandler(t *testing.T) {
	c := NewChain()
	_ = c.Use(KindLogger, Logger())
	_ = c.Use(KindCORS, CORS())

	e := event.NewEvent()
	e.Method = event.MethodGET
	e.SetPath(event.Owned("/widgets"))

	var handlerRan bool
	err := c.Execute(e, func(e *event.Event) (Result, error) {
		handlerRan = true
		return Continue, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerRan {
		t.Fatalf("expected the final handler to run for a GET request")
	}
}

func TestChainRejectsTooManyMiddlewares(t *testing.T) {
	c := NewChain()
	for i := 0; i < 16; i++ {
		if err := c.Use(KindCustom, func(e *event.Event) (Result, error) { return Continue, nil }); err != nil {
			t.Fatalf("unexpected error registering middleware %d: %v", i, err)
		}
	}
	if err := c.Use(KindCustom, func(e *event.Event) (Result, error) { return Continue, nil }); err != ErrTooManyMiddlewares {
		t.Fatalf("expected ErrTooManyMiddlewares, got %v", err)
	}
}

func TestRequestIDMiddlewareSetsUniqueHeaders(t *testing.T) {
	c := NewChain()
	_ = c.Use(KindCustom, RequestID())

	e1 := event.NewEvent()
	_ = c.Execute(e1, func(e *event.Event) (Result, error) { return Continue, nil })
	id1, ok := e1.GetResponseHeader("X-Request-ID")
	if !ok || id1 == "" {
		t.Fatalf("expected a non-empty X-Request-ID, got %q ok=%v", id1, ok)
	}

	e2 := event.NewEvent()
	_ = c.Execute(e2, func(e *event.Event) (Result, error) { return Continue, nil })
	id2, _ := e2.GetResponseHeader("X-Request-ID")
	if id1 == id2 {
		t.Fatalf("expected distinct request IDs, got %q twice", id1)
	}
}
