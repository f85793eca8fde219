package core

import (
	"testing"

	"github.com/latticehttp/corekit/config"
	"github.com/latticehttp/corekit/core/event"
	"github.com/latticehttp/corekit/core/middleware"
)

func newTestEngine() *Engine {
	cfg := config.Default()
	cfg.RouteCacheSize = 10
	return NewEngine(cfg, nil)
}

func TestEngineDispatchMatchedRoute(t *testing.T) {
	e := newTestEngine()
	e.GET("/widgets/:id", func(ev *event.Event) {
		id, _ := ev.GetParam("id")
		_ = ev.SendText(200, "widget:"+id)
	})

	ev := event.NewEvent()
	ev.Method = event.MethodGET
	ev.SetPath(event.Owned("/widgets/42"))

	e.dispatch(ev)

	if ev.Status() != 200 {
		t.Fatalf("expected status 200, got %d", ev.Status())
	}
	if string(ev.ResponseBody()) != "widget:42" {
		t.Fatalf("expected body 'widget:42', got %q", ev.ResponseBody())
	}
}

func TestEngineDispatchUnmatchedRouteReturns404(t *testing.T) {
	e := newTestEngine()

	ev := event.NewEvent()
	ev.Method = event.MethodGET
	ev.SetPath(event.Owned("/missing"))

	e.dispatch(ev)

	if ev.Status() != 404 {
		t.Fatalf("expected status 404, got %d", ev.Status())
	}
}

func TestEngineDispatchRunsRegisteredMiddleware(t *testing.T) {
	e := newTestEngine()
	var middlewareRan bool
	_ = e.Use(middleware.KindCustom, func(ev *event.Event) (middleware.Result, error) {
		middlewareRan = true
		return middleware.Continue, nil
	})
	e.GET("/ping", func(ev *event.Event) {
		_ = ev.SendText(200, "pong")
	})

	ev := event.NewEvent()
	ev.Method = event.MethodGET
	ev.SetPath(event.Owned("/ping"))

	e.dispatch(ev)

	if !middlewareRan {
		t.Fatalf("expected registered middleware to run before the handler")
	}
	if ev.Status() != 200 {
		t.Fatalf("expected status 200, got %d", ev.Status())
	}
}

func TestEngineRouterFindPopulatesCache(t *testing.T) {
	e := newTestEngine()
	e.GET("/cached", func(ev *event.Event) {
		_ = ev.SendText(200, "ok")
	})

	if _, _, ok := e.Router().Find("GET", "/cached"); !ok {
		t.Fatalf("expected route to be found on first lookup")
	}
	if stats := e.Router().CacheStats(); stats.Size != 1 {
		t.Fatalf("expected the cache to be populated after the first Find, size=%d", stats.Size)
	}
}
