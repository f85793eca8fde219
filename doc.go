/*
Package corekit provides a small HTTP/1.1 application framework built
around one idea: a single per-request value, Event, flows from the wire
parser through a middleware chain and a router to a handler and back
out to the serializer, with no intermediate request/response split.

The framework is organized into several packages:

  - core: the Engine that wires routing, middleware, and the wire shell
    together, plus combined pool/cache telemetry
  - core/event: Event, its pooled allocation (EventPool), and the
    StringValue ownership tags that let a pooled Event release only the
    strings it actually owns
  - core/memory: MemoryManager, the per-worker arena pair and EventPool
    wrapper, and the GC tuning presets applied to the process
  - core/cache: the bounded LRU RouteCache sitting in front of the radix
    router
  - core/router: the radix-tree router and the Router type that
    combines it with a RouteCache
  - core/middleware: the ordered middleware chain, its built-in
    Logger/CORS/Security/Timing/RequestID/RateLimit middlewares, and the
    precompiled fast path for the common logger+CORS(+security) shape
  - core/httpwire: the HTTP/1.1 wire shell — request parsing straight
    into an Event, response serialization, pipelined keep-alive
    connection handling, and the TCP acceptor loop
  - core/pools: the tiered ScratchPool that core/httpwire draws its
    connection read and response buffers from
  - core/observability: a zero-overhead PerformanceMonitor tracking
    per-handler latency and error rate, with periodic bottleneck
    detection
  - config: layered configuration (defaults, YAML file, environment,
    flags) with file-watch hot-reload for a subset of tunables
  - logging: a zap-backed logger with connection/request/performance
    category gates and optional rotating-file output
  - app: ties config, logging, and an Engine together into a runnable
    server that closes its listener on SIGINT/SIGTERM

Quick start

	package main

	import (
		"github.com/latticehttp/corekit/app"
		"github.com/latticehttp/corekit/core/event"
	)

	func main() {
		application, err := app.NewFromFile("config.yaml", nil)
		if err != nil {
			panic(err)
		}

		engine := application.Engine()
		engine.GET("/hello", func(e *event.Event) {
			_ = e.SendText(200, "Hello, World!")
		})
		engine.GET("/json", func(e *event.Event) {
			_ = e.SendJSON(200, map[string]string{"status": "running"})
		})

		if err := application.Run(); err != nil {
			panic(err)
		}
	}

Concurrency model

Each accepted connection is served by one goroutine, which owns one
MemoryManager (arenas, EventPool) for its entire lifetime. The
Engine's Router (with its RouteCache) and PerformanceMonitor are
shared by all connections and synchronize internally. A config file
reload updates the ServerConfig returned by config.Load; an Engine
already built from it keeps its own copy.
*/
package corekit
