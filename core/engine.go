package core

import (
	"net"

	"go.uber.org/zap"

	"github.com/latticehttp/corekit/config"
	"github.com/latticehttp/corekit/core/event"
	"github.com/latticehttp/corekit/core/httpwire"
	"github.com/latticehttp/corekit/core/memory"
	"github.com/latticehttp/corekit/core/middleware"
	"github.com/latticehttp/corekit/core/observability"
	"github.com/latticehttp/corekit/core/router"
	"github.com/latticehttp/corekit/logging"
)

// HandlerFunc is the user-facing route handler signature, re-exported
// from core/router so route registration doesn't need a second import
// for the common case.
type HandlerFunc = router.HandlerFunc

// Engine wires together every subsystem this module builds: a Router
// (radix tree plus RouteCache), a MiddlewareChain, the wire shell in
// core/httpwire, and the ambient config/logging/telemetry layers. There
// is no epoll/kqueue poller or worker pool here: the goroutine-per-
// connection model core/httpwire.Accept implements, with its
// per-connection MemoryManager, is the entire concurrency story.
type Engine struct {
	router *router.Router
	chain  *middleware.Chain

	cfg     config.ServerConfig
	logger  *logging.Logger
	monitor *observability.PerformanceMonitor

	listener net.Listener
}

// NewEngine constructs an Engine from cfg. If log is nil, a default
// stderr logger is built from logging.DefaultOptions.
func NewEngine(cfg config.ServerConfig, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.New(logging.DefaultOptions())
	}
	middleware.SetLogger(log.Raw())

	return &Engine{
		router:  router.NewRouter(cfg.RouteCacheSize),
		chain:   middleware.NewChain(),
		cfg:     cfg,
		logger:  log,
		monitor: observability.NewPerformanceMonitor(),
	}
}

// Use registers a middleware by Kind, execution order following
// registration order per core/middleware's chain semantics.
func (e *Engine) Use(kind middleware.Kind, handler middleware.HandlerFunc) error {
	return e.chain.Use(kind, handler)
}

// --- route registration, one method per verb ---

func (e *Engine) GET(path string, handler HandlerFunc)     { e.router.Add("GET", path, handler) }
func (e *Engine) POST(path string, handler HandlerFunc)    { e.router.Add("POST", path, handler) }
func (e *Engine) PUT(path string, handler HandlerFunc)     { e.router.Add("PUT", path, handler) }
func (e *Engine) DELETE(path string, handler HandlerFunc)  { e.router.Add("DELETE", path, handler) }
func (e *Engine) PATCH(path string, handler HandlerFunc)   { e.router.Add("PATCH", path, handler) }
func (e *Engine) HEAD(path string, handler HandlerFunc)    { e.router.Add("HEAD", path, handler) }
func (e *Engine) OPTIONS(path string, handler HandlerFunc) { e.router.Add("OPTIONS", path, handler) }

// Router exposes the underlying Router for callers that want direct
// Find/CacheStats/ClearCache access (e.g. an admin endpoint).
func (e *Engine) Router() *router.Router { return e.router }

// Monitor exposes the PerformanceMonitor for handlers recording custom
// traces outside the normal dispatch path.
func (e *Engine) Monitor() *observability.PerformanceMonitor { return e.monitor }

// dispatch is the per-request entry point core/httpwire.ServeConn
// invokes once a request has been fully parsed into ev: the
// MiddlewareChain wraps router lookup and handler invocation, and a
// miss or handler panic-free error both resolve to a response before
// dispatch returns, since ServeConn sends a bare 204 for anything left
// unfinished.
func (e *Engine) dispatch(ev *event.Event) {
	route := ev.Path()
	start := e.monitor.StartTrace()

	err := e.chain.Execute(ev, func(ev *event.Event) (middleware.Result, error) {
		handler, params, ok := e.router.Find(ev.Method.String(), ev.Path())
		if !ok {
			_ = ev.SendText(404, "Not Found")
			return middleware.Continue, nil
		}
		for k, v := range params {
			ev.SetParam(k, v)
		}
		handler(ev)
		return middleware.Continue, nil
	})

	isError := err != nil
	if isError {
		e.logger.Error("request failed", zap.String("path", route), zap.Error(err))
		if !ev.Finished() {
			_ = ev.SendText(500, "Internal Server Error")
		}
	}
	e.monitor.EndTrace(ev.Method.String()+" "+route, start, isError)
}

// Run listens on addr and serves connections until the listener is
// closed or Accept returns an unrecoverable error. Each accepted
// connection gets its own MemoryManager, built fresh from e.cfg.Memory,
// the copy of the configuration NewEngine was given; later changes to
// the caller's ServerConfig, file hot-reloads included, do not reach it.
func (e *Engine) Run(addr string) error {
	var ln net.Listener
	var err error
	if e.cfg.ReusePort {
		ln, err = httpwire.ListenReusePort(addr)
	} else {
		ln, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return err
	}
	e.listener = ln
	e.logger.Connection("listening", zap.String("addr", addr))

	newManager := func() *memory.Manager { return memory.New(e.cfg.Memory) }
	pipelineCfg := httpwire.DefaultPipelineConfig()

	return httpwire.Accept(ln, newManager, pipelineCfg, e.dispatch, func(err error) {
		e.logger.Connection("connection error", zap.Error(err))
	})
}

// Close stops accepting new connections. Connections already being
// served by core/httpwire.ServeConn run to completion on their own.
func (e *Engine) Close() error {
	e.monitor.Stop()
	if e.listener == nil {
		return nil
	}
	return e.listener.Close()
}
