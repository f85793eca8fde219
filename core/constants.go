package core

// Well-known header name constants, for callers that want a compile
// checked literal instead of a bare string when calling Event.SetHeader
// or Event.SetResponseHeader.
const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderUserAgent     = "User-Agent"
	HeaderAccept        = "Accept"
	HeaderHost          = "Host"
	HeaderConnection    = "Connection"
)

// DefaultRouteCacheSize is the default RouteCache capacity.
const DefaultRouteCacheSize = 1000

// FastPathMaxMiddlewares is the fast-path eligibility ceiling: at most
// this many middlewares, with logger and CORS among them, before the
// chain's Execute falls back to the general loop.
const FastPathMaxMiddlewares = 3
