package httpwire

import (
	"net"

	"github.com/latticehttp/corekit/core/memory"
)

// ManagerFactory constructs the per-connection MemoryManager. Each
// accepted connection gets its own: one Event pool and one arena pair
// per worker, not shared across goroutines. Route lookup is not part of
// it; the RouteCache belongs to the engine's Router, which every
// connection shares.
type ManagerFactory func() *memory.Manager

// Accept runs a goroutine-per-connection TCP acceptor loop on ln,
// serving each connection with ServeConn until ln is closed. This is
// the full extent of this module's wire shell concurrency model: no
// epoll/kqueue poller, no connection multiplexing — a plain net.Listener
// and one goroutine per live connection.
func Accept(ln net.Listener, newManager ManagerFactory, cfg PipelineConfig, handle RequestHandler, onError func(error)) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return err
		}
		go func(c net.Conn) {
			mgr := newManager()
			if err := ServeConn(c, mgr, cfg, handle); err != nil && onError != nil {
				onError(err)
			}
		}(conn)
	}
}
