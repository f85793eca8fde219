package httpwire

import (
	"io"
	"net"
	"time"

	"github.com/latticehttp/corekit/core/event"
	"github.com/latticehttp/corekit/core/memory"
	"github.com/latticehttp/corekit/core/pools"
)

// maxBufferedRequest bounds how large an incomplete request line/header
// block is allowed to grow before it is rejected as invalid, so a
// client that never sends a terminator can't grow buf without limit.
const maxBufferedRequest = 1 << 20

// PipelineConfig configures one connection's serve loop. MaxBatch is
// dropped in favor of writing each response as it completes rather
// than batching a slice of them, matching the single Event in flight
// per worker at any time.
type PipelineConfig struct {
	MaxPipeline int
	KeepAlive   bool
	IdleTimeout time.Duration
}

// DefaultPipelineConfig returns this module's defaults: keep-alive on,
// a generous idle timeout, and up to 16 pipelined requests served from
// one read before yielding back to Read.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxPipeline: 16,
		KeepAlive:   true,
		IdleTimeout: 60 * time.Second,
	}
}

// RequestHandler is invoked once per parsed request with an Event whose
// method/path/query/version/headers/body are already populated. It is
// responsible for leaving the Event Finished (a Send* call) before
// returning; ServeConn sends a bare 204 if the handler didn't.
// Dispatch (middleware chain + router) lives in the engine, not here,
// so this package stays free of a dependency on either — its only job
// is bytes in, bytes out.
type RequestHandler func(e *event.Event)

// ServeConn drives one accepted connection to completion: read, parse
// one or more pipelined requests out of the buffered bytes, invoke
// handle for each, serialize and write its response, then either loop
// for the next request (keep-alive) or return. One call to ServeConn
// is this module's "worker": it owns mgr exclusively for its lifetime,
// matching the single-threaded-per-worker, one-MemoryManager-per-worker
// resource model.
func ServeConn(conn net.Conn, mgr *memory.Manager, cfg PipelineConfig, handle RequestHandler) error {
	defer conn.Close()

	buf := make([]byte, 0, 8192)
	read := pools.GetBytes(8192)
	respBuf := pools.GetBytes(4096)[:0]
	defer func() {
		pools.PutBytes(read)
		pools.PutBytes(respBuf)
	}()

	for {
		if cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(cfg.IdleTimeout))
		}

		n, err := conn.Read(read)
		if n == 0 && err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		buf = append(buf, read[:n]...)

		served := 0
		for len(buf) > 0 && served < cfg.MaxPipeline {
			e := mgr.AcquireEvent()
			consumed, complete, perr := ParseInto(e, buf)

			if !complete {
				mgr.ReleaseEvent(e)
				if len(buf) > maxBufferedRequest {
					return event.ErrInvalidRequest
				}
				break
			}
			if perr != nil {
				_ = e.SendText(400, "Bad Request")
				respBuf = Serialize(respBuf, e)
				_, _ = conn.Write(respBuf)
				mgr.ReleaseEvent(e)
				return perr
			}

			handle(e)
			if !e.Finished() {
				_ = e.SendText(204, "")
			}
			respBuf = Serialize(respBuf, e)
			if _, werr := conn.Write(respBuf); werr != nil {
				mgr.ReleaseEvent(e)
				return werr
			}
			e.MarkSent()

			closeAfter := shouldClose(e, cfg)
			isHTTP10 := e.Version() == "HTTP/1.0"
			connHeader, _ := e.GetHeader("Connection")

			mgr.ReleaseEvent(e)
			mgr.ResetRequestArena()

			buf = buf[consumed:]
			served++

			if closeAfter || (isHTTP10 && connHeader != "keep-alive") {
				return nil
			}
		}

		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func shouldClose(e *event.Event, cfg PipelineConfig) bool {
	if !cfg.KeepAlive {
		return true
	}
	connHeader, ok := e.GetHeader("Connection")
	return ok && connHeader == "close"
}
