//go:build linux || darwin

package httpwire

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ListenReusePort opens a TCP listener on addr with SO_REUSEPORT set on
// the underlying socket, so multiple processes (or multiple listeners
// in one process) can bind the same address and let the kernel load
// balance accepted connections across them. Plain net.Listen has no way
// to express this — it is a socket option set between socket() and
// bind(), which only net.ListenConfig.Control exposes.
func ListenReusePort(addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.Listen(context.Background(), "tcp", addr)
}
