//go:build !linux && !darwin

package httpwire

import "net"

// ListenReusePort falls back to a plain listener on platforms where
// SO_REUSEPORT isn't wired up.
func ListenReusePort(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
