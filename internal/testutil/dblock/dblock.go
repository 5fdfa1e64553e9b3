// Package dblock serializes test packages that share the local Postgres
// database. The lock is a TCP listener: whichever process binds the port
// holds the lock, and everyone else spins until it is released.
package dblock

import (
	"net"
	"time"
)

const lockAddr = "127.0.0.1:45433"

func Acquire() func() {
	for {
		ln, err := net.Listen("tcp", lockAddr)
		if err == nil {
			return func() { ln.Close() }
		}
		time.Sleep(50 * time.Millisecond)
	}
}
