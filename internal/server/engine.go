// Package server implements rleserver's per-request handler, per-connection
// read loop, and accept loop.
package server

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/juju/ratelimit"
	reuseport "github.com/kavu/go_reuseport"

	"github.com/sparverius/rleserver/internal/log"
	"github.com/sparverius/rleserver/internal/stats"
)

const tempErrDelay = 5 * time.Millisecond

// Options configures a Server. The zero value listens on a plain net.Listen
// socket with no accept-rate limiting; the operational knobs below never
// change wire-visible behavior.
type Options struct {
	// ReusePort binds with SO_REUSEPORT via github.com/kavu/go_reuseport
	// instead of net.Listen, letting multiple processes share one port.
	ReusePort bool

	// AcceptRatePerSecond, when > 0, caps the accept loop via
	// github.com/juju/ratelimit so a connection flood can't monopolize
	// accept() ahead of well-behaved clients. 0 disables the limiter.
	AcceptRatePerSecond float64
	AcceptBurst         int64
}

// Server accepts TCP connections and spawns one session per connection, all
// sharing a single Stats instance.
type Server struct {
	opts     Options
	stats    *stats.Stats
	listener net.Listener
	bucket   *ratelimit.Bucket
	closing  atomic.Bool
}

// New constructs a Server backed by its own Stats instance, created at
// startup and shared by every connection for the life of the process.
func New(opts Options) *Server {
	srv := &Server{opts: opts, stats: stats.New()}
	if opts.AcceptRatePerSecond > 0 {
		burst := opts.AcceptBurst
		if burst <= 0 {
			burst = 1
		}
		srv.bucket = ratelimit.NewBucketWithRate(opts.AcceptRatePerSecond, burst)
	}
	return srv
}

// Stats returns the server's shared Stats handle.
func (srv *Server) Stats() *stats.Stats {
	return srv.stats
}

// Addr returns the bound listener address, or nil before ListenAndServe.
func (srv *Server) Addr() net.Addr {
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

// ListenAndServe binds addr and runs the accept loop until it returns a
// fatal error or the listener is closed.
func (srv *Server) ListenAndServe(addr string) error {
	lis, err := srv.listen(addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv.listener = lis
	return srv.acceptLoop()
}

// Close closes the listener, unblocking the accept loop. ListenAndServe
// returns nil afterward, since this is the clean-shutdown path.
func (srv *Server) Close() error {
	srv.closing.Store(true)
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Close()
}

func (srv *Server) listen(addr string) (net.Listener, error) {
	if srv.opts.ReusePort {
		return reuseport.Listen("tcp", addr)
	}
	return net.Listen("tcp", addr)
}

// acceptLoop accepts connections in a loop, spawning one goroutine per
// connection. Accept errors are logged and the loop continues; only a
// fatal, non-temporary error terminates it.
func (srv *Server) acceptLoop() error {
	for {
		if srv.bucket != nil {
			srv.bucket.Wait(1)
		}

		conn, err := srv.listener.Accept()
		if err != nil {
			if srv.closing.Load() {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() { //nolint:staticcheck
				log.Errorf("accept err: %s; retrying in %s", err, tempErrDelay)
				time.Sleep(tempErrDelay)
				continue
			}
			return fmt.Errorf("accept err: %w", err)
		}

		go srv.handleConn(conn)
	}
}

func (srv *Server) handleConn(conn net.Conn) {
	sess := newSession(conn, srv.stats)
	sess.serve()
}
