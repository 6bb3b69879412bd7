package server

import (
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/sparverius/rleserver/internal/log"
	"github.com/sparverius/rleserver/internal/protocol"
	"github.com/sparverius/rleserver/internal/stats"
)

// floodDrainTimeout bounds the one extra read taken after an oversized
// frame. A single accidental oversized write has no more data coming and
// must not hang the connection; only a client that is actively flooding has
// a second oversized write already in flight when we look.
const floodDrainTimeout = 50 * time.Millisecond

// session owns one accepted connection. Its read loop is sequential: a
// request is fully handled and its response fully written before the next
// read, so responses on one connection are emitted in exactly the order
// their requests arrived. See DESIGN.md for why this is a single goroutine
// rather than split read/write goroutines over a response queue.
type session struct {
	id    string
	conn  net.Conn
	stats *stats.Stats
	buf   []byte
}

func newSession(conn net.Conn, st *stats.Stats) *session {
	return &session{
		id:    uuid.NewString(),
		conn:  conn,
		stats: st,
		buf:   make([]byte, protocol.MaxMessage+1),
	}
}

// serve runs the per-connection read loop until the client disconnects, a
// write fails, or the flood heuristic trips. It always closes conn on
// return.
func (s *session) serve() {
	defer s.conn.Close()

	for {
		n, err := s.conn.Read(s.buf)
		if err != nil {
			if err != io.EOF {
				log.Errorf("session %s: read err: %s", s.id, err)
			}
			return
		}
		if n == 0 {
			return
		}

		switch {
		case n > protocol.MaxMessage:
			if s.isFlooding() {
				log.Errorf("session %s: sustained oversized reads, dropping connection", s.id)
				return
			}
			s.stats.AddBytesIn(n)
			if !s.respond(protocol.StatusMessageTooLarge, nil) {
				return
			}

		case n < protocol.HeaderSize:
			s.stats.AddBytesIn(n)
			if !s.respond(protocol.StatusMessageTooSmall, nil) {
				return
			}

		default:
			frame := s.buf[:n]
			s.stats.AddBytesIn(n)

			h, payload, status := protocol.DecodeMessage(frame)
			if status != protocol.StatusOk {
				if !s.respond(status, nil) {
					return
				}
				continue
			}

			resp := handleRequest(s.stats, h, payload)
			if !s.write(resp) {
				return
			}
		}
	}
}

// isFlooding performs one additional drain read after an oversized frame:
// if that read is itself >= MaxPayload bytes, the client is treated as
// abusive and the connection is dropped without a response. The read is
// bounded by floodDrainTimeout so a one-off oversized write with nothing
// following it doesn't stall the connection; the deadline is cleared before
// returning so it never affects the main loop.
func (s *session) isFlooding() bool {
	s.conn.SetReadDeadline(time.Now().Add(floodDrainTimeout))
	defer s.conn.SetReadDeadline(time.Time{})

	n, err := s.conn.Read(s.buf)
	if err != nil {
		return false
	}
	return n >= protocol.MaxPayload
}

func (s *session) respond(status protocol.StatusCode, payload []byte) bool {
	resp, err := protocol.EncodeResponse(status, payload)
	if err != nil {
		resp, _ = protocol.EncodeResponse(protocol.StatusUnknownError, nil)
	}
	return s.write(resp)
}

func (s *session) write(resp []byte) bool {
	if len(resp) == 0 {
		return true
	}
	if _, err := s.conn.Write(resp); err != nil {
		log.Errorf("session %s: write err: %s", s.id, err)
		return false
	}
	s.stats.AddBytesOut(len(resp))
	return true
}
