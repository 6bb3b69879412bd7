// Package stats holds the process-wide counters shared by every connection:
// bytes read, bytes written, and the cumulative input/output bytes of
// successful Compress operations. Each counter is an independent
// github.com/rcrowley/go-metrics Counter (a StandardCounter, itself a thin
// wrapper over sync/atomic), so per-counter atomicity is sufficient without
// a coarse lock across all four.
package stats

import (
	"encoding/binary"

	"github.com/rcrowley/go-metrics"
)

// Stats is the process-wide, concurrency-safe counter set. The zero value is
// not usable; construct with New.
type Stats struct {
	bytesIn        metrics.Counter
	bytesOut       metrics.Counter
	compressionIn  metrics.Counter
	compressionOut metrics.Counter
}

// New creates a fresh Stats instance, created once at server startup and
// shared by every connection task for the life of the process.
func New() *Stats {
	return &Stats{
		bytesIn:        metrics.NewCounter(),
		bytesOut:       metrics.NewCounter(),
		compressionIn:  metrics.NewCounter(),
		compressionOut: metrics.NewCounter(),
	}
}

// AddBytesIn accounts n bytes read from a client, including headers of
// otherwise-malformed messages that were at least parseable as a header.
func (s *Stats) AddBytesIn(n int) {
	s.bytesIn.Inc(int64(n))
}

// AddBytesOut accounts n bytes written to a client.
func (s *Stats) AddBytesOut(n int) {
	s.bytesOut.Inc(int64(n))
}

// AddCompression accounts the input and output size of one successful
// Compress operation. Callers must not call this on a rejected payload.
func (s *Stats) AddCompression(in, out int) {
	s.compressionIn.Inc(int64(in))
	s.compressionOut.Inc(int64(out))
}

// Reset zeros all four counters. A concurrent AddCompression may interleave
// with Reset such that its increment lands after the zero; callers only
// rely on the result being small and monotonic, not on exact ordering.
func (s *Stats) Reset() {
	s.bytesIn.Clear()
	s.bytesOut.Clear()
	s.compressionIn.Clear()
	s.compressionOut.Clear()
}

// Snapshot is a point-in-time read of the four counters. GetStats is not
// required to observe them as a consistent transaction across counters.
type Snapshot struct {
	BytesIn        uint64
	BytesOut       uint64
	CompressionIn  uint64
	CompressionOut uint64
}

// Snapshot reads the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		BytesIn:        uint64(s.bytesIn.Count()),
		BytesOut:       uint64(s.bytesOut.Count()),
		CompressionIn:  uint64(s.compressionIn.Count()),
		CompressionOut: uint64(s.compressionOut.Count()),
	}
}

// Ratio computes floor(100*(in-out)/in), clamped to [0, 100], or 0 when no
// compression has happened yet.
func (sn Snapshot) Ratio() uint8 {
	if sn.CompressionIn == 0 {
		return 0
	}
	diff := int64(sn.CompressionIn) - int64(sn.CompressionOut)
	if diff < 0 {
		diff = 0
	}
	ratio := 100 * diff / int64(sn.CompressionIn)
	if ratio > 100 {
		ratio = 100
	}
	return uint8(ratio)
}

// EncodePayload renders the GetStats response payload:
// [bytes_in u32][bytes_out u32][ratio u8], truncating the 64-bit counters
// to their low 32 bits on overflow.
func (sn Snapshot) EncodePayload() []byte {
	buf := make([]byte, 9)
	binary.BigEndian.PutUint32(buf[0:4], uint32(sn.BytesIn))
	binary.BigEndian.PutUint32(buf[4:8], uint32(sn.BytesOut))
	buf[8] = sn.Ratio()
	return buf
}
