// Package bufpool leases scratch byte buffers for the hot paths of the
// protocol codec and compressor.
package bufpool

import "github.com/valyala/bytebufferpool"

// Get returns an empty, pooled buffer. Callers must Put it back when done.
func Get() *bytebufferpool.ByteBuffer {
	return bytebufferpool.Get()
}

// Put returns a buffer to the pool for reuse.
func Put(b *bytebufferpool.ByteBuffer) {
	bytebufferpool.Put(b)
}
