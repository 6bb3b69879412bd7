package protocol

import (
	"errors"

	"github.com/sparverius/rleserver/internal/bufpool"
)

// ErrPayloadTooLarge is returned by EncodeResponse when asked to frame a
// payload that would not fit MaxPayload.
var ErrPayloadTooLarge = errors.New("protocol: response payload exceeds MaxPayload")

// EncodeResponse serializes a response message: header followed by payload.
// The returned slice is an owned copy; the scratch buffer used to build it
// is leased from internal/bufpool and returned before EncodeResponse
// returns.
func EncodeResponse(status StatusCode, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, ErrPayloadTooLarge
	}

	h := NewHeader(uint16(len(payload)), uint16(status))

	bb := bufpool.Get()
	defer bufpool.Put(bb)

	bb.Write(h[:])
	if len(payload) > 0 {
		bb.Write(payload)
	}

	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())
	return out, nil
}
