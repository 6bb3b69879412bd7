package server

import (
	"github.com/sparverius/rleserver/internal/compress"
	"github.com/sparverius/rleserver/internal/protocol"
	"github.com/sparverius/rleserver/internal/stats"
)

// handleRequest maps one decoded request to a response frame, enforcing
// each request kind's length and validity rules and updating st as a side
// effect. It never returns a nil response: every request kind, valid or
// not, gets a header (error responses carry length 0 and no payload).
func handleRequest(st *stats.Stats, h protocol.Header, payload []byte) []byte {
	var resp []byte
	var err error

	switch protocol.RequestCode(h.Code()) {
	case protocol.Ping:
		resp, err = respondZeroLengthKind(len(payload), nil)

	case protocol.GetStats:
		if len(payload) != 0 {
			resp, err = protocol.EncodeResponse(protocol.StatusRequestKindRequiresZeroLength, nil)
		} else {
			resp, err = protocol.EncodeResponse(protocol.StatusOk, st.Snapshot().EncodePayload())
		}

	case protocol.ResetStats:
		if len(payload) != 0 {
			resp, err = protocol.EncodeResponse(protocol.StatusRequestKindRequiresZeroLength, nil)
		} else {
			st.Reset()
			resp, err = protocol.EncodeResponse(protocol.StatusOk, nil)
		}

	case protocol.Compress:
		resp, err = handleCompress(st, payload)

	default:
		resp, err = protocol.EncodeResponse(protocol.StatusUnsupportedRequestType, nil)
	}

	if err != nil {
		// EncodeResponse only fails when the payload exceeds MaxPayload; no
		// path above can hit that (handleCompress checks it, every other
		// path encodes a nil or already-bounded payload). Fall back rather
		// than propagate, since every request still owes the client a
		// header.
		resp, _ = protocol.EncodeResponse(protocol.StatusUnknownError, nil)
	}
	return resp
}

func respondZeroLengthKind(payloadLen int, okPayload []byte) ([]byte, error) {
	if payloadLen != 0 {
		return protocol.EncodeResponse(protocol.StatusRequestKindRequiresZeroLength, nil)
	}
	return protocol.EncodeResponse(protocol.StatusOk, okPayload)
}

func handleCompress(st *stats.Stats, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return protocol.EncodeResponse(protocol.StatusCompressionRequestRequiresNonZeroLength, nil)
	}

	out, status := compress.Encode(payload)
	if status != protocol.StatusOk {
		return protocol.EncodeResponse(status, nil)
	}

	st.AddCompression(len(payload), len(out))
	return protocol.EncodeResponse(protocol.StatusOk, out)
}
