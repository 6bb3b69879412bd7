// Package protocol implements the wire framing for rleserver: an 8-byte
// big-endian header followed by a bounded payload.
package protocol

import "encoding/binary"

// Magic is the fixed sentinel identifying a conforming frame.
const Magic uint32 = 0x73727663

const (
	// HeaderSize is the fixed size of a Header in bytes.
	HeaderSize = 8
	// MaxPayload is the ceiling on a message's payload length.
	MaxPayload = 8192
	// MaxMessage is MaxPayload plus the header.
	MaxMessage = MaxPayload + HeaderSize
)

// RequestCode identifies the kind of an ingress request.
type RequestCode uint16

const (
	Ping       RequestCode = 1
	GetStats   RequestCode = 2
	ResetStats RequestCode = 3
	Compress   RequestCode = 4
)

// StatusCode identifies the outcome of a request, carried in the egress
// header's code field.
type StatusCode uint16

const (
	StatusOk                                      StatusCode = 0
	StatusUnknownError                            StatusCode = 1
	StatusMessageTooLarge                         StatusCode = 2
	StatusUnsupportedRequestType                  StatusCode = 3
	StatusMessageTooSmall                         StatusCode = 34
	StatusBadMagic                                StatusCode = 35
	StatusHeaderSizeMismatch                      StatusCode = 36
	StatusRequestKindRequiresZeroLength           StatusCode = 37
	StatusCompressionRequestRequiresNonZeroLength StatusCode = 38
	StatusPayloadContainsInvalidCharacters        StatusCode = 39
)

// String renders a status code for logging.
func (s StatusCode) String() string {
	switch s {
	case StatusOk:
		return "Ok"
	case StatusUnknownError:
		return "UnknownError"
	case StatusMessageTooLarge:
		return "MessageTooLarge"
	case StatusUnsupportedRequestType:
		return "UnsupportedRequestType"
	case StatusMessageTooSmall:
		return "MessageTooSmall"
	case StatusBadMagic:
		return "BadMagic"
	case StatusHeaderSizeMismatch:
		return "HeaderSizeMismatch"
	case StatusRequestKindRequiresZeroLength:
		return "RequestKindRequiresZeroLength"
	case StatusCompressionRequestRequiresNonZeroLength:
		return "CompressionRequestRequiresNonZeroLength"
	case StatusPayloadContainsInvalidCharacters:
		return "PayloadContainsInvalidCharacters"
	default:
		return "Reserved"
	}
}

// Header is the fixed 8-byte frame header: magic, length, code.
type Header [HeaderSize]byte

// Magic returns the header's magic field.
func (h Header) Magic() uint32 {
	return binary.BigEndian.Uint32(h[0:4])
}

// SetMagic sets the header's magic field.
func (h *Header) SetMagic(v uint32) {
	binary.BigEndian.PutUint32(h[0:4], v)
}

// Length returns the header's payload-length field.
func (h Header) Length() uint16 {
	return binary.BigEndian.Uint16(h[4:6])
}

// SetLength sets the header's payload-length field.
func (h *Header) SetLength(v uint16) {
	binary.BigEndian.PutUint16(h[4:6], v)
}

// Code returns the header's code field (a request code on ingress, a status
// code on egress).
func (h Header) Code() uint16 {
	return binary.BigEndian.Uint16(h[6:8])
}

// SetCode sets the header's code field.
func (h *Header) SetCode(v uint16) {
	binary.BigEndian.PutUint16(h[6:8], v)
}

// CheckMagic reports whether the header starts with Magic.
func (h Header) CheckMagic() bool {
	return h.Magic() == Magic
}

// NewHeader builds a Header with the given length and code.
func NewHeader(length uint16, code uint16) Header {
	var h Header
	h.SetMagic(Magic)
	h.SetLength(length)
	h.SetCode(code)
	return h
}

// DecodeHeader parses the first HeaderSize bytes of b into a Header.
// It never inspects length against MaxPayload — that check is made by
// DecodeMessage, which reports MessageTooLarge specifically.
func DecodeHeader(b []byte) (Header, StatusCode) {
	if len(b) < HeaderSize {
		return Header{}, StatusMessageTooSmall
	}
	var h Header
	copy(h[:], b[:HeaderSize])
	if !h.CheckMagic() {
		return h, StatusBadMagic
	}
	return h, StatusOk
}

// DecodeMessage parses a full frame (header + payload) read in one piece.
// It returns the header and a slice into frame holding the payload.
func DecodeMessage(frame []byte) (Header, []byte, StatusCode) {
	h, status := DecodeHeader(frame)
	if status != StatusOk {
		return h, nil, status
	}
	length := int(h.Length())
	if length+HeaderSize != len(frame) {
		return h, nil, StatusHeaderSizeMismatch
	}
	if length > MaxPayload {
		return h, nil, StatusMessageTooLarge
	}
	return h, frame[HeaderSize:], StatusOk
}
