package server

import (
	"encoding/binary"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sparverius/rleserver/internal/netutil"
	"github.com/sparverius/rleserver/internal/protocol"
)

func startTestServer(t *testing.T) (*Server, net.Conn) {
	t.Helper()
	srv := New(Options{})

	port, err := netutil.GetFreePort()
	require.NoError(t, err)
	addrStr := fmt.Sprintf("127.0.0.1:%d", port)

	lnErrCh := make(chan error, 1)
	go func() {
		lnErrCh <- srv.ListenAndServe(addrStr)
	}()

	// wait for the listener to be bound.
	var addr net.Addr
	require.Eventually(t, func() bool {
		addr = srv.Addr()
		return addr != nil
	}, time.Second, time.Millisecond)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Close()
	})

	return srv, conn
}

func requestFrame(code protocol.RequestCode, payload []byte) []byte {
	h := protocol.NewHeader(uint16(len(payload)), uint16(code))
	return append(h[:], payload...)
}

func readResponse(t *testing.T, conn net.Conn) (protocol.Header, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	hdr := make([]byte, protocol.HeaderSize)
	_, err := ioReadFull(conn, hdr)
	require.NoError(t, err)

	h, status := protocol.DecodeHeader(hdr)
	require.Equal(t, protocol.StatusOk, status)

	payload := make([]byte, h.Length())
	if len(payload) > 0 {
		_, err = ioReadFull(conn, payload)
		require.NoError(t, err)
	}
	return h, payload
}

func ioReadFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestPingOk(t *testing.T) {
	_, conn := startTestServer(t)

	_, err := conn.Write(requestFrame(protocol.Ping, nil))
	require.NoError(t, err)

	h, payload := readResponse(t, conn)
	require.Equal(t, uint16(protocol.StatusOk), h.Code())
	require.Empty(t, payload)
}

func TestBadMagicStaysOpen(t *testing.T) {
	_, conn := startTestServer(t)

	frame := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	_, err := conn.Write(frame)
	require.NoError(t, err)

	h, _ := readResponse(t, conn)
	require.Equal(t, uint16(protocol.StatusBadMagic), h.Code())

	// connection must still be usable.
	_, err = conn.Write(requestFrame(protocol.Ping, nil))
	require.NoError(t, err)
	h2, _ := readResponse(t, conn)
	require.Equal(t, uint16(protocol.StatusOk), h2.Code())
}

func TestCompressRoundTrip(t *testing.T) {
	_, conn := startTestServer(t)

	in := []byte("aaaaabbbbbbaaabb")
	_, err := conn.Write(requestFrame(protocol.Compress, in))
	require.NoError(t, err)

	h, payload := readResponse(t, conn)
	require.Equal(t, uint16(protocol.StatusOk), h.Code())
	require.Equal(t, "5a6b3abb", string(payload))
}

func TestCompressInvalidCharacters(t *testing.T) {
	_, conn := startTestServer(t)

	_, err := conn.Write(requestFrame(protocol.Compress, []byte("abCD")))
	require.NoError(t, err)

	h, payload := readResponse(t, conn)
	require.Equal(t, uint16(protocol.StatusPayloadContainsInvalidCharacters), h.Code())
	require.Empty(t, payload)
}

func TestCompressZeroLength(t *testing.T) {
	_, conn := startTestServer(t)

	_, err := conn.Write(requestFrame(protocol.Compress, nil))
	require.NoError(t, err)

	h, _ := readResponse(t, conn)
	require.Equal(t, uint16(protocol.StatusCompressionRequestRequiresNonZeroLength), h.Code())
}

func TestGetStatsAfterCompress(t *testing.T) {
	_, conn := startTestServer(t)

	_, err := conn.Write(requestFrame(protocol.Compress, []byte("aaaaabbbbbbaaabb")))
	require.NoError(t, err)
	readResponse(t, conn)

	_, err = conn.Write(requestFrame(protocol.GetStats, nil))
	require.NoError(t, err)

	h, payload := readResponse(t, conn)
	require.Equal(t, uint16(protocol.StatusOk), h.Code())
	require.Len(t, payload, 9)

	ratio := payload[8]
	require.Equal(t, byte(50), ratio)
}

func TestResetStatsThenGetStats(t *testing.T) {
	_, conn := startTestServer(t)

	_, err := conn.Write(requestFrame(protocol.Compress, []byte("aaaaabbbbbbaaabb")))
	require.NoError(t, err)
	readResponse(t, conn)

	_, err = conn.Write(requestFrame(protocol.ResetStats, nil))
	require.NoError(t, err)
	h, _ := readResponse(t, conn)
	require.Equal(t, uint16(protocol.StatusOk), h.Code())

	_, err = conn.Write(requestFrame(protocol.GetStats, nil))
	require.NoError(t, err)
	_, payload := readResponse(t, conn)
	require.Len(t, payload, 9)
	require.Equal(t, byte(0), payload[8])

	bytesIn := binary.BigEndian.Uint32(payload[0:4])
	require.Greater(t, bytesIn, uint32(0))
}

func TestOversizedFrameReportsMessageTooLarge(t *testing.T) {
	_, conn := startTestServer(t)

	oversized := make([]byte, protocol.MaxMessage+100)
	_, err := conn.Write(oversized)
	require.NoError(t, err)

	h, _ := readResponse(t, conn)
	require.Equal(t, uint16(protocol.StatusMessageTooLarge), h.Code())
}

func TestUnsupportedRequestType(t *testing.T) {
	_, conn := startTestServer(t)

	_, err := conn.Write(requestFrame(protocol.RequestCode(99), nil))
	require.NoError(t, err)

	h, _ := readResponse(t, conn)
	require.Equal(t, uint16(protocol.StatusUnsupportedRequestType), h.Code())
}
