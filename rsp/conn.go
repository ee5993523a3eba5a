// Package rsp implements the ASCII "$...#cc"-framed remote serial
// protocol transport the tracepoint package's Conn interface expects:
// checksum framing, ack/nack handshaking and bounded retries.
package rsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-delve/tracepoint/internal/logflags"
)

// ErrTooManyAttempts is returned when a send or receive exhausts its
// retry budget without a clean ack or checksum match.
var ErrTooManyAttempts = errors.New("too many transmit attempts")

const defaultMaxAttempts = 3

var hexdigit = []byte("0123456789abcdef")

// Conn is a concrete RSP transport over any net.Conn (TCP socket, unix
// socket, pty). It implements tracepoint.Conn's two-method shape
// (Send/Recv) so the rest of the module never depends on this package
// directly; an embedder supplying its own putpkt/getpkt pair can
// implement tracepoint.Conn without ever seeing this type.
type Conn struct {
	conn               net.Conn
	rdr                *bufio.Reader
	ack                bool
	maxTransmitAttempts int
	log                *logrus.Entry
}

// New wraps an established net.Conn. Ack/nack handshaking is enabled by
// default, matching the protocol's documented default.
func New(c net.Conn) *Conn {
	return &Conn{
		conn:                c,
		rdr:                 bufio.NewReader(c),
		ack:                 true,
		maxTransmitAttempts: defaultMaxAttempts,
		log:                 logflags.TraceWireLogger(),
	}
}

// DisableAck turns off ack/nack handshaking, for stubs that negotiated
// "QStartNoAckMode".
func (c *Conn) DisableAck() { c.ack = false }

// SetDeadline forwards to the underlying net.Conn, when non-zero.
func (c *Conn) SetDeadline(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return c.conn.SetDeadline(time.Now().Add(d))
}

// Send frames payload as "$payload#cc" and transmits it, retrying up to
// maxTransmitAttempts times if ack/nack handshaking is enabled and the
// stub nacks or fails to ack.
func (c *Conn) Send(payload string) error {
	body := []byte(payload)
	packet := make([]byte, 0, len(body)+4)
	packet = append(packet, '$')
	escaped := escapeEncode(body)
	packet = append(packet, escaped...)
	packet = append(packet, '#')
	sum := checksum(escaped)
	packet = append(packet, hexdigit[sum>>4], hexdigit[sum&0xf])

	for attempt := 0; ; attempt++ {
		if logflags.TraceWire() {
			c.log.Debugf("<- %s", string(packet))
		}
		if _, err := c.conn.Write(packet); err != nil {
			return err
		}
		if !c.ack {
			return nil
		}
		if c.readAck() {
			return nil
		}
		if attempt >= c.maxTransmitAttempts {
			return ErrTooManyAttempts
		}
	}
}

// Recv reads one framed packet and returns its decoded payload. It does
// not interpret the payload's first byte in any way: distinguishing
// "E"/"R"/"O" from a terminal reply is ReplyReader's job, not the
// transport's.
func (c *Conn) Recv() (string, error) {
	for attempt := 0; ; attempt++ {
		raw, err := c.rdr.ReadBytes('#')
		if err != nil {
			return "", err
		}
		var sumBuf [2]byte
		if _, err := io.ReadFull(c.rdr, sumBuf[:]); err != nil {
			return "", err
		}

		if logflags.TraceWire() {
			c.log.Debugf("-> %s%s", string(raw), string(sumBuf[:]))
		}

		if !c.ack {
			return string(escapeDecode(trimFrame(raw))), nil
		}

		if len(raw) > 0 && raw[0] == '%' {
			// Notification packet; unsolicited '%' frames are tolerated
			// and skipped rather than treated as a protocol error.
			continue
		}

		body := trimFrame(raw)
		if checksumMatches(body, sumBuf[:]) {
			c.sendAck('+')
			return string(escapeDecode(body)), nil
		}
		if attempt >= c.maxTransmitAttempts {
			c.sendAck('+')
			return "", ErrTooManyAttempts
		}
		c.sendAck('-')
	}
}

func trimFrame(raw []byte) []byte {
	if len(raw) > 0 && raw[0] == '$' {
		raw = raw[1:]
	}
	if len(raw) > 0 && raw[len(raw)-1] == '#' {
		raw = raw[:len(raw)-1]
	}
	return raw
}

func (c *Conn) readAck() bool {
	b, err := c.rdr.ReadByte()
	if err != nil {
		return false
	}
	if logflags.TraceWire() {
		c.log.Debugf("-> %c", b)
	}
	return b == '+'
}

func (c *Conn) sendAck(b byte) {
	c.conn.Write([]byte{b})
	if logflags.TraceWire() {
		c.log.Debugf("<- %c", b)
	}
}

func checksum(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return sum
}

func checksumMatches(body []byte, hexSum []byte) bool {
	want := fmt.Sprintf("%02x", checksum(body))
	return want == string(hexSum)
}

const escapeXor byte = 0x20

// escapeEncode escapes '$', '#', '}' and '*' per the protocol's documented
// run-length-free escaping rule: each becomes '}' followed by the byte
// XORed with 0x20.
func escapeEncode(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for _, b := range in {
		if b == '$' || b == '#' || b == '}' || b == '*' {
			out = append(out, '}', b^escapeXor)
			continue
		}
		out = append(out, b)
	}
	return out
}

// escapeDecode reverses escapeEncode.
func escapeDecode(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		if in[i] == '}' && i+1 < len(in) {
			i++
			out = append(out, in[i]^escapeXor)
			continue
		}
		out = append(out, in[i])
	}
	return out
}
