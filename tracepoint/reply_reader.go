package tracepoint

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-delve/tracepoint/internal/logflags"
)

// Conn is the external remote-packet transport collaborator: a single
// request/reply exchange over whatever framing the embedder's transport
// uses. ReplyReader calls Recv repeatedly for one logical exchange
// whenever the target interleaves asynchronous packets before its
// terminal reply.
type Conn interface {
	Send(packet string) error
	Recv() (string, error)
}

// RegisterUpdate is one decoded entry from an "R" register-dump packet.
type RegisterUpdate struct {
	Reg   int
	Bytes []byte
}

// Console receives decoded remote console output ("O" packets) as
// ReplyReader drains them, in arrival order.
type Console interface {
	Write(text string)
}

// RegisterSink receives register updates decoded from "R" packets.
type RegisterSink interface {
	UpdateRegister(u RegisterUpdate)
}

// ReplyReader drives the noisy-reply loop shared by every TraceSession
// operation that expects a reply: it consumes interleaved "O" (console),
// "R" (register dump) and "E" (error) packets, returning only the actual
// terminal reply.
type ReplyReader struct {
	Conn     Conn
	Console  Console
	Registers RegisterSink
	Frames   FrameSelector
}

// Read runs the loop documented in the protocol contract:
//
//	repeat:
//	  read one packet
//	  if empty payload            -> fail UnsupportedError
//	  else if payload[0] = 'E'    -> decode error code, fail RemoteError
//	  else if payload[0] = 'R'    -> decode register dump, update state,
//	                                 invalidate cached frames, reselect
//	  else if payload[0] = 'O' and payload != "OK"
//	                              -> emit payload[1:] decoded as console
//	                                 output, continue
//	  else                        -> return payload as the actual reply
//
// The returned payload never starts with 'O', 'R' or 'E' (barring the
// literal two-byte "OK").
func (rr *ReplyReader) Read() (string, error) {
	for {
		payload, err := rr.Conn.Recv()
		if err != nil {
			return "", ProtocolError{Reason: err.Error()}
		}
		if payload == "" {
			return "", UnsupportedError{Reason: "target does not support this command"}
		}

		switch {
		case payload[0] == 'E':
			logflags.TraceWireLogger().Debugf("remote error reply: %s", payload)
			return "", decodeRemoteError(payload)

		case payload[0] == 'R':
			if err := rr.handleRegisterDump(payload); err != nil {
				return "", err
			}
			continue

		case payload[0] == 'O' && payload != "OK":
			rr.handleConsole(payload[1:])
			continue

		default:
			return payload, nil
		}
	}
}

func (rr *ReplyReader) handleConsole(hexBody string) {
	if rr.Console == nil {
		return
	}
	raw, err := hex.DecodeString(hexBody)
	if err != nil {
		logflags.TraceWireLogger().Debugf("malformed console payload: %s", hexBody)
		return
	}
	rr.Console.Write(string(raw))
}

// handleRegisterDump decodes an "R<regno>:<hexbytes>;..." packet,
// updates the register sink for each entry, then invalidates any cached
// frame state and reselects the current frame, per the protocol contract.
func (rr *ReplyReader) handleRegisterDump(payload string) error {
	body := payload[1:]
	for _, entry := range strings.Split(strings.TrimSuffix(body, ";"), ";") {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return ProtocolError{Reason: fmt.Sprintf("malformed register entry %q", entry)}
		}
		regno, err := strconv.ParseInt(parts[0], 16, 64)
		if err != nil {
			return ProtocolError{Reason: fmt.Sprintf("malformed register number %q", parts[0])}
		}
		raw, err := hex.DecodeString(parts[1])
		if err != nil {
			return ProtocolError{Reason: fmt.Sprintf("malformed register bytes %q", parts[1])}
		}
		if rr.Registers != nil {
			rr.Registers.UpdateRegister(RegisterUpdate{Reg: int(regno), Bytes: raw})
		}
	}
	if rr.Frames != nil {
		rr.Frames.FlushCachedFrames()
		rr.Frames.InvalidateRegisters()
		rr.Frames.SelectCurrentFrame()
	}
	return nil
}

// decodeRemoteError subcategorizes an "E..." reply: "E10" means the
// outgoing packet was malformed, "E1n" means malformed at field n,
// "E2xx" means a target-side trace API error, anything else is an
// opaque string.
func decodeRemoteError(payload string) error {
	code := payload[1:]
	switch {
	case code == "10":
		return RemoteError{Code: "malformed packet"}
	case strings.HasPrefix(code, "1") && len(code) == 2:
		return RemoteError{Code: fmt.Sprintf("malformed packet at field %c", code[1])}
	case strings.HasPrefix(code, "2"):
		return RemoteError{Code: fmt.Sprintf("target trace API error %s", code[1:])}
	default:
		return RemoteError{Code: code}
	}
}
