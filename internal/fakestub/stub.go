// Package fakestub provides a scripted or programmatic fake target stub
// for exercising the tracepoint package's transport-facing code without a
// real remote target: a tracepoint.Conn implementation driven directly by
// a reply script, and a wire-level server speaking real RSP framing for
// integration tests of the rsp package.
package fakestub

import "github.com/go-delve/tracepoint/tracepoint"

// ScriptedConn is a tracepoint.Conn whose replies come from a
// preprogrammed queue, one []string per Send call (deliberately noisy
// replies are expressed as multiple queued strings returned across
// successive Recv calls). It records every packet sent to it, so tests
// can assert on what the session/serializer actually produced.
type ScriptedConn struct {
	Sent []string

	replies [][]string
	cursor  int
	pending []string
}

// NewScriptedConn returns a ScriptedConn that answers the n-th Send with
// the n-th []string in replies, draining each slice's strings across
// successive Recv calls (so a noisy reply is simply a multi-element
// slice: the console/register packets followed by the terminal reply).
func NewScriptedConn(replies [][]string) *ScriptedConn {
	return &ScriptedConn{replies: replies}
}

func (s *ScriptedConn) Send(packet string) error {
	s.Sent = append(s.Sent, packet)
	if s.cursor < len(s.replies) {
		s.pending = append([]string{}, s.replies[s.cursor]...)
		s.cursor++
	} else {
		s.pending = nil
	}
	return nil
}

func (s *ScriptedConn) Recv() (string, error) {
	if len(s.pending) == 0 {
		return "", tracepoint.ProtocolError{Reason: "fakestub: no scripted reply remaining"}
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	return next, nil
}
