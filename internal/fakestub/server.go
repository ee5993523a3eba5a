package fakestub

import (
	"net"

	"github.com/go-delve/tracepoint/rsp"
)

// Handler answers one received packet with zero or more reply packets,
// the last of which is the terminal reply (matching the noisy-reply
// convention: any earlier replies are "O"/"R" packets).
type Handler func(packet string) []string

// Server drives an *rsp.Conn on one end of an established connection,
// dispatching every received packet to Handler and writing back whatever
// it returns. It is used to put a real wire-framed stub on the other end
// of a net.Conn (a net.Pipe for in-process tests such as
// conn_integration_test.go, or the pty side of a PTYPair as in pty_test.go).
type Server struct {
	Handler Handler
	done    chan struct{}
}

// NewServer returns a Server using handler to answer every request.
func NewServer(handler Handler) *Server {
	return &Server{Handler: handler, done: make(chan struct{})}
}

// Serve runs the request/reply loop over c until the connection errors
// out or is closed. It is meant to run in its own goroutine.
func (s *Server) Serve(c net.Conn) {
	defer close(s.done)
	conn := rsp.New(c)
	for {
		req, err := conn.Recv()
		if err != nil {
			return
		}
		for _, reply := range s.Handler(req) {
			if err := conn.Send(reply); err != nil {
				return
			}
		}
	}
}

// Done is closed when Serve returns.
func (s *Server) Done() <-chan struct{} { return s.done }
