// +build !windows

package fakestub

import (
	"os"

	"github.com/creack/pty"
)

// PTYPair opens a pty/tty pair and runs a Server on the pty side, giving
// integration tests a connection backed by a real OS pty instead of an
// in-memory pipe. This exercises the transport's partial-read and
// attempt-retry paths against genuine OS buffering, the way the
// teacher's own TTY-backed integration tests do for the debugger
// process, instead of a pipe that never fragments a write.
type PTYPair struct {
	PTY *os.File
	TTY *os.File
	srv *Server
}

// OpenPTYPair allocates a pty pair and starts handler serving requests
// read from the pty side.
func OpenPTYPair(handler Handler) (*PTYPair, error) {
	p, tty, err := pty.Open()
	if err != nil {
		return nil, err
	}
	srv := NewServer(handler)
	go srv.Serve(ptyConn{p})
	return &PTYPair{PTY: p, TTY: tty, srv: srv}, nil
}

// Close releases both ends of the pty pair.
func (pp *PTYPair) Close() error {
	ttyErr := pp.TTY.Close()
	ptyErr := pp.PTY.Close()
	if ttyErr != nil {
		return ttyErr
	}
	return ptyErr
}

// Done is closed once the server loop on the pty side returns.
func (pp *PTYPair) Done() <-chan struct{} { return pp.srv.Done() }
