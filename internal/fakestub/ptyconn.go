// +build !windows

package fakestub

import (
	"net"
	"os"
	"time"
)

// ptyConn adapts an *os.File (as returned by pty.Open) to the net.Conn
// interface rsp.New expects, since a pty endpoint is a plain file
// descriptor rather than a socket.
type ptyConn struct {
	f *os.File
}

func (c ptyConn) Read(b []byte) (int, error)  { return c.f.Read(b) }
func (c ptyConn) Write(b []byte) (int, error) { return c.f.Write(b) }
func (c ptyConn) Close() error                { return c.f.Close() }
func (c ptyConn) LocalAddr() net.Addr         { return ptyAddr{} }
func (c ptyConn) RemoteAddr() net.Addr        { return ptyAddr{} }
func (c ptyConn) SetDeadline(t time.Time) error {
	return c.f.SetDeadline(t)
}
func (c ptyConn) SetReadDeadline(t time.Time) error  { return c.f.SetReadDeadline(t) }
func (c ptyConn) SetWriteDeadline(t time.Time) error { return c.f.SetWriteDeadline(t) }

type ptyAddr struct{}

func (ptyAddr) Network() string { return "pty" }
func (ptyAddr) String() string  { return "pty" }
