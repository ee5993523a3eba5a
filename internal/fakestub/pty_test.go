// +build !windows

package fakestub

import (
	"testing"

	"github.com/go-delve/tracepoint/rsp"
)

func TestPTYPairRoundTrip(t *testing.T) {
	pair, err := OpenPTYPair(func(req string) []string {
		switch req {
		case "QTinit":
			return []string{"OK"}
		default:
			return []string{"OK"}
		}
	})
	if err != nil {
		t.Skipf("pty not available in this environment: %v", err)
	}
	defer pair.Close()

	c := rsp.New(ptyConn{pair.TTY})
	if err := c.Send("QTinit"); err != nil {
		t.Fatal(err)
	}
	reply, err := c.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if reply != "OK" {
		t.Fatalf("got %q", reply)
	}
}
