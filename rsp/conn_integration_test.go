package rsp_test

import (
	"net"
	"testing"
	"time"

	"github.com/go-delve/tracepoint/internal/fakestub"
	"github.com/go-delve/tracepoint/rsp"
)

func TestConnRoundTripOverPipe(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	srv := fakestub.NewServer(func(req string) []string {
		switch req {
		case "QTinit":
			return []string{"OK"}
		case "qTStatus":
			return []string{"T0;tnotrun:0;"}
		default:
			return []string{"OK"}
		}
	})
	go srv.Serve(server)

	c := rsp.New(client)
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

	if err := c.Send("qTStatus"); err != nil {
		t.Fatal(err)
	}
	reply, err = c.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if reply != "T0;tnotrun:0;" {
		t.Fatalf("got %q", reply)
	}
}

func TestConnSetDeadlineIsANoOpAtZero(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	c := rsp.New(client)
	if err := c.SetDeadline(0); err != nil {
		t.Fatal(err)
	}
	if err := c.SetDeadline(50 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
}
