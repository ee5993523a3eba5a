package tracepoint

import "testing"

func TestSerializeTracepointHeader(t *testing.T) {
	s := NewSerializer()
	tp := &Tracepoint{Number: 2, Address: 0x4000, Enabled: true, StepCount: 3, PassCount: 100}

	packet, err := s.SerializeTracepoint(tp, NewCollectionList(), nil)
	if err != nil {
		t.Fatal(err)
	}
	const want = "QTDP:2:4000:E:3:64"
	if packet != want {
		t.Fatalf("got %q, want %q", packet, want)
	}
}

func TestSerializeTracepointDisabledFlag(t *testing.T) {
	s := NewSerializer()
	tp := &Tracepoint{Number: 1, Address: 0x10, Enabled: false}
	packet, err := s.SerializeTracepoint(tp, NewCollectionList(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if packet != "QTDP:1:10:D:0:0" {
		t.Fatalf("got %q", packet)
	}
}

func TestSerializeTracepointMemrangeAndRegmask(t *testing.T) {
	s := NewSerializer()
	tp := &Tracepoint{Number: 1, Address: 0x10, Enabled: true}
	trap := NewCollectionList()
	mustAdd(t, trap, 0, 0x20, 4)
	if err := trap.AddRegister(0); err != nil {
		t.Fatal(err)
	}
	trap.Finalize(8)

	packet, err := s.SerializeTracepoint(tp, trap, nil)
	if err != nil {
		t.Fatal(err)
	}
	const want = "QTDP:1:10:E:0:0R01M0,20,4"
	if packet != want {
		t.Fatalf("got %q, want %q", packet, want)
	}
}

func TestSerializeTracepointSteppingSection(t *testing.T) {
	s := NewSerializer()
	tp := &Tracepoint{Number: 1, Address: 0x10, Enabled: true, StepCount: 5}
	trap := NewCollectionList()
	stepping := NewCollectionList()
	if err := stepping.AddRegister(1); err != nil {
		t.Fatal(err)
	}
	stepping.Finalize(8)

	packet, err := s.SerializeTracepoint(tp, trap, stepping)
	if err != nil {
		t.Fatal(err)
	}
	const want = "QTDP:1:10:E:5:0SR02"
	if packet != want {
		t.Fatalf("got %q, want %q", packet, want)
	}
}

func TestSerializeTracepointOmitsEmptyStepping(t *testing.T) {
	s := NewSerializer()
	tp := &Tracepoint{Number: 1, Address: 0x10, Enabled: true}
	packet, err := s.SerializeTracepoint(tp, NewCollectionList(), NewCollectionList())
	if err != nil {
		t.Fatal(err)
	}
	if packet != "QTDP:1:10:E:0:0" {
		t.Fatalf("expected no S section for an empty stepping list, got %q", packet)
	}
}

func TestSerializeTracepointRejectsOversizedPacket(t *testing.T) {
	s := &Serializer{MaxSize: 8}
	tp := &Tracepoint{Number: 9, Address: 0x10, Enabled: true}
	if _, err := s.SerializeTracepoint(tp, NewCollectionList(), nil); err == nil {
		t.Fatal("expected TooComplexError for a packet over MaxSize")
	}
}

func TestFrameRendersNegativeLiterally(t *testing.T) {
	s := NewSerializer()
	if got := s.Frame(-1); got != "QTFrame:-1" {
		t.Fatalf("got %q", got)
	}
	if got := s.Frame(0); got != "QTFrame:0" {
		t.Fatalf("got %q", got)
	}
}

func TestFrameVariants(t *testing.T) {
	s := NewSerializer()
	if got := s.FramePC(0x100); got != "QTFrame:pc:100" {
		t.Fatalf("got %q", got)
	}
	if got := s.FrameTDP(2); got != "QTFrame:tdp:2" {
		t.Fatalf("got %q", got)
	}
	if got := s.FrameRange(0x10, 0x20); got != "QTFrame:range:10:20" {
		t.Fatalf("got %q", got)
	}
	if got := s.FrameOutside(0x10, 0x20); got != "QTFrame:outside:10:20" {
		t.Fatalf("got %q", got)
	}
}
