package tracepoint_test

import (
	"testing"

	"github.com/go-delve/tracepoint/internal/fakestub"
	"github.com/go-delve/tracepoint/internal/regset"
	. "github.com/go-delve/tracepoint/tracepoint"
)

func newTestSession(t *testing.T, replies [][]string) (*TraceSession, *fakestub.ScriptedConn, *TracepointStore) {
	t.Helper()
	platform := regset.AMD64()
	symtab := &fakeRegSymbolTable{regs: map[string]int{}}
	collector := NewSymbolCollector(platform, 16)
	compiler := NewActionCompiler(symtab, collector, platform, 16)
	store := NewTracepointStore(platform.Names())
	conn := fakestub.NewScriptedConn(replies)
	session := NewTraceSession(store, compiler, conn)
	session.Frames = &testFrames{}
	return session, conn, store
}

type testFrames struct {
	pc uint64
}

func (f *testFrames) FlushCachedFrames()   {}
func (f *testFrames) InvalidateRegisters() {}
func (f *testFrames) SelectCurrentFrame()  {}
func (f *testFrames) CurrentPC() uint64    { return f.pc }

func TestTraceSessionStartSendsInitDPsAndStart(t *testing.T) {
	session, conn, store := newTestSession(t, [][]string{
		{"OK"}, // QTinit
		{"OK"}, // QTDP for tp1
		{"OK"}, // QTStart
	})
	store.Create(SourceLocator{Address: 0x4000}, nil)

	if err := session.Start(); err != nil {
		t.Fatal(err)
	}
	if len(conn.Sent) != 3 || conn.Sent[0] != "QTinit" || conn.Sent[2] != "QTStart" {
		t.Fatalf("unexpected packet sequence: %v", conn.Sent)
	}
	c := session.Cursor()
	if c.Frame != -1 || c.Tracepoint != -1 {
		t.Fatalf("expected cursor reset after Start, got %+v", c)
	}
}

func TestTraceSessionStartSkipsDisabled(t *testing.T) {
	session, conn, store := newTestSession(t, [][]string{
		{"OK"}, // QTinit
		{"OK"}, // QTStart
	})
	tp := store.Create(SourceLocator{Address: 0x4000}, nil)
	store.Disable(tp)

	if err := session.Start(); err != nil {
		t.Fatal(err)
	}
	if len(conn.Sent) != 2 {
		t.Fatalf("expected disabled tracepoint to be skipped, sent %v", conn.Sent)
	}
}

func TestTraceSessionFindEndRequiresLiteralFMinusOne(t *testing.T) {
	session, _, _ := newTestSession(t, [][]string{{"F-1"}})
	if err := session.FindEnd(); err != nil {
		t.Fatal(err)
	}
	c := session.Cursor()
	if c.Frame != -1 {
		t.Fatalf("expected cursor cleared, got %+v", c)
	}
}

func TestTraceSessionFindEndRejectsNonLiteralReply(t *testing.T) {
	session, _, _ := newTestSession(t, [][]string{{"OK"}})
	if err := session.FindEnd(); err == nil {
		t.Fatal("expected ProtocolError when the reply is not the literal F-1")
	}
}

func TestTraceSessionFindGenericTreatsFMinusOneAsNotFound(t *testing.T) {
	session, _, _ := newTestSession(t, [][]string{{"F-1"}})
	if err := session.FindNumber(5); !isNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func isNotFound(err error) bool {
	_, ok := err.(NotFoundError)
	return ok
}

func TestTraceSessionFindNumberUpdatesCursor(t *testing.T) {
	session, _, _ := newTestSession(t, [][]string{{"F2T3"}})
	if err := session.FindNumber(2); err != nil {
		t.Fatal(err)
	}
	c := session.Cursor()
	if c.Frame != 2 || c.Tracepoint != 3 {
		t.Fatalf("expected frame=2 tracepoint=3, got %+v", c)
	}
}

func TestTraceSessionStopAndStatus(t *testing.T) {
	session, conn, _ := newTestSession(t, [][]string{{"OK"}, {"T1;tnotrun:0;"}})
	if err := session.Stop(); err != nil {
		t.Fatal(err)
	}
	reply, err := session.Status()
	if err != nil {
		t.Fatal(err)
	}
	if reply != "T1;tnotrun:0;" {
		t.Fatalf("got %q", reply)
	}
	if conn.Sent[0] != "QTStop" || conn.Sent[1] != "qTStatus" {
		t.Fatalf("unexpected packets: %v", conn.Sent)
	}
}
