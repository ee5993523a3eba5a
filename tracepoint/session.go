package tracepoint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-delve/tracepoint/internal/logflags"
)

// ReplayCursor is the process-wide replay state: the currently displayed
// trace frame number and the tracepoint number that produced it, plus the
// reflected convenience values. Both numbers are -1 when not replaying.
type ReplayCursor struct {
	Frame      int
	Tracepoint int
	Line       int
	Func       string
	File       string
}

func newReplayCursor() ReplayCursor {
	return ReplayCursor{Frame: -1, Tracepoint: -1, Line: -1}
}

// TraceSession orchestrates start/stop/status/find and owns the replay
// cursor, the single point of mutation for a successful find.
type TraceSession struct {
	Store      *TracepointStore
	Compiler   *ActionCompiler
	Serializer *Serializer
	Conn       Conn
	Lines      LineTable
	Frames     FrameSelector
	ConvVars   ConvVarSink
	Console    Console
	Registers  RegisterSink

	cursor ReplayCursor
}

// NewTraceSession wires a session over the given collaborators. The
// replay cursor starts at (-1, -1), matching process startup.
func NewTraceSession(store *TracepointStore, compiler *ActionCompiler, conn Conn) *TraceSession {
	return &TraceSession{
		Store:      store,
		Compiler:   compiler,
		Serializer: NewSerializer(),
		Conn:       conn,
		cursor:     newReplayCursor(),
	}
}

func (ts *TraceSession) reader() *ReplyReader {
	return &ReplyReader{Conn: ts.Conn, Console: ts.Console, Registers: ts.Registers, Frames: ts.Frames}
}

func (ts *TraceSession) exchange(packet string) (string, error) {
	if ts.Conn == nil {
		return "", NotRemoteError{}
	}
	if err := ts.Conn.Send(packet); err != nil {
		return "", ProtocolError{Reason: err.Error()}
	}
	return ts.reader().Read()
}

func (ts *TraceSession) expectOK(packet string) error {
	reply, err := ts.exchange(packet)
	if err != nil {
		return err
	}
	if reply != "OK" {
		return ProtocolError{Reason: fmt.Sprintf("unexpected reply %q to %q", reply, packet)}
	}
	return nil
}

// Start sends QTinit, compiles and ships every enabled tracepoint's QTDP
// packet in catalogue order (disabled ones are skipped), and then sends
// QTStart. QTStart is issued only
// after every QTDP has been individually acknowledged, so a failure
// partway through never leaves the target half-configured: the store
// and replay cursor are left unchanged on any error.
func (ts *TraceSession) Start() error {
	logflags.SessionLogger().Debug("tstart")
	if err := ts.expectOK(ts.Serializer.Init()); err != nil {
		return err
	}

	for _, tp := range ts.Store.All() {
		if !tp.Enabled {
			continue
		}
		trap, stepping, err := ts.Compiler.Compile(tp)
		if err != nil {
			return err
		}
		packet, err := ts.Serializer.SerializeTracepoint(tp, trap, stepping)
		if err != nil {
			return err
		}
		if err := ts.expectOK(packet); err != nil {
			return err
		}
	}

	if err := ts.expectOK(ts.Serializer.Start()); err != nil {
		return err
	}
	ts.cursor = newReplayCursor()
	ts.publishCursor()
	return nil
}

// Stop sends QTStop.
func (ts *TraceSession) Stop() error {
	logflags.SessionLogger().Debug("tstop")
	return ts.expectOK(ts.Serializer.Stop())
}

// Status sends qTStatus.
func (ts *TraceSession) Status() (string, error) {
	logflags.SessionLogger().Debug("tstatus")
	return ts.exchange(ts.Serializer.Status())
}

// Cursor returns the session's current replay cursor.
func (ts *TraceSession) Cursor() ReplayCursor { return ts.cursor }

// FindNumber moves the replay cursor to the frame the target reports for
// QTFrame:<n>.
func (ts *TraceSession) FindNumber(n int) error {
	return ts.findGeneric(ts.Serializer.Frame(n))
}

// FindStart moves to the first trace frame (frame 0).
func (ts *TraceSession) FindStart() error {
	return ts.findGeneric(ts.Serializer.Frame(0))
}

// FindNone and FindEnd both terminate replay explicitly. The protocol
// requires the target to echo the literal "F-1" to confirm the cursor
// reset; any other reply (including a generic NotFound F-1 reached via a
// different request) is not equivalent to this explicit-end handshake,
// so this path is kept separate from findGeneric's general NotFound
// handling.
func (ts *TraceSession) FindNone() error { return ts.findEnd() }
func (ts *TraceSession) FindEnd() error  { return ts.findEnd() }

func (ts *TraceSession) findEnd() error {
	reply, err := ts.exchange(ts.Serializer.Frame(-1))
	if err != nil {
		return err
	}
	if reply != "F-1" {
		return ProtocolError{Reason: fmt.Sprintf("expected F-1, got %q", reply)}
	}
	ts.cursor = newReplayCursor()
	ts.publishCursor()
	return nil
}

// FindPC moves to a frame whose captured PC matches pc.
func (ts *TraceSession) FindPC(pc uint64) error {
	return ts.findGeneric(ts.Serializer.FramePC(pc))
}

// FindTracepoint moves to the next frame captured by tracepoint number n.
func (ts *TraceSession) FindTracepoint(n int) error {
	return ts.findGeneric(ts.Serializer.FrameTDP(n))
}

// FindRange moves to a frame whose PC falls in [start, end).
func (ts *TraceSession) FindRange(start, end uint64) error {
	return ts.findGeneric(ts.Serializer.FrameRange(start, end))
}

// FindOutside moves to a frame whose PC falls outside [start, end).
func (ts *TraceSession) FindOutside(start, end uint64) error {
	return ts.findGeneric(ts.Serializer.FrameOutside(start, end))
}

// FindLine resolves locator via Lines and requests a frame inside its PC
// range; if locator has no code on its line, the session walks forward
// to the next line that does.
func (ts *TraceSession) FindLine(locator string) error {
	start, end, err := ts.Lines.ResolveLine(locator)
	if err != nil {
		return InvalidArgumentError{What: err.Error()}
	}
	if end == start {
		start, end, err = ts.Lines.NextLineWithCode(start)
		if err != nil {
			return InvalidArgumentError{What: err.Error()}
		}
	}
	return ts.FindRange(start, end)
}

// FindLineOutside requests a frame outside the current PC's line range,
// the zero-argument form of "tfind line".
func (ts *TraceSession) FindLineOutside() error {
	pc := uint64(0)
	if ts.Frames != nil {
		pc = ts.Frames.CurrentPC()
	}
	start, end, err := ts.Lines.RangeForPC(pc)
	if err != nil {
		return InvalidArgumentError{What: err.Error()}
	}
	return ts.FindOutside(start, end)
}

// findGeneric sends a QTFrame:... request and interprets the reply as an
// interleaving of F<hex>/T<hex>/OK fields. An F value of -1 (all-ones)
// here means NotFound, distinct from findEnd's explicit-termination
// contract.
func (ts *TraceSession) findGeneric(packet string) error {
	reply, err := ts.exchange(packet)
	if err != nil {
		return err
	}

	var frame, tpnum int = -1, -1
	sawF, sawOK := false, false

	for _, field := range strings.Fields(normalizeFindReply(reply)) {
		switch {
		case field == "OK":
			sawOK = true
		case strings.HasPrefix(field, "F"):
			v, perr := parseFindHex(field[1:])
			if perr != nil {
				return ProtocolError{Reason: fmt.Sprintf("malformed F field %q", field)}
			}
			frame = v
			sawF = true
		case strings.HasPrefix(field, "T"):
			v, perr := parseFindHex(field[1:])
			if perr != nil {
				return ProtocolError{Reason: fmt.Sprintf("malformed T field %q", field)}
			}
			tpnum = v
		default:
			return ProtocolError{Reason: fmt.Sprintf("unrecognized reply field %q", field)}
		}
	}

	if !sawF && !sawOK {
		return ProtocolError{Reason: fmt.Sprintf("reply %q carried no F or OK field", reply)}
	}
	if sawF && frame == -1 {
		return NotFoundError{}
	}

	if ts.Frames != nil {
		ts.Frames.FlushCachedFrames()
		ts.Frames.InvalidateRegisters()
		ts.Frames.SelectCurrentFrame()
	}

	ts.cursor.Frame = frame
	ts.cursor.Tracepoint = tpnum
	if ts.Lines != nil && ts.Frames != nil {
		if file, line, fn, err := ts.Lines.PCToLine(ts.Frames.CurrentPC()); err == nil {
			ts.cursor.File = file
			ts.cursor.Line = line
			ts.cursor.Func = fn
		}
	}
	ts.publishCursor()
	return nil
}

// normalizeFindReply inserts separating whitespace between concatenated
// F/T/OK fields so they can be split uniformly, since the wire format
// packs them with no delimiter (e.g. "F1T2" or "F1T2OK").
func normalizeFindReply(reply string) string {
	var b strings.Builder
	for i, r := range reply {
		if i > 0 && (r == 'F' || r == 'T' || (r == 'O' && i+1 < len(reply) && reply[i+1] == 'K')) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func parseFindHex(s string) (int, error) {
	if s == "-1" {
		return -1, nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func (ts *TraceSession) publishCursor() {
	if ts.ConvVars == nil {
		return
	}
	ts.ConvVars.SetInt("trace_frame", ts.cursor.Frame)
	ts.ConvVars.SetInt("tracepoint", ts.cursor.Tracepoint)
	ts.ConvVars.SetInt("trace_line", ts.cursor.Line)
	ts.ConvVars.SetString("trace_func", ts.cursor.Func)
	ts.ConvVars.SetString("trace_file", ts.cursor.File)
}
