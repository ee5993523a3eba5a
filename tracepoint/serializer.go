package tracepoint

import (
	"fmt"
	"strings"
)

// MaxPacketSize is the default transport size limit a serialized QTDP
// packet must not exceed. The protocol only requires "at least 2 KiB";
// this module picks 4 KiB, generous enough that only a pathological
// action list trips it.
const MaxPacketSize = 4096

// Serializer renders a Tracepoint and its compiled CollectionLists as the
// wire-format QTDP packet (and the companion QTinit/QTStart/QTStop/
// qTStatus/QTFrame request strings).
type Serializer struct {
	MaxSize int
}

// NewSerializer returns a Serializer enforcing MaxPacketSize unless
// overridden.
func NewSerializer() *Serializer {
	return &Serializer{MaxSize: MaxPacketSize}
}

// SerializeTracepoint renders tp's QTDP packet from its already-compiled
// trap and stepping CollectionLists. tp.StepCount and tp.PassCount are
// read directly off the Tracepoint, not derived from the CollectionLists,
// so a tracepoint can be serialized (e.g. for a property test) without
// ever invoking ActionCompiler.
func (s *Serializer) SerializeTracepoint(tp *Tracepoint, trap, stepping *CollectionList) (string, error) {
	var b strings.Builder

	enabledFlag := byte('D')
	if tp.Enabled {
		enabledFlag = 'E'
	}
	fmt.Fprintf(&b, "QTDP:%x:%x:%c:%x:%x", tp.Number, tp.Address, enabledFlag, tp.StepCount, tp.PassCount)

	writeCollectionBody(&b, trap)

	if stepping != nil && !stepping.Empty() {
		b.WriteString("S")
		writeCollectionBody(&b, stepping)
	}

	out := b.String()
	limit := s.MaxSize
	if limit <= 0 {
		limit = MaxPacketSize
	}
	if len(out) > limit {
		return "", TooComplexError{Number: tp.Number}
	}
	return out, nil
}

func writeCollectionBody(b *strings.Builder, list *CollectionList) {
	if list == nil {
		return
	}
	if mask := regmaskBytes(list.RegBitmap()); len(mask) > 0 {
		b.WriteString("R")
		for _, by := range mask {
			fmt.Fprintf(b, "%02x", by)
		}
	}
	for _, r := range list.Memranges() {
		fmt.Fprintf(b, "M%x,%x,%x", r.Type, uint64(r.Start), uint64(r.End-r.Start))
	}
}

// regmaskBytes renders the bitmap as big-endian bytes with leading
// all-zero bytes stripped. It returns nil when the whole mask is zero, so
// callers can omit the "R" field entirely as the grammar requires.
func regmaskBytes(words [RegBitmapWords]uint64) []byte {
	raw := make([]byte, RegBitmapWords*8)
	for i, w := range words {
		// words[0] holds bits 0-63 (least significant); rendered as the
		// trailing bytes of the big-endian buffer.
		off := (RegBitmapWords - 1 - i) * 8
		for j := 0; j < 8; j++ {
			raw[off+7-j] = byte(w >> uint(8*j))
		}
	}
	i := 0
	for i < len(raw) && raw[i] == 0 {
		i++
	}
	if i == len(raw) {
		return nil
	}
	return raw[i:]
}

// Init renders the "QTinit" request.
func (s *Serializer) Init() string { return "QTinit" }

// Start renders the "QTStart" request.
func (s *Serializer) Start() string { return "QTStart" }

// Stop renders the "QTStop" request.
func (s *Serializer) Stop() string { return "QTStop" }

// Status renders the "qTStatus" request.
func (s *Serializer) Status() string { return "qTStatus" }

// Frame renders "QTFrame:<n_hex>", where n may be negative (e.g. -1 to
// end replay); negative values are rendered as "-1" literally rather than
// as two's-complement hex, matching the protocol's documented "F-1"/
// "QTFrame:-1" convention.
func (s *Serializer) Frame(n int) string {
	if n < 0 {
		return fmt.Sprintf("QTFrame:%d", n)
	}
	return fmt.Sprintf("QTFrame:%x", n)
}

// FramePC renders "QTFrame:pc:<pc_hex>".
func (s *Serializer) FramePC(pc uint64) string { return fmt.Sprintf("QTFrame:pc:%x", pc) }

// FrameTDP renders "QTFrame:tdp:<n_hex>".
func (s *Serializer) FrameTDP(n int) string { return fmt.Sprintf("QTFrame:tdp:%x", n) }

// FrameRange renders "QTFrame:range:<start_hex>:<end_hex>".
func (s *Serializer) FrameRange(start, end uint64) string {
	return fmt.Sprintf("QTFrame:range:%x:%x", start, end)
}

// FrameOutside renders "QTFrame:outside:<start_hex>:<end_hex>".
func (s *Serializer) FrameOutside(start, end uint64) string {
	return fmt.Sprintf("QTFrame:outside:%x:%x", start, end)
}
