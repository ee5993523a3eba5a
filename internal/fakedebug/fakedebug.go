// Package fakedebug provides minimal in-memory implementations of the
// tracepoint package's external collaborator interfaces (SymbolTable,
// LineTable, ExprEvaluator), for use in tests and in the demo mode of
// cmd/trctrace where no real inferior is attached.
package fakedebug

import (
	"sort"
	"strconv"
	"strings"

	"github.com/go-delve/tracepoint/internal/regset"
	"github.com/go-delve/tracepoint/tracepoint"
)

// LineEntry describes one source line's PC range and enclosing function,
// the unit fakedebug's LineTable is built from.
type LineEntry struct {
	File      string
	Line      int
	Func      string
	Start     uint64
	End       uint64 // exclusive; equal to Start when the line carries no code
}

// SymbolTable is a minimal, fully in-memory SymbolTable: a flat map of
// names to symbols for plain lookups, a register table for
// "$regname" resolution, and a tree of blocks for "$loc"/"$arg" walks.
type SymbolTable struct {
	Symbols map[string]tracepoint.Symbol
	Regs    *regset.Table
	Blocks  map[uint64]*tracepoint.Block // keyed by the block's lowest covered PC
	ranges  []uint64
}

// NewSymbolTable returns an empty table over the given register set.
func NewSymbolTable(regs *regset.Table) *SymbolTable {
	return &SymbolTable{
		Symbols: make(map[string]tracepoint.Symbol),
		Regs:    regs,
		Blocks:  make(map[uint64]*tracepoint.Block),
	}
}

// AddSymbol registers a plain symbol, resolvable regardless of PC (this
// fake does not model per-PC shadowing).
func (s *SymbolTable) AddSymbol(sym tracepoint.Symbol) {
	s.Symbols[sym.Name] = sym
}

// AddBlockAt associates a lexical block with every PC at or above start,
// until the next registered start. Blocks may be added in any order.
func (s *SymbolTable) AddBlockAt(start uint64, block *tracepoint.Block) {
	s.Blocks[start] = block
	s.ranges = append(s.ranges, start)
	sort.Slice(s.ranges, func(i, j int) bool { return s.ranges[i] < s.ranges[j] })
}

func (s *SymbolTable) Lookup(name string, pc uint64) (tracepoint.Symbol, bool) {
	sym, ok := s.Symbols[name]
	return sym, ok
}

func (s *SymbolTable) RegisterByName(name string) (int, bool) {
	if s.Regs == nil {
		return 0, false
	}
	return s.Regs.ByName(name)
}

func (s *SymbolTable) BlockForPC(pc uint64) *tracepoint.Block {
	var best uint64
	found := false
	for _, start := range s.ranges {
		if start <= pc {
			best = start
			found = true
		}
	}
	if !found {
		return nil
	}
	return s.Blocks[best]
}

// LineTable is a sorted-by-start slice of LineEntry implementing
// tracepoint.LineTable.
type LineTable struct {
	Entries []LineEntry
}

func (lt *LineTable) sorted() []LineEntry {
	out := make([]LineEntry, len(lt.Entries))
	copy(out, lt.Entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// ResolveLine resolves "file:line", a bare decimal line number, a file
// name or a function name against the first matching entry's PC range.
func (lt *LineTable) ResolveLine(locator string) (start, end uint64, err error) {
	for _, e := range lt.Entries {
		if matchesLocator(e, locator) {
			return e.Start, e.End, nil
		}
	}
	return 0, 0, tracepoint.InvalidArgumentError{What: "no line matching " + locator}
}

func matchesLocator(e LineEntry, locator string) bool {
	if locator == e.File || locator != "" && (e.Func == locator) {
		return true
	}
	file, lineText := "", locator
	if i := strings.LastIndex(locator, ":"); i >= 0 {
		file, lineText = locator[:i], locator[i+1:]
	}
	n, err := strconv.Atoi(lineText)
	if err != nil {
		return false
	}
	return n == e.Line && (file == "" || file == e.File)
}

// NextLineWithCode walks forward from pc to the next entry whose range is
// non-empty.
func (lt *LineTable) NextLineWithCode(pc uint64) (start, end uint64, err error) {
	for _, e := range lt.sorted() {
		if e.Start >= pc && e.End > e.Start {
			return e.Start, e.End, nil
		}
	}
	return 0, 0, tracepoint.InvalidArgumentError{What: "no further line with code"}
}

// RangeForPC returns the range of the entry containing pc.
func (lt *LineTable) RangeForPC(pc uint64) (start, end uint64, err error) {
	for _, e := range lt.Entries {
		if pc >= e.Start && pc < e.End {
			return e.Start, e.End, nil
		}
	}
	return 0, 0, tracepoint.InvalidArgumentError{What: "pc not in any known line"}
}

// PCToLine maps pc to file/line/function.
func (lt *LineTable) PCToLine(pc uint64) (file string, line int, fn string, err error) {
	for _, e := range lt.Entries {
		if pc >= e.Start && pc < e.End {
			return e.File, e.Line, e.Func, nil
		}
	}
	return "", 0, "", tracepoint.InvalidArgumentError{What: "pc not in any known line"}
}

// ConvVars is an in-memory ConvVarSink/ExprEvaluator pair, resolving
// "$name" expressions to previously-set integers.
type ConvVars struct {
	Ints    map[string]int
	Strings map[string]string
}

// NewConvVars returns an empty sink.
func NewConvVars() *ConvVars {
	return &ConvVars{Ints: make(map[string]int), Strings: make(map[string]string)}
}

func (c *ConvVars) SetInt(name string, v int)       { c.Ints[name] = v }
func (c *ConvVars) SetString(name string, v string) { c.Strings[name] = v }

// EvalToInt resolves a bare name or a "$"-prefixed convenience-variable
// reference to its last-set integer value.
func (c *ConvVars) EvalToInt(expr string) (int, error) {
	name := expr
	if len(name) > 0 && name[0] == '$' {
		name = name[1:]
	}
	v, ok := c.Ints[name]
	if !ok {
		return 0, tracepoint.InvalidArgumentError{What: "no convenience variable " + expr}
	}
	return v, nil
}

// LocationResolver resolves a plain "*0xADDR" locator, or any line
// specifier LineTable.ResolveLine accepts, standing in for the debugger's real
// expression/line-spec parser.
type LocationResolver struct {
	Lines *LineTable
}

// Resolve implements tracepoint.LocationResolver.
func (r *LocationResolver) Resolve(locator string) (tracepoint.SourceLocator, error) {
	if len(locator) > 1 && locator[0] == '*' {
		addr, err := parseHexAddr(locator[1:])
		if err != nil {
			return tracepoint.SourceLocator{}, err
		}
		loc := tracepoint.SourceLocator{Address: addr, CanonicalAddr: locator}
		if r.Lines != nil {
			if file, line, _, err := r.Lines.PCToLine(addr); err == nil {
				loc.File, loc.Line = file, line
			}
		}
		return loc, nil
	}
	if r.Lines == nil {
		return tracepoint.SourceLocator{}, tracepoint.InvalidArgumentError{What: "no line table to resolve " + locator}
	}
	start, _, err := r.Lines.ResolveLine(locator)
	if err != nil {
		return tracepoint.SourceLocator{}, err
	}
	file, line, _, _ := r.Lines.PCToLine(start)
	return tracepoint.SourceLocator{Address: start, File: file, Line: line}, nil
}

func parseHexAddr(s string) (uint64, error) {
	var v uint64
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if s == "" {
		return 0, tracepoint.InvalidArgumentError{What: "empty address"}
	}
	for _, r := range s {
		v <<= 4
		switch {
		case r >= '0' && r <= '9':
			v |= uint64(r - '0')
		case r >= 'a' && r <= 'f':
			v |= uint64(r-'a') + 10
		case r >= 'A' && r <= 'F':
			v |= uint64(r-'A') + 10
		default:
			return 0, tracepoint.InvalidArgumentError{What: "bad hex address " + s}
		}
	}
	return v, nil
}

// FrameSelector is a trivial in-memory FrameSelector: it records which of
// the lifecycle calls happened and lets tests set the "current PC"
// directly, since this fake has no real stack to unwind.
type FrameSelector struct {
	PC              uint64
	Flushed         int
	RegsInvalidated int
	Reselected      int
}

func (f *FrameSelector) FlushCachedFrames()   { f.Flushed++ }
func (f *FrameSelector) InvalidateRegisters() { f.RegsInvalidated++ }
func (f *FrameSelector) SelectCurrentFrame()  { f.Reselected++ }
func (f *FrameSelector) CurrentPC() uint64    { return f.PC }

// Console collects decoded remote console output in arrival order.
type Console struct {
	Lines []string
}

func (c *Console) Write(text string) { c.Lines = append(c.Lines, text) }

// RegisterSink records decoded register updates in arrival order.
type RegisterSink struct {
	Updates []tracepoint.RegisterUpdate
}

func (r *RegisterSink) UpdateRegister(u tracepoint.RegisterUpdate) {
	r.Updates = append(r.Updates, u)
}

// UIHook records tracepoint creation/deletion notifications.
type UIHook struct {
	Created []*tracepoint.Tracepoint
	Deleted []*tracepoint.Tracepoint
}

func (h *UIHook) TracepointCreated(tp *tracepoint.Tracepoint) { h.Created = append(h.Created, tp) }
func (h *UIHook) TracepointDeleted(tp *tracepoint.Tracepoint) { h.Deleted = append(h.Deleted, tp) }
