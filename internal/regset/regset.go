// Package regset supplies per-platform register tables: raw register
// sizes, the frame-pointer register index, and the coalescing gap
// tracepoint.CollectionList.Finalize uses. A debugger normally builds
// this information dynamically from the target's qXfer:features:read
// XML; this module treats that exchange as the transport's concern and
// ships static tables for the two platforms it documents.
package regset

import "github.com/derekparker/trie"

// Table implements tracepoint.Platform for one architecture.
type Table struct {
	name         string
	rawSize      []uint64
	fpRegNum     int
	maxRegVSize  int64
	names        []string
	byName       map[string]int
	index        *trie.Trie
}

// RegRawSize returns the wire size in bytes of register reg, or 8 if reg
// is out of the table's range (a conservative default rather than a
// panic, since an out-of-range register number is a caller bug this
// package has no business crashing over).
func (t *Table) RegRawSize(reg int) uint64 {
	if reg < 0 || reg >= len(t.rawSize) {
		return 8
	}
	return t.rawSize[reg]
}

// MaxRegisterVirtualSize bounds MemrangeSet's coalescing gap.
func (t *Table) MaxRegisterVirtualSize() int64 { return t.maxRegVSize }

// FPRegNum is the frame-pointer register index for local/local-arg
// symbols.
func (t *Table) FPRegNum() int { return t.fpRegNum }

// NumRegisters is the number of general registers "$reg" collects.
func (t *Table) NumRegisters() int { return len(t.rawSize) }

// Name returns the table's architecture name ("amd64", "arm64").
func (t *Table) Name() string { return t.name }

// ByName resolves a register name to its index.
func (t *Table) ByName(name string) (int, bool) {
	n, ok := t.byName[name]
	return n, ok
}

// Names returns every register name in index order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Completions returns every register name with the given prefix, using
// the trie index so partial-name lookup during action editing stays
// sublinear even as the table grows.
func (t *Table) Completions(prefix string) []string {
	return t.index.PrefixSearch(prefix)
}

func build(name string, names []string, rawSize []uint64, fpRegNum int, maxRegVSize int64) *Table {
	t := &Table{
		name:        name,
		rawSize:     rawSize,
		fpRegNum:    fpRegNum,
		maxRegVSize: maxRegVSize,
		names:       names,
		byName:      make(map[string]int, len(names)),
		index:       trie.New(),
	}
	for i, n := range names {
		t.byName[n] = i
		t.index.Add(n, i)
	}
	return t
}

// AMD64 register order mirrors the DWARF register numbering gdbserial
// builds from amd64's target description: general-purpose registers
// first, then rip, eflags and the segment registers.
var amd64Names = []string{
	"rax", "rdx", "rcx", "rbx", "rsi", "rdi", "rbp", "rsp",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	"rip", "eflags", "cs", "ss", "ds", "es", "fs", "gs",
}

var arm64Names = []string{
	"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7",
	"x8", "x9", "x10", "x11", "x12", "x13", "x14", "x15",
	"x16", "x17", "x18", "x19", "x20", "x21", "x22", "x23",
	"x24", "x25", "x26", "x27", "x28", "fp", "lr", "sp", "pc",
}

// AMD64 returns the amd64 register table. FP_REGNUM is "rbp" (index 6);
// MAX_REGISTER_VIRTUAL_SIZE is 8, one 64-bit register's width, so two
// nearly-adjacent captures coalesce into one memory fetch the size of a
// machine word.
func AMD64() *Table {
	sizes := make([]uint64, len(amd64Names))
	for i := range sizes {
		sizes[i] = 8
	}
	return build("amd64", amd64Names, sizes, 6, 8)
}

// ARM64 returns the arm64 register table. FP_REGNUM is "fp" (x29).
func ARM64() *Table {
	sizes := make([]uint64, len(arm64Names))
	for i := range sizes {
		sizes[i] = 8
	}
	fp := 29
	return build("arm64", arm64Names, sizes, fp, 8)
}
