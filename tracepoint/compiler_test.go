package tracepoint_test

import (
	"testing"

	"github.com/go-delve/tracepoint/internal/regset"
	. "github.com/go-delve/tracepoint/tracepoint"
)

func newTestCompiler() (*ActionCompiler, *fakeRegSymbolTable) {
	platform := regset.AMD64()
	symtab := &fakeRegSymbolTable{regs: map[string]int{"rax": 0, "rbp": 6}}
	collector := NewSymbolCollector(platform, 16)
	return NewActionCompiler(symtab, collector, platform, 16), symtab
}

func TestActionCompilerSplitsTrapAndStepping(t *testing.T) {
	compiler, symtab := newTestCompiler()
	symtab.syms = map[string]Symbol{
		"g": {Name: "g", Class: ClassStatic, Address: 0x4000, Length: 4},
	}

	tp := &Tracepoint{
		Number:  1,
		Address: 0x4000,
		Actions: []ActionLine{
			{Kind: KindCollect, Items: []CollectItem{{Kind: ItemExpression, Expr: "g"}}},
			{Kind: KindWhileStepping, Steps: 5},
			{Kind: KindCollect, Items: []CollectItem{{Kind: ItemAllRegisters}}},
			{Kind: KindEnd},
		},
	}

	trap, stepping, err := compiler.Compile(tp)
	if err != nil {
		t.Fatal(err)
	}
	if len(trap.Memranges()) != 1 {
		t.Fatalf("expected 1 trap memrange, got %+v", trap.Memranges())
	}
	if stepping.Empty() {
		t.Fatal("expected stepping list to hold the all-registers collection")
	}
	if tp.StepCount != 5 {
		t.Fatalf("expected StepCount to be set from while-stepping line, got %d", tp.StepCount)
	}
}

// TestActionCompilerPreservesStepCountWithoutSteppingLine verifies that an
// action list with no while-stepping line leaves a pre-existing StepCount
// untouched rather than zeroing it.
func TestActionCompilerPreservesStepCountWithoutSteppingLine(t *testing.T) {
	compiler, symtab := newTestCompiler()
	symtab.syms = map[string]Symbol{
		"g": {Name: "g", Class: ClassStatic, Address: 0x4000, Length: 4},
	}

	tp := &Tracepoint{
		Number:    2,
		Address:   0x4000,
		StepCount: 100,
		Actions: []ActionLine{
			{Kind: KindCollect, Items: []CollectItem{{Kind: ItemExpression, Expr: "g"}}},
		},
	}

	if _, _, err := compiler.Compile(tp); err != nil {
		t.Fatal(err)
	}
	if tp.StepCount != 100 {
		t.Fatalf("expected StepCount to remain 100, got %d", tp.StepCount)
	}
}

func TestActionCompilerCachesByDigest(t *testing.T) {
	compiler, symtab := newTestCompiler()
	symtab.syms = map[string]Symbol{
		"g": {Name: "g", Class: ClassStatic, Address: 0x4000, Length: 4},
	}
	tp := &Tracepoint{
		Number:  3,
		Address: 0x4000,
		Actions: []ActionLine{{Raw: "collect g", Kind: KindCollect, Items: []CollectItem{{Kind: ItemExpression, Expr: "g"}}}},
	}

	trap1, _, err := compiler.Compile(tp)
	if err != nil {
		t.Fatal(err)
	}
	trap2, _, err := compiler.Compile(tp)
	if err != nil {
		t.Fatal(err)
	}
	if trap1 != trap2 {
		t.Fatal("expected the second Compile to return the cached CollectionList pointer")
	}

	compiler.Invalidate(tp)
	trap3, _, err := compiler.Compile(tp)
	if err != nil {
		t.Fatal(err)
	}
	if trap3 == trap1 {
		t.Fatal("expected Invalidate to force recompilation with a fresh CollectionList")
	}
}

func TestActionCompilerRegisterExpressionItem(t *testing.T) {
	compiler, _ := newTestCompiler()
	tp := &Tracepoint{
		Number:  4,
		Address: 0x5000,
		Actions: []ActionLine{
			{Kind: KindCollect, Items: []CollectItem{{Kind: ItemExpression, Expr: "$rax"}}},
		},
	}
	trap, _, err := compiler.Compile(tp)
	if err != nil {
		t.Fatal(err)
	}
	if !trap.HasRegister(0) {
		t.Fatal("expected $rax to set register bit 0")
	}
}

type fakeRegSymbolTable struct {
	syms map[string]Symbol
	regs map[string]int
}

func (f *fakeRegSymbolTable) Lookup(name string, pc uint64) (Symbol, bool) {
	sym, ok := f.syms[name]
	return sym, ok
}
func (f *fakeRegSymbolTable) RegisterByName(name string) (int, bool) {
	n, ok := f.regs[name]
	return n, ok
}
func (f *fakeRegSymbolTable) BlockForPC(pc uint64) *Block { return nil }
