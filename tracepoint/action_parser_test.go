package tracepoint

import "testing"

func TestActionParserClassifiesKinds(t *testing.T) {
	p := &ActionParser{}

	al, err := p.Parse("  ")
	if err != nil || al.Kind != KindInvalid {
		t.Fatalf("blank line: got %+v, %v", al, err)
	}

	al, err = p.Parse("end")
	if err != nil || al.Kind != KindEnd {
		t.Fatalf("end: got %+v, %v", al, err)
	}

	al, err = p.Parse("while-stepping")
	if err != nil || al.Kind != KindWhileStepping || al.Steps != -1 {
		t.Fatalf("bare while-stepping: got %+v, %v", al, err)
	}

	al, err = p.Parse("while-stepping 10")
	if err != nil || al.Kind != KindWhileStepping || al.Steps != 10 {
		t.Fatalf("while-stepping 10: got %+v, %v", al, err)
	}

	if _, err := p.Parse("while-stepping 0"); err == nil {
		t.Fatal("expected while-stepping 0 to be rejected")
	}
}

func TestActionParserCollectItems(t *testing.T) {
	p := &ActionParser{}

	al, err := p.Parse("collect $regs, $args, $locals")
	if err != nil {
		t.Fatal(err)
	}
	if al.Kind != KindCollect || len(al.Items) != 3 {
		t.Fatalf("expected 3 items, got %+v", al)
	}
	if al.Items[0].Kind != ItemAllRegisters || al.Items[1].Kind != ItemAllArgs || al.Items[2].Kind != ItemAllLocals {
		t.Fatalf("unexpected item kinds: %+v", al.Items)
	}
}

func TestActionParserMemrangeItem(t *testing.T) {
	p := &ActionParser{}

	al, err := p.Parse("collect $($rbp, -8, 4)")
	if err != nil {
		t.Fatal(err)
	}
	item := al.Items[0]
	if item.Kind != ItemMemrange || !item.HasBaseReg || item.BaseReg != "rbp" || item.MemOffset != -8 || item.MemLength != 4 {
		t.Fatalf("unexpected memrange item: %+v", item)
	}

	al, err = p.Parse("collect $(0x1000, 8)")
	if err != nil {
		t.Fatal(err)
	}
	item = al.Items[0]
	if item.Kind != ItemMemrange || item.HasBaseReg || item.MemOffset != 0x1000 || item.MemLength != 8 {
		t.Fatalf("unexpected absolute memrange item: %+v", item)
	}

	if _, err := p.Parse("collect $(-8)"); err == nil {
		t.Fatal("expected malformed memrange body to be rejected")
	}
}

func TestActionParserExpressionItem(t *testing.T) {
	p := &ActionParser{}

	al, err := p.Parse("collect myvar")
	if err != nil {
		t.Fatal(err)
	}
	if al.Items[0].Kind != ItemExpression || al.Items[0].Expr != "myvar" {
		t.Fatalf("unexpected expression item: %+v", al.Items[0])
	}

	if _, err := p.Parse("collect 1+2"); err == nil {
		t.Fatal("expected a computed expression to be rejected")
	}
	if _, err := p.Parse("collect "); err == nil {
		t.Fatal("expected empty collect to be rejected")
	}
}

func TestActionParserRejectsConstantAndOptimizedOut(t *testing.T) {
	symtab := &stubSymbolTable{
		syms: map[string]Symbol{
			"k":   {Name: "k", Class: ClassConst, Offset: 7},
			"opt": {Name: "opt", Class: ClassOptimizedOut},
		},
	}
	p := &ActionParser{Symbols: symtab}

	if _, err := p.Parse("collect k"); err == nil {
		t.Fatal("expected constant symbol to be rejected")
	}
	if _, err := p.Parse("collect opt"); err == nil {
		t.Fatal("expected optimized-out symbol to be rejected")
	}
}

func TestActionParserUnsupportedVerb(t *testing.T) {
	p := &ActionParser{}
	if _, err := p.Parse("frobnicate"); err == nil {
		t.Fatal("expected unknown verb to be rejected")
	}
}

type stubSymbolTable struct {
	syms map[string]Symbol
}

func (s *stubSymbolTable) Lookup(name string, pc uint64) (Symbol, bool) {
	sym, ok := s.syms[name]
	return sym, ok
}
func (s *stubSymbolTable) RegisterByName(name string) (int, bool) { return 0, false }
func (s *stubSymbolTable) BlockForPC(pc uint64) *Block             { return nil }
