package tracepoint

import (
	"strings"
	"testing"
)

type fakeLocationResolver struct {
	resolved map[string]SourceLocator
}

func (r *fakeLocationResolver) Resolve(locator string) (SourceLocator, error) {
	loc, ok := r.resolved[locator]
	if !ok {
		return SourceLocator{}, InvalidArgumentError{What: "unknown locator " + locator}
	}
	return loc, nil
}

func TestSaveTracepointsRoundTrip(t *testing.T) {
	store := NewTracepointStore(nil)
	sink := newIntSink()
	tp := store.Create(SourceLocator{Address: 0x4000, CanonicalAddr: "*0x4000"}, sink)
	tp.PassCount = 5
	tp.Actions = []ActionLine{
		{Raw: "collect $regs", Kind: KindCollect},
		{Raw: "while-stepping 3", Kind: KindWhileStepping, Steps: 3},
		{Raw: "collect $locals", Kind: KindCollect},
		{Raw: "end", Kind: KindEnd},
	}

	var buf strings.Builder
	if err := SaveTracepoints(&buf, store.All()); err != nil {
		t.Fatal(err)
	}

	saved := buf.String()
	if !strings.Contains(saved, "trace *0x4000") {
		t.Fatalf("expected trace line with canonical address, got:\n%s", saved)
	}
	if !strings.Contains(saved, "passcount 5") {
		t.Fatalf("expected passcount line, got:\n%s", saved)
	}
	if !strings.Contains(saved, "while-stepping 3") {
		t.Fatalf("expected while-stepping line, got:\n%s", saved)
	}

	resolver := &fakeLocationResolver{resolved: map[string]SourceLocator{
		"*0x4000": {Address: 0x4000, CanonicalAddr: "*0x4000"},
	}}
	newStore := NewTracepointStore(nil)
	parser := &ActionParser{}
	loaded, err := LoadTracepoints(strings.NewReader(saved), newStore, resolver, parser, newIntSink())
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 tracepoint reloaded, got %d", len(loaded))
	}
	reloaded := loaded[0]
	if reloaded.PassCount != 5 {
		t.Fatalf("expected passcount 5 after reload, got %d", reloaded.PassCount)
	}
	if reloaded.Address != 0x4000 {
		t.Fatalf("expected address 0x4000 after reload, got %#x", reloaded.Address)
	}

	var steppingSeen, innerCollectSeen bool
	for _, a := range reloaded.Actions {
		if a.Kind == KindWhileStepping {
			steppingSeen = true
		}
		if a.Raw == "collect $locals" {
			innerCollectSeen = true
		}
	}
	if !steppingSeen || !innerCollectSeen {
		t.Fatalf("expected nested while-stepping block to survive reload: %+v", reloaded.Actions)
	}
}

func TestLoadTracepointsRejectsPasscountOutsideTrace(t *testing.T) {
	resolver := &fakeLocationResolver{resolved: map[string]SourceLocator{}}
	store := NewTracepointStore(nil)
	parser := &ActionParser{}
	_, err := LoadTracepoints(strings.NewReader("passcount 5\n"), store, resolver, parser, newIntSink())
	if err == nil {
		t.Fatal("expected an error for a passcount line with no preceding trace")
	}
}
