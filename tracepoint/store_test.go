package tracepoint

import "testing"

type intEval struct {
	vals map[string]int
}

func (e *intEval) EvalToInt(expr string) (int, error) {
	name := expr
	if len(name) > 0 && name[0] == '$' {
		name = name[1:]
	}
	v, ok := e.vals[name]
	if !ok {
		return 0, InvalidArgumentError{What: "unknown: " + expr}
	}
	return v, nil
}

type intSink struct {
	ints map[string]int
}

func newIntSink() *intSink { return &intSink{ints: make(map[string]int)} }

func (s *intSink) SetInt(name string, v int)    { s.ints[name] = v }
func (s *intSink) SetString(name string, v string) {}

func TestTracepointStoreCreateNumbersSequentially(t *testing.T) {
	store := NewTracepointStore(nil)
	sink := newIntSink()

	tp1 := store.Create(SourceLocator{Address: 0x10}, sink)
	tp2 := store.Create(SourceLocator{Address: 0x20}, sink)

	if tp1.Number != 1 || tp2.Number != 2 {
		t.Fatalf("expected sequential numbering, got %d, %d", tp1.Number, tp2.Number)
	}
	if sink.ints["tpnum"] != 2 {
		t.Fatalf("expected tpnum to publish only the most recently created number, got %d", sink.ints["tpnum"])
	}
}

func TestTracepointStoreLookupByNumber(t *testing.T) {
	store := NewTracepointStore(nil)
	sink := newIntSink()
	tp := store.Create(SourceLocator{Address: 0x10}, sink)

	got, err := store.LookupByNumber("1")
	if err != nil || got != tp {
		t.Fatalf("lookup by decimal: got %v, %v", got, err)
	}

	got, err = store.LookupByNumber("")
	if err != nil || got != tp {
		t.Fatalf("lookup by empty string (most recent): got %v, %v", got, err)
	}

	if _, err := store.LookupByNumber("99"); err == nil {
		t.Fatal("expected UnknownTracepointError for an unregistered number")
	} else if _, ok := err.(UnknownTracepointError); !ok {
		t.Fatalf("expected UnknownTracepointError, got %T: %v", err, err)
	}

	store.Eval = &intEval{vals: map[string]int{"foo": 1}}
	got, err = store.LookupByNumber("$foo")
	if err != nil || got != tp {
		t.Fatalf("lookup by expression: got %v, %v", got, err)
	}
}

func TestTracepointStoreEnableDisableDelete(t *testing.T) {
	store := NewTracepointStore(nil)
	sink := newIntSink()
	tp := store.Create(SourceLocator{Address: 0x10}, sink)

	store.Disable(tp)
	if tp.Enabled {
		t.Fatal("expected Disable to clear Enabled")
	}
	store.Enable(tp)
	if !tp.Enabled {
		t.Fatal("expected Enable to set Enabled")
	}

	store.Delete(tp)
	if _, ok := store.Get(tp.Number); ok {
		t.Fatal("expected Delete to remove the tracepoint from the store")
	}
	if len(store.All()) != 0 {
		t.Fatal("expected All to reflect the deletion")
	}
}

func TestTracepointStoreSetPassCountAll(t *testing.T) {
	store := NewTracepointStore(nil)
	sink := newIntSink()
	tp1 := store.Create(SourceLocator{Address: 0x10}, sink)
	tp2 := store.Create(SourceLocator{Address: 0x20}, sink)

	store.SetPassCount(nil, 42)
	if tp1.PassCount != 42 || tp2.PassCount != 42 {
		t.Fatalf("expected both tracepoints updated, got %d, %d", tp1.PassCount, tp2.PassCount)
	}
}

type recordingHook struct {
	created, deleted []*Tracepoint
}

func (h *recordingHook) TracepointCreated(tp *Tracepoint) { h.created = append(h.created, tp) }
func (h *recordingHook) TracepointDeleted(tp *Tracepoint) { h.deleted = append(h.deleted, tp) }

func TestTracepointStoreNotifiesHookOnCreateAndDelete(t *testing.T) {
	store := NewTracepointStore(nil)
	hook := &recordingHook{}
	store.Hook = hook
	sink := newIntSink()

	tp := store.Create(SourceLocator{Address: 0x10}, sink)
	if len(hook.created) != 1 || hook.created[0] != tp {
		t.Fatalf("expected hook to observe creation, got %v", hook.created)
	}

	store.Delete(tp)
	if len(hook.deleted) != 1 || hook.deleted[0] != tp {
		t.Fatalf("expected hook to observe deletion, got %v", hook.deleted)
	}
}

func TestTracepointStoreRegisterCompletions(t *testing.T) {
	store := NewTracepointStore([]string{"rax", "rbx", "rbp"})
	got := store.RegisterCompletions("rb")
	if len(got) != 2 {
		t.Fatalf("expected 2 completions for prefix 'rb', got %v", got)
	}
}
