package tracepoint

import (
	"strconv"
	"strings"
	"sync"

	"github.com/derekparker/trie"

	"github.com/go-delve/tracepoint/internal/logflags"
)

// UIHook is notified of store mutations a front end may want to reflect
// (a new tracepoint created, one deleted). It is optional; a nil hook is
// a no-op.
type UIHook interface {
	TracepointCreated(tp *Tracepoint)
	TracepointDeleted(tp *Tracepoint)
}

// TracepointStore is the catalogue of tracepoints: it owns numbering,
// lookup, enable/disable/delete and pass-count updates. It is the sole
// durable owner of every Tracepoint; no other component keeps one past
// the call that handed it out.
type TracepointStore struct {
	mu       sync.Mutex
	byOrder  []*Tracepoint
	byNumber map[int]*Tracepoint
	count    int

	Eval ExprEvaluator
	Hook UIHook

	regTrie *trie.Trie
}

// NewTracepointStore returns an empty store. registerNames seeds the
// register-name prefix index that RegisterCompletions queries.
func NewTracepointStore(registerNames []string) *TracepointStore {
	t := trie.New()
	for _, n := range registerNames {
		t.Add(n, nil)
	}
	return &TracepointStore{
		byNumber: make(map[int]*Tracepoint),
		regTrie:  t,
	}
}

// RegisterCompletions returns every indexed register name with the given
// prefix.
func (s *TracepointStore) RegisterCompletions(prefix string) []string {
	return s.regTrie.PrefixSearch(prefix)
}

// Create allocates a tracepoint at loc, assigns it count+1, appends it to
// the catalogue, and publishes "tpnum" via the sink. Address resolution
// and validation are the caller's responsibility, performed before Create
// is invoked: once Create returns successfully no failure path can leave
// a partially constructed entry, since Create itself never fails.
func (s *TracepointStore) Create(loc SourceLocator, sink ConvVarSink) *Tracepoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	tp := &Tracepoint{
		Number:        s.count,
		Address:       loc.Address,
		SourceFile:    loc.File,
		SourceLine:    loc.Line,
		CanonicalAddr: loc.CanonicalAddr,
		Language:      loc.Language,
		InputRadix:    loc.InputRadix,
		Enabled:       true,
	}
	s.byOrder = append(s.byOrder, tp)
	s.byNumber[tp.Number] = tp

	if sink != nil {
		sink.SetInt("tpnum", tp.Number)
	}
	if s.Hook != nil {
		s.Hook.TracepointCreated(tp)
	}
	logflags.SessionLogger().Debugf("created tracepoint %d at 0x%x", tp.Number, tp.Address)
	return tp
}

// LookupByNumber parses text as either a decimal number, the empty
// string (meaning the most recently created tracepoint), or a
// convenience-variable expression evaluated via Eval. An unknown number
// returns (nil, UnknownTracepointError), a warning-level, non-fatal
// result the caller is expected to report and continue past; any other
// parse failure returns (nil, InvalidArgumentError).
func (s *TracepointStore) LookupByNumber(text string) (*Tracepoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		if len(s.byOrder) == 0 {
			return nil, InvalidArgumentError{What: "No default tracepoint number."}
		}
		return s.byOrder[len(s.byOrder)-1], nil
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		if s.Eval == nil {
			return nil, InvalidArgumentError{What: "No symbol \"" + text + "\" in current context."}
		}
		n, err = s.Eval.EvalToInt(text)
		if err != nil {
			return nil, InvalidArgumentError{What: err.Error()}
		}
	}

	tp, ok := s.byNumber[n]
	if !ok {
		return nil, UnknownTracepointError{Number: n}
	}
	return tp, nil
}

// Get returns the tracepoint with the given number, or (nil, false).
func (s *TracepointStore) Get(number int) (*Tracepoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tp, ok := s.byNumber[number]
	return tp, ok
}

// All returns every tracepoint in insertion order. The returned slice is
// a fresh copy; mutating it does not affect the store.
func (s *TracepointStore) All() []*Tracepoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Tracepoint, len(s.byOrder))
	copy(out, s.byOrder)
	return out
}

// Enable sets tp.Enabled = true. Idempotent.
func (s *TracepointStore) Enable(tp *Tracepoint) { tp.Enabled = true }

// Disable sets tp.Enabled = false. Idempotent.
func (s *TracepointStore) Disable(tp *Tracepoint) { tp.Enabled = false }

// Delete unlinks tp from the catalogue and notifies the UI hook. Numbers
// of surviving tracepoints are left untouched; the deleted number is
// never reused.
func (s *TracepointStore) Delete(tp *Tracepoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byNumber, tp.Number)
	for i, cand := range s.byOrder {
		if cand == tp {
			s.byOrder = append(s.byOrder[:i], s.byOrder[i+1:]...)
			break
		}
	}
	if s.Hook != nil {
		s.Hook.TracepointDeleted(tp)
	}
}

// ForEach calls fn for every tracepoint in insertion order.
func (s *TracepointStore) ForEach(fn func(*Tracepoint)) {
	for _, tp := range s.All() {
		fn(tp)
	}
}

// IterFiltered calls fn for every tracepoint whose number appears in
// numbers, in the order numbers lists them. Unknown numbers are silently
// skipped (callers validate separately if they need to warn).
func (s *TracepointStore) IterFiltered(numbers []int, fn func(*Tracepoint)) {
	for _, n := range numbers {
		if tp, ok := s.Get(n); ok {
			fn(tp)
		}
	}
}

// SetPassCount updates tp's pass count. Passing a nil tp updates every
// tracepoint in the store (the "passcount N all" form).
func (s *TracepointStore) SetPassCount(tp *Tracepoint, count uint64) {
	if tp != nil {
		tp.PassCount = count
		return
	}
	s.ForEach(func(t *Tracepoint) { t.PassCount = count })
}
