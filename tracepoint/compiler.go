package tracepoint

import "github.com/go-delve/tracepoint/internal/logflags"

// ActionCompiler walks one tracepoint's action list, splitting it into a
// trap CollectionList (collected on hit) and a stepping CollectionList
// (collected on each single-step after hit), resolving collect items via
// SymbolCollector and MemrangeSet.AddMemrange.
type ActionCompiler struct {
	Symbols   SymbolTable
	Collector *SymbolCollector
	Platform  Platform
	cache     *compiledCache
}

// NewActionCompiler builds a compiler whose compiled-list cache holds up
// to cacheSize entries.
func NewActionCompiler(symbols SymbolTable, collector *SymbolCollector, platform Platform, cacheSize int) *ActionCompiler {
	return &ActionCompiler{Symbols: symbols, Collector: collector, Platform: platform, cache: newCompiledCache(cacheSize)}
}

// Compile produces (trap, stepping) CollectionLists for tp. It does not
// modify tp.StepCount unless a while-stepping action line is actually
// encountered: an empty or step-free action list leaves tp.StepCount at
// whatever value it already carried (e.g. one set directly on the
// Tracepoint by its creator), since StepCount is a property of the
// tracepoint's definition, not a byproduct of recompiling its actions.
func (ac *ActionCompiler) Compile(tp *Tracepoint) (trap, stepping *CollectionList, err error) {
	digest := actionDigest(tp.Address, tp.Actions)
	if entry, ok := ac.cache.get(digest); ok {
		tp.StepCount = entry.stepCnt
		return entry.trap, entry.stepping, nil
	}

	trap = NewCollectionList()
	stepping = NewCollectionList()
	active := trap
	inStepping := false
	stepCount := tp.StepCount

	for _, line := range tp.Actions {
		switch line.Kind {
		case KindCollect:
			for _, item := range line.Items {
				if cerr := ac.collectItem(active, item, tp.Address); cerr != nil {
					logflags.CompilerLogger().Debugf("tracepoint %d: %v", tp.Number, cerr)
				}
			}

		case KindWhileStepping:
			stepCount = line.Steps
			active = stepping
			inStepping = true

		case KindEnd:
			if inStepping {
				active = trap
				inStepping = false
				continue
			}
			// Closes the whole action list; nothing left to do.

		case KindInvalid:
			// Dropped by the parser already; nothing to compile.
		}
	}

	maxGap := int64(8)
	if ac.Platform != nil {
		maxGap = ac.Platform.MaxRegisterVirtualSize()
	}
	trap.Finalize(maxGap)
	stepping.Finalize(maxGap)

	if err := ac.checkSize(trap); err != nil {
		return nil, nil, TooComplexError{Number: tp.Number}
	}
	if err := ac.checkSize(stepping); err != nil {
		return nil, nil, TooComplexError{Number: tp.Number}
	}

	tp.StepCount = stepCount
	ac.cache.put(digest, compiledEntry{trap: trap, stepping: stepping, stepCnt: stepCount})
	return trap, stepping, nil
}

// Invalidate drops any cached compilation for tp, forcing the next
// Compile call to recompute it. Callers invoke this whenever a
// tracepoint's actions are edited.
func (ac *ActionCompiler) Invalidate(tp *Tracepoint) {
	ac.cache.invalidate(actionDigest(tp.Address, tp.Actions))
}

// checkSize is a conservative stand-in for the transport size limit: a
// pathological number of memranges (more than 4096) is rejected here
// rather than only discovered at serialization time; the regmask is not
// checked. This matches the
// original behavior of catching overflow during action-list encoding
// rather than packet assembly.
func (ac *ActionCompiler) checkSize(list *CollectionList) error {
	const maxMemranges = 4096
	if len(list.Memranges()) > maxMemranges {
		return ProtocolError{Reason: "too many memranges"}
	}
	return nil
}

func (ac *ActionCompiler) collectItem(list *CollectionList, item CollectItem, pc uint64) error {
	switch item.Kind {
	case ItemAllRegisters:
		n := ac.Platform.NumRegisters()
		for r := 0; r < n; r++ {
			if err := list.AddRegister(r); err != nil {
				return err
			}
		}
		return nil

	case ItemAllArgs:
		_, err := ac.Collector.CollectAllArgs(list, ac.Symbols, pc)
		return err

	case ItemAllLocals:
		_, err := ac.Collector.CollectAllLocals(list, ac.Symbols, pc)
		return err

	case ItemMemrange:
		typ := 0
		if item.HasBaseReg {
			reg, ok := ac.Symbols.RegisterByName(item.BaseReg)
			if !ok {
				return InvalidArgumentError{What: "unknown register " + item.BaseReg}
			}
			typ = reg
		}
		return list.AddMemrange(typ, item.MemOffset, item.MemLength)

	case ItemExpression:
		name := item.Expr
		if len(name) > 0 && name[0] == '$' {
			reg, ok := ac.Symbols.RegisterByName(name[1:])
			if !ok {
				return InvalidArgumentError{What: "unknown register " + name}
			}
			return list.AddRegister(reg)
		}
		sym, ok := ac.Symbols.Lookup(name, pc)
		if !ok {
			return UnsupportedError{Reason: name + " is a variable with unknown or unsupported type."}
		}
		return ac.Collector.Collect(list, sym, pc)

	default:
		return InvalidArgumentError{What: "unrecognized collect item"}
	}
}
