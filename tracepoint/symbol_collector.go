package tracepoint

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/go-delve/tracepoint/internal/logflags"
)

// symbolPlan is the cached outcome of classifying one symbol at one PC:
// either a register to add, a memrange to add, or neither (diagnostic
// only). Caching this lets repeated $loc/$arg walks over the same
// function across many tracepoints skip re-deriving it.
type symbolPlan struct {
	emit       bool
	reg        int // valid when kind == planRegister
	memType    int
	memBase    int64
	memLen     int64
	kind       int
	diagnostic string
}

const (
	planNone = iota
	planRegister
	planMemrange
)

// SymbolCollector maps a resolved Symbol onto emissions into a
// CollectionList, dispatching on the symbol's storage class, and walks
// lexical block trees for the "all locals"/"all arguments" collect items.
type SymbolCollector struct {
	Platform Platform
	cache    *lru.Cache // key: symbolCacheKey, value: symbolPlan
}

type symbolCacheKey struct {
	name string
	pc   uint64
}

// NewSymbolCollector builds a collector bounding its resolved-symbol
// cache to cacheSize entries.
func NewSymbolCollector(platform Platform, cacheSize int) *SymbolCollector {
	if cacheSize <= 0 {
		cacheSize = 512
	}
	c, _ := lru.New(cacheSize)
	return &SymbolCollector{Platform: platform, cache: c}
}

// Collect emits sym's contribution into list, dispatching by storage
// class as in the table:
//
//	static              -> memrange(0, address, length)
//	register / regparm  -> add_register(reg)
//	regparm-addr        -> memrange(reg, 0, length)
//	local / local-arg   -> memrange(FP_REGNUM, offset, length)
//	basereg/basereg-arg -> memrange(reg, offset, length)
//	const/optimized-out/unresolved -> diagnostic only
//	arg / ref-arg       -> diagnostic: unsupported
//
// It returns a non-nil diagnostic error for classes that produce no
// emission; the caller (ActionCompiler) logs and continues rather than
// aborting compilation, mirroring the original's per-symbol warnings.
func (sc *SymbolCollector) Collect(list *CollectionList, sym Symbol, pc uint64) error {
	plan, err := sc.plan(sym, pc)
	if err != nil {
		return err
	}
	switch plan.kind {
	case planRegister:
		return list.AddRegister(plan.reg)
	case planMemrange:
		return list.AddMemrange(plan.memType, plan.memBase, plan.memLen)
	default:
		if plan.diagnostic != "" {
			logflags.CompilerLogger().Debugf("%s", plan.diagnostic)
			return UnsupportedError{Reason: plan.diagnostic}
		}
		return nil
	}
}

func (sc *SymbolCollector) plan(sym Symbol, pc uint64) (symbolPlan, error) {
	key := symbolCacheKey{name: sym.Name, pc: pc}
	if sc.cache != nil {
		if v, ok := sc.cache.Get(key); ok {
			return v.(symbolPlan), nil
		}
	}
	plan := sc.derivePlan(sym)
	if sc.cache != nil {
		sc.cache.Add(key, plan)
	}
	return plan, nil
}

func (sc *SymbolCollector) derivePlan(sym Symbol) symbolPlan {
	switch sym.Class {
	case ClassStatic:
		return symbolPlan{kind: planMemrange, memType: 0, memBase: int64(sym.Address), memLen: int64(sym.Length)}

	case ClassRegister, ClassRegParm:
		return symbolPlan{kind: planRegister, reg: sym.Reg}

	case ClassRegParmAddr:
		return symbolPlan{kind: planMemrange, memType: sym.Reg, memBase: 0, memLen: int64(sym.Length)}

	case ClassLocal, ClassLocalArg:
		fp := 0
		if sc.Platform != nil {
			fp = sc.Platform.FPRegNum()
		}
		return symbolPlan{kind: planMemrange, memType: fp, memBase: sym.Offset, memLen: int64(sym.Length)}

	case ClassBaseReg, ClassBaseRegArg:
		return symbolPlan{kind: planMemrange, memType: sym.Reg, memBase: sym.Offset, memLen: int64(sym.Length)}

	case ClassConst:
		return symbolPlan{kind: planNone, diagnostic: fmt.Sprintf("%s is constant (value %d): will not be collected.", sym.Name, sym.Offset)}

	case ClassOptimizedOut:
		return symbolPlan{kind: planNone, diagnostic: fmt.Sprintf("%s is optimized away and cannot be collected.", sym.Name)}

	case ClassUnresolved:
		return symbolPlan{kind: planNone, diagnostic: fmt.Sprintf("%s is a variable with unknown or unsupported type.", sym.Name)}

	case ClassArg, ClassRefArg:
		return symbolPlan{kind: planNone, diagnostic: "Sorry, don't know how to do LOC_ARGs yet."}

	default:
		return symbolPlan{kind: planNone, diagnostic: fmt.Sprintf("%s has an unrecognized storage class.", sym.Name)}
	}
}

// localClasses and argClasses select which symbols an "all locals"/"all
// arguments" walk inspects in each enclosing block.
var localClasses = map[StorageClass]bool{
	ClassLocal:   true,
	ClassStatic:  true,
	ClassRegister: true,
	ClassBaseReg: true,
}

var argClasses = map[StorageClass]bool{
	ClassArg:          true,
	ClassLocalArg:     true,
	ClassRefArg:       true,
	ClassRegParm:      true,
	ClassRegParmAddr:  true,
	ClassBaseRegArg:   true,
}

// CollectAllLocals walks the lexical block tree outward from pc,
// collecting every symbol in {local, static, register, basereg} in each
// enclosing block, stopping at the first block marked as a function
// boundary (inclusive: the boundary block itself is still inspected).
func (sc *SymbolCollector) CollectAllLocals(list *CollectionList, symtab SymbolTable, pc uint64) (int, error) {
	return sc.collectAllFiltered(list, symtab, pc, localClasses)
}

// CollectAllArgs walks the same block chain, selecting
// {arg, local-arg, ref-arg, regparm, regparm-addr, basereg-arg}.
func (sc *SymbolCollector) CollectAllArgs(list *CollectionList, symtab SymbolTable, pc uint64) (int, error) {
	return sc.collectAllFiltered(list, symtab, pc, argClasses)
}

func (sc *SymbolCollector) collectAllFiltered(list *CollectionList, symtab SymbolTable, pc uint64, classes map[StorageClass]bool) (int, error) {
	if symtab == nil {
		return 0, nil
	}
	block := symtab.BlockForPC(pc)
	count := 0
	for block != nil {
		for _, sym := range block.Symbols {
			if !classes[sym.Class] {
				continue
			}
			if err := sc.Collect(list, sym, pc); err == nil {
				count++
			}
		}
		if block.FunctionBoundary {
			break
		}
		block = block.Super
	}
	if count == 0 {
		return 0, BadActionError{Reason: "No symbols found in scope."}
	}
	return count, nil
}
