package tracepoint

import (
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru"
)

// compiledCache bounds the memory of ActionCompiler's memoized
// (trap, stepping) pairs, keyed on a hash of the tracepoint's action
// text plus its address: unchanged tracepoints skip recompilation on
// repeated trace starts. It is a separate lru.Cache from
// SymbolCollector's resolved-symbol cache (symbol_collector.go); the two
// have unrelated key spaces and lifetimes, so sharing one map would only
// complicate eviction accounting for no benefit.
type compiledCache struct {
	cache *lru.Cache
}

type compiledEntry struct {
	trap     *CollectionList
	stepping *CollectionList
	stepCnt  int
}

func newCompiledCache(size int) *compiledCache {
	if size <= 0 {
		size = 256
	}
	c, _ := lru.New(size)
	return &compiledCache{cache: c}
}

func actionDigest(addr uint64, actions []ActionLine) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	putUint64(buf[:], addr)
	h.Write(buf[:])
	for _, a := range actions {
		h.Write([]byte(a.Raw))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> uint(8*i))
	}
}

func (c *compiledCache) get(key uint64) (compiledEntry, bool) {
	if c == nil || c.cache == nil {
		return compiledEntry{}, false
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return compiledEntry{}, false
	}
	return v.(compiledEntry), true
}

func (c *compiledCache) put(key uint64, e compiledEntry) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Add(key, e)
}

func (c *compiledCache) invalidate(key uint64) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Remove(key)
}
