package engine

import (
	"math/bits"
	"unicode/utf16"

	"github.com/pkg/errors"
)

// Reference hash table constants.
const (
	defaultTableCapacity = 16
	defaultLoadFactor    = float32(0.75)
	maximumCapacity      = 1 << 30
	treeifyThreshold     = 8
	minTreeifyCapacity   = 64
)

type tableConfig struct {
	initialThreshold int // 0 means lazily sized to the default capacity
	loadFactor       float32
}

// TableOption mirrors the reference table's constructor arguments.
type TableOption func(*tableConfig)

// WithInitialCapacity behaves like constructing the table with an explicit capacity.
func WithInitialCapacity(n int) TableOption {
	return func(c *tableConfig) { c.initialThreshold = tableSizeFor(n) }
}

// WithLoadFactor overrides the 0.75 default.
func WithLoadFactor(f float32) TableOption {
	return func(c *tableConfig) {
		if f > 0 {
			c.loadFactor = f
		}
	}
}

// tableSizeFor returns the power of two >= n, clamped to [1, maximumCapacity].
func tableSizeFor(n int) int {
	if n <= 1 {
		return 1
	}
	if n >= maximumCapacity {
		return maximumCapacity
	}
	return 1 << bits.Len(uint(n-1))
}

// spread folds the high half of the hash into the low half before masking.
func spread(h int32) int32 {
	return h ^ int32(uint32(h)>>16)
}

// JavaStringHash is the reference string hash: s[0]*31^(n-1) + ... + s[n-1] over
// UTF-16 code units with 32-bit wrap-around.
func JavaStringHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}

type bucketEntry[K comparable] struct {
	key  K
	hash int32
}

// bucketTable is a transient model of the reference bucket-chained table. It only
// tracks keys and chain order; values are irrelevant to iteration order.
type bucketTable[K comparable] struct {
	buckets   [][]bucketEntry[K]
	size      int
	threshold int
	cfg       tableConfig
}

func (t *bucketTable[K]) resize() {
	oldCap := len(t.buckets)
	oldThr := t.threshold
	newCap, newThr := 0, 0
	switch {
	case oldCap > 0:
		if oldCap >= maximumCapacity {
			t.threshold = int(^uint32(0) >> 1)
			return
		}
		newCap = oldCap << 1
		if newCap < maximumCapacity && oldCap >= defaultTableCapacity {
			newThr = oldThr << 1
		}
	case oldThr > 0:
		newCap = oldThr
	default:
		newCap = defaultTableCapacity
		newThr = int(float32(defaultTableCapacity) * defaultLoadFactor)
	}
	if newThr == 0 {
		ft := float32(newCap) * t.cfg.loadFactor
		if newCap < maximumCapacity && ft < float32(maximumCapacity) {
			newThr = int(ft)
		} else {
			newThr = int(^uint32(0) >> 1)
		}
	}
	t.threshold = newThr
	next := make([][]bucketEntry[K], newCap)
	for j, chain := range t.buckets {
		if len(chain) == 0 {
			continue
		}
		if len(chain) == 1 {
			e := chain[0]
			idx := int(e.hash) & (newCap - 1)
			next[idx] = append(next[idx], e)
			continue
		}
		var lo, hi []bucketEntry[K]
		for _, e := range chain {
			if int(e.hash)&oldCap == 0 {
				lo = append(lo, e)
			} else {
				hi = append(hi, e)
			}
		}
		next[j] = lo
		next[j+oldCap] = hi
	}
	t.buckets = next
}

func (t *bucketTable[K]) put(key K, raw int32) error {
	h := spread(raw)
	if len(t.buckets) == 0 {
		t.resize()
	}
	idx := int(h) & (len(t.buckets) - 1)
	chain := t.buckets[idx]
	for _, e := range chain {
		if e.hash == h && e.key == key {
			return errors.Wrapf(ErrDuplicateKey, "key %v", key)
		}
	}
	t.buckets[idx] = append(chain, bucketEntry[K]{key: key, hash: h})
	if len(chain)+1 > treeifyThreshold {
		if len(t.buckets) >= minTreeifyCapacity {
			return errors.Wrapf(ErrUntrackedLayout, "bucket %d would hold %d entries at capacity %d", idx, len(chain)+1, len(t.buckets))
		}
		t.resize()
	}
	t.size++
	if t.size > t.threshold {
		t.resize()
	}
	return nil
}

func (t *bucketTable[K]) keys() []K {
	out := make([]K, 0, t.size)
	for _, chain := range t.buckets {
		for _, e := range chain {
			out = append(out, e.key)
		}
	}
	return out
}

// IterationOrderFunc inserts keys in order into a modelled reference table and
// returns the order its iterator would visit them. Keys must be unique.
func IterationOrderFunc[K comparable](keys []K, hash func(K) int32, opts ...TableOption) ([]K, error) {
	cfg := tableConfig{loadFactor: defaultLoadFactor}
	for _, o := range opts {
		o(&cfg)
	}
	t := &bucketTable[K]{threshold: cfg.initialThreshold, cfg: cfg}
	for _, k := range keys {
		if err := t.put(k, hash(k)); err != nil {
			return nil, err
		}
	}
	return t.keys(), nil
}

// IterationOrder is IterationOrderFunc for string keys hashed like the reference runtime.
func IterationOrder(keys []string, opts ...TableOption) ([]string, error) {
	return IterationOrderFunc(keys, JavaStringHash, opts...)
}
