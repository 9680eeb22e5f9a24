package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// PoolID names a static reward pool, e.g. "cards:ironclad:common".
type PoolID string

func CardPool(class, rarity string) PoolID {
	return PoolID("cards:" + strings.ToLower(class) + ":" + strings.ToLower(rarity))
}

func RelicPool(tier string) PoolID { return PoolID("relics:" + strings.ToLower(tier)) }

func PotionPool(class string) PoolID { return PoolID("potions:" + strings.ToLower(class)) }

// ContentTable supplies, per pool, the members in the order the reference engine
// inserts them. Content tables are owned outside this package.
type ContentTable interface {
	InsertionSequence(id PoolID) ([]string, error)
}

// StaticTable is an in-memory ContentTable.
type StaticTable map[PoolID][]string

func (t StaticTable) InsertionSequence(id PoolID) ([]string, error) {
	seq, ok := t[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPool, "pool %q", id)
	}
	return seq, nil
}

// Pools lists the table's pool ids in no particular order.
func (t StaticTable) Pools() []PoolID {
	out := make([]PoolID, 0, len(t))
	for id := range t {
		out = append(out, id)
	}
	return out
}

type contentFile struct {
	Pools map[PoolID][]string `json:"pools"`
}

// LoadContentTable reads {"pools": {"<id>": ["member", ...]}}.
func LoadContentTable(r io.Reader) (StaticTable, error) {
	var f contentFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode content table: %w", err)
	}
	if len(f.Pools) == 0 {
		return nil, errors.New("content table has no pools")
	}
	return StaticTable(f.Pools), nil
}

// Resolver computes and caches the iteration order of each pool. Orders are
// immutable once computed and shared by every run in the process; callers must
// not modify the returned slices.
type Resolver struct {
	table ContentTable
	opts  []TableOption
	cache sync.Map // PoolID -> []string
	group singleflight.Group
}

func NewResolver(table ContentTable, opts ...TableOption) *Resolver {
	return &Resolver{table: table, opts: opts}
}

// Order returns the pool's canonical order. Concurrent first calls compute it once.
func (r *Resolver) Order(id PoolID) ([]string, error) {
	if v, ok := r.cache.Load(id); ok {
		return v.([]string), nil
	}
	v, err, _ := r.group.Do(string(id), func() (any, error) {
		if v, ok := r.cache.Load(id); ok {
			return v, nil
		}
		seq, err := r.table.InsertionSequence(id)
		if err != nil {
			return nil, err
		}
		order, err := IterationOrder(seq, r.opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "pool %q", id)
		}
		r.cache.Store(id, order)
		return order, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Pick selects one member of order with a single draw from s.
func Pick(order []string, s *Substream) (string, int, error) {
	if len(order) == 0 {
		return "", 0, ErrEmptyPool
	}
	idx := s.Int(len(order))
	return order[idx], idx, nil
}
