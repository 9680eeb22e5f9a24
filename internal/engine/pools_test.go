package engine

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type countingTable struct {
	StaticTable
	calls atomic.Int32
}

func (c *countingTable) InsertionSequence(id PoolID) ([]string, error) {
	c.calls.Add(1)
	return c.StaticTable.InsertionSequence(id)
}

func testTable() StaticTable {
	return StaticTable{
		CardPool("Ironclad", "Common"): ironcladCommons,
		RelicPool("boss"):              {},
		PotionPool("any"):              {"Fire Potion", "Fire Potion"},
	}
}

func TestResolverCachesByIdentity(t *testing.T) {
	table := &countingTable{StaticTable: testTable()}
	res := NewResolver(table)
	a, err := res.Order(CardPool("ironclad", "common"))
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	b, _ := res.Order(CardPool("ironclad", "common"))
	if &a[0] != &b[0] {
		t.Fatal("expected the cached slice to be returned")
	}
	if table.calls.Load() != 1 {
		t.Fatalf("content table consulted %d times", table.calls.Load())
	}
	if a[0] != "Anger" || a[len(a)-1] != "Thunderclap" {
		t.Fatalf("unexpected order %v", a)
	}
}

func TestResolverConcurrentFirstCall(t *testing.T) {
	table := &countingTable{StaticTable: testTable()}
	res := NewResolver(table)
	const n = 16
	out := make([][]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, err := res.Order(CardPool("ironclad", "common"))
			if err != nil {
				t.Errorf("Order: %v", err)
				return
			}
			out[i] = o
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if &out[i][0] != &out[0][0] {
			t.Fatalf("goroutine %d got a different slice", i)
		}
	}
}

func TestResolverErrors(t *testing.T) {
	res := NewResolver(testTable())
	if _, err := res.Order("cards:watcher:rare"); !errors.Is(err, ErrUnknownPool) {
		t.Fatalf("expected ErrUnknownPool, got %v", err)
	}
	if _, err := res.Order(PotionPool("any")); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	order, err := res.Order(RelicPool("boss"))
	if err != nil {
		t.Fatalf("empty pool order: %v", err)
	}
	s, _ := Derive(goldenSeed, ChannelRelic)
	if _, _, err := Pick(order, s); !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
	if s.Counter() != 0 {
		t.Fatal("empty pick must not draw")
	}
}

func TestPickUsesOneDraw(t *testing.T) {
	res := NewResolver(testTable())
	order, _ := res.Order(CardPool("ironclad", "common"))
	s, _ := Derive(goldenSeed, ChannelCard)
	want := []string{"Flex", "Thunderclap", "Body Slam", "Armaments"}
	for i, w := range want {
		got, _, err := Pick(order, s)
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
		if got != w {
			t.Fatalf("pick %d: got %q want %q", i, got, w)
		}
	}
	if s.Counter() != len(want) {
		t.Fatalf("counter = %d", s.Counter())
	}
}

func TestLoadContentTable(t *testing.T) {
	raw := `{"pools": {"cards:ironclad:common": ["Anger", "Flex"], "relics:common": ["Anchor"]}}`
	table, err := LoadContentTable(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("LoadContentTable: %v", err)
	}
	if len(table.Pools()) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(table.Pools()))
	}
	if _, err := LoadContentTable(strings.NewReader(`{"pools": {}}`)); err == nil {
		t.Fatal("expected error for empty table")
	}
	if _, err := LoadContentTable(strings.NewReader(`{"cards": {}}`)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
