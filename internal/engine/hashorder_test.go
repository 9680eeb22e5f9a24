package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var ironcladCommons = []string{
	"Anger", "Armaments", "Body Slam", "Clash", "Cleave", "Clothesline", "Flex", "Havoc",
	"Headbutt", "Heavy Blade", "Iron Wave", "Perfected Strike", "Pommel Strike", "Shrug It Off",
	"Sword Boomerang", "Thunderclap", "True Grit", "Twin Strike", "Warcry", "Wild Strike",
}

func TestJavaStringHash(t *testing.T) {
	tests := map[string]int32{
		"":      0,
		"a":     97,
		"Anger": 63408103,
		"ab":    97*31 + 98,
	}
	for in, want := range tests {
		if got := JavaStringHash(in); got != want {
			t.Fatalf("JavaStringHash(%q) = %d, want %d", in, got, want)
		}
	}
	// Characters outside the BMP hash as two UTF-16 code units.
	if got, want := JavaStringHash("\U0001F600"), int32(0xD83D)*31+int32(0xDE00); got != want {
		t.Fatalf("surrogate pair hash = %d, want %d", got, want)
	}
}

func TestIterationOrderSnapshot(t *testing.T) {
	got, err := IterationOrder(ironcladCommons)
	if err != nil {
		t.Fatalf("IterationOrder: %v", err)
	}
	want := []string{
		"Anger", "Cleave", "Perfected Strike", "Warcry", "Wild Strike", "Twin Strike", "Shrug It Off",
		"Headbutt", "Clash", "Clothesline", "Iron Wave", "Pommel Strike", "Armaments", "Sword Boomerang",
		"Havoc", "Flex", "Body Slam", "Heavy Blade", "True Grit", "Thunderclap",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestIterationOrderDependsOnInsertionWithinBucket(t *testing.T) {
	rev := make([]string, len(ironcladCommons))
	for i, k := range ironcladCommons {
		rev[len(rev)-1-i] = k
	}
	got, err := IterationOrder(rev)
	if err != nil {
		t.Fatalf("IterationOrder: %v", err)
	}
	want := []string{
		"Anger", "Perfected Strike", "Cleave", "Warcry", "Wild Strike", "Twin Strike", "Shrug It Off",
		"Headbutt", "Iron Wave", "Clothesline", "Clash", "Pommel Strike", "Armaments", "Sword Boomerang",
		"Havoc", "Flex", "True Grit", "Heavy Blade", "Body Slam", "Thunderclap",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestIterationOrderIsPure(t *testing.T) {
	a, _ := IterationOrder(ironcladCommons)
	b, _ := IterationOrder(ironcladCommons)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("repeat calls differ:\n%s", diff)
	}
}

func TestIterationOrderEmptyAndSmall(t *testing.T) {
	got, err := IterationOrder(nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("empty input: got %v, %v", got, err)
	}
	got, _ = IterationOrder([]string{"b", "a", "c"})
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("small order mismatch:\n%s", diff)
	}
}

func TestIterationOrderDuplicateKey(t *testing.T) {
	_, err := IterationOrder([]string{"Anger", "Flex", "Anger"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func identityHash(v int) int32 { return int32(v) }

func TestLongChainResizesBeforeTreeCapacity(t *testing.T) {
	// Nine keys in bucket 0 of a 16-slot table force the early resize.
	keys := []int{0, 16, 32, 48, 64, 80, 96, 112, 128, 1, 2}
	got, err := IterationOrderFunc(keys, identityHash)
	if err != nil {
		t.Fatalf("IterationOrderFunc: %v", err)
	}
	want := []int{0, 32, 64, 96, 128, 1, 2, 16, 48, 80, 112}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestLongChainAtTreeCapacityIsRejected(t *testing.T) {
	keys := make([]int, 9)
	for i := range keys {
		keys[i] = i * 64
	}
	_, err := IterationOrderFunc(keys, identityHash, WithInitialCapacity(64))
	if !errors.Is(err, ErrUntrackedLayout) {
		t.Fatalf("expected ErrUntrackedLayout, got %v", err)
	}
}

func TestInitialCapacityChangesOrder(t *testing.T) {
	got, err := IterationOrder([]string{"Anger", "Flex", "Havoc", "Clash", "Warcry"}, WithInitialCapacity(4))
	if err != nil {
		t.Fatalf("IterationOrder: %v", err)
	}
	want := []string{"Anger", "Flex", "Warcry", "Havoc", "Clash"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestTableSizeFor(t *testing.T) {
	for in, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 16: 16, 17: 32, 100: 128} {
		if got := tableSizeFor(in); got != want {
			t.Fatalf("tableSizeFor(%d) = %d, want %d", in, got, want)
		}
	}
}
