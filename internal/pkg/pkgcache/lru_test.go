package pkgcache

import (
	"fmt"
	"sync"
	"testing"
)

func TestLRU_GetAdd(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	// "b" is now least recently used.
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("Get(c) = %d, %v; want 3, true", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestLRU_AddReplaces(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, string](2)
	c.Add("a", "x")
	c.Add("a", "y")

	if v, _ := c.Get("a"); v != "y" {
		t.Fatalf("Get(a) = %q, want y", v)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestLRU_AddIfAbsent(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, struct{}](4)
	if !c.AddIfAbsent("evt-1", struct{}{}) {
		t.Fatal("first AddIfAbsent should store")
	}
	if c.AddIfAbsent("evt-1", struct{}{}) {
		t.Fatal("second AddIfAbsent should report existing key")
	}
}

func TestLRU_ContainsKeepsRecency(t *testing.T) {
	t.Parallel()

	c := NewLRU[int, int](2)
	c.Add(1, 1)
	c.Add(2, 2)
	if !c.Contains(1) {
		t.Fatal("Contains(1) = false")
	}

	// Contains must not promote 1, so it is still the eviction candidate.
	c.Add(3, 3)
	if c.Contains(1) {
		t.Fatal("Contains(1) after eviction = true")
	}
	if !c.Contains(2) {
		t.Fatal("Contains(2) = false")
	}
}

func TestLRU_OnEvict(t *testing.T) {
	t.Parallel()

	var evicted []string
	c := NewLRU[string, int](1)
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	if fmt.Sprint(evicted) != "[a b]" {
		t.Fatalf("evicted = %v, want [a b]", evicted)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewLRU[int, int](16)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				c.Add(g*1000+i, i)
				c.Get(i)
			}
		}()
	}
	wg.Wait()

	if c.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", c.Len())
	}
}
