package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sandrolain/dataexpr/pkg/cache"
	"github.com/sandrolain/dataexpr/pkg/types"
)

func fakeExpr(source string) *types.Expression {
	return types.NewExpression(&types.Program{}, nil, source)
}

func TestCacheGetSet(t *testing.T) {
	c := cache.New(4)

	if _, ok := c.Get("a + 1", false); ok {
		t.Fatal("empty cache returned an entry")
	}

	expr := fakeExpr("a + 1")
	c.Set("a + 1", false, expr)

	got, ok := c.Get("a + 1", false)
	if !ok || got != expr {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	if _, ok := c.Get("a + 1", true); ok {
		t.Error("assignment mode must not see the expression entry")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheModesAreSeparate(t *testing.T) {
	c := cache.New(4)
	asExpr := fakeExpr("x")
	asAssign := fakeExpr("x")

	c.Set("x", false, asExpr)
	c.Set("x", true, asAssign)

	if got, _ := c.Get("x", false); got != asExpr {
		t.Error("expression entry replaced")
	}
	if got, _ := c.Get("x", true); got != asAssign {
		t.Error("assignment entry missing")
	}
	if cache.Key("x", false) == cache.Key("x", true) {
		t.Error("modes share a key")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.New(2)
	c.Set("a", false, fakeExpr("a"))
	c.Set("b", false, fakeExpr("b"))

	// Touch a so that b becomes the eviction candidate.
	c.Get("a", false)
	c.Set("c", false, fakeExpr("c"))

	if _, ok := c.Get("b", false); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k, false); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCacheGetOrCompile(t *testing.T) {
	c := cache.New(0)
	if c.Capacity() != cache.DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", c.Capacity(), cache.DefaultCapacity)
	}

	calls := 0
	compile := func() (*types.Expression, error) {
		calls++
		return fakeExpr("radius * 2"), nil
	}

	first, err := c.GetOrCompile("radius * 2", false, compile)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.GetOrCompile("radius * 2", false, compile)
	if err != nil {
		t.Fatal(err)
	}
	if first != second || calls != 1 {
		t.Errorf("compile called %d time(s), same=%v", calls, first == second)
	}

	boom := errors.New("boom")
	failing := func() (*types.Expression, error) { return nil, boom }
	if _, err := c.GetOrCompile("bad", false, failing); !errors.Is(err, boom) {
		t.Errorf("expected compile error, got %v", err)
	}
	if _, ok := c.Get("bad", false); ok {
		t.Error("errors must not be cached")
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := cache.New(8)
	c.Set("a", false, fakeExpr("a"))
	c.Set("b", false, fakeExpr("b"))

	c.Invalidate("a", false)
	if _, ok := c.Get("a", false); ok {
		t.Error("a still cached after Invalidate")
	}
	c.Invalidate("b", true)
	if _, ok := c.Get("b", false); !ok {
		t.Error("invalidating the other mode removed b")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := cache.New(16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				src := fmt.Sprintf("v%d + %d", i, j%20)
				_, _ = c.GetOrCompile(src, j%2 == 0, func() (*types.Expression, error) {
					return fakeExpr(src), nil
				})
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > c.Capacity() {
		t.Errorf("Len() = %d exceeds capacity %d", c.Len(), c.Capacity())
	}
}

func TestCacheConcurrentReplace(t *testing.T) {
	c := cache.New(4)
	const src = "radius + 1"
	first, second := fakeExpr(src), fakeExpr(src)
	c.Set(src, false, first)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if (i+j)%2 == 0 {
					c.Set(src, false, first)
				} else {
					c.Set(src, false, second)
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got, ok := c.Get(src, false)
				if !ok || (got != first && got != second) {
					t.Errorf("Get() = %p, %v", got, ok)
					return
				}
			}
		}()
	}
	wg.Wait()

	c.Set(src, false, second)
	if got, _ := c.Get(src, false); got != second {
		t.Error("replacement not visible")
	}
}
