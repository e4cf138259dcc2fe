// Package cache provides a thread-safe LRU cache for compiled binding
// expressions.
//
// Hosts usually compile the same handful of expression strings over and
// over as views are rebuilt. The cache keys each entry by a 64-bit FNV-1a
// hash of the parse mode and the source text, and stores the source next
// to the compiled expression so that hash collisions are detected instead
// of returning the wrong program.
//
// # Example
//
//	c := cache.New(1024)
//	expr, err := c.GetOrCompile("radius * 2", false, compile)
package cache

import (
	"container/list"
	"sync"

	"github.com/segmentio/fasthash/fnv1a"

	"github.com/sandrolain/dataexpr/pkg/types"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

const (
	modeExpression = "expr:"
	modeAssignment = "assign:"
)

// entry is a cache entry stored in the doubly-linked list. Entries are
// never modified once stored; Set swaps in a new one.
type entry struct {
	key        uint64
	source     string
	assignment bool
	expr       *types.Expression
}

func (e *entry) matches(source string, assignment bool) bool {
	return e.source == source && e.assignment == assignment
}

// Cache is a thread-safe LRU cache for compiled expressions. Once the
// capacity is reached, the least recently used entry is evicted.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[uint64]*list.Element
}

// New creates a cache holding up to capacity expressions.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[uint64]*list.Element, capacity),
	}
}

// Key returns the hash under which source is stored for the given mode.
func Key(source string, assignment bool) uint64 {
	mode := modeExpression
	if assignment {
		mode = modeAssignment
	}
	return fnv1a.AddString64(fnv1a.HashString64(mode), source)
}

// Get returns the cached expression for source compiled in the given mode
// and marks it most recently used.
func (c *Cache) Get(source string, assignment bool) (*types.Expression, bool) {
	key := Key(source, assignment)

	c.mu.RLock()
	el, ok := c.items[key]
	var e *entry
	if ok {
		e = el.Value.(*entry)
	}
	alreadyFront := ok && c.ll.Front() == el
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !alreadyFront {
		c.mu.Lock()
		el, ok = c.items[key]
		if ok {
			e = el.Value.(*entry)
			c.ll.MoveToFront(el)
		}
		c.mu.Unlock()
		if !ok {
			return nil, false
		}
	}

	if !e.matches(source, assignment) {
		return nil, false
	}
	return e.expr, true
}

// Set inserts or replaces the expression for source. On a hash collision
// the older entry is replaced.
func (c *Cache) Set(source string, assignment bool, expr *types.Expression) {
	key := Key(source, assignment)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value = &entry{
			key:        key,
			source:     source,
			assignment: assignment,
			expr:       expr,
		}
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	c.items[key] = c.ll.PushFront(&entry{
		key:        key,
		source:     source,
		assignment: assignment,
		expr:       expr,
	})
}

// GetOrCompile returns the cached expression for source, or calls compile,
// caches its result and returns it. Errors are not cached.
func (c *Cache) GetOrCompile(source string, assignment bool, compile func() (*types.Expression, error)) (*types.Expression, error) {
	if expr, ok := c.Get(source, assignment); ok {
		return expr, nil
	}
	expr, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(source, assignment, expr)
	return expr, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}

// Capacity returns the maximum number of cached expressions.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Invalidate removes the entry for source.
func (c *Cache) Invalidate(source string, assignment bool) {
	key := Key(source, assignment)

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok && el.Value.(*entry).matches(source, assignment) {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[uint64]*list.Element, c.capacity)
}

// evictLocked removes the least recently used entry. c.mu must be held
// for writing.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
