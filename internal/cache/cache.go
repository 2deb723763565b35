// Package cache deduplicates emitted property handles within one export
// session.
//
// A Cache keeps one store per cacheable measure kind, created lazily on
// first insert. Keys are (output name, container kind, quantized value).
// Insertion never overwrites: the first handle recorded for a key wins.
//
// The cache is purely an optimization. Quantize decides the serialized
// value independently of whether the cache is enabled; a disabled cache
// only skips lookup and insertion.
package cache

import (
	"fmt"

	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/ir"
)

// Key identifies a cached property within one measure kind's store.
type Key struct {
	Name      string
	Container ir.ContainerKind
	Value     any // comparable primitive: float64, int64, bool, string, ir.Logical
}

// NewKey builds a key from a quantized value. Only scalar values have
// comparable keys; lists and references are never cached.
func NewKey(name string, container ir.ContainerKind, v ir.Value) (Key, error) {
	var raw any
	switch val := v.(type) {
	case ir.Real:
		raw = float64(val)
	case ir.Int:
		raw = int64(val)
	case ir.Bool:
		raw = bool(val)
	case ir.Logical:
		raw = val
	case ir.String:
		raw = string(val)
	default:
		return Key{}, fmt.Errorf("value of type %T has no cache key", v)
	}
	return Key{Name: name, Container: container, Value: raw}, nil
}

// Stats summarizes cache activity for logging.
type Stats struct {
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
	Entries int `json:"entries"`
	Stores  int `json:"stores"`
}

// Cache is a session-scoped handle cache. Not safe for concurrent use.
type Cache struct {
	enabled bool
	stores  map[ir.MeasureKind]map[Key]emit.Handle
	hits    int
	misses  int
}

// Option configures a Cache.
type Option func(*Cache)

// Disabled turns lookups and inserts into no-ops.
func Disabled() Option {
	return func(c *Cache) {
		c.enabled = false
	}
}

// WithEnabled sets whether the cache is active.
func WithEnabled(enabled bool) Option {
	return func(c *Cache) {
		c.enabled = enabled
	}
}

// New creates an empty, enabled cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		enabled: true,
		stores:  make(map[ir.MeasureKind]map[Key]emit.Handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether lookups and inserts are active.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Find returns the handle cached for key in kind's store.
func (c *Cache) Find(kind ir.MeasureKind, key Key) (emit.Handle, bool) {
	if !c.enabled {
		return 0, false
	}
	store, ok := c.stores[kind]
	if !ok {
		c.misses++
		return 0, false
	}
	h, ok := store[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return h, ok
}

// Insert records h for key unless the key is already present or h is the
// null handle. It returns the handle now associated with key.
func (c *Cache) Insert(kind ir.MeasureKind, key Key, h emit.Handle) emit.Handle {
	if !c.enabled || !h.Valid() {
		return h
	}
	store, ok := c.stores[kind]
	if !ok {
		store = make(map[Key]emit.Handle)
		c.stores[kind] = store
	}
	if existing, ok := store[key]; ok {
		return existing
	}
	store[key] = h
	return h
}

// Clear drops every store. Called at session start and end.
func (c *Cache) Clear() {
	clear(c.stores)
	c.hits = 0
	c.misses = 0
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	s := Stats{Hits: c.hits, Misses: c.misses, Stores: len(c.stores)}
	for _, store := range c.stores {
		s.Entries += len(store)
	}
	return s
}
