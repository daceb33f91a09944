// internal/pagecache/memory.go
//
// In-process cache tier: a mutex-guarded map with per-entry TTL and an LRU
// bound backed by container/list.  This tier is always available, so the
// cache client as a whole keeps working when the Redis tier is down.
package pagecache

import (
	"container/list"
	"sync"
	"time"
)

type memEntry struct {
	key string
	val []byte
	exp time.Time
}

// memoryTier is a non-generic TTL+LRU byte cache.  Keys use the same
// namespace as the Redis tier so the two stay interchangeable.
type memoryTier struct {
	mu   sync.Mutex
	cap  int
	ll   *list.List
	dict map[string]*list.Element

	counters map[string]*counter
}

type counter struct {
	n   int64
	exp time.Time // zero means no expiry
}

func newMemoryTier(capacity int) *memoryTier {
	if capacity < 1 {
		capacity = 1024
	}
	return &memoryTier{
		cap:      capacity,
		ll:       list.New(),
		dict:     make(map[string]*list.Element, capacity),
		counters: make(map[string]*counter),
	}
}

// get returns the stored bytes and marks the entry MRU.  Expired entries
// are removed on access.
func (m *memoryTier) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ele, hit := m.dict[key]
	if !hit {
		return nil, false
	}
	ent := ele.Value.(*memEntry)
	if time.Now().After(ent.exp) {
		m.ll.Remove(ele)
		delete(m.dict, key)
		return nil, false
	}
	m.ll.MoveToFront(ele)
	return ent.val, true
}

// set inserts or updates an entry, evicting the LRU tail past capacity.
func (m *memoryTier) set(key string, val []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp := time.Now().Add(ttl)
	if ele, hit := m.dict[key]; hit {
		ele.Value = &memEntry{key: key, val: val, exp: exp}
		m.ll.MoveToFront(ele)
		return
	}
	ele := m.ll.PushFront(&memEntry{key: key, val: val, exp: exp})
	m.dict[key] = ele
	if m.ll.Len() > m.cap {
		last := m.ll.Back()
		m.ll.Remove(last)
		delete(m.dict, last.Value.(*memEntry).key)
	}
}

// del removes an entry if present.
func (m *memoryTier) del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ele, hit := m.dict[key]; hit {
		m.ll.Remove(ele)
		delete(m.dict, key)
	}
}

// incr bumps a named counter, creating it with the given TTL on first use.
// ttl == 0 means the counter never expires.
func (m *memoryTier) incr(key string, ttl time.Duration) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if ok && !c.exp.IsZero() && time.Now().After(c.exp) {
		ok = false
	}
	if !ok {
		c = &counter{}
		if ttl > 0 {
			c.exp = time.Now().Add(ttl)
		}
		m.counters[key] = c
	}
	c.n++
	return c.n
}

// count reads a counter without mutating it.
func (m *memoryTier) count(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok || (!c.exp.IsZero() && time.Now().After(c.exp)) {
		return 0
	}
	return c.n
}

// len reports current entry count (counters excluded).
func (m *memoryTier) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ll.Len()
}
