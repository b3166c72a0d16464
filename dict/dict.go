// Package dict implements process-wide string interning: a many-writer,
// wait-free-read mapping from string to a stable handle.
//
// Concurrent Intern calls are safe. Once a string has been interned,
// Handle.String reads its backing string without synchronization — the
// string is never mutated after being stored, only the shard's map is
// guarded.
package dict

import (
	"hash/maphash"
	"sync"
)

const shardCount = 64

// Handle is an opaque, stable reference into the dictionary. The zero
// Handle is invalid.
type Handle struct {
	shard *shard
	s     *string
}

// Valid reports whether h was returned by a successful Intern call.
func (h Handle) Valid() bool { return h.s != nil }

// String returns the interned string. Safe to call without synchronization
// and from any goroutine; the underlying string is immutable once stored.
func (h Handle) String() string {
	if h.s == nil {
		return ""
	}
	return *h.s
}

type shard struct {
	mu     sync.RWMutex
	values map[string]*string
}

// Dictionary is a sharded set of interned strings. The zero value is ready
// to use.
type Dictionary struct {
	once   sync.Once
	seed   maphash.Seed
	shards [shardCount]*shard
}

func (d *Dictionary) init() {
	d.once.Do(func() {
		d.seed = maphash.MakeSeed()
		for i := range d.shards {
			d.shards[i] = &shard{values: make(map[string]*string)}
		}
	})
}

func (d *Dictionary) shardFor(s string) *shard {
	var h maphash.Hash
	h.SetSeed(d.seed)
	_, _ = h.WriteString(s)
	return d.shards[h.Sum64()%shardCount]
}

// Intern returns a Handle for s. Repeated calls with byte-equal strings
// return the same Handle (same *string pointer wrapped).
func (d *Dictionary) Intern(s string) Handle {
	d.init()
	sh := d.shardFor(s)

	sh.mu.RLock()
	if p, ok := sh.values[s]; ok {
		sh.mu.RUnlock()
		return Handle{shard: sh, s: p}
	}
	sh.mu.RUnlock()

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if p, ok := sh.values[s]; ok {
		return Handle{shard: sh, s: p}
	}
	// Copy into a fresh backing array so the caller's byte slice (if the
	// string aliases one) can't mutate interned storage.
	owned := string(append([]byte(nil), s...))
	sh.values[owned] = &owned
	return Handle{shard: sh, s: &owned}
}

// Resolve is equivalent to h.String but mirrors the spec's resolve(handle)
// naming.
func (d *Dictionary) Resolve(h Handle) string { return h.String() }

// Len returns the number of distinct interned strings. Intended for
// diagnostics; it takes a read lock on every shard.
func (d *Dictionary) Len() int {
	d.init()
	n := 0
	for _, sh := range d.shards {
		sh.mu.RLock()
		n += len(sh.values)
		sh.mu.RUnlock()
	}
	return n
}

// Default is a process-wide dictionary shared by callers that don't need
// an isolated interning scope.
var Default = &Dictionary{}
