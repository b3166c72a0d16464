// Package memkv implements the in-memory sorted-map kv.Backend (spec
// §4.C backend i) on top of google/btree, the same ordered-index library
// used elsewhere in the corpus for in-process sorted structures.
package memkv

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/kgcore/rdfstore/kv"
)

const btreeDegree = 32

type entry struct {
	key, value []byte
}

func (e *entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(*entry).key) < 0
}

// Backend is a kv.Backend holding everything in an in-process B-tree,
// guarded by a single RWMutex (spec §5: "in-memory: shared lock").
type Backend struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// New returns an empty in-memory backend.
func New() *Backend {
	return &Backend{tree: btree.New(btreeDegree)}
}

func (b *Backend) Type() string { return "in-memory" }
func (b *Backend) Close() error { return nil }

func (b *Backend) Get(_ context.Context, key []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	item := b.tree.Get(&entry{key: key})
	if item == nil {
		return nil, kv.ErrNotFound
	}
	e := item.(*entry)
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (b *Backend) Put(_ context.Context, key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.put(key, value)
	return nil
}

// put assumes the caller holds b.mu for writing.
func (b *Backend) put(key, value []byte) {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	b.tree.ReplaceOrInsert(&entry{key: k, value: v})
}

func (b *Backend) Delete(_ context.Context, key []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tree.Delete(&entry{key: key})
	return nil
}

func (b *Backend) BatchPut(_ context.Context, pairs []kv.Pair) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range pairs {
		b.put(p.Key, p.Value)
	}
	return nil
}

func (b *Backend) RangeScan(_ context.Context, start, end []byte) (kv.Iterator, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var pairs []kv.Pair
	iter := func(i btree.Item) bool {
		e := i.(*entry)
		if end != nil && bytes.Compare(e.key, end) >= 0 {
			return false
		}
		pairs = append(pairs, kv.Pair{Key: clone(e.key), Value: clone(e.value)})
		return true
	}
	if start == nil {
		b.tree.Ascend(iter)
	} else {
		b.tree.AscendGreaterOrEqual(&entry{key: start}, iter)
	}
	return &sliceIterator{pairs: pairs, pos: -1}, nil
}

func (b *Backend) PrefixScan(ctx context.Context, prefix []byte) (kv.Iterator, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var pairs []kv.Pair
	b.tree.AscendGreaterOrEqual(&entry{key: prefix}, func(i btree.Item) bool {
		e := i.(*entry)
		if !bytes.HasPrefix(e.key, prefix) {
			return false
		}
		pairs = append(pairs, kv.Pair{Key: clone(e.key), Value: clone(e.value)})
		return true
	})
	return &sliceIterator{pairs: pairs, pos: -1}, nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// sliceIterator implements kv.Iterator over a pre-materialized slice. The
// in-memory backend has no MVCC, so per spec §4.D it buffers the snapshot
// at scan time rather than interleaving with concurrent writers.
type sliceIterator struct {
	pairs []kv.Pair
	pos   int
}

func (it *sliceIterator) Next(context.Context) bool {
	it.pos++
	return it.pos < len(it.pairs)
}
func (it *sliceIterator) Err() error    { return nil }
func (it *sliceIterator) Close() error  { return nil }
func (it *sliceIterator) Key() []byte   { return it.pairs[it.pos].Key }
func (it *sliceIterator) Value() []byte { return it.pairs[it.pos].Value }
