// Package boltkv implements the memory-mapped B+-tree kv.Backend (spec
// §4.C backend iii) over go.etcd.io/bbolt, grounded on the teacher's
// internal/bolt helper and graph/kv/bolt driver.
package boltkv

import (
	"context"

	bolt "go.etcd.io/bbolt"

	"github.com/kgcore/rdfstore/internal/errs"
	"github.com/kgcore/rdfstore/kv"
)

var bucketName = []byte("quads")

// Options configures the backend. InitialMapSize maps to spec §6's
// initial_map_size config option.
type Options struct {
	Path           string
	InitialMapSize int
	ReadOnly       bool
}

// Backend wraps a single bolt.DB and bucket. bbolt serializes writers and
// allows readers concurrent with the current writer (spec §5: "mmap:
// writers mutually exclusive, readers concurrent with the current
// writer") — exactly bbolt's own MVCC guarantee, so no extra locking is
// added here.
type Backend struct {
	db *bolt.DB
}

// Open opens (creating if necessary) a bbolt database at opt.Path.
func Open(opt Options) (*Backend, error) {
	bopt := &bolt.Options{ReadOnly: opt.ReadOnly}
	if opt.InitialMapSize > 0 {
		bopt.InitialMmapSize = opt.InitialMapSize
	}
	db, err := bolt.Open(opt.Path, 0o644, bopt)
	if err != nil {
		return nil, errs.WrapBackend("open", err)
	}
	if !opt.ReadOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketName)
			return err
		})
		if err != nil {
			return nil, errs.WrapBackend("init bucket", err)
		}
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Type() string { return "mmap" }
func (b *Backend) Close() error { return b.db.Close() }

func (b *Backend) Get(_ context.Context, key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if bkt == nil {
			return kv.ErrNotFound
		}
		v := bkt.Get(key)
		if v == nil {
			return kv.ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Backend) Put(_ context.Context, key, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
	return errs.WrapBackend("put", err)
}

func (b *Backend) Delete(_ context.Context, key []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
	return errs.WrapBackend("delete", err)
}

// BatchPut writes all pairs within a single bbolt transaction, atomic
// with respect to readers.
func (b *Backend) BatchPut(_ context.Context, pairs []kv.Pair) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		for _, p := range pairs {
			if err := bkt.Put(p.Key, p.Value); err != nil {
				return err
			}
		}
		return nil
	})
	return errs.WrapBackend("batch put", err)
}

func (b *Backend) RangeScan(_ context.Context, start, end []byte) (kv.Iterator, error) {
	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, errs.WrapBackend("begin range scan", err)
	}
	c := tx.Bucket(bucketName).Cursor()
	return &iterator{tx: tx, c: c, start: start, end: end, first: true}, nil
}

func (b *Backend) PrefixScan(_ context.Context, prefix []byte) (kv.Iterator, error) {
	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, errs.WrapBackend("begin prefix scan", err)
	}
	c := tx.Bucket(bucketName).Cursor()
	return &iterator{tx: tx, c: c, start: prefix, prefix: prefix, first: true}, nil
}

type iterator struct {
	tx          *bolt.Tx
	c           *bolt.Cursor
	start, end  []byte
	prefix      []byte
	first       bool
	key, val    []byte
}

func (it *iterator) Next(context.Context) bool {
	var k, v []byte
	if it.first {
		it.first = false
		k, v = it.c.Seek(it.start)
	} else {
		k, v = it.c.Next()
	}
	if k == nil {
		return false
	}
	if it.prefix != nil && !hasPrefix(k, it.prefix) {
		return false
	}
	if it.end != nil && compare(k, it.end) >= 0 {
		return false
	}
	it.key = append([]byte(nil), k...)
	it.val = append([]byte(nil), v...)
	return true
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func compare(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func (it *iterator) Err() error    { return nil }
func (it *iterator) Key() []byte   { return it.key }
func (it *iterator) Value() []byte { return it.val }
func (it *iterator) Close() error  { return it.tx.Rollback() }
