// Package badgerkv implements the LSM-backed persistent kv.Backend (spec
// §4.C backend ii) over dgraph-io/badger/v4, mirroring the teacher's own
// direct dependency on badger for its "badger" quad-store driver.
package badgerkv

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/kgcore/rdfstore/internal/clog"
	"github.com/kgcore/rdfstore/kv"
)

// Options configures the backend; CacheBytes maps to spec §6's
// cache_bytes config option.
type Options struct {
	Path       string
	CacheBytes int64
	ReadOnly   bool
}

// Backend wraps a badger.DB. Badger manages its own internal
// transaction/compaction concurrency, so callers may issue concurrent
// reads freely; concurrent writers serialize inside badger itself (spec
// §5: "LSM: backend-managed").
type Backend struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database at opt.Path.
func Open(opt Options) (*Backend, error) {
	bopt := badger.DefaultOptions(opt.Path)
	bopt = bopt.WithReadOnly(opt.ReadOnly)
	if opt.CacheBytes > 0 {
		bopt = bopt.WithBlockCacheSize(opt.CacheBytes)
	}
	bopt = bopt.WithLogger(badgerLogAdapter{})
	db, err := badger.Open(bopt)
	if err != nil {
		return nil, errors.Wrap(err, "badgerkv: open")
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Type() string { return "lsm" }
func (b *Backend) Close() error { return b.db.Close() }

func (b *Backend) Get(_ context.Context, key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "badgerkv: get")
	}
	return out, nil
}

func (b *Backend) Put(_ context.Context, key, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	return errors.Wrap(err, "badgerkv: put")
}

func (b *Backend) Delete(_ context.Context, key []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	return errors.Wrap(err, "badgerkv: delete")
}

// BatchPut writes pairs in a single transaction, atomic with respect to
// readers per spec §4.C.
func (b *Backend) BatchPut(_ context.Context, pairs []kv.Pair) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, p := range pairs {
		if err := wb.Set(p.Key, p.Value); err != nil {
			return errors.Wrap(err, "badgerkv: batch put")
		}
	}
	return errors.Wrap(wb.Flush(), "badgerkv: batch flush")
}

func (b *Backend) RangeScan(_ context.Context, start, end []byte) (kv.Iterator, error) {
	txn := b.db.NewTransaction(false)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	it.Seek(start)
	return &iterator{txn: txn, it: it, end: end, first: true}, nil
}

func (b *Backend) PrefixScan(_ context.Context, prefix []byte) (kv.Iterator, error) {
	txn := b.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	it.Seek(prefix)
	return &iterator{txn: txn, it: it, prefix: prefix, first: true}, nil
}

type iterator struct {
	txn    *badger.Txn
	it     *badger.Iterator
	end    []byte
	prefix []byte
	first  bool
	key    []byte
	val    []byte
	err    error
}

func (it *iterator) Next(context.Context) bool {
	if it.first {
		it.first = false
	} else {
		it.it.Next()
	}
	if !it.it.ValidForPrefix(it.prefix) && it.prefix != nil {
		return false
	}
	if !it.it.Valid() {
		return false
	}
	item := it.it.Item()
	key := item.KeyCopy(nil)
	if it.end != nil && bytesCompare(key, it.end) >= 0 {
		return false
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		it.err = err
		return false
	}
	it.key, it.val = key, val
	return true
}

func bytesCompare(a, b []byte) int {
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

func (it *iterator) Err() error    { return it.err }
func (it *iterator) Key() []byte   { return it.key }
func (it *iterator) Value() []byte { return it.val }
func (it *iterator) Close() error {
	it.it.Close()
	it.txn.Discard()
	return nil
}

// badgerLogAdapter routes badger's internal logging through clog instead
// of badger's default stderr logger.
type badgerLogAdapter struct{}

func (badgerLogAdapter) Errorf(f string, a ...interface{})   { clog.Errorf(f, a...) }
func (badgerLogAdapter) Warningf(f string, a ...interface{}) { clog.Warningf(f, a...) }
func (badgerLogAdapter) Infof(f string, a ...interface{})    { clog.Infof(f, a...) }
func (badgerLogAdapter) Debugf(f string, a ...interface{}) {
	if clog.V(2) {
		clog.Infof(f, a...)
	}
}
