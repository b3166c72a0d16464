// Package kv defines the abstract key-value backend contract the quad
// store is written against (spec §4.C), plus three implementations:
// an in-memory sorted map (memkv), an LSM-backed persistent store
// (badgerkv), and a memory-mapped B+-tree (boltkv). All three are run
// against the same conformance suite in kv/kvtest.
package kv

import "context"

// Pair is a key/value returned by a scan.
type Pair struct {
	Key, Value []byte
}

// Backend is the minimal contract the quad store needs from a storage
// engine. Keys returned by RangeScan and PrefixScan are in ascending byte
// order. RangeScan is half-open: [start, end).
type Backend interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error

	RangeScan(ctx context.Context, start, end []byte) (Iterator, error)
	PrefixScan(ctx context.Context, prefix []byte) (Iterator, error)

	BatchPut(ctx context.Context, pairs []Pair) error

	// Type names the backend kind ("in-memory", "lsm", "mmap"), matching
	// the config.Options "backend" values.
	Type() string
	Close() error
}

// Iterator walks a scan result; callers must Close it. badgerkv and
// boltkv read key/value pairs from the backend on demand; memkv copies
// the matching pairs into a snapshot when the scan starts.
type Iterator interface {
	// Next advances the iterator. It returns false at end of range or on
	// error (check Err to distinguish).
	Next(ctx context.Context) bool
	Err() error
	Close() error
	Key() []byte
	Value() []byte
}

// Txn is the optional transaction object required only of backends that
// claim ACID semantics (spec §4.C). A Backend that also implements
// Transactor supports Begin/Commit/Rollback around a batch of operations.
type Txn interface {
	Backend
	Commit() error
	Rollback() error
}

// Transactor is implemented by backends offering explicit transactions.
type Transactor interface {
	Begin(ctx context.Context, writable bool) (Txn, error)
}

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = notFoundErr{}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "kv: not found" }
