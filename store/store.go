// Package store implements the quad store: four redundant sort orders
// (SPOC/POCS/OCSP/CSPO) over an abstract kv.Backend, pattern-to-index
// selection, and the bulk-load path, per spec §4.D. The four indexes are
// never four independent stores; they are four adapters sharing one
// kv.Backend handle (spec §9).
package store

import (
	"context"
	"sync"

	"github.com/kgcore/rdfstore/internal/clog"
	"github.com/kgcore/rdfstore/internal/errs"
	"github.com/kgcore/rdfstore/kv"
	"github.com/kgcore/rdfstore/rdf"
)

// Store is a set of quads (set semantics: duplicate inserts are
// idempotent) backed by one kv.Backend and indexed four ways.
type Store struct {
	backend kv.Backend

	// mu serializes writers; readers proceed concurrently (spec §5). The
	// backend itself may offer finer-grained concurrency, but the store
	// layer only promises what spec §5 requires at minimum.
	mu sync.RWMutex

	// slowPathScans counts pattern queries that fell back to an unbounded
	// scan because the pattern contained a quoted-triple term with a
	// nested variable inside it (spec §4.D "Failure modes"). Exposed via
	// Stats for callers who want to know when estimates were not exact.
	slowPathScans int64
}

// New wraps an existing kv.Backend as a Store.
func New(backend kv.Backend) *Store {
	return &Store{backend: backend}
}

// Close releases the underlying backend.
func (s *Store) Close() error { return s.backend.Close() }

// Contains reports whether q is present, per spec §6.
func (s *Store) Contains(ctx context.Context, q rdf.Quad) (bool, error) {
	key, err := encodeKey(idxSPOC, q)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err = s.backend.Get(ctx, key)
	if err == kv.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, errs.WrapBackend("contains", err)
	}
	return true, nil
}

// Insert adds q to every index. Duplicate inserts are idempotent (spec
// §4.D invariant).
func (s *Store) Insert(ctx context.Context, q rdf.Quad) error {
	if !q.Valid() {
		return &encodingError{"quad is not valid: predicate must be an IRI"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(ctx, q)
}

func (s *Store) insertLocked(ctx context.Context, q rdf.Quad) error {
	var pairs []kv.Pair
	for _, kind := range allIndexes {
		key, err := encodeKey(kind, q)
		if err != nil {
			return err
		}
		pairs = append(pairs, kv.Pair{Key: key, Value: []byte{1}})
	}
	if err := s.backend.BatchPut(ctx, pairs); err != nil {
		return errs.WrapBackend("insert", err)
	}
	return nil
}

// Remove deletes q from every index. Removing an absent quad is a no-op.
func (s *Store) Remove(ctx context.Context, q rdf.Quad) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range allIndexes {
		key, err := encodeKey(kind, q)
		if err != nil {
			return err
		}
		if err := s.backend.Delete(ctx, key); err != nil {
			return errs.WrapBackend("remove", err)
		}
	}
	return nil
}

// BulkLoad batches index writes for a stream of quads, the optimized
// ingestion path spec §6 calls out ("bulk_load ... optimized path that
// batches index writes"), mirroring the teacher's NewQuadWriter split
// between one-at-a-time ApplyDeltas and a dedicated batch writer.
func (s *Store) BulkLoad(ctx context.Context, quads <-chan rdf.Quad) (int, error) {
	const batchSize = 4096
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf []kv.Pair
	n := 0
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := s.backend.BatchPut(ctx, buf); err != nil {
			return errs.WrapBackend("bulk load", err)
		}
		buf = buf[:0]
		return nil
	}
	for q := range quads {
		if !q.Valid() {
			continue
		}
		for _, kind := range allIndexes {
			key, err := encodeKey(kind, q)
			if err != nil {
				return n, err
			}
			buf = append(buf, kv.Pair{Key: key, Value: []byte{1}})
		}
		n++
		if len(buf) >= batchSize*4 {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	if err := flush(); err != nil {
		return n, err
	}
	clog.Infof("store: bulk loaded %d quads", n)
	return n, nil
}

// QuadIterator is a lazy cursor over quads matching a pattern, holding an
// index cursor and decoding on demand (spec §4.D "Iteration").
type QuadIterator struct {
	it       kv.Iterator
	kind     indexKind
	remain   []rdf.Dir
	pattern  rdf.Pattern
	cur      rdf.Quad
	err      error
	ctx      context.Context
	unbounded bool
	unboundedSrc *unboundedScan
}

// Next advances the iterator. It returns false at end of stream or error.
func (qi *QuadIterator) Next() bool {
	if qi.unbounded {
		return qi.nextUnbounded()
	}
	for qi.it.Next(qi.ctx) {
		q, err := decodeKey(qi.kind, qi.it.Key())
		if err != nil {
			qi.err = err
			return false
		}
		if !matchesRemaining(q, qi.pattern, qi.remain) {
			continue
		}
		qi.cur = q
		return true
	}
	qi.err = qi.it.Err()
	return false
}

func matchesRemaining(q rdf.Quad, p rdf.Pattern, remain []rdf.Dir) bool {
	for _, d := range remain {
		bound := p.Get(d)
		got := q.Get(d)
		if got == nil || !bound.Equal(got) {
			return false
		}
	}
	return true
}

// Quad returns the current quad. Valid only after a true-returning Next.
func (qi *QuadIterator) Quad() rdf.Quad { return qi.cur }

// Err returns the error that stopped iteration, if any.
func (qi *QuadIterator) Err() error { return qi.err }

// Close releases the underlying cursor.
func (qi *QuadIterator) Close() error {
	if qi.unbounded {
		return nil
	}
	return qi.it.Close()
}

// Find returns a lazy iterator over quads matching pattern p (spec §6).
// When p binds a slot to a QuotedTriple whose nested components are
// incomplete for a prefix scan (spec §4.D "Failure modes" — a quoted
// triple containing variables cannot be expressed as a prefix scan), call
// FindSlow instead; Find always assumes every bound Term is fully ground.
func (s *Store) Find(ctx context.Context, p rdf.Pattern) (*QuadIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kind, prefix, remain, err := selectIndex(p)
	if err != nil {
		return nil, err
	}
	it, err := s.backend.PrefixScan(ctx, prefix)
	if err != nil {
		return nil, errs.WrapBackend("find", err)
	}
	return &QuadIterator{it: it, kind: kind, remain: remain, pattern: p, ctx: ctx}, nil
}

// unboundedScan filters every stored quad against a predicate; it backs
// FindSlow's fallback path.
type unboundedScan struct {
	it     kv.Iterator
	ctx    context.Context
	filter func(rdf.Quad) bool
}

func (qi *QuadIterator) nextUnbounded() bool {
	src := qi.unboundedSrc
	for src.it.Next(src.ctx) {
		q, err := decodeKey(idxSPOC, src.it.Key())
		if err != nil {
			qi.err = err
			return false
		}
		if src.filter(q) {
			qi.cur = q
			return true
		}
	}
	qi.err = src.it.Err()
	return false
}

// FindSlow performs the unbounded-scan fallback (spec §4.D "Failure
// modes"): every stored quad is decoded and passed to filter, with no
// index prefix narrowing the scan. Used by the executor when a pattern's
// quoted-triple term contains a variable in a nested position, which
// can't be expressed as a bound prefix.
func (s *Store) FindSlow(ctx context.Context, filter func(rdf.Quad) bool) (*QuadIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.slowPathScans++
	it, err := s.backend.PrefixScan(ctx, []byte{idxSPOC.keyPrefix()})
	if err != nil {
		return nil, errs.WrapBackend("find slow", err)
	}
	clog.Warningf("store: slow-path unbounded scan (quoted-triple variable pattern)")
	return &QuadIterator{unbounded: true, unboundedSrc: &unboundedScan{it: it, ctx: ctx, filter: filter}}, nil
}

// Stats reports basic counters, including the number of slow-path scans
// performed so far (spec §4.D failure-mode marking).
type Stats struct {
	SlowPathScans int64
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{SlowPathScans: s.slowPathScans}
}
