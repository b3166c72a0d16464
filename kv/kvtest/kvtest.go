// Package kvtest is a shared conformance suite run against every
// kv.Backend implementation, mirroring the teacher's graph/kv/kvtest and
// graph/graphtest packages: one test body, exercised per backend by a
// thin per-package _test.go.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/kv"
)

// RunConformance exercises the full kv.Backend contract against a fresh
// backend obtained from newBackend. The caller is responsible for
// constructing and, if needed, cleaning up the backend's storage.
func RunConformance(t *testing.T, newBackend func(t *testing.T) kv.Backend) {
	t.Run("GetPutDelete", func(t *testing.T) { testGetPutDelete(t, newBackend(t)) })
	t.Run("RangeScanOrder", func(t *testing.T) { testRangeScanOrder(t, newBackend(t)) })
	t.Run("PrefixScan", func(t *testing.T) { testPrefixScan(t, newBackend(t)) })
	t.Run("BatchPut", func(t *testing.T) { testBatchPut(t, newBackend(t)) })
}

func testGetPutDelete(t *testing.T, b kv.Backend) {
	defer b.Close()
	ctx := context.Background()

	_, err := b.Get(ctx, []byte("missing"))
	require.Error(t, err)

	require.NoError(t, b.Put(ctx, []byte("k1"), []byte("v1")))
	v, err := b.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	require.NoError(t, b.Put(ctx, []byte("k1"), []byte("v2")))
	v, err = b.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), v)

	require.NoError(t, b.Delete(ctx, []byte("k1")))
	_, err = b.Get(ctx, []byte("k1"))
	require.Error(t, err)
}

func testRangeScanOrder(t *testing.T, b kv.Backend) {
	defer b.Close()
	ctx := context.Background()

	keys := []string{"b", "d", "a", "c"}
	for _, k := range keys {
		require.NoError(t, b.Put(ctx, []byte(k), []byte(k)))
	}

	it, err := b.RangeScan(ctx, []byte("a"), []byte("d"))
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for it.Next(ctx) {
		got = append(got, string(it.Key()))
	}
	require.NoError(t, it.Err())
	require.Equal(t, []string{"a", "b", "c"}, got, "half-open range, ascending order")
}

func testPrefixScan(t *testing.T, b kv.Backend) {
	defer b.Close()
	ctx := context.Background()

	for _, k := range []string{"p:1", "p:2", "q:1", "p:3"} {
		require.NoError(t, b.Put(ctx, []byte(k), []byte(k)))
	}

	it, err := b.PrefixScan(ctx, []byte("p:"))
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for it.Next(ctx) {
		got = append(got, string(it.Key()))
	}
	require.NoError(t, it.Err())
	require.Equal(t, []string{"p:1", "p:2", "p:3"}, got)
}

func testBatchPut(t *testing.T, b kv.Backend) {
	defer b.Close()
	ctx := context.Background()

	pairs := []kv.Pair{
		{Key: []byte("x1"), Value: []byte("1")},
		{Key: []byte("x2"), Value: []byte("2")},
	}
	require.NoError(t, b.BatchPut(ctx, pairs))

	for _, p := range pairs {
		v, err := b.Get(ctx, p.Key)
		require.NoError(t, err)
		require.Equal(t, p.Value, v)
	}
}
