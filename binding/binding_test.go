package binding_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/binding"
	"github.com/kgcore/rdfstore/rdf"
)

func TestGetBoundUnbound(t *testing.T) {
	b := binding.New().With("x", rdf.IRI("a"))
	v, ok := b.Get("x")
	require.True(t, ok)
	require.Equal(t, rdf.IRI("a"), v)

	_, ok = b.Get("y")
	require.False(t, ok)
	require.False(t, b.Bound("y"))
}

func TestWithSameValueIsNoop(t *testing.T) {
	b := binding.New().With("x", rdf.IRI("a"))
	b2 := b.With("x", rdf.IRI("a"))
	require.Equal(t, b.Len(), b2.Len())
}

func TestWithConflictingValuePanics(t *testing.T) {
	b := binding.New().With("x", rdf.IRI("a"))
	require.Panics(t, func() {
		b.With("x", rdf.IRI("b"))
	})
}

func TestCompatible(t *testing.T) {
	a := binding.New().With("x", rdf.IRI("a")).With("y", rdf.IRI("b"))
	b := binding.New().With("x", rdf.IRI("a")).With("z", rdf.IRI("c"))
	require.True(t, binding.Compatible(a, b))

	c := binding.New().With("x", rdf.IRI("different"))
	require.False(t, binding.Compatible(a, c))
}

func TestMergeUnionsVariables(t *testing.T) {
	a := binding.New().With("x", rdf.IRI("a"))
	b := binding.New().With("y", rdf.IRI("b"))
	m := binding.Merge(a, b)
	require.Equal(t, 2, m.Len())
	v, ok := m.Get("x")
	require.True(t, ok)
	require.Equal(t, rdf.IRI("a"), v)
	v, ok = m.Get("y")
	require.True(t, ok)
	require.Equal(t, rdf.IRI("b"), v)
}

func TestMergeIncompatiblePanics(t *testing.T) {
	a := binding.New().With("x", rdf.IRI("a"))
	b := binding.New().With("x", rdf.IRI("b"))
	require.Panics(t, func() {
		binding.Merge(a, b)
	})
}

func TestMergeCommutative(t *testing.T) {
	a := binding.New().With("x", rdf.IRI("a"))
	b := binding.New().With("y", rdf.IRI("b"))
	m1 := binding.Merge(a, b)
	m2 := binding.Merge(b, a)
	require.ElementsMatch(t, m1.SortedVars(), m2.SortedVars())
}

func TestProjectDropsUnbound(t *testing.T) {
	b := binding.New().With("x", rdf.IRI("a")).With("y", rdf.IRI("b"))
	p := b.Project([]string{"x", "z"})
	require.True(t, p.Bound("x"))
	require.False(t, p.Bound("z"))
	require.False(t, p.Bound("y"))
}
