package algebra_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
)

func TestOptimizeMergesAdjacentBGPs(t *testing.T) {
	n := algebra.Join{
		Left:  algebra.BGP{Patterns: []algebra.TriplePattern{{Subject: rdf.Variable("s"), Predicate: rdf.IRI("p1"), Object: rdf.Variable("o1")}}},
		Right: algebra.BGP{Patterns: []algebra.TriplePattern{{Subject: rdf.Variable("s"), Predicate: rdf.IRI("p2"), Object: rdf.Variable("o2")}}},
	}
	out := algebra.Optimize(n)
	bgp, ok := out.(algebra.BGP)
	require.True(t, ok, "expected the two BGPs to merge into one")
	require.Len(t, bgp.Patterns, 2)
}

func TestOptimizeOrdersBGPBySelectivity(t *testing.T) {
	n := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: rdf.Variable("s"), Predicate: rdf.Variable("p"), Object: rdf.Variable("o")},
		{Subject: rdf.IRI("http://example.org/a"), Predicate: rdf.IRI("http://example.org/p"), Object: rdf.NewLiteral("v")},
	}}
	out := algebra.Optimize(n).(algebra.BGP)
	require.Equal(t, rdf.IRI("http://example.org/a"), out.Patterns[0].Subject, "fully-bound pattern should sort first")
}

func TestOptimizePushesFilterIntoJoinSide(t *testing.T) {
	left := algebra.BGP{Patterns: []algebra.TriplePattern{{Subject: rdf.Variable("s"), Predicate: rdf.IRI("p"), Object: rdf.Variable("o")}}}
	right := algebra.BGP{Patterns: []algebra.TriplePattern{{Subject: rdf.Variable("s"), Predicate: rdf.IRI("q"), Object: rdf.Variable("r")}}}
	n := algebra.FilterNode{
		Expr:  algebra.Call{Func: algebra.FnGt, Args: []algebra.Expr{algebra.Var{Name: "o"}, algebra.Const{Term: rdf.NewTypedLiteral("0", rdf.XSDInteger)}}},
		Inner: algebra.Join{Left: left, Right: right},
	}
	out := algebra.Optimize(n)
	// The filter only mentions ?o, bound on the left side, so mergeBGPs
	// collapses the Join first and the filter ends up directly over the
	// merged BGP rather than staying split across a Join.
	_, stillJoin := out.(algebra.Join)
	require.False(t, stillJoin)
}

func TestOptimizeDropsDistinctOverDistinct(t *testing.T) {
	n := algebra.Distinct{Inner: algebra.Distinct{Inner: algebra.BGP{}}}
	out := algebra.Optimize(n)
	d, ok := out.(algebra.Distinct)
	require.True(t, ok)
	_, innerStillDistinct := d.Inner.(algebra.Distinct)
	require.False(t, innerStillDistinct, "the redundant inner Distinct should be dropped")
}

func TestOptimizeDropsDistinctOverGroup(t *testing.T) {
	n := algebra.Distinct{Inner: algebra.Group{GroupVars: []string{"s"}, Inner: algebra.BGP{}}}
	out := algebra.Optimize(n)
	_, stillDistinct := out.(algebra.Distinct)
	require.False(t, stillDistinct, "a Distinct directly over a Group is redundant and should be removed")
	_, ok := out.(algebra.Group)
	require.True(t, ok)
}

func TestOptimizePushesProjectThroughFilter(t *testing.T) {
	n := algebra.Project{
		Vars: []string{"s"},
		Inner: algebra.FilterNode{
			Expr:  algebra.Call{Func: algebra.FnEq, Args: []algebra.Expr{algebra.Var{Name: "s"}, algebra.Var{Name: "s"}}},
			Inner: algebra.BGP{Patterns: []algebra.TriplePattern{{Subject: rdf.Variable("s"), Predicate: rdf.IRI("p"), Object: rdf.Variable("o")}}},
		},
	}
	out := algebra.Optimize(n)
	filter, ok := out.(algebra.FilterNode)
	require.True(t, ok, "Project should have been pushed below the Filter")
	_, ok = filter.Inner.(algebra.Project)
	require.True(t, ok)
}

func TestOptimizeIsNoopOnASingleBGP(t *testing.T) {
	n := algebra.BGP{Patterns: []algebra.TriplePattern{{Subject: rdf.Variable("s"), Predicate: rdf.IRI("p"), Object: rdf.Variable("o")}}}
	out := algebra.Optimize(n)
	bgp, ok := out.(algebra.BGP)
	require.True(t, ok)
	require.Equal(t, n.Patterns, bgp.Patterns)
}
