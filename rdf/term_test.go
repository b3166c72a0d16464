package rdf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/rdf"
)

func TestLiteralDatatypeDefaulting(t *testing.T) {
	plain := rdf.NewLiteral("hello")
	require.Equal(t, rdf.XSDString, plain.Datatype)

	lang := rdf.NewLangLiteral("bonjour", "fr", rdf.NoDirection)
	require.Equal(t, rdf.RDFLangStr, lang.Datatype)
	require.Equal(t, `"bonjour"@fr`, lang.String())

	dirLit := rdf.NewLangLiteral("hello", "en", rdf.LTR)
	require.Equal(t, `"hello"@en--ltr`, dirLit.String())
}

func TestIsNumeric(t *testing.T) {
	require.True(t, rdf.NewTypedLiteral("3", rdf.XSDInteger).IsNumeric())
	require.True(t, rdf.NewTypedLiteral("3.14", rdf.XSDDouble).IsNumeric())
	require.False(t, rdf.NewTypedLiteral("3", rdf.XSDString).IsNumeric())
	require.False(t, rdf.NewLiteral("not a number").IsNumeric())
}

func TestSameTermVsValueEquality(t *testing.T) {
	a := rdf.NewTypedLiteral("1", rdf.XSDInteger)
	b := rdf.NewTypedLiteral("1.0", rdf.XSDDouble)

	require.False(t, a.Equal(b), "sameTerm must be byte-structural, not value-based")

	eq, comparable := rdf.ValueEqual(a, b)
	require.True(t, comparable)
	require.True(t, eq, "1 and 1.0 are value-equal across numeric families")
}

func TestQuotedTripleStructuralEquality(t *testing.T) {
	q1 := rdf.QuotedTriple{Subject: rdf.IRI("s"), Predicate: rdf.IRI("p"), Object: rdf.IRI("o")}
	q2 := rdf.QuotedTriple{Subject: rdf.IRI("s"), Predicate: rdf.IRI("p"), Object: rdf.IRI("o")}
	q3 := rdf.QuotedTriple{Subject: rdf.IRI("s"), Predicate: rdf.IRI("p"), Object: rdf.IRI("other")}

	require.True(t, q1.Equal(q2))
	require.False(t, q1.Equal(q3))
}

func TestBlankScopeIsolation(t *testing.T) {
	s1 := rdf.NewScope()
	s2 := rdf.NewScope()

	b1 := s1.Named("b1")
	b2 := s2.Named("b1")

	require.False(t, b1.Equal(b2), "same surface name in different scopes must not coreference")
	require.True(t, b1.Equal(s1.Named("b1")))
}

func TestPatternMatches(t *testing.T) {
	q := rdf.Quad{Subject: rdf.IRI("a"), Predicate: rdf.IRI("knows"), Object: rdf.IRI("b")}
	p := rdf.Pattern{Predicate: rdf.IRI("knows")}
	require.True(t, p.Matches(q))

	p2 := rdf.Pattern{Predicate: rdf.IRI("other")}
	require.False(t, p2.Matches(q))
}

func TestCompareOrdering(t *testing.T) {
	bn := rdf.Blank{Name: "x"}
	iri := rdf.IRI("http://x")
	lit := rdf.NewLiteral("x")

	require.Less(t, rdf.Compare(bn, iri), 0)
	require.Less(t, rdf.Compare(iri, lit), 0)
}
