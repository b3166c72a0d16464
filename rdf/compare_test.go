package rdf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/rdf"
)

func TestCompareKindOrdering(t *testing.T) {
	bn := rdf.Blank{Name: "b1"}
	iri := rdf.IRI("http://example.org/x")
	lit := rdf.NewLiteral("x")
	require.Less(t, rdf.Compare(bn, iri), 0)
	require.Less(t, rdf.Compare(iri, lit), 0)
	require.Greater(t, rdf.Compare(lit, iri), 0)
}

func TestCompareNilTerms(t *testing.T) {
	require.Equal(t, 0, rdf.Compare(nil, nil))
	require.Less(t, rdf.Compare(nil, rdf.IRI("x")), 0)
	require.Greater(t, rdf.Compare(rdf.IRI("x"), nil), 0)
}

func TestCompareNumericLiteralsByValue(t *testing.T) {
	a := rdf.NewTypedLiteral("2", rdf.XSDInteger)
	b := rdf.NewTypedLiteral("10", rdf.XSDInteger)
	require.Less(t, rdf.Compare(a, b), 0, "numeric comparison, not lexical")
}

func TestCompareDifferentDatatypesByDatatypeIRI(t *testing.T) {
	a := rdf.NewTypedLiteral("10", rdf.XSDInteger)
	b := rdf.NewTypedLiteral("abc", rdf.XSDString)
	require.NotEqual(t, 0, rdf.Compare(a, b))
}

func TestCompareDateTimeLiterals(t *testing.T) {
	a := rdf.NewTypedLiteral("2020-01-01T00:00:00Z", rdf.XSDDateTime)
	b := rdf.NewTypedLiteral("2021-01-01T00:00:00Z", rdf.XSDDateTime)
	require.Less(t, rdf.Compare(a, b), 0)
}

func TestCompareFallsBackToLexical(t *testing.T) {
	a := rdf.NewLiteral("apple")
	b := rdf.NewLiteral("banana")
	require.Less(t, rdf.Compare(a, b), 0)
}

func TestCompareIsTotalOrder(t *testing.T) {
	a := rdf.NewLiteral("x")
	require.Equal(t, 0, rdf.Compare(a, a))
}

func TestValueEqualNumericCrossLexical(t *testing.T) {
	a := rdf.NewTypedLiteral("1", rdf.XSDInteger)
	b := rdf.NewTypedLiteral("1.0", rdf.XSDDecimal)
	eq, comparable := rdf.ValueEqual(a, b)
	require.True(t, comparable)
	require.True(t, eq)
}

func TestValueEqualBooleanCaseInsensitive(t *testing.T) {
	a := rdf.NewTypedLiteral("true", rdf.XSDBoolean)
	b := rdf.NewTypedLiteral("TRUE", rdf.XSDBoolean)
	eq, comparable := rdf.ValueEqual(a, b)
	require.True(t, comparable)
	require.True(t, eq)
}

func TestValueEqualIncompatibleDatatypesNotComparable(t *testing.T) {
	a := rdf.NewTypedLiteral("1", rdf.XSDInteger)
	b := rdf.NewLiteral("1")
	_, comparable := rdf.ValueEqual(a, b)
	require.False(t, comparable)
}

func TestValueEqualDifferentKindsNotEqual(t *testing.T) {
	eq, comparable := rdf.ValueEqual(rdf.IRI("x"), rdf.NewLiteral("x"))
	require.False(t, comparable)
	require.False(t, eq)
}

func TestValueEqualLangLiteralsRequireSameLangAndDir(t *testing.T) {
	a := rdf.NewLangLiteral("hello", "en", rdf.NoDirection)
	b := rdf.NewLangLiteral("hello", "fr", rdf.NoDirection)
	eq, comparable := rdf.ValueEqual(a, b)
	require.True(t, comparable)
	require.False(t, eq)
}

func TestValueEqualIRIsUseIdentityEquality(t *testing.T) {
	eq, comparable := rdf.ValueEqual(rdf.IRI("http://example.org/a"), rdf.IRI("http://example.org/a"))
	require.True(t, comparable)
	require.True(t, eq)
}
