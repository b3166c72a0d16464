package turtle_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/turtle"
)

func parseAll(t *testing.T, src string) []rdf.Quad {
	t.Helper()
	p := turtle.NewParser(strings.NewReader(src))
	quads, err := p.All()
	require.NoError(t, err)
	return quads
}

func TestSimpleTriple(t *testing.T) {
	quads := parseAll(t, `<http://a> <http://p> <http://b> .`)
	require.Len(t, quads, 1)
	require.Equal(t, rdf.IRI("http://a"), quads[0].Subject)
	require.Equal(t, rdf.IRI("http://p"), quads[0].Predicate)
	require.Equal(t, rdf.IRI("http://b"), quads[0].Object)
}

func TestPrefixedNames(t *testing.T) {
	quads := parseAll(t, `
		@prefix ex: <http://example.org/> .
		ex:a ex:p ex:b .
	`)
	require.Len(t, quads, 1)
	require.Equal(t, rdf.IRI("http://example.org/a"), quads[0].Subject)
}

func TestAKeyword(t *testing.T) {
	quads := parseAll(t, `@prefix ex: <http://example.org/> . ex:a a ex:Thing .`)
	require.Len(t, quads, 1)
	require.Equal(t, rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type"), quads[0].Predicate)
}

func TestPredicateObjectLists(t *testing.T) {
	quads := parseAll(t, `
		@prefix ex: <http://example.org/> .
		ex:a ex:p1 ex:o1 ; ex:p2 ex:o2, ex:o3 .
	`)
	require.Len(t, quads, 3)
}

func TestBlankNodePropertyList(t *testing.T) {
	quads := parseAll(t, `
		@prefix ex: <http://example.org/> .
		ex:a ex:p [ ex:q ex:r ] .
	`)
	require.Len(t, quads, 2)
	// The property list's own triple is queued before the triple using it.
	require.Equal(t, rdf.KindBlank, quads[1].Object.Kind())
	bn := quads[1].Object.(rdf.Blank)
	require.Equal(t, bn, quads[0].Subject)
}

func TestCollection(t *testing.T) {
	quads := parseAll(t, `
		@prefix ex: <http://example.org/> .
		ex:a ex:p ( ex:x ex:y ) .
	`)
	// 1 main triple + 2 list cells * 2 triples each = 5
	require.Len(t, quads, 5)
}

func TestEmptyCollectionIsNil(t *testing.T) {
	quads := parseAll(t, `
		@prefix ex: <http://example.org/> .
		ex:a ex:p () .
	`)
	require.Len(t, quads, 1)
	require.Equal(t, rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#nil"), quads[0].Object)
}

func TestLiteralForms(t *testing.T) {
	quads := parseAll(t, `
		@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
		@prefix ex: <http://example.org/> .
		ex:a ex:p "hello"@en .
		ex:a ex:p2 "42"^^xsd:integer .
		ex:a ex:p3 "plain" .
	`)
	require.Len(t, quads, 3)
	lit0 := quads[0].Object.(rdf.Literal)
	require.Equal(t, "en", lit0.Lang)
	lit1 := quads[1].Object.(rdf.Literal)
	require.Equal(t, rdf.XSDInteger, lit1.Datatype)
}

func TestNumericLiteralShorthand(t *testing.T) {
	quads := parseAll(t, `<http://a> <http://p> 42 .`)
	lit := quads[0].Object.(rdf.Literal)
	require.Equal(t, "42", lit.Lexical)
	require.Equal(t, rdf.XSDInteger, lit.Datatype)
}

func TestAnnotation(t *testing.T) {
	quads := parseAll(t, `
		@prefix ex: <http://example.org/> .
		ex:a ex:p ex:o {| ex:source ex:doc |} .
	`)
	require.Len(t, quads, 2)
	qt, ok := quads[1].Subject.(rdf.QuotedTriple)
	require.True(t, ok)
	require.Equal(t, rdf.IRI("http://example.org/a"), qt.Subject)
}

func TestReificationIdentifier(t *testing.T) {
	quads := parseAll(t, `
		@prefix ex: <http://example.org/> .
		ex:a ex:p ex:o ~ ex:r .
	`)
	require.Len(t, quads, 2)
	require.Equal(t, rdf.IRI("http://example.org/r"), quads[1].Subject)
	require.Equal(t, rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#reifies"), quads[1].Predicate)
}

func TestQuotedTripleAsObject(t *testing.T) {
	quads := parseAll(t, `
		@prefix ex: <http://example.org/> .
		ex:a ex:p << ex:s ex:q ex:o >> .
	`)
	require.Len(t, quads, 1)
	qt, ok := quads[0].Object.(rdf.QuotedTriple)
	require.True(t, ok)
	require.Equal(t, rdf.IRI("http://example.org/s"), qt.Subject)
}

func TestUndefinedPrefixErrors(t *testing.T) {
	p := turtle.NewParser(strings.NewReader(`ex:a ex:p ex:o .`))
	_, err := p.Next()
	require.Error(t, err)
}

func TestNQuadsMode(t *testing.T) {
	p := turtle.NewNQuadsParser(strings.NewReader(`<http://a> <http://p> <http://o> <http://g> .`))
	q, err := p.Next()
	require.NoError(t, err)
	require.Equal(t, rdf.IRI("http://g"), q.Graph)
	_, err = p.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestTrailingContentIsNotSilentlyTruncated(t *testing.T) {
	p := turtle.NewParser(strings.NewReader(`<http://a> <http://p> <http://o> . garbage`))
	_, err := p.Next()
	require.NoError(t, err)
	_, err = p.Next()
	require.Error(t, err)
}
