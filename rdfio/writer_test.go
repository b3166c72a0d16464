package rdfio_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/rdfio"
	"github.com/kgcore/rdfstore/turtle"
)

func TestWriteQuadRoundTrip(t *testing.T) {
	q := rdf.Quad{
		Subject:   rdf.IRI("http://a"),
		Predicate: rdf.IRI("http://p"),
		Object:    rdf.NewLangLiteral("hello", "en", rdf.NoDirection),
		Graph:     rdf.IRI("http://g"),
	}
	var sb strings.Builder
	require.NoError(t, rdfio.WriteAll(&sb, []rdf.Quad{q}))

	p := turtle.NewNQuadsParser(strings.NewReader(sb.String()))
	got, err := p.Next()
	require.NoError(t, err)
	require.True(t, got.Equal(q))
}

func TestWriteQuadEscapesControlChars(t *testing.T) {
	q := rdf.Quad{
		Subject:   rdf.IRI("http://a"),
		Predicate: rdf.IRI("http://p"),
		Object:    rdf.NewLiteral("line1\nline2\t\"quoted\""),
	}
	var sb strings.Builder
	require.NoError(t, rdfio.WriteAll(&sb, []rdf.Quad{q}))
	out := sb.String()
	require.Contains(t, out, `\n`)
	require.Contains(t, out, `\"quoted\"`)
	// Exactly one real newline byte: the trailing line terminator.
	require.Equal(t, 1, strings.Count(out, "\n"))
}

func TestWriteQuotedTriple(t *testing.T) {
	qt := rdf.QuotedTriple{Subject: rdf.IRI("http://s"), Predicate: rdf.IRI("http://p"), Object: rdf.IRI("http://o")}
	q := rdf.Quad{Subject: qt, Predicate: rdf.IRI("http://source"), Object: rdf.NewLiteral("x")}
	var sb strings.Builder
	require.NoError(t, rdfio.WriteAll(&sb, []rdf.Quad{q}))
	require.Contains(t, sb.String(), "<<")
}
