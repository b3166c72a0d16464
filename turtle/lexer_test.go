package turtle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []token {
	t.Helper()
	l := newLexer(strings.NewReader(src))
	var toks []token
	for {
		tok, err := l.next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks
		}
	}
}

func TestLexIRIAndDot(t *testing.T) {
	toks := lexAll(t, `<http://a> .`)
	require.Equal(t, tokIRIRef, toks[0].kind)
	require.Equal(t, "http://a", toks[0].text)
	require.Equal(t, tokDot, toks[1].kind)
	require.Equal(t, tokEOF, toks[2].kind)
}

func TestLexPrefixedNameWithTrailingDot(t *testing.T) {
	toks := lexAll(t, `ex:a .`)
	require.Equal(t, tokPNameLN, toks[0].kind)
	require.Equal(t, "ex:a", toks[0].text)
	require.Equal(t, tokDot, toks[1].kind)
}

func TestLexDecimalVsDotTerminator(t *testing.T) {
	toks := lexAll(t, `1.5 .`)
	require.Equal(t, tokDecimal, toks[0].kind)
	require.Equal(t, "1.5", toks[0].text)
	require.Equal(t, tokDot, toks[1].kind)
}

func TestLexIntegerFollowedByDot(t *testing.T) {
	toks := lexAll(t, `42 .`)
	require.Equal(t, tokInteger, toks[0].kind)
	require.Equal(t, "42", toks[0].text)
	require.Equal(t, tokDot, toks[1].kind)
}

func TestLexLongString(t *testing.T) {
	toks := lexAll(t, `"""hello
world"""`)
	require.Equal(t, tokString, toks[0].kind)
	require.Equal(t, "hello\nworld", toks[0].text)
}

func TestLexNonASCIIString(t *testing.T) {
	toks := lexAll(t, `"é"`)
	require.Equal(t, tokString, toks[0].kind)
	require.Equal(t, "é", toks[0].text)
}

func TestLexAKeyword(t *testing.T) {
	toks := lexAll(t, `a`)
	require.Equal(t, tokA, toks[0].kind)
}

func TestLexAnnotationAndReifier(t *testing.T) {
	toks := lexAll(t, `{| |} ~`)
	require.Equal(t, tokLAnnot, toks[0].kind)
	require.Equal(t, tokRAnnot, toks[1].kind)
	require.Equal(t, tokTilde, toks[2].kind)
}

func TestLexQuotedTripleBrackets(t *testing.T) {
	toks := lexAll(t, `<< >>`)
	require.Equal(t, tokLQuote, toks[0].kind)
	require.Equal(t, tokRQuote, toks[1].kind)
}
