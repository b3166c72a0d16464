package builtin_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/binding"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
	"github.com/kgcore/rdfstore/sparql/builtin"
)

func ctxFor(b binding.Binding) *builtin.Context {
	return builtin.NewContext(b, time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC), nil, nil)
}

func str(s string) algebra.Expr   { return algebra.Const{Term: rdf.NewLiteral(s)} }
func num(s string) algebra.Expr   { return algebra.Const{Term: rdf.NewTypedLiteral(s, rdf.XSDInteger)} }
func dbl(s string) algebra.Expr   { return algebra.Const{Term: rdf.NewTypedLiteral(s, rdf.XSDDouble)} }
func iriC(i string) algebra.Expr  { return algebra.Const{Term: rdf.IRI(i)} }
func call(fn string, args ...algebra.Expr) algebra.Call {
	return algebra.Call{Func: fn, Args: args}
}

func mustEval(t *testing.T, e algebra.Expr) rdf.Term {
	t.Helper()
	v, err := builtin.Eval(e, ctxFor(binding.New()))
	require.NoError(t, err)
	return v
}

func TestEqualityAndOrdering(t *testing.T) {
	v := mustEval(t, call(algebra.FnEq, num("3"), num("3")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call(algebra.FnLt, num("2"), num("3")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call(algebra.FnGe, num("3"), num("3")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)
}

func TestArithmetic(t *testing.T) {
	v := mustEval(t, call(algebra.FnAdd, num("2"), num("3")))
	lit := v.(rdf.Literal)
	require.Equal(t, rdf.XSDInteger, lit.Datatype)
	require.Equal(t, "5", lit.Lexical)

	v = mustEval(t, call(algebra.FnDiv, num("1"), num("2")))
	lit = v.(rdf.Literal)
	require.Equal(t, rdf.XSDDecimal, lit.Datatype)

	v = mustEval(t, call(algebra.FnMul, dbl("1.5"), num("2")))
	lit = v.(rdf.Literal)
	require.Equal(t, rdf.XSDDouble, lit.Datatype)
}

func TestLogicalShortCircuit(t *testing.T) {
	// false AND <error> must not propagate the error (spec §4.I).
	unbound := algebra.Var{Name: "missing"}
	v := mustEval(t, call(algebra.FnAnd, call(algebra.FnEq, num("1"), num("2")), unbound))
	require.Equal(t, "false", v.(rdf.Literal).Lexical)

	// true OR <error> must not propagate the error either.
	v = mustEval(t, call(algebra.FnOr, call(algebra.FnEq, num("1"), num("1")), unbound))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)
}

func TestInAndNotIn(t *testing.T) {
	v := mustEval(t, call(algebra.FnIn, num("2"), num("1"), num("2"), num("3")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call(algebra.FnNotIn, num("5"), num("1"), num("2"), num("3")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)
}

func TestBoundAndUnbound(t *testing.T) {
	b := binding.New().With("x", rdf.NewLiteral("hi"))
	v, err := builtin.Eval(call("BOUND", algebra.Var{Name: "x"}), ctxFor(b))
	require.NoError(t, err)
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v, err = builtin.Eval(call("BOUND", algebra.Var{Name: "y"}), ctxFor(b))
	require.NoError(t, err)
	require.Equal(t, "false", v.(rdf.Literal).Lexical)
}

func TestCoalesceSkipsErroringArgs(t *testing.T) {
	unbound := algebra.Var{Name: "missing"}
	v := mustEval(t, call("COALESCE", unbound, str("fallback")))
	require.Equal(t, "fallback", v.(rdf.Literal).Lexical)
}

func TestStringFunctions(t *testing.T) {
	v := mustEval(t, call("STRLEN", str("hello")))
	require.Equal(t, "5", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("UCASE", str("hello")))
	require.Equal(t, "HELLO", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("STRSTARTS", str("hello"), str("he")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("CONTAINS", str("hello"), str("ell")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("SUBSTR", str("hello"), num("2"), num("3")))
	require.Equal(t, "ell", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("CONCAT", str("foo"), str("bar")))
	require.Equal(t, "foobar", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("REPLACE", str("abcabc"), str("a"), str("X")))
	require.Equal(t, "XbcXbc", v.(rdf.Literal).Lexical)
}

func TestRegex(t *testing.T) {
	v := mustEval(t, call("REGEX", str("hello123"), str("[0-9]+$")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("REGEX", str("HELLO"), str("hello"), str("i")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)
}

func TestTermInspectionFunctions(t *testing.T) {
	v := mustEval(t, call("ISIRI", iriC("http://example.org/x")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("ISLITERAL", str("x")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("ISNUMERIC", num("3")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("DATATYPE", num("3")))
	require.Equal(t, rdf.IRI(rdf.XSDInteger), v)

	v = mustEval(t, call("STR", iriC("http://example.org/x")))
	require.Equal(t, "http://example.org/x", v.(rdf.Literal).Lexical)
}

func TestSameTerm(t *testing.T) {
	v := mustEval(t, call("SAMETERM", num("3"), num("3")))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("SAMETERM", num("3"), dbl("3")))
	require.Equal(t, "false", v.(rdf.Literal).Lexical)
}

func TestHashFunctions(t *testing.T) {
	v := mustEval(t, call("MD5", str("")))
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("SHA1", str("")))
	require.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", v.(rdf.Literal).Lexical)
}

func TestTripleFunctions(t *testing.T) {
	qt := rdf.QuotedTriple{
		Subject:   rdf.IRI("http://example.org/s"),
		Predicate: rdf.IRI("http://example.org/p"),
		Object:    rdf.NewLiteral("o"),
	}
	v := mustEval(t, call("SUBJECT", algebra.Const{Term: qt}))
	require.Equal(t, rdf.IRI("http://example.org/s"), v)

	v = mustEval(t, call("ISTRIPLE", algebra.Const{Term: qt}))
	require.Equal(t, "true", v.(rdf.Literal).Lexical)

	v = mustEval(t, call("ISTRIPLE", str("not a triple")))
	require.Equal(t, "false", v.(rdf.Literal).Lexical)
}

func TestNowIsFixedPerContext(t *testing.T) {
	ctx := ctxFor(binding.New())
	a, err := builtin.Eval(call("NOW"), ctx)
	require.NoError(t, err)
	b, err := builtin.Eval(call("NOW"), ctx)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestUnknownFunctionErrors(t *testing.T) {
	_, err := builtin.Eval(call("NOT_A_REAL_FUNCTION", str("x")), ctxFor(binding.New()))
	require.Error(t, err)
}

func TestCustomRegistry(t *testing.T) {
	reg := builtin.NewRegistry()
	reg.Register("http://example.org/double", func(ctx *builtin.Context, args []rdf.Term) (rdf.Term, error) {
		f, class, err := builtin.AsNumeric(args[0])
		if err != nil {
			return nil, err
		}
		return builtin.NumericLiteral(f*2, class), nil
	})
	fn, ok := reg.Lookup("http://example.org/double")
	require.True(t, ok)

	ctx := builtin.NewContext(binding.New(), time.Now().UTC(), nil, reg.Snapshot())
	v, err := builtin.Eval(call("http://example.org/double", num("21")), ctx)
	require.NoError(t, err)
	require.Equal(t, "42", v.(rdf.Literal).Lexical)

	reg.Unregister("http://example.org/double")
	_, ok = reg.Lookup("http://example.org/double")
	require.False(t, ok)
}

func TestEBV(t *testing.T) {
	ok, err := builtin.EBV(rdf.NewTypedLiteral("true", rdf.XSDBoolean))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = builtin.EBV(rdf.NewTypedLiteral("0", rdf.XSDInteger))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = builtin.EBV(rdf.NewLiteral(""))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = builtin.EBV(rdf.IRI("http://example.org/x"))
	require.Error(t, err)
}
