package builtin

import (
	"strconv"
	"strings"
	"time"

	"github.com/kgcore/rdfstore/internal/errs"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
)

// Eval evaluates one expression node against ctx (spec §4.I). It never
// panics on malformed input — every failure is a *errs.TypeError (or, for
// an unbound variable reference, errUnbound; EXISTS without an executor
// hook returns *errs.Unsupported and passes on the hook's own errors),
// letting the caller apply
// FILTER's "errors are false" / BIND's "errors fail the row" rule.
func Eval(e algebra.Expr, ctx *Context) (rdf.Term, error) {
	switch v := e.(type) {
	case algebra.Const:
		return v.Term, nil
	case algebra.Var:
		t, ok := ctx.Binding.Get(v.Name)
		if !ok {
			return nil, errUnbound(v.Name)
		}
		return t, nil
	case algebra.Call:
		return evalCall(v, ctx)
	case algebra.Exists:
		return evalExists(v, ctx)
	case algebra.Aggregate:
		return nil, &errs.TypeError{Msg: "aggregate expression used outside of a GROUP BY projection"}
	}
	return nil, &errs.TypeError{Msg: "unrecognized expression node"}
}

type unboundError struct{ name string }

func errUnbound(name string) error { return &unboundError{name: name} }
func (e *unboundError) Error() string {
	return "unbound variable ?" + e.name + " referenced in expression"
}

// EBV computes the effective boolean value of t (spec §4.I).
func EBV(t rdf.Term) (bool, error) {
	lit, ok := t.(rdf.Literal)
	if !ok {
		return false, &errs.TypeError{Msg: "effective boolean value requires a literal, got " + t.Kind().String()}
	}
	switch {
	case lit.Datatype == rdf.XSDBoolean:
		return lit.Lexical == "true" || lit.Lexical == "1", nil
	case lit.IsNumeric():
		f, err := strconv.ParseFloat(lit.Lexical, 64)
		if err != nil {
			return false, &errs.TypeError{Msg: "malformed numeric literal " + lit.Lexical}
		}
		return f != 0, nil
	case lit.Datatype == rdf.XSDString || lit.Lang != "":
		return lit.Lexical != "", nil
	}
	return false, &errs.TypeError{Msg: "cannot derive an effective boolean value from " + string(lit.Datatype)}
}

func evalEBV(e algebra.Expr, ctx *Context) (bool, error) {
	t, err := Eval(e, ctx)
	if err != nil {
		return false, err
	}
	return EBV(t)
}

func evalExists(v algebra.Exists, ctx *Context) (rdf.Term, error) {
	if ctx.Exists == nil {
		return nil, &errs.Unsupported{Feature: "EXISTS (no executor hook installed)"}
	}
	found, err := ctx.Exists(v.Pattern, ctx.Binding)
	if err != nil {
		return nil, err
	}
	if v.Negate {
		found = !found
	}
	return boolLit(found), nil
}

func boolLit(b bool) rdf.Literal {
	if b {
		return rdf.NewTypedLiteral("true", rdf.XSDBoolean)
	}
	return rdf.NewTypedLiteral("false", rdf.XSDBoolean)
}

// evalCall dispatches a Call node: logical connectives evaluate both
// operands but let a decisive one win over an error in the other (false
// && error is false, true || error is true); IF evaluates only the chosen
// branch and COALESCE stops at its first error-free argument; BOUND inspects its
// argument's variable name directly instead of evaluating it (an unbound
// variable must not itself raise an error under BOUND); everything else
// evaluates all arguments eagerly before dispatch.
func evalCall(v algebra.Call, ctx *Context) (rdf.Term, error) {
	switch v.Func {
	case algebra.FnAnd:
		return evalAnd(v.Args, ctx)
	case algebra.FnOr:
		return evalOr(v.Args, ctx)
	case "IF":
		return evalIf(v.Args, ctx)
	case "COALESCE":
		return evalCoalesce(v.Args, ctx)
	case "BOUND":
		return evalBound(v.Args, ctx)
	}

	args := make([]rdf.Term, len(v.Args))
	for i, a := range v.Args {
		t, err := Eval(a, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}

	switch v.Func {
	case algebra.FnNot:
		b, err := EBV(args[0])
		if err != nil {
			return nil, err
		}
		return boolLit(!b), nil
	case algebra.FnEq, algebra.FnNeq:
		return equalityOp(v.Func, args[0], args[1])
	case algebra.FnLt, algebra.FnGt, algebra.FnLe, algebra.FnGe:
		return orderOp(v.Func, args[0], args[1])
	case algebra.FnAdd, algebra.FnSub, algebra.FnMul, algebra.FnDiv:
		return arithOp(v.Func, args[0], args[1])
	case algebra.FnUnaryPos:
		if _, _, err := asFloat(args[0]); err != nil {
			return nil, err
		}
		return args[0], nil
	case algebra.FnUnaryNeg:
		f, c, err := asFloat(args[0])
		if err != nil {
			return nil, err
		}
		return numericLiteral(-f, c), nil
	case algebra.FnIn:
		return inOp(args[0], args[1:], false)
	case algebra.FnNotIn:
		return inOp(args[0], args[1:], true)
	}

	if fn, ok := ctx.Custom[v.Func]; ok {
		return fn(ctx, args)
	}
	if fn, ok := builtinFuncs[v.Func]; ok {
		return fn(ctx, args)
	}
	return nil, &errs.TypeError{Msg: "unknown function " + v.Func}
}

func evalAnd(args []algebra.Expr, ctx *Context) (rdf.Term, error) {
	lv, lerr := evalEBV(args[0], ctx)
	rv, rerr := evalEBV(args[1], ctx)
	switch {
	case lerr == nil && !lv, rerr == nil && !rv:
		return boolLit(false), nil
	case lerr != nil:
		return nil, lerr
	case rerr != nil:
		return nil, rerr
	default:
		return boolLit(lv && rv), nil
	}
}

func evalOr(args []algebra.Expr, ctx *Context) (rdf.Term, error) {
	lv, lerr := evalEBV(args[0], ctx)
	rv, rerr := evalEBV(args[1], ctx)
	switch {
	case lerr == nil && lv, rerr == nil && rv:
		return boolLit(true), nil
	case lerr != nil:
		return nil, lerr
	case rerr != nil:
		return nil, rerr
	default:
		return boolLit(lv || rv), nil
	}
}

func evalIf(args []algebra.Expr, ctx *Context) (rdf.Term, error) {
	cond, err := evalEBV(args[0], ctx)
	if err != nil {
		return nil, err
	}
	if cond {
		return Eval(args[1], ctx)
	}
	return Eval(args[2], ctx)
}

func evalCoalesce(args []algebra.Expr, ctx *Context) (rdf.Term, error) {
	var lastErr error = &errs.TypeError{Msg: "COALESCE() with no arguments"}
	for _, a := range args {
		t, err := Eval(a, ctx)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func evalBound(args []algebra.Expr, ctx *Context) (rdf.Term, error) {
	v, ok := args[0].(algebra.Var)
	if !ok {
		t, err := Eval(args[0], ctx)
		return boolLit(err == nil && t != nil), nil
	}
	return boolLit(ctx.Binding.Bound(v.Name)), nil
}

// --- numeric machinery ---

type numClass int

const (
	numInteger numClass = iota
	numDecimal
	numFloat
	numDouble
)

func classifyNumeric(dt rdf.IRI) numClass {
	switch dt {
	case rdf.XSDDouble:
		return numDouble
	case rdf.XSDFloat:
		return numFloat
	case rdf.XSDDecimal:
		return numDecimal
	default:
		return numInteger
	}
}

func asFloat(t rdf.Term) (float64, numClass, error) {
	lit, ok := t.(rdf.Literal)
	if !ok || !lit.IsNumeric() {
		return 0, 0, &errs.TypeError{Msg: "expected a numeric literal"}
	}
	f, err := strconv.ParseFloat(lit.Lexical, 64)
	if err != nil {
		return 0, 0, &errs.TypeError{Msg: "malformed numeric literal " + lit.Lexical}
	}
	return f, classifyNumeric(lit.Datatype), nil
}

func promote(a, b numClass) numClass {
	if a > b {
		return a
	}
	return b
}

// AsNumeric exposes arithmetic's numeric coercion to callers outside
// FILTER/BIND expression evaluation (the executor's aggregate evaluator
// needs the same promotion rule for SUM/AVG across a partition).
func AsNumeric(t rdf.Term) (float64, rdf.IRI, error) {
	f, c, err := asFloat(t)
	if err != nil {
		return 0, "", err
	}
	return f, classToIRI(c), nil
}

func classToIRI(c numClass) rdf.IRI {
	switch c {
	case numInteger:
		return rdf.XSDInteger
	case numDecimal:
		return rdf.XSDDecimal
	case numFloat:
		return rdf.XSDFloat
	default:
		return rdf.XSDDouble
	}
}

// NumericLiteral builds a literal of numeric datatype dt for f, the same
// construction arithmetic operators use — exposed for the aggregate
// evaluator's SUM/AVG.
func NumericLiteral(f float64, dt rdf.IRI) rdf.Literal {
	return numericLiteral(f, classifyNumeric(dt))
}

func numericLiteral(v float64, class numClass) rdf.Literal {
	switch class {
	case numInteger:
		return rdf.NewTypedLiteral(strconv.FormatInt(int64(v), 10), rdf.XSDInteger)
	case numDecimal:
		return rdf.NewTypedLiteral(strconv.FormatFloat(v, 'f', -1, 64), rdf.XSDDecimal)
	case numFloat:
		return rdf.NewTypedLiteral(strconv.FormatFloat(v, 'g', -1, 32), rdf.XSDFloat)
	default:
		return rdf.NewTypedLiteral(strconv.FormatFloat(v, 'g', -1, 64), rdf.XSDDouble)
	}
}

func arithOp(op string, a, b rdf.Term) (rdf.Term, error) {
	av, ac, err := asFloat(a)
	if err != nil {
		return nil, err
	}
	bv, bc, err := asFloat(b)
	if err != nil {
		return nil, err
	}
	cls := promote(ac, bc)
	var res float64
	switch op {
	case algebra.FnAdd:
		res = av + bv
	case algebra.FnSub:
		res = av - bv
	case algebra.FnMul:
		res = av * bv
	case algebra.FnDiv:
		if bv == 0 {
			return nil, &errs.TypeError{Msg: "division by zero"}
		}
		res = av / bv
		if cls == numInteger {
			cls = numDecimal
		}
	}
	return numericLiteral(res, cls), nil
}

func isDateTimeIRI(dt rdf.IRI) bool {
	return dt == rdf.XSDDateTime || dt == rdf.XSDDate || dt == rdf.XSDTime
}

func orderOp(op string, a, b rdf.Term) (rdf.Term, error) {
	la, oka := a.(rdf.Literal)
	lb, okb := b.(rdf.Literal)
	if !oka || !okb {
		return nil, &errs.TypeError{Msg: "ordering operators require literal operands"}
	}
	var cmp int
	switch {
	case la.IsNumeric() && lb.IsNumeric():
		av, _, e1 := asFloat(a)
		bv, _, e2 := asFloat(b)
		if e1 != nil {
			return nil, e1
		}
		if e2 != nil {
			return nil, e2
		}
		cmp = floatCmp(av, bv)
	case isDateTimeIRI(la.Datatype) && la.Datatype == lb.Datatype:
		ta, e1 := time.Parse(time.RFC3339, la.Lexical)
		tb, e2 := time.Parse(time.RFC3339, lb.Lexical)
		if e1 != nil || e2 != nil {
			return nil, &errs.TypeError{Msg: "malformed dateTime literal"}
		}
		switch {
		case ta.Before(tb):
			cmp = -1
		case ta.After(tb):
			cmp = 1
		}
	case (la.Datatype == rdf.XSDString || la.Lang != "") && (lb.Datatype == rdf.XSDString || lb.Lang != ""):
		cmp = strings.Compare(la.Lexical, lb.Lexical)
	default:
		return nil, &errs.TypeError{Msg: "operands are not ordering-comparable"}
	}
	var result bool
	switch op {
	case algebra.FnLt:
		result = cmp < 0
	case algebra.FnGt:
		result = cmp > 0
	case algebra.FnLe:
		result = cmp <= 0
	case algebra.FnGe:
		result = cmp >= 0
	}
	return boolLit(result), nil
}

func floatCmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func equalityOp(op string, a, b rdf.Term) (rdf.Term, error) {
	eq, comparable := rdf.ValueEqual(a, b)
	if !comparable {
		return nil, &errs.TypeError{Msg: "operands are not value-comparable"}
	}
	if op == algebra.FnEq {
		return boolLit(eq), nil
	}
	return boolLit(!eq), nil
}

// inOp implements `x IN (...)` / `x NOT IN (...)`: equivalent to a chain
// of = (or !=) joined by || (or &&), with the same error-tolerant
// short-circuit (spec §4.I).
func inOp(probe rdf.Term, list []rdf.Term, negate bool) (rdf.Term, error) {
	sawTrue := false
	var sawErr error
	for _, item := range list {
		eq, comparable := rdf.ValueEqual(probe, item)
		if !comparable {
			if sawErr == nil {
				sawErr = &errs.TypeError{Msg: "IN: operand not value-comparable to a list member"}
			}
			continue
		}
		if eq {
			sawTrue = true
			break
		}
	}
	if sawTrue {
		return boolLit(!negate), nil
	}
	if sawErr != nil {
		return nil, sawErr
	}
	return boolLit(negate), nil
}
