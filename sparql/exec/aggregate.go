package exec

import (
	"context"
	"strconv"
	"strings"

	"github.com/kgcore/rdfstore/binding"
	"github.com/kgcore/rdfstore/internal/errs"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
	"github.com/kgcore/rdfstore/sparql/builtin"
)

// evalGroup implements Group (spec §4.I GROUP BY/aggregates, §4.H
// HAVING): partitions Inner's rows by GroupVars, applies each aggregate
// per partition, then filters partitions through Having.
func (ex *Executor) evalGroup(ctx context.Context, e env, v algebra.Group) ([]binding.Binding, error) {
	rows, err := ex.evalNode(ctx, e, v.Inner)
	if err != nil {
		return nil, err
	}

	type partition struct {
		key  binding.Binding
		rows []binding.Binding
	}
	var parts []*partition
	index := map[string]*partition{}

	if len(v.GroupVars) == 0 {
		// No GROUP BY: the whole input is one group, even when empty
		// (e.g. COUNT(*) over zero rows is still 0, not zero groups).
		parts = append(parts, &partition{rows: rows})
	} else {
		for _, row := range rows {
			var key strings.Builder
			kb := binding.New()
			for _, gv := range v.GroupVars {
				if t, ok := row.Get(gv); ok {
					key.WriteString(gv)
					key.WriteByte('=')
					key.WriteString(t.String())
					kb = kb.With(gv, t)
				} else {
					key.WriteString(gv)
					key.WriteString("=?")
				}
				key.WriteByte(0)
			}
			p, ok := index[key.String()]
			if !ok {
				p = &partition{key: kb}
				index[key.String()] = p
				parts = append(parts, p)
			}
			p.rows = append(p.rows, row)
		}
	}

	var out []binding.Binding
	for _, p := range parts {
		result := p.key
		for _, ab := range v.Aggs {
			val, err := computeAggregate(ab.Agg, p.rows, e)
			if err != nil {
				continue // a failed aggregate leaves its variable unbound, per BIND's error rule
			}
			if val != nil {
				result = result.With(ab.Var, val)
			}
		}
		if v.Having != nil {
			havingExpr, err := substituteAggregates(v.Having, p.rows, e)
			if err != nil {
				continue
			}
			ok, err := evalEBVSafe(havingExpr, e.exprContext(result))
			if err != nil || !ok {
				continue
			}
		}
		out = append(out, result)
	}
	return out, nil
}

// substituteAggregates replaces every Aggregate leaf within expr by its
// computed value over partition, so HAVING clauses carrying inline
// aggregates (e.g. `HAVING (COUNT(?x) > 5)`) can be evaluated by
// builtin.Eval, which otherwise rejects Aggregate nodes outright.
func substituteAggregates(expr algebra.Expr, partition []binding.Binding, e env) (algebra.Expr, error) {
	switch v := expr.(type) {
	case algebra.Aggregate:
		val, err := computeAggregate(v, partition, e)
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, &errs.TypeError{Msg: "aggregate in HAVING produced no value"}
		}
		return algebra.Const{Term: val}, nil
	case algebra.Call:
		args := make([]algebra.Expr, len(v.Args))
		for i, a := range v.Args {
			sa, err := substituteAggregates(a, partition, e)
			if err != nil {
				return nil, err
			}
			args[i] = sa
		}
		return algebra.Call{Func: v.Func, Args: args}, nil
	default:
		return expr, nil
	}
}

// computeAggregate evaluates one aggregate over a group's rows. Arg
// evaluation errors are skipped row-by-row rather than failing the whole
// aggregate (a pragmatic relaxation of the spec's stricter error
// propagation, matching how FILTER already tolerates per-row errors
// elsewhere in this package). A nil result with a nil error means "no
// value" (e.g. MIN/MAX over an empty partition), which leaves the
// aggregate's variable unbound in the caller.
func computeAggregate(agg algebra.Aggregate, partition []binding.Binding, e env) (rdf.Term, error) {
	if agg.Func == "COUNT" && agg.Arg == nil {
		n := len(partition)
		if agg.Distinct {
			// COUNT(DISTINCT *) has no single defined value in the
			// absence of an argument expression; count whole rows.
			seen := map[string]bool{}
			for _, row := range partition {
				seen[bindingKey(row)] = true
			}
			n = len(seen)
		}
		return rdf.NewTypedLiteral(strconv.Itoa(n), rdf.XSDInteger), nil
	}

	var values []rdf.Term
	for _, row := range partition {
		t, err := builtin.Eval(agg.Arg, e.exprContext(row))
		if err != nil {
			continue
		}
		values = append(values, t)
	}
	if agg.Distinct {
		values = dedupTerms(values)
	}

	switch agg.Func {
	case "COUNT":
		return rdf.NewTypedLiteral(strconv.Itoa(len(values)), rdf.XSDInteger), nil
	case "SUM":
		return sumNumeric(values)
	case "AVG":
		return avgNumeric(values)
	case "MIN":
		return minMaxTerm(values, true)
	case "MAX":
		return minMaxTerm(values, false)
	case "SAMPLE":
		if len(values) == 0 {
			return nil, nil
		}
		return values[0], nil
	case "GROUP_CONCAT":
		sep := agg.Separator
		if sep == "" {
			sep = " "
		}
		var sb strings.Builder
		for i, v := range values {
			if i > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString(lexicalOf(v))
		}
		return rdf.NewLiteral(sb.String()), nil
	}
	return nil, &errs.TypeError{Msg: "unknown aggregate function " + agg.Func}
}

func dedupTerms(values []rdf.Term) []rdf.Term {
	seen := map[string]bool{}
	var out []rdf.Term
	for _, v := range values {
		key := v.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}

func lexicalOf(t rdf.Term) string {
	if lit, ok := t.(rdf.Literal); ok {
		return lit.Lexical
	}
	return t.String()
}

// numRank orders the XSD numeric datatypes for promotion (spec §4.I
// arithmetic's widening rule, reused here for SUM/AVG across a group).
func numRank(dt rdf.IRI) int {
	switch dt {
	case rdf.XSDDouble:
		return 3
	case rdf.XSDFloat:
		return 2
	case rdf.XSDDecimal:
		return 1
	default:
		return 0
	}
}

func widerType(a, b rdf.IRI) rdf.IRI {
	if numRank(b) > numRank(a) {
		return b
	}
	return a
}

func sumNumeric(values []rdf.Term) (rdf.Term, error) {
	if len(values) == 0 {
		return rdf.NewTypedLiteral("0", rdf.XSDInteger), nil
	}
	total := 0.0
	widest := rdf.XSDInteger
	for _, v := range values {
		f, dt, err := builtin.AsNumeric(v)
		if err != nil {
			return nil, err
		}
		total += f
		widest = widerType(widest, dt)
	}
	return builtin.NumericLiteral(total, widest), nil
}

func avgNumeric(values []rdf.Term) (rdf.Term, error) {
	if len(values) == 0 {
		return rdf.NewTypedLiteral("0", rdf.XSDInteger), nil
	}
	total := 0.0
	widest := rdf.XSDInteger
	for _, v := range values {
		f, dt, err := builtin.AsNumeric(v)
		if err != nil {
			return nil, err
		}
		total += f
		widest = widerType(widest, dt)
	}
	if widest == rdf.XSDInteger {
		widest = rdf.XSDDecimal // division always promotes integer to decimal
	}
	return builtin.NumericLiteral(total/float64(len(values)), widest), nil
}

// minMaxTerm orders by the total order rdf.Compare defines (the same one
// ORDER BY uses), so MIN/MAX work across any comparable term kind, not
// only numerics.
func minMaxTerm(values []rdf.Term, wantMin bool) (rdf.Term, error) {
	if len(values) == 0 {
		return nil, nil
	}
	best := values[0]
	for _, v := range values[1:] {
		c := rdf.Compare(v, best)
		if (wantMin && c < 0) || (!wantMin && c > 0) {
			best = v
		}
	}
	return best, nil
}
