package exec

import (
	"context"
	"sort"

	"github.com/kgcore/rdfstore/binding"
	"github.com/kgcore/rdfstore/internal/errs"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
	"github.com/kgcore/rdfstore/sparql/builtin"
)

// evalNode evaluates one algebra node under e, returning the materialized
// solution sequence (spec §4.H). Every operator is implemented against
// the already-materialized child result(s) rather than a lazy iterator
// chain — see the package doc comment in exec.go for why.
func (ex *Executor) evalNode(ctx context.Context, e env, n algebra.Node) ([]binding.Binding, error) {
	switch v := n.(type) {
	case algebra.BGP:
		return evalBGP(ctx, ex.Store, v, graphCandidates(e.ds), binding.New())
	case algebra.Path:
		return evalPath(ctx, ex.Store, &pathCounter{}, v.Expr, v.Subject, v.Object, graphCandidates(e.ds), binding.New())
	case algebra.Join:
		return ex.evalJoin(ctx, e, v)
	case algebra.LeftJoin:
		return ex.evalLeftJoin(ctx, e, v)
	case algebra.FilterNode:
		return ex.evalFilter(ctx, e, v)
	case algebra.Union:
		return ex.evalUnion(ctx, e, v)
	case algebra.Graph:
		return ex.evalGraph(ctx, e, v)
	case algebra.Extend:
		return ex.evalExtend(ctx, e, v)
	case algebra.Minus:
		return ex.evalMinus(ctx, e, v)
	case algebra.Project:
		return ex.evalProject(ctx, e, v)
	case algebra.Distinct:
		return ex.evalDistinct(ctx, e, v)
	case algebra.Reduced:
		// Treated as Distinct: spec §4.G documents this as a conforming
		// strengthening (REDUCED permits but never requires dedup).
		return ex.evalDistinct(ctx, e, algebra.Distinct{Inner: v.Inner})
	case algebra.OrderBy:
		return ex.evalOrderBy(ctx, e, v)
	case algebra.Group:
		return ex.evalGroup(ctx, e, v)
	case algebra.Slice:
		return ex.evalSlice(ctx, e, v)
	case algebra.Service:
		return ex.evalService(ctx, e, v)
	case algebra.Values:
		return evalValues(v), nil
	}
	return nil, &errs.TypeError{Msg: "exec: unrecognized algebra node"}
}

func (ex *Executor) evalJoin(ctx context.Context, e env, v algebra.Join) ([]binding.Binding, error) {
	left, err := ex.evalNode(ctx, e, v.Left)
	if err != nil {
		return nil, err
	}
	if len(left) == 0 {
		return nil, nil
	}
	var out []binding.Binding
	for _, lb := range left {
		right, err := ex.evalNodeSeeded(ctx, e, v.Right, lb)
		if err != nil {
			return nil, err
		}
		for _, rb := range right {
			if binding.Compatible(lb, rb) {
				out = append(out, binding.Merge(lb, rb))
			}
		}
	}
	return out, nil
}

// evalNodeSeeded evaluates n, restricted to rows compatible with seed —
// used by Join/LeftJoin so the right side's BGP scan can reuse the left
// row's already-bound variables as scan prefixes instead of re-deriving
// every solution and filtering afterward. For non-pattern nodes it falls
// back to plain evaluation plus a post-filter.
func (ex *Executor) evalNodeSeeded(ctx context.Context, e env, n algebra.Node, seed binding.Binding) ([]binding.Binding, error) {
	switch v := n.(type) {
	case algebra.BGP:
		return evalBGP(ctx, ex.Store, v, graphCandidates(e.ds), seed)
	case algebra.Path:
		s := substituteTerm(v.Subject, seed)
		o := substituteTerm(v.Object, seed)
		return evalPath(ctx, ex.Store, &pathCounter{}, v.Expr, s, o, graphCandidates(e.ds), seed)
	default:
		rows, err := ex.evalNode(ctx, e, n)
		if err != nil {
			return nil, err
		}
		var out []binding.Binding
		for _, r := range rows {
			if binding.Compatible(seed, r) {
				out = append(out, r)
			}
		}
		return out, nil
	}
}

func (ex *Executor) evalLeftJoin(ctx context.Context, e env, v algebra.LeftJoin) ([]binding.Binding, error) {
	left, err := ex.evalNode(ctx, e, v.Left)
	if err != nil {
		return nil, err
	}
	var out []binding.Binding
	for _, lb := range left {
		right, err := ex.evalNodeSeeded(ctx, e, v.Right, lb)
		if err != nil {
			return nil, err
		}
		matched := false
		for _, rb := range right {
			if !binding.Compatible(lb, rb) {
				continue
			}
			merged := binding.Merge(lb, rb)
			if v.Filter != nil {
				ok, ferr := evalEBVSafe(v.Filter, e.exprContext(merged))
				if ferr != nil || !ok {
					continue
				}
			}
			matched = true
			out = append(out, merged)
		}
		if !matched {
			out = append(out, lb)
		}
	}
	return out, nil
}

func evalEBVSafe(expr algebra.Expr, ctx *builtin.Context) (bool, error) {
	t, err := builtin.Eval(expr, ctx)
	if err != nil {
		return false, err
	}
	return builtin.EBV(t)
}

func (ex *Executor) evalFilter(ctx context.Context, e env, v algebra.FilterNode) ([]binding.Binding, error) {
	rows, err := ex.evalNode(ctx, e, v.Inner)
	if err != nil {
		return nil, err
	}
	var out []binding.Binding
	for _, r := range rows {
		ok, err := evalEBVSafe(v.Expr, e.exprContext(r))
		if err != nil || !ok {
			continue // FILTER: an evaluation error is equivalent to false (spec §4.I)
		}
		out = append(out, r)
	}
	return out, nil
}

func (ex *Executor) evalUnion(ctx context.Context, e env, v algebra.Union) ([]binding.Binding, error) {
	left, err := ex.evalNode(ctx, e, v.Left)
	if err != nil {
		return nil, err
	}
	right, err := ex.evalNode(ctx, e, v.Right)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

func (ex *Executor) evalGraph(ctx context.Context, e env, v algebra.Graph) ([]binding.Binding, error) {
	if v.Term != nil {
		inner := e
		inner.ds = dataset{defaultGraphs: []rdf.Term{v.Term}, namedGraphs: e.ds.namedGraphs}
		return ex.evalNode(ctx, inner, v.Inner)
	}
	candidates := e.ds.namedGraphs
	if len(candidates) == 0 {
		named, err := ex.distinctNamedGraphs(ctx)
		if err != nil {
			return nil, err
		}
		candidates = named
	}
	var out []binding.Binding
	for _, g := range candidates {
		inner := e
		inner.ds = dataset{defaultGraphs: []rdf.Term{g}, namedGraphs: e.ds.namedGraphs}
		rows, err := ex.evalNode(ctx, inner, v.Inner)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if v.Var == "" {
				out = append(out, r)
				continue
			}
			if nb, ok := r.Get(v.Var); ok {
				if !nb.Equal(g) {
					continue
				}
				out = append(out, r)
			} else {
				out = append(out, r.With(v.Var, g))
			}
		}
	}
	return out, nil
}

// distinctNamedGraphs scans every quad to collect the distinct non-nil
// graph terms the store currently holds, the fallback universe for
// `GRAPH ?g { ... }` when FROM NAMED didn't restrict it (spec §4.H).
func (ex *Executor) distinctNamedGraphs(ctx context.Context) ([]rdf.Term, error) {
	seen := map[string]rdf.Term{}
	it, err := ex.Store.Find(ctx, rdf.Pattern{})
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for it.Next() {
		g := it.Quad().Graph
		if g == nil {
			continue
		}
		key := g.String()
		if _, ok := seen[key]; !ok {
			seen[key] = g
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	out := make([]rdf.Term, 0, len(seen))
	for _, g := range seen {
		out = append(out, g)
	}
	return out, nil
}

func (ex *Executor) evalExtend(ctx context.Context, e env, v algebra.Extend) ([]binding.Binding, error) {
	rows, err := ex.evalNode(ctx, e, v.Inner)
	if err != nil {
		return nil, err
	}
	var out []binding.Binding
	for _, r := range rows {
		t, err := builtin.Eval(v.Expr, e.exprContext(r))
		if err != nil {
			continue // BIND: an evaluation error fails only this row (spec §4.I)
		}
		if existing, ok := r.Get(v.Var); ok {
			if !existing.Equal(t) {
				continue
			}
			out = append(out, r)
			continue
		}
		out = append(out, r.With(v.Var, t))
	}
	return out, nil
}

func (ex *Executor) evalMinus(ctx context.Context, e env, v algebra.Minus) ([]binding.Binding, error) {
	left, err := ex.evalNode(ctx, e, v.Left)
	if err != nil {
		return nil, err
	}
	right, err := ex.evalNode(ctx, e, v.Right)
	if err != nil {
		return nil, err
	}
	var out []binding.Binding
	for _, lb := range left {
		excluded := false
		for _, rb := range right {
			if sharesVar(lb, rb) && binding.Compatible(lb, rb) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, lb)
		}
	}
	return out, nil
}

// sharesVar reports whether a and b have at least one variable in common
// (spec §4.H: MINUS only excludes a left row when the two share a
// variable and are compatible on it — two rows that share no variable
// are never considered "the same", even though Compatible(a,b) is
// vacuously true for them).
func sharesVar(a, b binding.Binding) bool {
	for _, v := range a.Vars() {
		if b.Bound(v) {
			return true
		}
	}
	return false
}

func (ex *Executor) evalProject(ctx context.Context, e env, v algebra.Project) ([]binding.Binding, error) {
	rows, err := ex.evalNode(ctx, e, v.Inner)
	if err != nil {
		return nil, err
	}
	out := make([]binding.Binding, len(rows))
	for i, r := range rows {
		out[i] = r.Project(v.Vars)
	}
	return out, nil
}

func (ex *Executor) evalDistinct(ctx context.Context, e env, v algebra.Distinct) ([]binding.Binding, error) {
	rows, err := ex.evalNode(ctx, e, v.Inner)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []binding.Binding
	for _, r := range rows {
		key := bindingKey(r)
		if !seen[key] {
			seen[key] = true
			out = append(out, r)
		}
	}
	return out, nil
}

func bindingKey(b binding.Binding) string {
	vars := b.SortedVars()
	key := ""
	for _, v := range vars {
		t, _ := b.Get(v)
		key += v + "=" + t.String() + "\x00"
	}
	return key
}

func (ex *Executor) evalOrderBy(ctx context.Context, e env, v algebra.OrderBy) ([]binding.Binding, error) {
	rows, err := ex.evalNode(ctx, e, v.Inner)
	if err != nil {
		return nil, err
	}
	rows = append([]binding.Binding(nil), rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		for _, cond := range v.Conditions {
			ti, erri := builtin.Eval(cond.Expr, e.exprContext(rows[i]))
			tj, errj := builtin.Eval(cond.Expr, e.exprContext(rows[j]))
			if erri != nil || errj != nil {
				continue
			}
			c := rdf.Compare(ti, tj)
			if cond.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return rows, nil
}

func (ex *Executor) evalSlice(ctx context.Context, e env, v algebra.Slice) ([]binding.Binding, error) {
	rows, err := ex.evalNode(ctx, e, v.Inner)
	if err != nil {
		return nil, err
	}
	start := v.Offset
	if start < 0 {
		start = 0
	}
	if start > len(rows) {
		start = len(rows)
	}
	rows = rows[start:]
	if v.Limit >= 0 && v.Limit < len(rows) {
		rows = rows[:v.Limit]
	}
	return rows, nil
}

func (ex *Executor) evalService(ctx context.Context, e env, v algebra.Service) ([]binding.Binding, error) {
	if v.Silent {
		return nil, nil
	}
	return nil, &errs.Unsupported{Feature: "SERVICE (federated query)"}
}

func evalValues(v algebra.Values) []binding.Binding {
	out := make([]binding.Binding, 0, len(v.Rows))
	for _, row := range v.Rows {
		b := binding.New()
		for i, t := range row {
			if i >= len(v.Vars) || t == nil {
				continue
			}
			b = b.With(v.Vars[i], t)
		}
		out = append(out, b)
	}
	return out
}
