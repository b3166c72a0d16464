package algebra

import "github.com/kgcore/rdfstore/rdf"

// Optimize runs the fixed, ordered sequence of rewrite passes spec §4.G
// specifies. It is a pure function of n: it never consults the store.
func Optimize(n Node) Node {
	n = mergeBGPs(n)
	n = orderBGPPatterns(n)
	n = pushFilters(n)
	n = pushProject(n, nil)
	n = dropRedundantDistinct(n, false)
	return n
}

// pushFilters moves a Filter toward the leaves past commutative
// operators when every variable the filter expression mentions is bound
// on the inner side already (pass 1). This implementation pushes a
// Filter through Join/LeftJoin/Extend/Graph wrappers one level at a time
// when safe; it is conservative (never unsound, may leave a Filter
// higher than strictly necessary for complex expressions).
func pushFilters(n Node) Node {
	switch v := n.(type) {
	case FilterNode:
		inner := pushFilters(v.Inner)
		vars := exprVars(v.Expr)
		if pushed, ok := tryPushFilterInto(inner, vars, v.Expr); ok {
			return pushed
		}
		return FilterNode{Expr: v.Expr, Inner: inner}
	case Join:
		return Join{Left: pushFilters(v.Left), Right: pushFilters(v.Right)}
	case LeftJoin:
		return LeftJoin{Left: pushFilters(v.Left), Right: pushFilters(v.Right), Filter: v.Filter}
	case Union:
		return Union{Left: pushFilters(v.Left), Right: pushFilters(v.Right)}
	case Graph:
		return Graph{Term: v.Term, Var: v.Var, Inner: pushFilters(v.Inner)}
	case Extend:
		return Extend{Var: v.Var, Expr: v.Expr, Inner: pushFilters(v.Inner)}
	case Minus:
		return Minus{Left: pushFilters(v.Left), Right: pushFilters(v.Right)}
	case Project:
		return Project{Vars: v.Vars, Inner: pushFilters(v.Inner)}
	case Distinct:
		return Distinct{Inner: pushFilters(v.Inner)}
	case Reduced:
		return Reduced{Inner: pushFilters(v.Inner)}
	case OrderBy:
		return OrderBy{Conditions: v.Conditions, Inner: pushFilters(v.Inner)}
	case Group:
		return Group{GroupVars: v.GroupVars, Aggs: v.Aggs, Inner: pushFilters(v.Inner), Having: v.Having}
	case Slice:
		return Slice{Offset: v.Offset, Limit: v.Limit, Inner: pushFilters(v.Inner)}
	default:
		return n
	}
}

// tryPushFilterInto attempts to relocate a filter below a Join when all
// its variables are already bound on one side, avoiding the cost of
// carrying it above a cross product it doesn't need to see.
func tryPushFilterInto(n Node, filterVars map[string]bool, expr Expr) (Node, bool) {
	join, ok := n.(Join)
	if !ok {
		return nil, false
	}
	leftVars := boundVars(join.Left)
	if subsetOf(filterVars, leftVars) {
		return Join{Left: FilterNode{Expr: expr, Inner: join.Left}, Right: join.Right}, true
	}
	rightVars := boundVars(join.Right)
	if subsetOf(filterVars, rightVars) {
		return Join{Left: join.Left, Right: FilterNode{Expr: expr, Inner: join.Right}}, true
	}
	return nil, false
}

func subsetOf(a, b map[string]bool) bool {
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// mergeBGPs collapses a Join of two BGPs into one BGP (pass 2).
func mergeBGPs(n Node) Node {
	switch v := n.(type) {
	case Join:
		l := mergeBGPs(v.Left)
		r := mergeBGPs(v.Right)
		lb, lok := l.(BGP)
		rb, rok := r.(BGP)
		if lok && rok {
			return BGP{Patterns: append(append([]TriplePattern{}, lb.Patterns...), rb.Patterns...)}
		}
		return Join{Left: l, Right: r}
	case LeftJoin:
		return LeftJoin{Left: mergeBGPs(v.Left), Right: mergeBGPs(v.Right), Filter: v.Filter}
	case FilterNode:
		return FilterNode{Expr: v.Expr, Inner: mergeBGPs(v.Inner)}
	case Union:
		return Union{Left: mergeBGPs(v.Left), Right: mergeBGPs(v.Right)}
	case Graph:
		return Graph{Term: v.Term, Var: v.Var, Inner: mergeBGPs(v.Inner)}
	case Extend:
		return Extend{Var: v.Var, Expr: v.Expr, Inner: mergeBGPs(v.Inner)}
	case Minus:
		return Minus{Left: mergeBGPs(v.Left), Right: mergeBGPs(v.Right)}
	case Project:
		return Project{Vars: v.Vars, Inner: mergeBGPs(v.Inner)}
	case Distinct:
		return Distinct{Inner: mergeBGPs(v.Inner)}
	case Reduced:
		return Reduced{Inner: mergeBGPs(v.Inner)}
	case OrderBy:
		return OrderBy{Conditions: v.Conditions, Inner: mergeBGPs(v.Inner)}
	case Group:
		return Group{GroupVars: v.GroupVars, Aggs: v.Aggs, Inner: mergeBGPs(v.Inner), Having: v.Having}
	case Slice:
		return Slice{Offset: v.Offset, Limit: v.Limit, Inner: mergeBGPs(v.Inner)}
	default:
		return n
	}
}

// orderBGPPatterns reorders each BGP's triple patterns from most to
// least selective (pass 3): more bound positions first, literal objects
// before variable objects, ties broken by original insertion order
// (a stable sort achieves this).
func orderBGPPatterns(n Node) Node {
	switch v := n.(type) {
	case BGP:
		patterns := append([]TriplePattern{}, v.Patterns...)
		stableSortBySelectivity(patterns)
		return BGP{Patterns: patterns}
	case Join:
		return Join{Left: orderBGPPatterns(v.Left), Right: orderBGPPatterns(v.Right)}
	case LeftJoin:
		return LeftJoin{Left: orderBGPPatterns(v.Left), Right: orderBGPPatterns(v.Right), Filter: v.Filter}
	case FilterNode:
		return FilterNode{Expr: v.Expr, Inner: orderBGPPatterns(v.Inner)}
	case Union:
		return Union{Left: orderBGPPatterns(v.Left), Right: orderBGPPatterns(v.Right)}
	case Graph:
		return Graph{Term: v.Term, Var: v.Var, Inner: orderBGPPatterns(v.Inner)}
	case Extend:
		return Extend{Var: v.Var, Expr: v.Expr, Inner: orderBGPPatterns(v.Inner)}
	case Minus:
		return Minus{Left: orderBGPPatterns(v.Left), Right: orderBGPPatterns(v.Right)}
	case Project:
		return Project{Vars: v.Vars, Inner: orderBGPPatterns(v.Inner)}
	case Distinct:
		return Distinct{Inner: orderBGPPatterns(v.Inner)}
	case Reduced:
		return Reduced{Inner: orderBGPPatterns(v.Inner)}
	case OrderBy:
		return OrderBy{Conditions: v.Conditions, Inner: orderBGPPatterns(v.Inner)}
	case Group:
		return Group{GroupVars: v.GroupVars, Aggs: v.Aggs, Inner: orderBGPPatterns(v.Inner), Having: v.Having}
	case Slice:
		return Slice{Offset: v.Offset, Limit: v.Limit, Inner: orderBGPPatterns(v.Inner)}
	default:
		return n
	}
}

func stableSortBySelectivity(patterns []TriplePattern) {
	score := func(p TriplePattern) int {
		s := 0
		if !isVarOrBlank(p.Subject) {
			s += 4
		}
		if !isVarOrBlank(p.Predicate) {
			s += 4
		}
		if !isVarOrBlank(p.Object) {
			s += 2
			if p.Object != nil && p.Object.Kind().String() == "Literal" {
				s++
			}
		}
		return s
	}
	// Insertion sort: stable, and n is small (a single BGP's pattern
	// count) so O(n^2) is not a concern.
	for i := 1; i < len(patterns); i++ {
		j := i
		for j > 0 && score(patterns[j]) > score(patterns[j-1]) {
			patterns[j], patterns[j-1] = patterns[j-1], patterns[j]
			j--
		}
	}
}

func isVarOrBlank(t interface{ Kind() rdfKind }) bool {
	k := t.Kind()
	return k == kindVariable || k == kindBlank
}

// dropRedundantDistinct removes a Distinct/Reduced whose inner operator
// already guarantees no duplicates (pass 5): specifically, a Distinct
// directly wrapping another Distinct/Reduced, or wrapping a Group (whose
// group-key tuples are already unique per partition).
func dropRedundantDistinct(n Node, insideDistinct bool) Node {
	switch v := n.(type) {
	case Distinct:
		inner := dropRedundantDistinct(v.Inner, true)
		if alreadyDistinct(inner) {
			return inner
		}
		return Distinct{Inner: inner}
	case Reduced:
		inner := dropRedundantDistinct(v.Inner, true)
		if alreadyDistinct(inner) {
			return inner
		}
		return Reduced{Inner: inner}
	case Join:
		return Join{Left: dropRedundantDistinct(v.Left, false), Right: dropRedundantDistinct(v.Right, false)}
	case LeftJoin:
		return LeftJoin{Left: dropRedundantDistinct(v.Left, false), Right: dropRedundantDistinct(v.Right, false), Filter: v.Filter}
	case FilterNode:
		return FilterNode{Expr: v.Expr, Inner: dropRedundantDistinct(v.Inner, false)}
	case Union:
		return Union{Left: dropRedundantDistinct(v.Left, false), Right: dropRedundantDistinct(v.Right, false)}
	case Graph:
		return Graph{Term: v.Term, Var: v.Var, Inner: dropRedundantDistinct(v.Inner, false)}
	case Extend:
		return Extend{Var: v.Var, Expr: v.Expr, Inner: dropRedundantDistinct(v.Inner, false)}
	case Minus:
		return Minus{Left: dropRedundantDistinct(v.Left, false), Right: dropRedundantDistinct(v.Right, false)}
	case Project:
		return Project{Vars: v.Vars, Inner: dropRedundantDistinct(v.Inner, false)}
	case OrderBy:
		return OrderBy{Conditions: v.Conditions, Inner: dropRedundantDistinct(v.Inner, false)}
	case Group:
		return Group{GroupVars: v.GroupVars, Aggs: v.Aggs, Inner: dropRedundantDistinct(v.Inner, false), Having: v.Having}
	case Slice:
		return Slice{Offset: v.Offset, Limit: v.Limit, Inner: dropRedundantDistinct(v.Inner, false)}
	default:
		return n
	}
}

func alreadyDistinct(n Node) bool {
	switch n.(type) {
	case Distinct, Reduced, Group:
		return true
	default:
		return false
	}
}

// pushProject drops a Project down past operators that don't need the
// stripped variables, when doing so is safe (pass 4): only past Filter,
// Extend's inner side, and Join sides whose own variables don't intersect
// the dropped set. This implementation applies the narrowly safe case of
// pushing Project through a Filter whose expression mentions only
// projected variables (the filter then sees the same values before or
// after the projection; variables inside an EXISTS sub-pattern are not
// inspected) — a conservative subset of the general rule.
func pushProject(n Node, _ []string) Node {
	switch v := n.(type) {
	case Project:
		if f, ok := v.Inner.(FilterNode); ok {
			keep := map[string]bool{}
			for _, name := range v.Vars {
				keep[name] = true
			}
			if subsetOf(exprVars(f.Expr), keep) {
				return FilterNode{Expr: f.Expr, Inner: pushProject(Project{Vars: v.Vars, Inner: f.Inner}, nil)}
			}
		}
		return Project{Vars: v.Vars, Inner: pushProject(v.Inner, nil)}
	case Join:
		return Join{Left: pushProject(v.Left, nil), Right: pushProject(v.Right, nil)}
	case LeftJoin:
		return LeftJoin{Left: pushProject(v.Left, nil), Right: pushProject(v.Right, nil), Filter: v.Filter}
	case FilterNode:
		return FilterNode{Expr: v.Expr, Inner: pushProject(v.Inner, nil)}
	case Union:
		return Union{Left: pushProject(v.Left, nil), Right: pushProject(v.Right, nil)}
	case Graph:
		return Graph{Term: v.Term, Var: v.Var, Inner: pushProject(v.Inner, nil)}
	case Extend:
		return Extend{Var: v.Var, Expr: v.Expr, Inner: pushProject(v.Inner, nil)}
	case Minus:
		return Minus{Left: pushProject(v.Left, nil), Right: pushProject(v.Right, nil)}
	case Distinct:
		return Distinct{Inner: pushProject(v.Inner, nil)}
	case Reduced:
		return Reduced{Inner: pushProject(v.Inner, nil)}
	case OrderBy:
		return OrderBy{Conditions: v.Conditions, Inner: pushProject(v.Inner, nil)}
	case Group:
		return Group{GroupVars: v.GroupVars, Aggs: v.Aggs, Inner: pushProject(v.Inner, nil), Having: v.Having}
	case Slice:
		return Slice{Offset: v.Offset, Limit: v.Limit, Inner: pushProject(v.Inner, nil)}
	default:
		return n
	}
}

func exprVars(e Expr) map[string]bool {
	out := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch v := e.(type) {
		case Var:
			out[v.Name] = true
		case Call:
			for _, a := range v.Args {
				walk(a)
			}
		case Aggregate:
			if v.Arg != nil {
				walk(v.Arg)
			}
		}
	}
	walk(e)
	return out
}

// boundVars collects the variables a Node can bind, conservatively (used
// only to decide whether a filter push is safe, so it is fine if it
// over-reports).
func boundVars(n Node) map[string]bool {
	out := map[string]bool{}
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case BGP:
			for _, p := range v.Patterns {
				addVar(out, p.Subject)
				addVar(out, p.Predicate)
				addVar(out, p.Object)
			}
		case Join:
			walk(v.Left)
			walk(v.Right)
		case LeftJoin:
			walk(v.Left)
			walk(v.Right)
		case FilterNode:
			walk(v.Inner)
		case Union:
			walk(v.Left)
			walk(v.Right)
		case Graph:
			if v.Var != "" {
				out[v.Var] = true
			}
			walk(v.Inner)
		case Extend:
			out[v.Var] = true
			walk(v.Inner)
		case Minus:
			walk(v.Left)
		case Project:
			walk(v.Inner)
		case Distinct:
			walk(v.Inner)
		case Reduced:
			walk(v.Inner)
		case OrderBy:
			walk(v.Inner)
		case Group:
			walk(v.Inner)
		case Slice:
			walk(v.Inner)
		case Path:
			addVar(out, v.Subject)
			addVar(out, v.Object)
		case Values:
			for _, v2 := range v.Vars {
				out[v2] = true
			}
		}
	}
	walk(n)
	return out
}

func addVar(out map[string]bool, t interface {
	Kind() rdfKind
}) {
	if t == nil {
		return
	}
	if t.Kind() == kindVariable {
		out[variableName(t)] = true
	}
}

type rdfKind = rdf.Kind

const (
	kindVariable = rdf.KindVariable
	kindBlank    = rdf.KindBlank
)

func variableName(t interface{ Kind() rdfKind }) string {
	if v, ok := t.(rdf.Variable); ok {
		return string(v)
	}
	return ""
}
