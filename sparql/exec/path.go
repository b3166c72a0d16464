package exec

import (
	"context"
	"fmt"

	"github.com/kgcore/rdfstore/binding"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
	"github.com/kgcore/rdfstore/store"
)

// pathCounter mints unique internal variable names for a Seq path's
// middle node; the BFS hop (_bfshop) and the negated-set predicate
// (_negpred) use fixed names instead. None of these escape to a caller's
// result: Seq and the negated set strip their variable before returning,
// and bfs binds its hop only in a fresh binding.
type pathCounter struct{ n int }

func (c *pathCounter) next() string {
	c.n++
	return fmt.Sprintf("_path%d", c.n)
}

func stripVar(b binding.Binding, name string) binding.Binding {
	vars := b.Vars()
	kept := make([]string, 0, len(vars))
	for _, v := range vars {
		if v != name {
			kept = append(kept, v)
		}
	}
	return b.Project(kept)
}

// evalPath evaluates a property-path triple (spec §4.G/§18): subj and obj
// are already substituted against the incoming binding b and may each be
// ground, an unbound Variable, or a quoted term carrying nested
// variables (the same term shapes a plain TriplePattern's slots can
// hold).
func evalPath(ctx context.Context, st *store.Store, ctr *pathCounter, expr algebra.PathExpr, subj, obj rdf.Term, graphs []rdf.Term, b binding.Binding) ([]binding.Binding, error) {
	switch v := expr.(type) {
	case algebra.PathIRI:
		tp := algebra.TriplePattern{Subject: subj, Predicate: rdf.IRI(v.IRI), Object: obj}
		return scanTriple(ctx, st, tp, graphs, b)

	case algebra.PathInverse:
		return evalPath(ctx, st, ctr, v.Inner, obj, subj, graphs, b)

	case algebra.PathSeq:
		mid := ctr.next()
		leftRows, err := evalPath(ctx, st, ctr, v.Left, subj, rdf.Variable(mid), graphs, b)
		if err != nil {
			return nil, err
		}
		var out []binding.Binding
		for _, row := range leftRows {
			midVal, _ := row.Get(mid)
			rightRows, err := evalPath(ctx, st, ctr, v.Right, midVal, obj, graphs, row)
			if err != nil {
				return nil, err
			}
			for _, rr := range rightRows {
				out = append(out, stripVar(rr, mid))
			}
		}
		return out, nil

	case algebra.PathAlt:
		left, err := evalPath(ctx, st, ctr, v.Left, subj, obj, graphs, b)
		if err != nil {
			return nil, err
		}
		right, err := evalPath(ctx, st, ctr, v.Right, subj, obj, graphs, b)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil

	case algebra.PathZeroOrMore:
		return evalClosure(ctx, st, ctr, v.Inner, subj, obj, graphs, b, true)

	case algebra.PathOneOrMore:
		return evalClosure(ctx, st, ctr, v.Inner, subj, obj, graphs, b, false)

	case algebra.PathZeroOrOne:
		zero, err := bindIfEqual(subj, obj, b)
		if err != nil {
			return nil, err
		}
		one, err := evalPath(ctx, st, ctr, v.Inner, subj, obj, graphs, b)
		if err != nil {
			return nil, err
		}
		return append(zero, one...), nil

	case algebra.PathNegatedSet:
		return evalNegatedSet(ctx, st, v, subj, obj, graphs, b)
	}
	return nil, fmt.Errorf("exec: unrecognized path expression %T", expr)
}

// bindIfEqual handles ZeroOrOnePath's zero-length step (spec §18): subj
// and obj denote the same node, so whichever side is still a variable is
// bound to the other's ground value. When both sides are already ground
// it succeeds only if they're sameTerm-equal; when both are still free
// variables the zero-length step is ambiguous without enumerating every
// node in the store, so (as a documented limitation) it contributes no
// solutions — the one-or-more branch of ?'s underlying path still does.
func bindIfEqual(subj, obj rdf.Term, b binding.Binding) ([]binding.Binding, error) {
	switch {
	case !containsVariable(subj):
		if nb, ok := bindFromTerm(obj, subj, b); ok {
			return []binding.Binding{nb}, nil
		}
		return nil, nil
	case !containsVariable(obj):
		if nb, ok := bindFromTerm(subj, obj, b); ok {
			return []binding.Binding{nb}, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

func evalNegatedSet(ctx context.Context, st *store.Store, v algebra.PathNegatedSet, subj, obj rdf.Term, graphs []rdf.Term, b binding.Binding) ([]binding.Binding, error) {
	excluded := map[rdf.IRI]bool{}
	for _, iri := range v.IRIs {
		excluded[iri] = true
	}
	predVar := "_negpred"
	tp := algebra.TriplePattern{Subject: subj, Predicate: rdf.Variable(predVar), Object: obj}
	rows, err := scanTriple(ctx, st, tp, graphs, b)
	if err != nil {
		return nil, err
	}
	var out []binding.Binding
	for _, row := range rows {
		p, _ := row.Get(predVar)
		if iri, ok := p.(rdf.IRI); ok && excluded[iri] {
			continue
		}
		out = append(out, stripVar(row, predVar))
	}
	return out, nil
}

// evalClosure implements PathZeroOrMore/PathOneOrMore by breadth-first
// search over Inner's one-hop relation, per spec §18. When subj is
// ground it searches forward; otherwise, if obj is ground, it searches
// backward via Inner's inverse; when both ends are free variables it
// falls back to enumerating every node the store uses as a subject or
// object as a candidate start (unoptimized: one search per node).
func evalClosure(ctx context.Context, st *store.Store, ctr *pathCounter, inner algebra.PathExpr, subj, obj rdf.Term, graphs []rdf.Term, b binding.Binding, allowZero bool) ([]binding.Binding, error) {
	switch {
	case !containsVariable(subj):
		reached, err := bfs(ctx, st, ctr, inner, subj, graphs, allowZero)
		if err != nil {
			return nil, err
		}
		var out []binding.Binding
		for _, n := range reached {
			if nb, ok := bindFromTerm(obj, n, b); ok {
				out = append(out, nb)
			}
		}
		return out, nil

	case !containsVariable(obj):
		reached, err := bfs(ctx, st, ctr, algebra.PathInverse{Inner: inner}, obj, graphs, allowZero)
		if err != nil {
			return nil, err
		}
		var out []binding.Binding
		for _, n := range reached {
			if nb, ok := bindFromTerm(subj, n, b); ok {
				out = append(out, nb)
			}
		}
		return out, nil

	default:
		starts, err := candidateStartNodes(ctx, st, graphs)
		if err != nil {
			return nil, err
		}
		var out []binding.Binding
		for _, start := range starts {
			reached, err := bfs(ctx, st, ctr, inner, start, graphs, allowZero)
			if err != nil {
				return nil, err
			}
			for _, n := range reached {
				nb, ok := bindFromTerm(subj, start, b)
				if !ok {
					continue
				}
				if nb, ok = bindFromTerm(obj, n, nb); ok {
					out = append(out, nb)
				}
			}
		}
		return out, nil
	}
}

// bfs walks Inner forward from the ground node start, returning every
// node reachable (including start itself when allowZero, for
// ZeroOrMore's zero-length step).
func bfs(ctx context.Context, st *store.Store, ctr *pathCounter, inner algebra.PathExpr, start rdf.Term, graphs []rdf.Term, allowZero bool) ([]rdf.Term, error) {
	visited := map[string]rdf.Term{}
	if allowZero {
		visited[start.String()] = start
	}
	frontier := []rdf.Term{start}
	hop := "_bfshop"
	for len(frontier) > 0 {
		var next []rdf.Term
		for _, node := range frontier {
			rows, err := evalPath(ctx, st, ctr, inner, node, rdf.Variable(hop), graphs, binding.New())
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				n, ok := row.Get(hop)
				if !ok {
					continue
				}
				key := n.String()
				if _, seen := visited[key]; !seen {
					visited[key] = n
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	out := make([]rdf.Term, 0, len(visited))
	for _, n := range visited {
		out = append(out, n)
	}
	return out, nil
}

// candidateStartNodes collects every distinct subject and object term
// across graphs, the fallback universe for a path whose both endpoints
// are unbound variables.
func candidateStartNodes(ctx context.Context, st *store.Store, graphs []rdf.Term) ([]rdf.Term, error) {
	seen := map[string]rdf.Term{}
	for _, g := range graphs {
		p := rdf.Pattern{}
		if g != nil {
			p.Graph = g
		}
		it, err := st.Find(ctx, p)
		if err != nil {
			return nil, err
		}
		for it.Next() {
			q := it.Quad()
			if !graphMatches(g, q.Graph) {
				continue
			}
			for _, n := range []rdf.Term{q.Subject, q.Object} {
				key := n.String()
				if _, ok := seen[key]; !ok {
					seen[key] = n
				}
			}
		}
		if err := it.Err(); err != nil {
			it.Close()
			return nil, err
		}
		it.Close()
	}
	out := make([]rdf.Term, 0, len(seen))
	for _, s := range seen {
		out = append(out, s)
	}
	return out, nil
}
