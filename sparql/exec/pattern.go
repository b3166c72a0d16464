package exec

import (
	"context"

	"github.com/kgcore/rdfstore/binding"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
	"github.com/kgcore/rdfstore/store"
)

// substituteTerm replaces any variable already bound in b with its
// value, recursing into quoted-triple terms so a pattern like
// `<< ?s ?p ?o >> :says ?claim` can have ?s resolved from an earlier BGP
// triple within the same block.
func substituteTerm(t rdf.Term, b binding.Binding) rdf.Term {
	switch v := t.(type) {
	case rdf.Variable:
		if val, ok := b.Get(string(v)); ok {
			return val
		}
		return v
	case rdf.QuotedTriple:
		return rdf.QuotedTriple{
			Subject:   substituteTerm(v.Subject, b),
			Predicate: substituteTerm(v.Predicate, b),
			Object:    substituteTerm(v.Object, b),
		}
	default:
		return t
	}
}

// containsVariable reports whether t (recursively, through any quoted
// triple) still holds an unbound variable.
func containsVariable(t rdf.Term) bool {
	switch v := t.(type) {
	case rdf.Variable:
		return true
	case rdf.QuotedTriple:
		return containsVariable(v.Subject) || containsVariable(v.Predicate) || containsVariable(v.Object)
	default:
		return false
	}
}

// bindFromTerm extracts variable bindings by unifying pattern term pt
// (possibly containing variables, including inside a quoted triple)
// against ground term gt from a matched quad. It returns the extended
// binding and whether unification succeeded (a bound variable that
// disagrees with gt fails the match).
func bindFromTerm(pt, gt rdf.Term, b binding.Binding) (binding.Binding, bool) {
	switch v := pt.(type) {
	case rdf.Variable:
		if existing, ok := b.Get(string(v)); ok {
			return b, existing.Equal(gt)
		}
		return b.With(string(v), gt), true
	case rdf.QuotedTriple:
		gq, ok := gt.(rdf.QuotedTriple)
		if !ok {
			return b, false
		}
		var okAll bool
		b, okAll = bindFromTerm(v.Subject, gq.Subject, b)
		if !okAll {
			return b, false
		}
		b, okAll = bindFromTerm(v.Predicate, gq.Predicate, b)
		if !okAll {
			return b, false
		}
		b, okAll = bindFromTerm(v.Object, gq.Object, b)
		return b, okAll
	default:
		return b, pt.Equal(gt)
	}
}

// scanTriple finds every quad matching the triple pattern tp (already
// substituted against the incoming binding) across every graph in
// graphs, extending b per match. graphs with a single nil entry means
// the store's own unnamed default graph; Find's fast prefix-scan path is
// used whenever every bound slot is fully ground (no nested pattern
// variable), falling back to FindSlow's unbounded scan plus in-process
// filter otherwise (spec §4.D "Failure modes").
func scanTriple(ctx context.Context, st *store.Store, tp algebra.TriplePattern, graphs []rdf.Term, b binding.Binding) ([]binding.Binding, error) {
	var out []binding.Binding
	for _, g := range graphs {
		rows, err := scanTripleInGraph(ctx, st, tp, g, b)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func scanTripleInGraph(ctx context.Context, st *store.Store, tp algebra.TriplePattern, graph rdf.Term, b binding.Binding) ([]binding.Binding, error) {
	s := substituteTerm(tp.Subject, b)
	p := substituteTerm(tp.Predicate, b)
	o := substituteTerm(tp.Object, b)

	useSlow := isQuotedWithVar(s) || isQuotedWithVar(p) || isQuotedWithVar(o)

	var it *store.QuadIterator
	var err error
	if useSlow {
		it, err = st.FindSlow(ctx, func(q rdf.Quad) bool {
			if !graphMatches(graph, q.Graph) {
				return false
			}
			local := binding.New()
			var ok bool
			local, ok = bindFromTerm(s, q.Subject, local)
			if !ok {
				return false
			}
			local, ok = bindFromTerm(p, q.Predicate, local)
			if !ok {
				return false
			}
			_, ok = bindFromTerm(o, q.Object, local)
			return ok
		})
	} else {
		// Pattern's Graph slot means "unbound" when nil, which collides
		// with Quad's own "nil Graph means the default graph" — a bound
		// Pattern can't express "default graph only" as a prefix, so that
		// case is narrowed by the explicit graphMatches check below
		// instead of by the index.
		pat := rdf.Pattern{}
		if graph != nil {
			pat.Graph = graph
		}
		if !containsVariable(s) {
			pat.Subject = s
		}
		if !containsVariable(p) {
			pat.Predicate = p
		}
		if !containsVariable(o) {
			pat.Object = o
		}
		it, err = st.Find(ctx, pat)
	}
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []binding.Binding
	for it.Next() {
		q := it.Quad()
		if !useSlow && !graphMatches(graph, q.Graph) {
			continue
		}
		nb := b
		var ok bool
		nb, ok = bindFromTerm(s, q.Subject, nb)
		if !ok {
			continue
		}
		nb, ok = bindFromTerm(p, q.Predicate, nb)
		if !ok {
			continue
		}
		nb, ok = bindFromTerm(o, q.Object, nb)
		if !ok {
			continue
		}
		out = append(out, nb)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// isQuotedWithVar reports whether t is itself a quoted triple carrying a
// nested variable (the one case Find's ground-prefix assumption can't
// express, per store.Find's doc comment).
func isQuotedWithVar(t rdf.Term) bool {
	q, ok := t.(rdf.QuotedTriple)
	return ok && containsVariable(q)
}

// graphMatches compares a resolved (never-a-variable) target graph term
// against a quad's actual graph slot; callers always resolve Graph{Var}
// to one concrete candidate before reaching here (see evalGraph).
func graphMatches(target, actual rdf.Term) bool {
	if target == nil {
		return actual == nil
	}
	if actual == nil {
		return false
	}
	return target.Equal(actual)
}

// evalBGP joins tp's patterns left to right as a nested-loop semi-join
// seeded by the incoming binding (spec §4.H: a BGP is a conjunction of
// triple patterns).
func evalBGP(ctx context.Context, st *store.Store, bgp algebra.BGP, graphs []rdf.Term, seed binding.Binding) ([]binding.Binding, error) {
	rows := []binding.Binding{seed}
	for _, tp := range bgp.Patterns {
		var next []binding.Binding
		for _, row := range rows {
			matched, err := scanTriple(ctx, st, tp, graphs, row)
			if err != nil {
				return nil, err
			}
			next = append(next, matched...)
		}
		rows = next
		if len(rows) == 0 {
			break
		}
	}
	return rows, nil
}
