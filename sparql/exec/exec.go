// Package exec evaluates a parsed SPARQL algebra tree (sparql/algebra)
// against a store.Store (spec §4.H). It materializes each operator's
// result as a []binding.Binding rather than chaining lazy iterators —
// the teacher's graph/iterator package streams value-iterators lazily
// because Cayley graphs can be enormous joins over a live store, but a
// SPARQL solution sequence is small enough, and the operator set rich
// enough (aggregates, ORDER BY, DISTINCT all need the full set anyway),
// that a materialized pipeline is the simpler correct choice here.
package exec

import (
	"context"
	"time"

	"github.com/kgcore/rdfstore/binding"
	"github.com/kgcore/rdfstore/internal/errs"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
	"github.com/kgcore/rdfstore/sparql/builtin"
	"github.com/kgcore/rdfstore/store"
)

// Executor runs queries and updates against one Store.
type Executor struct {
	Store    *store.Store
	Registry *builtin.Registry
}

// New returns an Executor backed by s. reg may be nil (no custom
// extension functions registered).
func New(s *store.Store, reg *builtin.Registry) *Executor {
	if reg == nil {
		reg = builtin.NewRegistry()
	}
	return &Executor{Store: s, Registry: reg}
}

// Result is the outcome of executing one Query, shaped per its form.
type Result struct {
	Form     algebra.QueryForm
	Vars     []string          // SELECT: projected variable order
	Rows     []binding.Binding // SELECT
	Ask      bool              // ASK
	Triples  []rdf.Triple      // CONSTRUCT/DESCRIBE
}

// dataset is the resolved active-graph context threaded through node
// evaluation: the set of graph terms the default graph (nil slot)
// currently ranges over, and the set GRAPH is allowed to enumerate.
type dataset struct {
	defaultGraphs []rdf.Term // nil-length means "the store's own unnamed default graph"
	namedGraphs   []rdf.Term // nil-length means "every named graph the store has"
}

func newDataset(d algebra.Dataset) dataset {
	return dataset{defaultGraphs: d.Default, namedGraphs: d.Named}
}

// env carries everything evalNode needs besides the tree itself: the
// active dataset and the fixed per-query ingredients (NOW(), the
// EXISTS/NOT EXISTS callback, and the custom-function snapshot) each
// operator hands to builtin.NewContext when it evaluates an expression
// against one row.
type env struct {
	ds     dataset
	now    time.Time
	exists builtin.ExistsEval
	custom map[string]builtin.Func
}

func (ex *Executor) newEnv(ctx context.Context, ds dataset) env {
	e := &env{ds: ds, now: fixedNow(), custom: ex.Registry.Snapshot()}
	e.exists = ex.existsHook(ctx, e)
	return *e
}

func (e env) exprContext(b binding.Binding) *builtin.Context {
	return builtin.NewContext(b, e.now, e.exists, e.custom)
}

// Execute runs a parsed SELECT/ASK/CONSTRUCT/DESCRIBE query.
func (ex *Executor) Execute(ctx context.Context, q *algebra.Query) (*Result, error) {
	ds := newDataset(q.Dataset)
	e := ex.newEnv(ctx, ds)
	rows := []binding.Binding{binding.New()} // DESCRIBE without WHERE has no pattern
	if q.Pattern != nil {
		var err error
		if rows, err = ex.evalNode(ctx, e, q.Pattern); err != nil {
			return nil, err
		}
	}
	switch q.Form {
	case algebra.FormAsk:
		return &Result{Form: q.Form, Ask: len(rows) > 0}, nil
	case algebra.FormSelect:
		return &Result{Form: q.Form, Vars: projectedVars(q.Pattern), Rows: rows}, nil
	case algebra.FormConstruct:
		triples := constructTriples(q.Template, rows)
		return &Result{Form: q.Form, Triples: triples}, nil
	case algebra.FormDescribe:
		triples, err := ex.describe(ctx, e.ds, q.Describe, rows)
		if err != nil {
			return nil, err
		}
		return &Result{Form: q.Form, Triples: triples}, nil
	}
	return nil, &errs.TypeError{Msg: "unknown query form"}
}

// fixedNow samples the single timestamp a whole query execution's NOW()
// calls share (spec §4.I).
func fixedNow() time.Time { return time.Now() }

// projectedVars walks down through the solution-modifier wrapper nodes to
// find the Project node's variable list, if any (a bare SELECT * with no
// modifiers has none — the caller falls back to the row's own vars).
func projectedVars(n algebra.Node) []string {
	switch v := n.(type) {
	case algebra.Project:
		return v.Vars
	case algebra.Distinct:
		return projectedVars(v.Inner)
	case algebra.Reduced:
		return projectedVars(v.Inner)
	case algebra.Slice:
		return projectedVars(v.Inner)
	case algebra.OrderBy:
		return projectedVars(v.Inner)
	}
	return nil
}

func constructTriples(template []algebra.TriplePattern, rows []binding.Binding) []rdf.Triple {
	seen := map[rdf.Triple]bool{}
	var out []rdf.Triple
	scope := rdf.NewScope()
	for _, b := range rows {
		bnodeFor := map[string]rdf.Blank{}
		for _, tp := range template {
			s, ok1 := constructTerm(tp.Subject, b, scope, bnodeFor)
			p, ok2 := constructTerm(tp.Predicate, b, scope, bnodeFor)
			o, ok3 := constructTerm(tp.Object, b, scope, bnodeFor)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			t := rdf.Triple{Subject: s, Predicate: p, Object: o}
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// constructTerm resolves one CONSTRUCT template term against a solution:
// a Variable must be bound by the row (an unbound one drops the whole
// triple, spec §4.H); a Blank is a per-row-fresh node, shared across the
// template's other occurrences of the same label within that row.
func constructTerm(t rdf.Term, b binding.Binding, scope *rdf.Scope, bnodeFor map[string]rdf.Blank) (rdf.Term, bool) {
	switch v := t.(type) {
	case rdf.Variable:
		val, ok := b.Get(string(v))
		return val, ok
	case rdf.Blank:
		if bn, ok := bnodeFor[v.Name]; ok {
			return bn, true
		}
		bn := scope.Fresh()
		bnodeFor[v.Name] = bn
		return bn, true
	case rdf.QuotedTriple:
		s, ok1 := constructTerm(v.Subject, b, scope, bnodeFor)
		p, ok2 := constructTerm(v.Predicate, b, scope, bnodeFor)
		o, ok3 := constructTerm(v.Object, b, scope, bnodeFor)
		if !ok1 || !ok2 || !ok3 {
			return nil, false
		}
		return rdf.QuotedTriple{Subject: s, Predicate: p, Object: o}, true
	default:
		return t, true
	}
}

// describe resolves DESCRIBE's terms: each explicit IRI/var resolves to
// itself (vars against every row's binding); DESCRIBE * uses every
// variable bound anywhere in the solution sequence. For each resulting
// node, every quad naming it as subject or object is emitted (a minimal,
// spec-conformant bounded-description strategy — spec §4.H leaves the
// description form implementation-defined).
func (ex *Executor) describe(ctx context.Context, ds dataset, terms []rdf.Term, rows []binding.Binding) ([]rdf.Triple, error) {
	nodes := map[rdf.Term]bool{}
	addNode := func(t rdf.Term) { nodes[t] = true }
	if terms == nil {
		for _, row := range rows {
			for _, v := range row.Vars() {
				if t, ok := row.Get(v); ok {
					addNode(t)
				}
			}
		}
	}
	for _, t := range terms {
		if v, ok := t.(rdf.Variable); ok {
			for _, row := range rows {
				if val, ok := row.Get(string(v)); ok {
					addNode(val)
				}
			}
			continue
		}
		addNode(t)
	}
	seen := map[rdf.Triple]bool{}
	var out []rdf.Triple
	for node := range nodes {
		for _, g := range graphCandidates(ds) {
			for _, slot := range []rdf.Dir{rdf.S, rdf.O} {
				p := rdf.Pattern{}
				if g != nil {
					p.Graph = g
				}
				if slot == rdf.S {
					p.Subject = node
				} else {
					p.Object = node
				}
				it, err := ex.Store.Find(ctx, p)
				if err != nil {
					return nil, err
				}
				for it.Next() {
					q := it.Quad()
					if !graphMatches(g, q.Graph) {
						continue
					}
					tr := q.Triple()
					if !seen[tr] {
						seen[tr] = true
						out = append(out, tr)
					}
				}
				if err := it.Err(); err != nil {
					it.Close()
					return nil, err
				}
				it.Close()
			}
		}
	}
	return out, nil
}

// graphCandidates returns the graph terms the default-graph scan should
// union over. A zero-length Default dataset means the store's own
// unnamed default graph (nil).
func graphCandidates(ds dataset) []rdf.Term {
	if len(ds.defaultGraphs) == 0 {
		return []rdf.Term{nil}
	}
	return ds.defaultGraphs
}

// existsHook builds the builtin.ExistsEval callback: EXISTS/NOT EXISTS
// evaluate pattern independently, then report whether any resulting row
// is compatible with the caller's current binding (spec §4.I: EXISTS is
// a correlated existence test, not a join — it never adds bindings).
func (ex *Executor) existsHook(ctx context.Context, e *env) builtin.ExistsEval {
	return func(pattern algebra.Node, b binding.Binding) (bool, error) {
		rows, err := ex.evalNode(ctx, *e, pattern)
		if err != nil {
			return false, err
		}
		for _, r := range rows {
			if binding.Compatible(b, r) {
				return true, nil
			}
		}
		return false, nil
	}
}
