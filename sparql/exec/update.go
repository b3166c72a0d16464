package exec

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/kgcore/rdfstore/binding"
	"github.com/kgcore/rdfstore/internal/clog"
	"github.com/kgcore/rdfstore/internal/errs"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
	"github.com/kgcore/rdfstore/turtle"
)

// ExecuteUpdate runs a SPARQL Update request's operations in order (spec
// §7), executed against the live store one quad at a time: each quad is
// inserted or removed by its own store.Store.Insert/Remove call, so an
// error partway through an operation leaves the quads already changed in
// place, and no transaction spans an operation or the whole request.
func (ex *Executor) ExecuteUpdate(ctx context.Context, u *algebra.Update) error {
	for _, op := range u.Ops {
		if err := ex.execOp(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Executor) execOp(ctx context.Context, op algebra.UpdateOp) error {
	switch v := op.(type) {
	case algebra.InsertData:
		return ex.insertQuads(ctx, v.Quads)
	case algebra.DeleteData:
		return ex.removeQuads(ctx, v.Quads)
	case algebra.DeleteWhere:
		return ex.execDeleteWhere(ctx, v)
	case algebra.Modify:
		return ex.execModify(ctx, v)
	case algebra.Load:
		err := ex.execLoad(ctx, v)
		if err != nil && v.Silent {
			clog.Warningf("exec: LOAD <%s> failed (silent): %v", v.Source, err)
			return nil
		}
		return err
	case algebra.Clear:
		err := ex.execClear(ctx, v.Target)
		if err != nil && v.Silent {
			return nil
		}
		return err
	case algebra.Create:
		// The store's graph set is implicit in its quads (spec §4.D); a
		// graph with no quads is indistinguishable from an absent one,
		// so CREATE has nothing to allocate.
		return nil
	case algebra.Drop:
		err := ex.execClear(ctx, v.Target)
		if err != nil && v.Silent {
			return nil
		}
		return err
	case algebra.Copy:
		err := ex.execCopy(ctx, v.From, v.To)
		if err != nil && v.Silent {
			return nil
		}
		return err
	case algebra.Move:
		if err := ex.execCopy(ctx, v.From, v.To); err != nil {
			if v.Silent {
				return nil
			}
			return err
		}
		if err := ex.execClear(ctx, v.From); err != nil && !v.Silent {
			return err
		}
		return nil
	case algebra.Add:
		err := ex.execAdd(ctx, v.From, v.To)
		if err != nil && v.Silent {
			return nil
		}
		return err
	}
	return &errs.TypeError{Msg: "exec: unknown update operation"}
}

func (ex *Executor) insertQuads(ctx context.Context, quads []rdf.Quad) error {
	for _, q := range quads {
		if err := ex.Store.Insert(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Executor) removeQuads(ctx context.Context, quads []rdf.Quad) error {
	for _, q := range quads {
		if err := ex.Store.Remove(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// matchQuadPattern resolves qp's Graph against seed before scanning, so a
// Graph that's a Variable bound by an earlier pattern in the same WHERE
// clause narrows to that one graph instead of re-ranging over every named
// graph.
func (ex *Executor) matchQuadPattern(ctx context.Context, qp algebra.QuadPattern, seed binding.Binding) ([]binding.Binding, error) {
	tp := algebra.TriplePattern{Subject: qp.Subject, Predicate: qp.Predicate, Object: qp.Object}
	g := substituteTerm(qp.Graph, seed)
	if gv, ok := g.(rdf.Variable); ok {
		named, err := ex.distinctNamedGraphs(ctx)
		if err != nil {
			return nil, err
		}
		var out []binding.Binding
		for _, cand := range named {
			nb, ok := bindFromTerm(gv, cand, seed)
			if !ok {
				continue
			}
			rows, err := scanTriple(ctx, ex.Store, tp, []rdf.Term{cand}, nb)
			if err != nil {
				return nil, err
			}
			out = append(out, rows...)
		}
		return out, nil
	}
	return scanTriple(ctx, ex.Store, tp, []rdf.Term{g}, seed)
}

// evalQuadPatterns joins patterns left to right as a nested-loop
// semi-join, mirroring evalBGP but over QuadPattern (each of which may
// name its own graph, unlike a plain BGP's single shared graph set).
func (ex *Executor) evalQuadPatterns(ctx context.Context, patterns []algebra.QuadPattern, seed binding.Binding) ([]binding.Binding, error) {
	rows := []binding.Binding{seed}
	for _, qp := range patterns {
		var next []binding.Binding
		for _, row := range rows {
			matched, err := ex.matchQuadPattern(ctx, qp, row)
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

// resolveQuadPattern substitutes qp's terms against row, building a
// concrete Quad to insert or remove. A Variable left unbound drops the
// whole quad (the same rule CONSTRUCT's template resolution uses); a
// Blank is per-row-fresh and shared across a row's other template quads
// via bnodeFor, same as constructTerm. defaultGraph supplies the graph
// when qp.Graph is nil (WITH <graph>, or nil for the store's own default
// graph).
func resolveQuadPattern(qp algebra.QuadPattern, row binding.Binding, scope *rdf.Scope, bnodeFor map[string]rdf.Blank, defaultGraph rdf.Term) (rdf.Quad, bool) {
	s, ok1 := constructTerm(qp.Subject, row, scope, bnodeFor)
	p, ok2 := constructTerm(qp.Predicate, row, scope, bnodeFor)
	o, ok3 := constructTerm(qp.Object, row, scope, bnodeFor)
	g := defaultGraph
	ok4 := true
	if qp.Graph != nil {
		g, ok4 = constructTerm(qp.Graph, row, scope, bnodeFor)
	}
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return rdf.Quad{}, false
	}
	return rdf.Quad{Subject: s, Predicate: p, Object: o, Graph: g}, true
}

// execDeleteWhere runs Patterns both as the WHERE clause and, against
// each resulting row, as the delete template (spec: DeleteWhere is sugar
// for a Modify whose Delete template equals its Where pattern).
func (ex *Executor) execDeleteWhere(ctx context.Context, v algebra.DeleteWhere) error {
	rows, err := ex.evalQuadPatterns(ctx, v.Patterns, binding.New())
	if err != nil {
		return err
	}
	scope := rdf.NewScope()
	for _, row := range rows {
		bnodeFor := map[string]rdf.Blank{}
		for _, qp := range v.Patterns {
			q, ok := resolveQuadPattern(qp, row, scope, bnodeFor, nil)
			if !ok {
				continue
			}
			if err := ex.Store.Remove(ctx, q); err != nil {
				return err
			}
		}
	}
	return nil
}

// execModify runs the general DELETE/INSERT ... WHERE form. Delete
// templates are applied to every WHERE solution before any Insert
// template is (spec §4.H "DELETE runs before INSERT within a single
// update"), so an Insert can't observe a Delete from the same Modify.
func (ex *Executor) execModify(ctx context.Context, m algebra.Modify) error {
	ds := modifyDataset(m)
	e := ex.newEnv(ctx, ds)
	rows, err := ex.evalNode(ctx, e, m.Where)
	if err != nil {
		return err
	}

	scope := rdf.NewScope()
	for _, row := range rows {
		bnodeFor := map[string]rdf.Blank{}
		for _, qp := range m.Delete {
			q, ok := resolveQuadPattern(qp, row, scope, bnodeFor, m.With)
			if !ok {
				continue
			}
			if err := ex.Store.Remove(ctx, q); err != nil {
				return err
			}
		}
	}
	for _, row := range rows {
		bnodeFor := map[string]rdf.Blank{}
		for _, qp := range m.Insert {
			q, ok := resolveQuadPattern(qp, row, scope, bnodeFor, m.With)
			if !ok {
				continue
			}
			if err := ex.Store.Insert(ctx, q); err != nil {
				return err
			}
		}
	}
	return nil
}

// modifyDataset resolves the dataset a Modify's WHERE clause runs
// against: USING/USING NAMED override it entirely when present; absent
// that, WITH <graph> narrows the default graph; absent both, the store's
// whole default graph is used (spec §4.H).
func modifyDataset(m algebra.Modify) dataset {
	if len(m.Using) > 0 || len(m.UsingNamed) > 0 {
		return dataset{defaultGraphs: m.Using, namedGraphs: m.UsingNamed}
	}
	if m.With != nil {
		return dataset{defaultGraphs: []rdf.Term{m.With}}
	}
	return dataset{}
}

// resolveGraphTargets expands a GraphRefAll target into the concrete
// graph terms (nil for the default graph) it denotes.
func (ex *Executor) resolveGraphTargets(ctx context.Context, t algebra.GraphTarget) ([]rdf.Term, error) {
	switch {
	case t.All:
		named, err := ex.distinctNamedGraphs(ctx)
		if err != nil {
			return nil, err
		}
		return append([]rdf.Term{nil}, named...), nil
	case t.Default:
		return []rdf.Term{nil}, nil
	case t.Named:
		return ex.distinctNamedGraphs(ctx)
	default:
		return []rdf.Term{t.Graph}, nil
	}
}

func (ex *Executor) execClear(ctx context.Context, target algebra.GraphTarget) error {
	graphs, err := ex.resolveGraphTargets(ctx, target)
	if err != nil {
		return err
	}
	for _, g := range graphs {
		if err := ex.clearGraph(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

// clearGraph removes every quad in graph g. Matches are materialized
// before any Remove call so the scan never observes its own deletions.
func (ex *Executor) clearGraph(ctx context.Context, g rdf.Term) error {
	pat := rdf.Pattern{}
	if g != nil {
		pat.Graph = g
	}
	it, err := ex.Store.Find(ctx, pat)
	if err != nil {
		return err
	}
	var quads []rdf.Quad
	for it.Next() {
		q := it.Quad()
		if graphMatches(g, q.Graph) {
			quads = append(quads, q)
		}
	}
	if err := it.Err(); err != nil {
		it.Close()
		return err
	}
	it.Close()
	for _, q := range quads {
		if err := ex.Store.Remove(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// copyGraphQuads materializes every quad in graph g with a new graph
// term substituted in, the shared machinery behind COPY/MOVE/ADD.
func (ex *Executor) copyGraphQuads(ctx context.Context, g, into rdf.Term) ([]rdf.Quad, error) {
	pat := rdf.Pattern{}
	if g != nil {
		pat.Graph = g
	}
	it, err := ex.Store.Find(ctx, pat)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []rdf.Quad
	for it.Next() {
		q := it.Quad()
		if !graphMatches(g, q.Graph) {
			continue
		}
		out = append(out, rdf.Quad{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object, Graph: into})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// execCopy replaces To's contents with From's (spec: From is left
// intact). GraphRefAll targets naming more than one graph are rejected —
// COPY/MOVE/ADD's grammar only ever binds a single graph on either side.
func (ex *Executor) execCopy(ctx context.Context, from, to algebra.GraphTarget) error {
	fromGraphs, err := ex.resolveGraphTargets(ctx, from)
	if err != nil {
		return err
	}
	toGraphs, err := ex.resolveGraphTargets(ctx, to)
	if err != nil {
		return err
	}
	if len(fromGraphs) != 1 || len(toGraphs) != 1 {
		return &errs.TypeError{Msg: "exec: COPY/MOVE/ADD requires a single source and destination graph"}
	}
	if graphMatches(fromGraphs[0], toGraphs[0]) {
		return nil // copying a graph onto itself changes nothing
	}
	if err := ex.clearGraph(ctx, toGraphs[0]); err != nil {
		return err
	}
	quads, err := ex.copyGraphQuads(ctx, fromGraphs[0], toGraphs[0])
	if err != nil {
		return err
	}
	return ex.insertQuads(ctx, quads)
}

// execAdd inserts From's quads into To, leaving both populated (unlike
// COPY/MOVE it never clears To first).
func (ex *Executor) execAdd(ctx context.Context, from, to algebra.GraphTarget) error {
	fromGraphs, err := ex.resolveGraphTargets(ctx, from)
	if err != nil {
		return err
	}
	toGraphs, err := ex.resolveGraphTargets(ctx, to)
	if err != nil {
		return err
	}
	if len(fromGraphs) != 1 || len(toGraphs) != 1 {
		return &errs.TypeError{Msg: "exec: COPY/MOVE/ADD requires a single source and destination graph"}
	}
	quads, err := ex.copyGraphQuads(ctx, fromGraphs[0], toGraphs[0])
	if err != nil {
		return err
	}
	return ex.insertQuads(ctx, quads)
}

// execLoad fetches Source over HTTP(S) and parses it as Turtle/N-Triples
// into Into (the default graph when Into is nil), per spec §4.H. Only
// http(s) is supported; any other scheme is an error (silenced by the
// caller when Silent is set).
func (ex *Executor) execLoad(ctx context.Context, v algebra.Load) error {
	src := string(v.Source)
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return &errs.TypeError{Msg: "exec: LOAD only supports http(s) sources, got " + src}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &errs.TypeError{Msg: "exec: LOAD " + src + ": unexpected status " + resp.Status}
	}

	parser := turtle.NewParser(io.LimitReader(resp.Body, 1<<30))
	parser.SetBase(src)
	quads, err := parser.All()
	if err != nil {
		return err
	}
	for i := range quads {
		quads[i].Graph = v.Into
	}
	return ex.insertQuads(ctx, quads)
}
