// Package builtin implements SPARQL 1.1/1.2 expression evaluation: the
// operator and built-in function library (spec §4.I), plus the registry
// custom (extension) functions are added to under their IRI.
package builtin

import (
	"time"

	"github.com/kgcore/rdfstore/binding"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
)

// Func is a custom (extension) function: an IRI-keyed callable taking
// already-evaluated argument terms.
type Func func(ctx *Context, args []rdf.Term) (rdf.Term, error)

// ExistsEval is the executor hook EXISTS/NOT EXISTS call back into: given
// a sub-pattern and the current binding, report whether at least one
// solution exists. It lives here (rather than a hard dependency on
// sparql/exec) so builtin has no import cycle with the executor, which
// itself depends on builtin for FILTER/BIND/ORDER BY/aggregate evaluation.
type ExistsEval func(pattern algebra.Node, b binding.Binding) (bool, error)

// Context carries everything one expression evaluation needs beyond the
// expression tree itself.
type Context struct {
	Binding binding.Binding
	Custom  map[string]Func // extension functions, keyed by function IRI
	BNodes  *rdf.Scope      // backs the BNODE() builtin
	Now     time.Time       // fixed per top-level query execution, backs NOW()
	Exists  ExistsEval
}

// NewContext returns a Context evaluating expressions against b. now
// should be the single timestamp sampled once per query execution (spec
// §4.I: "NOW() returns a fixed value for the whole of one query
// execution").
func NewContext(b binding.Binding, now time.Time, exists ExistsEval, custom map[string]Func) *Context {
	if custom == nil {
		custom = map[string]Func{}
	}
	return &Context{Binding: b, Custom: custom, BNodes: rdf.NewScope(), Now: now, Exists: exists}
}

// WithBinding returns a shallow copy of ctx evaluating against a different
// binding — used when the executor descends into a nested scope (e.g.
// EXISTS, a Group partition) without losing the shared custom-function
// registry, BNODE scope, or fixed NOW().
func (ctx *Context) WithBinding(b binding.Binding) *Context {
	cp := *ctx
	cp.Binding = b
	return &cp
}
