// Package binding implements SPARQL solution bindings: an ordered map from
// variable name to term (spec §4.J). An unbound variable is simply absent
// from the map; it is never represented as a null entry.
package binding

import (
	"sort"

	"github.com/kgcore/rdfstore/rdf"
)

// Binding maps variable names to terms. The zero value is an empty,
// usable binding. Bindings are created and destroyed in the executor's
// hot path, so the representation favors a small slice over a map for the
// common case of a handful of variables — generalizing the teacher's
// per-iterator "tags" map (graph/iterator) into a first-class value, since
// here bindings are a top-level algebra concept rather than an iterator
// side channel.
type Binding struct {
	vars  []string
	terms []rdf.Term
}

// New returns an empty binding.
func New() Binding { return Binding{} }

// Get returns the term bound to name and whether it is bound at all.
func (b Binding) Get(name string) (rdf.Term, bool) {
	for i, v := range b.vars {
		if v == name {
			return b.terms[i], true
		}
	}
	return nil, false
}

// Bound reports whether name is bound in b.
func (b Binding) Bound(name string) bool {
	_, ok := b.Get(name)
	return ok
}

// With returns a new binding with name bound to t. It panics if name is
// already bound to a different term within b — callers (Extend/BIND) must
// check compatibility first; this mirrors the invariant that a binding
// never contains a variable bound to two different things.
func (b Binding) With(name string, t rdf.Term) Binding {
	if existing, ok := b.Get(name); ok {
		if !existing.Equal(t) {
			panic("binding: variable " + name + " already bound to a different term")
		}
		return b
	}
	vars := make([]string, len(b.vars), len(b.vars)+1)
	copy(vars, b.vars)
	terms := make([]rdf.Term, len(b.terms), len(b.terms)+1)
	copy(terms, b.terms)
	return Binding{vars: append(vars, name), terms: append(terms, t)}
}

// Vars returns the bound variable names, in insertion order.
func (b Binding) Vars() []string {
	out := make([]string, len(b.vars))
	copy(out, b.vars)
	return out
}

// Len reports the number of bound variables.
func (b Binding) Len() int { return len(b.vars) }

// Compatible reports whether a and b agree (sameTerm-equal) on every
// variable bound in both (spec §4.J).
func Compatible(a, b Binding) bool {
	for i, v := range a.vars {
		if t, ok := b.Get(v); ok {
			if !a.terms[i].Equal(t) {
				return false
			}
		}
	}
	return true
}

// Merge combines two compatible bindings into one holding the union of
// their variables. Merge(a, b) == Merge(b, a) (spec §8). Merge panics if a
// and b are not compatible; callers must check Compatible first.
func Merge(a, b Binding) Binding {
	if !Compatible(a, b) {
		panic("binding: merge of incompatible bindings")
	}
	out := a
	for i, v := range b.vars {
		if !out.Bound(v) {
			out = out.with(v, b.terms[i])
		}
	}
	return out
}

func (b Binding) with(name string, t rdf.Term) Binding {
	vars := make([]string, len(b.vars), len(b.vars)+1)
	copy(vars, b.vars)
	terms := make([]rdf.Term, len(b.terms), len(b.terms)+1)
	copy(terms, b.terms)
	return Binding{vars: append(vars, name), terms: append(terms, t)}
}

// Project returns a new binding containing only the listed variables
// (those unbound in b are simply absent from the result, never an
// explicit null).
func (b Binding) Project(vars []string) Binding {
	var out Binding
	for _, v := range vars {
		if t, ok := b.Get(v); ok {
			out = out.with(v, t)
		}
	}
	return out
}

// SortedVars returns the bound variable names in lexical order, useful
// for deterministic result-set serialization.
func (b Binding) SortedVars() []string {
	out := b.Vars()
	sort.Strings(out)
	return out
}
