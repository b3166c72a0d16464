package builtin

import "github.com/kgcore/rdfstore/rdf"

// Registry holds custom (extension) functions keyed by their IRI, handed
// to NewContext so every expression evaluation in a query execution can
// resolve a `<http://example.org/fn>(...)` call to user code (spec §4.I:
// "IRIrefOrFunction not matching a built-in name dispatches to a
// registered extension function; an unregistered IRI is an error").
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns an empty extension-function registry.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{}}
}

// Register binds fn under iri, overwriting any prior binding for the same
// IRI. It is the caller's responsibility to keep this out of the
// builtinFuncs namespace — registering over a built-in name has no effect
// since builtin keyword calls never reach Custom lookup.
func (r *Registry) Register(iri string, fn Func) {
	r.funcs[iri] = fn
}

// Unregister removes iri's binding, if any.
func (r *Registry) Unregister(iri string) {
	delete(r.funcs, iri)
}

// Lookup returns the function bound to iri, if any.
func (r *Registry) Lookup(iri string) (Func, bool) {
	fn, ok := r.funcs[iri]
	return fn, ok
}

// Snapshot returns a copy of the registry's current bindings, suitable for
// handing to NewContext so later Register/Unregister calls on r don't
// race with an in-flight query execution.
func (r *Registry) Snapshot() map[string]Func {
	cp := make(map[string]Func, len(r.funcs))
	for k, v := range r.funcs {
		cp[k] = v
	}
	return cp
}

// RegisterArity is a convenience wrapper for the common case of a custom
// function with a fixed argument count: it validates len(args) before
// calling fn, sparing every registrant that boilerplate.
func RegisterArity(r *Registry, iri string, arity int, fn func(args []rdf.Term) (rdf.Term, error)) {
	r.Register(iri, func(ctx *Context, args []rdf.Term) (rdf.Term, error) {
		if len(args) != arity {
			return nil, argErr(iri, arity)
		}
		return fn(args)
	})
}
