package rdf

import (
	"fmt"
	"sync/atomic"
)

// Scope allocates fresh blank-node identifiers for one parsing or
// execution session. Each parser invocation and each BNODE()-bearing
// query execution gets its own Scope (spec §9): merging two documents'
// output without reassigning scopes would risk accidental coreference.
type Scope struct {
	id   uint64
	last uint64
}

var nextScopeID uint64

// NewScope allocates a fresh, globally unique scope id.
func NewScope() *Scope {
	return &Scope{id: atomic.AddUint64(&nextScopeID, 1)}
}

// Fresh returns a new, never-before-issued blank node within this scope.
func (s *Scope) Fresh() Blank {
	n := atomic.AddUint64(&s.last, 1)
	return Blank{Scope: s.id, Name: fmt.Sprintf("b%d", n)}
}

// Named returns a blank node with an explicit surface-syntax name (as
// written in a Turtle document, e.g. `_:foo`), scoped to s. Two calls with
// the same name in the same scope return sameTerm-equal nodes.
func (s *Scope) Named(name string) Blank {
	return Blank{Scope: s.id, Name: name}
}
