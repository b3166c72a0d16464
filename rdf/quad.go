package rdf

import "fmt"

// Triple is an ordered (subject, predicate, object) of terms; Predicate
// must be an IRI (or, transiently during parsing, a Variable — algebra and
// store code never see a non-IRI, non-Variable predicate).
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s", t.Subject, t.Predicate, t.Object)
}

// Equal is sameTerm equality over all three positions.
func (t Triple) Equal(o Triple) bool {
	return termsEqual(t.Subject, o.Subject) &&
		termsEqual(t.Predicate, o.Predicate) &&
		termsEqual(t.Object, o.Object)
}

// Quad is a Triple plus a graph-name term. A nil Graph means the default
// graph. Graph, when non-nil, is an IRI or Blank.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// Triple drops the graph component.
func (q Quad) Triple() Triple {
	return Triple{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
}

func (q Quad) String() string {
	if q.Graph == nil {
		return fmt.Sprintf("%s %s %s .", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

// Equal is sameTerm equality over all four positions; a nil Graph is only
// equal to a nil Graph.
func (q Quad) Equal(o Quad) bool {
	return termsEqual(q.Subject, o.Subject) &&
		termsEqual(q.Predicate, o.Predicate) &&
		termsEqual(q.Object, o.Object) &&
		termsEqual(q.Graph, o.Graph)
}

// Valid reports whether every required position is present and Predicate
// is an IRI (the one structural constraint spec §3 places on a Quad).
func (q Quad) Valid() bool {
	if q.Subject == nil || q.Predicate == nil || q.Object == nil {
		return false
	}
	if _, ok := q.Predicate.(IRI); !ok {
		return false
	}
	switch q.Graph.(type) {
	case nil, IRI, Blank:
		return true
	default:
		return false
	}
}

// Dir is a quad-slot direction used by patterns and the index layer: S, P,
// O, G, distinct from the Kind tag on Term.
type Dir byte

const (
	S Dir = iota
	P
	O
	G
)

// Dirs lists S,P,O,G in the canonical iteration order used throughout the
// store and encoding layers.
var Dirs = [4]Dir{S, P, O, G}

func (d Dir) String() string {
	switch d {
	case S:
		return "subject"
	case P:
		return "predicate"
	case O:
		return "object"
	case G:
		return "graph"
	default:
		return "?"
	}
}

// Get returns the term at slot d (nil for an unset Graph).
func (q Quad) Get(d Dir) Term {
	switch d {
	case S:
		return q.Subject
	case P:
		return q.Predicate
	case O:
		return q.Object
	case G:
		return q.Graph
	default:
		panic("rdf: invalid direction")
	}
}

// Set mutates the term at slot d.
func (q *Quad) Set(d Dir, t Term) {
	switch d {
	case S:
		q.Subject = t
	case P:
		q.Predicate = t
	case O:
		q.Object = t
	case G:
		q.Graph = t
	default:
		panic("rdf: invalid direction")
	}
}

// Pattern is a quad pattern with each slot optionally bound. A nil slot is
// unbound ("match anything").
type Pattern struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// Get mirrors Quad.Get for patterns.
func (p Pattern) Get(d Dir) Term {
	switch d {
	case S:
		return p.Subject
	case P:
		return p.Predicate
	case O:
		return p.Object
	case G:
		return p.Graph
	default:
		panic("rdf: invalid direction")
	}
}

// Matches reports whether q is compatible with every bound slot of p
// (spec §8 "pattern completeness").
func (p Pattern) Matches(q Quad) bool {
	for _, d := range Dirs {
		bound := p.Get(d)
		if bound == nil {
			continue
		}
		got := q.Get(d)
		if got == nil || !bound.Equal(got) {
			return false
		}
	}
	return true
}

// BoundDirs returns the bound slots of p, in S,P,O,G order.
func (p Pattern) BoundDirs() []Dir {
	var out []Dir
	for _, d := range Dirs {
		if p.Get(d) != nil {
			out = append(out, d)
		}
	}
	return out
}
