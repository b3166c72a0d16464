package algebra

import "github.com/kgcore/rdfstore/rdf"

// QuadPattern is a template/pattern quad used by UPDATE operations: each
// position may hold a concrete term (INSERT/DELETE DATA) or a variable
// (the template half of DELETE/INSERT ... WHERE). Graph is nil for the
// default graph.
type QuadPattern struct {
	Subject, Predicate, Object rdf.Term
	Graph                      rdf.Term
}

// GraphTarget names the graph(s) a CLEAR/DROP/CREATE/COPY/MOVE/ADD
// operation addresses, per the SPARQL 1.1 Update grammar's GraphRefAll.
type GraphTarget struct {
	Default bool     // the default graph
	Named   bool      // NAMED: every named graph
	All     bool      // ALL: default graph plus every named graph
	Graph   rdf.IRI  // a single named graph; set iff Default/Named/All are all false
}

// UpdateOp is one operation of a SPARQL Update request; a request is a
// sequence of these, executed in order (spec §4.H "Update execution").
type UpdateOp interface{ updateOp() }

// InsertData adds concrete quads (spec: "INSERT DATA operates on concrete
// quads" — no variables, no WHERE).
type InsertData struct{ Quads []rdf.Quad }

// DeleteData removes concrete quads.
type DeleteData struct{ Quads []rdf.Quad }

// DeleteWhere is sugar for a DELETE/INSERT with the same pattern used as
// both the WHERE clause and the delete template (no separate INSERT
// template).
type DeleteWhere struct{ Patterns []QuadPattern }

// Modify is the general DELETE/INSERT ... WHERE form. Delete is applied
// before Insert within one Modify, per W3C semantics (spec §4.H "DELETE
// runs before INSERT within a single update").
type Modify struct {
	With       rdf.Term // WITH <graph>, nil if absent
	Delete     []QuadPattern
	Insert     []QuadPattern
	Using      []rdf.Term // USING <iri>
	UsingNamed []rdf.Term // USING NAMED <iri>
	Where      Node
}

// Load fetches and parses an RDF document into Into (the default graph if
// Into is nil).
type Load struct {
	Source rdf.IRI
	Into   rdf.Term
	Silent bool
}

// Clear removes all quads from Target.
type Clear struct {
	Target GraphTarget
	Silent bool
}

// Create declares a new named graph (a no-op for stores without an
// explicit empty-graph notion, since the store's graph set is implicit in
// its quads).
type Create struct {
	Graph  rdf.IRI
	Silent bool
}

// Drop removes Target's graph(s) and, for named graphs, the graph itself.
type Drop struct {
	Target GraphTarget
	Silent bool
}

// Copy replaces To's contents with From's (From is left intact).
type Copy struct {
	From, To GraphTarget
	Silent   bool
}

// Move replaces To's contents with From's and then clears From.
type Move struct {
	From, To GraphTarget
	Silent   bool
}

// Add inserts From's quads into To, leaving both populated.
type Add struct {
	From, To GraphTarget
	Silent   bool
}

func (InsertData) updateOp()  {}
func (DeleteData) updateOp()  {}
func (DeleteWhere) updateOp() {}
func (Modify) updateOp()      {}
func (Load) updateOp()        {}
func (Clear) updateOp()       {}
func (Create) updateOp()      {}
func (Drop) updateOp()        {}
func (Copy) updateOp()        {}
func (Move) updateOp()        {}
func (Add) updateOp()         {}

// Update is a full SPARQL Update request: a sequence of operations
// executed left to right, each atomic at the quad-set level (spec §7).
type Update struct {
	Ops []UpdateOp
}
