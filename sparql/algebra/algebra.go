package algebra

import "github.com/kgcore/rdfstore/rdf"

// Node is one variant of the SPARQL algebra tree (spec §4.G). The
// concrete variants below are the complete set the optimizer and
// executor dispatch over.
type Node interface {
	nodeType()
}

// TriplePattern is one (subject, predicate, object) slot of a BGP; any
// component may be a rdf.Variable. Blank nodes in patterns are
// non-distinguishing existentials: they behave like variables but are
// never projected (spec §4.H).
type TriplePattern struct {
	Subject, Predicate, Object rdf.Term
}

// BGP is a basic graph pattern: a set of triple patterns evaluated as a
// nested hash semi-join (spec §4.H).
type BGP struct{ Patterns []TriplePattern }

// Join is an inner join on shared variables (spec §4.H): a Cartesian
// product filtered by sameTerm equality on shared columns.
type Join struct{ Left, Right Node }

// LeftJoin is SPARQL OPTIONAL: left rows are preserved even when the
// right side (together with Filter, if any) doesn't match.
type LeftJoin struct {
	Left, Right Node
	Filter      Expr // nil if OPTIONAL carries no extra FILTER
}

// FilterNode drops bindings for which Expr's effective boolean value is
// not true.
type FilterNode struct {
	Expr  Expr
	Inner Node
}

// Union concatenates two streams; the column set is their union,
// unbound where a side doesn't provide a variable.
type Union struct{ Left, Right Node }

// Graph restricts Inner evaluation to a graph. If Var is non-empty, Inner
// is evaluated once per named graph in the active dataset, binding Var;
// if Term is set, Inner is restricted to exactly that graph.
type Graph struct {
	Term  rdf.Term // nil when Var is used
	Var   string   // empty when Term is used
	Inner Node
}

// Extend is BIND: evaluates Expr and binds Var, failing the row if Var is
// already bound to a different term.
type Extend struct {
	Var   string
	Expr  Expr
	Inner Node
}

// Minus emits left rows whose shared-variable bindings match no right
// row (spec §4.H).
type Minus struct{ Left, Right Node }

// Project restricts the binding to Vars.
type Project struct {
	Vars  []string
	Inner Node
}

// Distinct / Reduced deduplicate the result stream; Reduced permits but
// does not require deduplication; this implementation treats it as
// Distinct for simplicity (a conforming strengthening).
type Distinct struct{ Inner Node }
type Reduced struct{ Inner Node }

// OrderCondition is one ORDER BY term.
type OrderCondition struct {
	Expr       Expr
	Descending bool
}

// OrderBy sorts the (materialized) input stably by Conditions.
type OrderBy struct {
	Conditions []OrderCondition
	Inner      Node
}

// AggregateBinding names the projected variable an Aggregate is bound to,
// e.g. `(AVG(?s) AS ?a)`.
type AggregateBinding struct {
	Var string
	Agg Aggregate
}

// Group partitions input by GroupVars (sameTerm equality; two unbound
// values are in the same group) and evaluates Aggs per partition. With
// aggregates but no explicit GROUP BY, GroupVars is empty and the whole
// input is one group.
type Group struct {
	GroupVars []string
	Aggs      []AggregateBinding
	Inner     Node
	Having    Expr // nil if no HAVING clause
}

// Slice applies OFFSET/LIMIT; Limit < 0 means unbounded.
type Slice struct {
	Offset, Limit int
	Inner         Node
}

// Service represents a federated SERVICE clause. Execution raises
// Unsupported with Silent honored (see sparql/exec), per the documented
// SERVICE open-question decision — not real HTTP federation.
type Service struct {
	Endpoint rdf.Term
	Inner    Node
	Silent   bool
}

// Path is a property-path triple pattern, preserved as a tree node
// instead of being flattened to a sequence of BGPs (spec §4.G).
type Path struct {
	Subject, Object rdf.Term
	Expr            PathExpr
}

// PathExpr is one property-path expression node.
type PathExpr interface{ pathNode() }

type PathIRI struct{ IRI rdf.IRI }
type PathInverse struct{ Inner PathExpr }
type PathSeq struct{ Left, Right PathExpr }
type PathAlt struct{ Left, Right PathExpr }
type PathZeroOrMore struct{ Inner PathExpr }
type PathOneOrMore struct{ Inner PathExpr }
type PathZeroOrOne struct{ Inner PathExpr }
type PathNegatedSet struct{ IRIs []rdf.IRI }

func (PathIRI) pathNode()        {}
func (PathInverse) pathNode()    {}
func (PathSeq) pathNode()        {}
func (PathAlt) pathNode()        {}
func (PathZeroOrMore) pathNode() {}
func (PathOneOrMore) pathNode()  {}
func (PathZeroOrOne) pathNode()  {}
func (PathNegatedSet) pathNode() {}

// Values provides inline rows directly as bindings (spec §4.G); join
// semantics for its placement in a graph pattern are ordinary Join.
type Values struct {
	Vars []string
	Rows [][]rdf.Term // a nil entry at a row/column means UNDEF (unbound)
}

// QueryForm distinguishes the four top-level query shapes (spec §4.F).
type QueryForm int

const (
	FormSelect QueryForm = iota
	FormConstruct
	FormAsk
	FormDescribe
)

// Query is the top-level parsed query: a form, its modifiers (folded
// into the tree above Project/Distinct/OrderBy/Slice), and — for
// CONSTRUCT — a template.
type Query struct {
	Form     QueryForm
	Pattern  Node
	Template []TriplePattern // CONSTRUCT only
	Describe []rdf.Term      // DESCRIBE only
	Dataset  Dataset
}

// Dataset captures FROM / FROM NAMED (spec §4.H): the default graph is
// the union of Default (or the store's natural default graph if empty),
// and GRAPH is only permitted to range over Named (or every named graph
// if empty).
type Dataset struct {
	Default []rdf.Term
	Named   []rdf.Term
}

func (BGP) nodeType()        {}
func (Join) nodeType()       {}
func (LeftJoin) nodeType()   {}
func (FilterNode) nodeType() {}
func (Union) nodeType()      {}
func (Graph) nodeType()      {}
func (Extend) nodeType()     {}
func (Minus) nodeType()      {}
func (Project) nodeType()    {}
func (Distinct) nodeType()   {}
func (Reduced) nodeType()    {}
func (OrderBy) nodeType()    {}
func (Group) nodeType()      {}
func (Slice) nodeType()      {}
func (Service) nodeType()    {}
func (Path) nodeType()       {}
func (Values) nodeType()     {}
