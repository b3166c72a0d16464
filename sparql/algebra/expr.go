// Package algebra defines the SPARQL algebra tree: the target of the
// parser and the input to the optimizer and executor (spec §4.G).
package algebra

import "github.com/kgcore/rdfstore/rdf"

// Expr is a scalar expression node, evaluated against one binding during
// FILTER/BIND/ORDER BY/aggregate evaluation.
type Expr interface {
	exprNode()
}

// Const is a literal term appearing directly in an expression.
type Const struct{ Term rdf.Term }

// Var references a bound (or unbound) variable.
type Var struct{ Name string }

// Call is a function application: a built-in or custom-registered
// function IRI applied to argument expressions (spec §4.I). Aggregates
// use a distinct node (Aggregate) since they operate over a group of
// bindings rather than one.
type Call struct {
	Func string // e.g. "STR", "REGEX", or a custom function IRI
	Args []Expr
}

// Aggregate is one of COUNT/SUM/MIN/MAX/AVG/SAMPLE/GROUP_CONCAT applied
// over a partition (spec §4.I).
type Aggregate struct {
	Func      string // "COUNT", "SUM", "MIN", "MAX", "AVG", "SAMPLE", "GROUP_CONCAT"
	Distinct  bool
	Arg       Expr   // nil for COUNT(*)
	Separator string // GROUP_CONCAT only; defaults to " "
}

// Exists wraps a sub-pattern evaluated against the current binding for
// EXISTS/NOT EXISTS (spec §4.I).
type Exists struct {
	Pattern Node
	Negate  bool
}

func (Const) exprNode()     {}
func (Var) exprNode()       {}
func (Call) exprNode()      {}
func (Aggregate) exprNode() {}
func (Exists) exprNode()    {}

// Common function names used both by the parser and sparql/builtin,
// collected here to avoid string-literal drift between packages.
const (
	FnAnd      = "&&"
	FnOr       = "||"
	FnNot      = "!"
	FnEq       = "="
	FnNeq      = "!="
	FnLt       = "<"
	FnGt       = ">"
	FnLe       = "<="
	FnGe       = ">="
	FnAdd      = "+"
	FnSub      = "-"
	FnMul      = "*"
	FnDiv      = "/"
	FnUnaryPos = "u+"
	FnUnaryNeg = "u-"
	FnIn       = "IN"
	FnNotIn    = "NOT IN"
)
