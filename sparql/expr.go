package sparql

import (
	"strings"

	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
)

// parseBracketedOrBuiltinExpr parses the Constraint production used by
// FILTER/HAVING: either a parenthesized Expression, or a BuiltInCall /
// FunctionCall that itself starts with '(' for its argument list.
func (p *Parser) parseBracketedOrBuiltinExpr() (algebra.Expr, error) {
	return p.parseExpr()
}

// parseExpr parses a full Expression (spec §4.I), following SPARQL's
// operator-precedence grammar top to bottom.
func (p *Parser) parseExpr() (algebra.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (algebra.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.punct("||") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = algebra.Call{Func: algebra.FnOr, Args: []algebra.Expr{left, right}}
	}
	return left, nil
}

func (p *Parser) parseAnd() (algebra.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.tok.punct("&&") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = algebra.Call{Func: algebra.FnAnd, Args: []algebra.Expr{left, right}}
	}
	return left, nil
}

func (p *Parser) parseRelational() (algebra.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	switch {
	case p.tok.punct("="):
		return p.relOp(left, algebra.FnEq)
	case p.tok.punct("!="):
		return p.relOp(left, algebra.FnNeq)
	case p.tok.punct("<"):
		return p.relOp(left, algebra.FnLt)
	case p.tok.punct(">"):
		return p.relOp(left, algebra.FnGt)
	case p.tok.punct("<="):
		return p.relOp(left, algebra.FnLe)
	case p.tok.punct(">="):
		return p.relOp(left, algebra.FnGe)
	case p.tok.kw("IN"):
		return p.inExpr(left, algebra.FnIn)
	case p.tok.kw("NOT"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKw("IN"); err != nil {
			return nil, err
		}
		return p.inList(left, algebra.FnNotIn)
	}
	return left, nil
}

func (p *Parser) relOp(left algebra.Expr, fn string) (algebra.Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return algebra.Call{Func: fn, Args: []algebra.Expr{left, right}}, nil
}

func (p *Parser) inExpr(left algebra.Expr, fn string) (algebra.Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.inList(left, fn)
}

func (p *Parser) inList(left algebra.Expr, fn string) (algebra.Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	args := []algebra.Expr{left}
	if !p.tok.punct(")") {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if !p.tok.punct(",") {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return algebra.Call{Func: fn, Args: args}, nil
}

func (p *Parser) parseAdditive() (algebra.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.punct("+") || p.tok.punct("-") {
		fn := algebra.FnAdd
		if p.tok.text == "-" {
			fn = algebra.FnSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = algebra.Call{Func: fn, Args: []algebra.Expr{left, right}}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (algebra.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.punct("*") || p.tok.punct("/") {
		fn := algebra.FnMul
		if p.tok.text == "/" {
			fn = algebra.FnDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = algebra.Call{Func: fn, Args: []algebra.Expr{left, right}}
	}
	return left, nil
}

func (p *Parser) parseUnary() (algebra.Expr, error) {
	switch {
	case p.tok.punct("!"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return algebra.Call{Func: algebra.FnNot, Args: []algebra.Expr{e}}, nil
	case p.tok.punct("+"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return algebra.Call{Func: algebra.FnUnaryPos, Args: []algebra.Expr{e}}, nil
	case p.tok.punct("-"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return algebra.Call{Func: algebra.FnUnaryNeg, Args: []algebra.Expr{e}}, nil
	}
	return p.parsePrimary()
}

// parsePrimary parses PrimaryExpression: BrackettedExpression,
// BuiltInCall, IRIrefOrFunction, RDFLiteral, NumericLiteral,
// BooleanLiteral, Var, or a quoted-triple pattern.
func (p *Parser) parsePrimary() (algebra.Expr, error) {
	switch {
	case p.tok.punct("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	case p.tok.kind == tVar:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return algebra.Var{Name: name}, nil
	case p.tok.kind == tString, p.tok.kind == tInteger, p.tok.kind == tDecimal, p.tok.kind == tDouble:
		t, err := p.term(modePattern, nil)
		if err != nil {
			return nil, err
		}
		return algebra.Const{Term: t}, nil
	case p.tok.kw("true") || p.tok.kw("false"):
		lex := strings.ToLower(p.tok.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return algebra.Const{Term: rdf.NewTypedLiteral(lex, rdf.XSDBoolean)}, nil
	case p.tok.kind == tIRIRef || p.tok.kind == tPNameLN || p.tok.kind == tPNameNS:
		iri, err := p.iriTerm()
		if err != nil {
			return nil, err
		}
		if p.tok.punct("(") { // IRIrefOrFunction: a custom-function call
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			return algebra.Call{Func: string(iri), Args: args}, nil
		}
		return algebra.Const{Term: iri}, nil
	case p.tok.kind == tIdent:
		return p.builtinOrAggregate()
	case p.tok.punct("<<"):
		return p.quotedTripleExpr()
	}
	return nil, p.errf("expected an expression")
}

func (p *Parser) quotedTripleExpr() (algebra.Expr, error) {
	t, err := p.term(modePattern, nil)
	if err != nil {
		return nil, err
	}
	return algebra.Const{Term: t}, nil
}

// argList parses a parenthesized, comma-separated (DISTINCT? optional)
// expression list, as used by function calls and most BuiltInCalls.
func (p *Parser) argList() ([]algebra.Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []algebra.Expr
	if p.tok.kw("DISTINCT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if !p.tok.punct(")") {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if !p.tok.punct(",") {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return args, nil
}

// noArgCall parses a BuiltInCall that takes a fixed parenthesized
// expression list with no special syntax (the common case).
func (p *Parser) noArgCall(name string) (algebra.Expr, error) {
	args, err := p.argList()
	if err != nil {
		return nil, err
	}
	return algebra.Call{Func: name, Args: args}, nil
}

// builtinAggregateNames is the fixed SPARQL 1.1 aggregate keyword set
// (spec §4.I).
var builtinAggregateNames = map[string]bool{
	"COUNT": true, "SUM": true, "MIN": true, "MAX": true,
	"AVG": true, "SAMPLE": true, "GROUP_CONCAT": true,
}

// builtinOrAggregate dispatches a bare keyword token: an aggregate, a
// control function (IF/COALESCE/EXISTS/NOT EXISTS/BOUND), or one of the
// ~40 scalar BuiltInCall functions, all of which parse a standard
// argList except the few with bespoke grammar handled inline.
func (p *Parser) builtinOrAggregate() (algebra.Expr, error) {
	name := strings.ToUpper(p.tok.text)
	if builtinAggregateNames[name] {
		return p.aggregateCall(name)
	}
	switch name {
	case "NOT":
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKw("EXISTS"); err != nil {
			return nil, err
		}
		pattern, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		return algebra.Exists{Pattern: pattern, Negate: true}, nil
	case "EXISTS":
		if err := p.advance(); err != nil {
			return nil, err
		}
		pattern, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		return algebra.Exists{Pattern: pattern}, nil
	case "IF":
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return algebra.Call{Func: "IF", Args: []algebra.Expr{cond, then, els}}, nil
	case "SUBSTR", "REPLACE", "REGEX", "CONCAT", "COALESCE", "STRDT", "STRLANG",
		"BOUND", "STR", "LANG", "LANGMATCHES", "DATATYPE", "IRI", "URI", "BNODE",
		"ISIRI", "ISURI", "ISBLANK", "ISLITERAL", "ISNUMERIC", "ABS", "CEIL", "FLOOR",
		"ROUND", "STRLEN", "UCASE", "LCASE", "ENCODE_FOR_URI", "CONTAINS", "STRSTARTS",
		"STRENDS", "STRBEFORE", "STRAFTER", "YEAR", "MONTH", "DAY", "HOURS", "MINUTES",
		"SECONDS", "TIMEZONE", "TZ", "NOW", "UUID", "STRUUID", "MD5", "SHA1", "SHA256",
		"SHA384", "SHA512", "SAMETERM", "TRIPLE", "SUBJECT", "PREDICATE", "OBJECT",
		"ISTRIPLE", "HASLANG", "HASLANGDIR":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.noArgCall(name)
	}
	return nil, p.errf("unknown function or keyword %q", p.tok.text)
}

func (p *Parser) aggregateCall(name string) (algebra.Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	distinct := false
	if p.tok.kw("DISTINCT") {
		distinct = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	var arg algebra.Expr
	if name == "COUNT" && p.tok.punct("*") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arg = e
	}
	sep := ""
	if name == "GROUP_CONCAT" && p.tok.punct(";") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKw("SEPARATOR"); err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		if p.tok.kind != tString {
			return nil, p.errf("expected a string literal after SEPARATOR=")
		}
		sep = p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return algebra.Aggregate{Func: name, Distinct: distinct, Arg: arg, Separator: sep}, nil
}
