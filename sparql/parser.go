package sparql

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kgcore/rdfstore/internal/errs"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
)

// Parser reads SPARQL 1.1 Query/Update text and emits algebra.Query /
// algebra.Update trees directly (spec §4.F: "Emits Algebra nodes directly
// in their canonical form").
type Parser struct {
	lex      *lexer
	tok      token
	prefixes map[string]string
	base     string

	bnodeVars    map[string]string // blank-node label -> pattern variable name, scoped to one query
	anonCounter  int
	dataScope    *rdf.Scope // allocates real blank nodes for INSERT/DELETE DATA

	pendingPatterns  []algebra.TriplePattern
	pendingTemplates []algebra.QuadPattern
	pendingQuads     []rdf.Quad
}

// NewParser returns a Parser reading SPARQL from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{
		lex:       newLexer(r),
		prefixes:  map[string]string{},
		bnodeVars: map[string]string{},
		dataScope: rdf.NewScope(),
	}
}

// ParseQuery parses one SPARQL Query string into its algebra tree.
func ParseQuery(text string) (*algebra.Query, error) {
	p := NewParser(strings.NewReader(text))
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseQuery()
}

// ParseUpdate parses one SPARQL Update request string into its algebra
// tree.
func ParseUpdate(text string) (*algebra.Update, error) {
	p := NewParser(strings.NewReader(text))
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseUpdate()
}

func (p *Parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return &errs.SyntaxError{Line: p.tok.line, Col: p.tok.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expectPunct(s string) error {
	if !p.tok.punct(s) {
		return p.errf("expected %q", s)
	}
	return p.advance()
}

func (p *Parser) expectKw(s string) error {
	if !p.tok.kw(s) {
		return p.errf("expected keyword %q", s)
	}
	return p.advance()
}

func (p *Parser) expectVar() (string, error) {
	if p.tok.kind != tVar {
		return "", p.errf("expected a variable")
	}
	name := p.tok.text
	return name, p.advance()
}

func (p *Parser) atEOF() bool { return p.tok.kind == tEOF }

func (p *Parser) requireEOF() error {
	if !p.atEOF() {
		return p.errf("unexpected trailing input after the top-level grammar")
	}
	return nil
}

// prologue consumes any run of PREFIX/BASE declarations.
func (p *Parser) prologue() error {
	for {
		switch {
		case p.tok.kw("PREFIX"):
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.kind != tPNameNS {
				return p.errf("expected a prefix name (e.g. 'ex:') after PREFIX")
			}
			ns := p.tok.text
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.kind != tIRIRef {
				return p.errf("expected an IRI after the prefix name in PREFIX")
			}
			p.prefixes[ns] = p.resolveIRI(p.tok.text)
			if err := p.advance(); err != nil {
				return err
			}
		case p.tok.kw("BASE"):
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.kind != tIRIRef {
				return p.errf("expected an IRI after BASE")
			}
			p.base = p.resolveIRI(p.tok.text)
			if err := p.advance(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (p *Parser) parseQuery() (*algebra.Query, error) {
	if err := p.prologue(); err != nil {
		return nil, err
	}
	var q *algebra.Query
	var err error
	switch {
	case p.tok.kw("SELECT"):
		q, err = p.selectQuery()
	case p.tok.kw("CONSTRUCT"):
		q, err = p.constructQuery()
	case p.tok.kw("ASK"):
		q, err = p.askQuery()
	case p.tok.kw("DESCRIBE"):
		q, err = p.describeQuery()
	default:
		return nil, p.errf("expected SELECT, CONSTRUCT, ASK, or DESCRIBE")
	}
	if err != nil {
		return nil, err
	}
	if err := p.requireEOF(); err != nil {
		return nil, err
	}
	return q, nil
}

// datasetClauses consumes zero or more FROM / FROM NAMED clauses.
func (p *Parser) datasetClauses() (algebra.Dataset, error) {
	var ds algebra.Dataset
	for p.tok.kw("FROM") {
		if err := p.advance(); err != nil {
			return ds, err
		}
		named := false
		if p.tok.kw("NAMED") {
			named = true
			if err := p.advance(); err != nil {
				return ds, err
			}
		}
		iri, err := p.iriTerm()
		if err != nil {
			return ds, err
		}
		if named {
			ds.Named = append(ds.Named, iri)
		} else {
			ds.Default = append(ds.Default, iri)
		}
	}
	return ds, nil
}

type selectItem struct {
	plainVar string
	bindVar  string
	expr     algebra.Expr
}

func (p *Parser) selectQuery() (*algebra.Query, error) {
	if err := p.advance(); err != nil { // consume SELECT
		return nil, err
	}
	distinct, reduced := false, false
	switch {
	case p.tok.kw("DISTINCT"):
		distinct = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	case p.tok.kw("REDUCED"):
		reduced = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	star := false
	var items []selectItem
	if p.tok.punct("*") {
		star = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		for p.tok.kind == tVar || p.tok.punct("(") {
			if p.tok.kind == tVar {
				items = append(items, selectItem{plainVar: p.tok.text})
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			if err := p.advance(); err != nil { // consume '('
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectKw("AS"); err != nil {
				return nil, err
			}
			v, err := p.expectVar()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			items = append(items, selectItem{bindVar: v, expr: e})
		}
		if len(items) == 0 {
			return nil, p.errf("expected a projection list or '*' after SELECT")
		}
	}
	ds, err := p.datasetClauses()
	if err != nil {
		return nil, err
	}
	if p.tok.kw("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	pattern, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	pattern, projVars, err := p.applySelectModifiers(pattern, items, star)
	if err != nil {
		return nil, err
	}
	pattern, err = p.solutionModifiers(pattern, distinct, reduced, projVars, star)
	if err != nil {
		return nil, err
	}
	return &algebra.Query{Form: algebra.FormSelect, Pattern: pattern, Dataset: ds}, nil
}

// applySelectModifiers wires up GROUP BY / HAVING / aggregate select
// items and AS-bound expressions, per the simplified translation this
// parser implements (documented in DESIGN.md): Group (if any aggregate or
// GROUP BY is present) runs first, then non-aggregate AS-bindings extend
// the result, so they may reference an aggregate's projected variable.
func (p *Parser) applySelectModifiers(pattern algebra.Node, items []selectItem, star bool) (algebra.Node, []string, error) {
	groupVars, groupExtends, err := p.groupByClause()
	if err != nil {
		return nil, nil, err
	}
	for _, ge := range groupExtends {
		pattern = algebra.Extend{Var: ge.v, Expr: ge.e, Inner: pattern}
		groupVars = append(groupVars, ge.v)
	}
	var aggs []algebra.AggregateBinding
	var plainExtends []selectItem
	for _, it := range items {
		if it.bindVar != "" {
			if agg, ok := it.expr.(algebra.Aggregate); ok {
				aggs = append(aggs, algebra.AggregateBinding{Var: it.bindVar, Agg: agg})
				continue
			}
		}
		plainExtends = append(plainExtends, it)
	}
	needsGroup := len(groupVars) > 0 || len(aggs) > 0
	having, err := p.havingClause()
	if err != nil {
		return nil, nil, err
	}
	if needsGroup {
		pattern = algebra.Group{GroupVars: groupVars, Aggs: aggs, Inner: pattern, Having: having}
	}
	for _, it := range plainExtends {
		if it.bindVar != "" {
			pattern = algebra.Extend{Var: it.bindVar, Expr: it.expr, Inner: pattern}
		}
	}
	var projVars []string
	if !star {
		for _, it := range items {
			if it.plainVar != "" {
				projVars = append(projVars, it.plainVar)
			} else {
				projVars = append(projVars, it.bindVar)
			}
		}
	}
	return pattern, projVars, nil
}

type groupExtend struct {
	v string
	e algebra.Expr
}

func (p *Parser) groupByClause() ([]string, []groupExtend, error) {
	if !p.tok.kw("GROUP") {
		return nil, nil, nil
	}
	if err := p.advance(); err != nil {
		return nil, nil, err
	}
	if err := p.expectKw("BY"); err != nil {
		return nil, nil, err
	}
	var vars []string
	var extends []groupExtend
	for {
		switch {
		case p.tok.kind == tVar:
			vars = append(vars, p.tok.text)
			if err := p.advance(); err != nil {
				return nil, nil, err
			}
		case p.tok.punct("("):
			if err := p.advance(); err != nil {
				return nil, nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			if p.tok.kw("AS") {
				if err := p.advance(); err != nil {
					return nil, nil, err
				}
				v, err := p.expectVar()
				if err != nil {
					return nil, nil, err
				}
				extends = append(extends, groupExtend{v: v, e: e})
			} else {
				extends = append(extends, groupExtend{v: p.syntheticGroupVar(), e: e})
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, nil, err
			}
		default:
			return vars, extends, nil
		}
	}
}

func (p *Parser) syntheticGroupVar() string {
	p.anonCounter++
	return "_g" + itoa(p.anonCounter)
}

func (p *Parser) havingClause() (algebra.Expr, error) {
	if !p.tok.kw("HAVING") {
		return nil, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseBracketedOrBuiltinExpr()
}

// solutionModifiers applies ORDER BY / Project / DISTINCT|REDUCED /
// LIMIT|OFFSET, in that order, over pattern.
func (p *Parser) solutionModifiers(pattern algebra.Node, distinct, reduced bool, projVars []string, star bool) (algebra.Node, error) {
	conds, err := p.orderByClause()
	if err != nil {
		return nil, err
	}
	if len(conds) > 0 {
		pattern = algebra.OrderBy{Conditions: conds, Inner: pattern}
	}
	if !star {
		pattern = algebra.Project{Vars: projVars, Inner: pattern}
	}
	if distinct {
		pattern = algebra.Distinct{Inner: pattern}
	} else if reduced {
		pattern = algebra.Reduced{Inner: pattern}
	}
	offset, limit, err := p.limitOffsetClause()
	if err != nil {
		return nil, err
	}
	if offset != 0 || limit >= 0 {
		pattern = algebra.Slice{Offset: offset, Limit: limit, Inner: pattern}
	}
	return pattern, nil
}

func (p *Parser) orderByClause() ([]algebra.OrderCondition, error) {
	if !p.tok.kw("ORDER") {
		return nil, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectKw("BY"); err != nil {
		return nil, err
	}
	var conds []algebra.OrderCondition
	for {
		desc := false
		switch {
		case p.tok.kw("ASC"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			conds = append(conds, algebra.OrderCondition{Expr: e})
			continue
		case p.tok.kw("DESC"):
			desc = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			conds = append(conds, algebra.OrderCondition{Expr: e, Descending: desc})
			continue
		case p.tok.kind == tVar || p.tok.punct("("):
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			conds = append(conds, algebra.OrderCondition{Expr: e})
			continue
		default:
			if len(conds) == 0 {
				return nil, p.errf("expected at least one ORDER BY condition")
			}
			return conds, nil
		}
	}
}

func (p *Parser) limitOffsetClause() (offset, limit int, err error) {
	limit = -1
	for {
		switch {
		case p.tok.kw("LIMIT"):
			if err = p.advance(); err != nil {
				return
			}
			if p.tok.kind != tInteger {
				return 0, 0, p.errf("expected an integer after LIMIT")
			}
			limit, _ = strconv.Atoi(p.tok.text)
			if err = p.advance(); err != nil {
				return
			}
		case p.tok.kw("OFFSET"):
			if err = p.advance(); err != nil {
				return
			}
			if p.tok.kind != tInteger {
				return 0, 0, p.errf("expected an integer after OFFSET")
			}
			offset, _ = strconv.Atoi(p.tok.text)
			if err = p.advance(); err != nil {
				return
			}
		default:
			return offset, limit, nil
		}
	}
}

func (p *Parser) constructQuery() (*algebra.Query, error) {
	if err := p.advance(); err != nil { // consume CONSTRUCT
		return nil, err
	}
	var template []algebra.TriplePattern
	shortForm := p.tok.kw("WHERE")
	if !shortForm {
		t, err := p.constructTemplate()
		if err != nil {
			return nil, err
		}
		template = t
	}
	ds, err := p.datasetClauses()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("WHERE"); err != nil {
		return nil, err
	}
	pattern, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	if shortForm {
		template = bgpTemplateOf(pattern)
	}
	pattern, err = p.solutionModifiers(pattern, false, false, nil, true)
	if err != nil {
		return nil, err
	}
	return &algebra.Query{Form: algebra.FormConstruct, Pattern: pattern, Template: template, Dataset: ds}, nil
}

// bgpTemplateOf extracts the triple patterns of a bare BGP, used by the
// CONSTRUCT WHERE short form (its template is the WHERE pattern itself).
func bgpTemplateOf(n algebra.Node) []algebra.TriplePattern {
	if bgp, ok := n.(algebra.BGP); ok {
		return bgp.Patterns
	}
	return nil
}

func (p *Parser) constructTemplate() ([]algebra.TriplePattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	p.pendingTemplates = nil
	for !p.tok.punct("}") {
		s, err := p.term(modeTemplate, nil)
		if err != nil {
			return nil, err
		}
		if err := p.predicateObjectList(modeTemplate, nil, s); err != nil {
			return nil, err
		}
		for p.tok.punct(".") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.advance(); err != nil { // consume '}'
		return nil, err
	}
	out := make([]algebra.TriplePattern, len(p.pendingTemplates))
	for i, qp := range p.pendingTemplates {
		out[i] = algebra.TriplePattern{Subject: qp.Subject, Predicate: qp.Predicate, Object: qp.Object}
	}
	p.pendingTemplates = nil
	return out, nil
}

func (p *Parser) askQuery() (*algebra.Query, error) {
	if err := p.advance(); err != nil { // consume ASK
		return nil, err
	}
	ds, err := p.datasetClauses()
	if err != nil {
		return nil, err
	}
	if p.tok.kw("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	pattern, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	return &algebra.Query{Form: algebra.FormAsk, Pattern: pattern, Dataset: ds}, nil
}

func (p *Parser) describeQuery() (*algebra.Query, error) {
	if err := p.advance(); err != nil { // consume DESCRIBE
		return nil, err
	}
	var terms []rdf.Term
	star := false
	if p.tok.punct("*") {
		star = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		for p.tok.kind == tVar || p.tok.kind == tIRIRef || p.tok.kind == tPNameLN || p.tok.kind == tPNameNS {
			t, err := p.term(modePattern, nil)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
	}
	ds, err := p.datasetClauses()
	if err != nil {
		return nil, err
	}
	var pattern algebra.Node
	if p.tok.kw("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		pattern, err = p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
	} else if p.tok.punct("{") {
		pattern, err = p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
	}
	if pattern != nil {
		pattern, err = p.solutionModifiers(pattern, false, false, nil, true)
		if err != nil {
			return nil, err
		}
	}
	if star {
		terms = nil // DESCRIBE * resolved against the query's own result bindings at execution time
	}
	return &algebra.Query{Form: algebra.FormDescribe, Pattern: pattern, Describe: terms, Dataset: ds}, nil
}
