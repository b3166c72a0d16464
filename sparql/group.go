package sparql

import (
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
)

// groupGraphPattern parses '{' GroupGraphPatternSub '}', including the
// SubSelect special case (spec §4.F: a '{' that opens directly on SELECT
// is a nested query, not a pattern group).
func (p *Parser) groupGraphPattern() (algebra.Node, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	if p.tok.kw("SELECT") {
		q, err := p.selectQuery()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		return q.Pattern, nil
	}
	n, err := p.groupGraphPatternSub()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return n, nil
}

// emptyPattern is the algebra for a GroupGraphPattern with nothing parsed
// yet: a BGP with no patterns, which evaluates to exactly one (empty)
// solution — the standard SPARQL algebra identity for Join/LeftJoin/BIND.
func emptyPattern() algebra.Node { return algebra.BGP{} }

// groupGraphPatternSub parses GroupGraphPatternSub: an interleaving of
// TriplesBlocks and GraphPatternNotTriples elements, joined left to
// right, with any FILTERs applied last (spec §4.G/§4.H).
func (p *Parser) groupGraphPatternSub() (algebra.Node, error) {
	var acc algebra.Node
	var filters []algebra.Expr

	for {
		switch {
		case p.tok.punct("}"):
			return applyFilters(acc, filters), nil

		case p.startsTriple():
			tb, err := p.triplesBlock()
			if err != nil {
				return nil, err
			}
			acc = mergeBGP(acc, tb)
			continue // triplesBlock already consumed its trailing '.'s

		case p.tok.kw("FILTER"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			e, err := p.parseBracketedOrBuiltinExpr()
			if err != nil {
				return nil, err
			}
			filters = append(filters, e)

		case p.tok.kw("BIND"):
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
			base := acc
			if base == nil {
				base = emptyPattern()
			}
			acc = algebra.Extend{Var: v, Expr: e, Inner: base}

		case p.tok.kw("VALUES"):
			vals, err := p.inlineData()
			if err != nil {
				return nil, err
			}
			acc = combineJoin(acc, vals)

		case p.tok.kw("OPTIONAL"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.groupGraphPattern()
			if err != nil {
				return nil, err
			}
			inner, filterExpr := peelFilters(right)
			base := acc
			if base == nil {
				base = emptyPattern()
			}
			acc = algebra.LeftJoin{Left: base, Right: inner, Filter: filterExpr}

		case p.tok.kw("MINUS"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.groupGraphPattern()
			if err != nil {
				return nil, err
			}
			base := acc
			if base == nil {
				base = emptyPattern()
			}
			acc = algebra.Minus{Left: base, Right: right}

		case p.tok.kw("GRAPH"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			term, varName, err := p.varOrIRI()
			if err != nil {
				return nil, err
			}
			inner, err := p.groupGraphPattern()
			if err != nil {
				return nil, err
			}
			g := algebra.Graph{Term: term, Var: varName, Inner: inner}
			acc = combineJoin(acc, g)

		case p.tok.kw("SERVICE"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			silent := false
			if p.tok.kw("SILENT") {
				silent = true
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			term, _, err := p.varOrIRI()
			if err != nil {
				return nil, err
			}
			inner, err := p.groupGraphPattern()
			if err != nil {
				return nil, err
			}
			acc = combineJoin(acc, algebra.Service{Endpoint: term, Inner: inner, Silent: silent})

		case p.tok.punct("{"):
			left, err := p.groupGraphPattern()
			if err != nil {
				return nil, err
			}
			for p.tok.kw("UNION") {
				if err := p.advance(); err != nil {
					return nil, err
				}
				right, err := p.groupGraphPattern()
				if err != nil {
					return nil, err
				}
				left = algebra.Union{Left: left, Right: right}
			}
			acc = combineJoin(acc, left)

		default:
			return nil, p.errf("unexpected token in group graph pattern")
		}

		for p.tok.punct(".") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
}

func combineJoin(acc, n algebra.Node) algebra.Node {
	if acc == nil {
		return n
	}
	return algebra.Join{Left: acc, Right: n}
}

// mergeBGP folds a freshly parsed triples block into acc, merging two
// adjacent BGPs into one (spec §4.H optimizer note: adjacent BGPs are
// kept pre-merged so the optimizer doesn't need a separate pass for the
// common case).
func mergeBGP(acc, tb algebra.Node) algebra.Node {
	if acc == nil {
		return tb
	}
	if a, ok := acc.(algebra.BGP); ok {
		if b, ok2 := tb.(algebra.BGP); ok2 {
			merged := make([]algebra.TriplePattern, 0, len(a.Patterns)+len(b.Patterns))
			merged = append(merged, a.Patterns...)
			merged = append(merged, b.Patterns...)
			return algebra.BGP{Patterns: merged}
		}
	}
	return algebra.Join{Left: acc, Right: tb}
}

func applyFilters(n algebra.Node, filters []algebra.Expr) algebra.Node {
	if n == nil {
		n = emptyPattern()
	}
	for _, f := range filters {
		n = algebra.FilterNode{Expr: f, Inner: n}
	}
	return n
}

// peelFilters strips any FilterNode wrapper(s) off n, ANDing their
// expressions together, for OPTIONAL's "joined FILTER becomes the
// LeftJoin condition" rule (spec §4.H).
func peelFilters(n algebra.Node) (algebra.Node, algebra.Expr) {
	fn, ok := n.(algebra.FilterNode)
	if !ok {
		return n, nil
	}
	inner, nested := peelFilters(fn.Inner)
	if nested == nil {
		return inner, fn.Expr
	}
	return inner, algebra.Call{Func: algebra.FnAnd, Args: []algebra.Expr{nested, fn.Expr}}
}

func (p *Parser) varOrIRI() (rdf.Term, string, error) {
	if p.tok.kind == tVar {
		name := p.tok.text
		return nil, name, p.advance()
	}
	iri, err := p.iriTerm()
	return iri, "", err
}

// startsTriple reports whether the current token can open a
// TriplesBlock (the first token of a TriplesSameSubjectPath's subject).
func (p *Parser) startsTriple() bool {
	switch p.tok.kind {
	case tVar, tIRIRef, tPNameLN, tPNameNS, tBlankNode, tString, tInteger, tDecimal, tDouble:
		return true
	case tPunct:
		return p.tok.text == "(" || p.tok.text == "[" || p.tok.text == "<<"
	}
	return false
}

// triplesBlock parses TriplesBlock: TriplesSameSubjectPath ('.'
// TriplesBlock?)?, returning the merged BGP plus any property-path nodes
// it produced.
func (p *Parser) triplesBlock() (algebra.Node, error) {
	p.pendingPatterns = nil
	var pathNodes []algebra.Node
	for p.startsTriple() {
		subj, err := p.term(modePattern, nil)
		if err != nil {
			return nil, err
		}
		nodes, err := p.propertyListPathNotEmpty(subj)
		if err != nil {
			return nil, err
		}
		pathNodes = append(pathNodes, nodes...)
		if !p.tok.punct(".") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	var result algebra.Node
	if len(p.pendingPatterns) > 0 {
		result = algebra.BGP{Patterns: append([]algebra.TriplePattern{}, p.pendingPatterns...)}
	}
	p.pendingPatterns = nil
	for _, pn := range pathNodes {
		result = combineJoin(result, pn)
	}
	if result == nil {
		result = algebra.BGP{}
	}
	return result, nil
}

// predResult is the parsed predicate of one TriplesSameSubjectPath verb:
// either a plain term (variable, 'a', or bare IRI — emitted straight into
// the BGP) or a genuine property-path expression.
type predResult struct {
	simple rdf.Term
	path   algebra.PathExpr
}

func (p *Parser) parsePredicate() (predResult, error) {
	if p.tok.kind == tVar {
		name := p.tok.text
		if err := p.advance(); err != nil {
			return predResult{}, err
		}
		return predResult{simple: rdf.Variable(name)}, nil
	}
	if p.tok.kw("a") {
		if err := p.advance(); err != nil {
			return predResult{}, err
		}
		return predResult{simple: rdfType}, nil
	}
	pe, err := p.parsePathAlternative()
	if err != nil {
		return predResult{}, err
	}
	if iri, ok := pe.(algebra.PathIRI); ok {
		return predResult{simple: iri.IRI}, nil
	}
	return predResult{path: pe}, nil
}

// propertyListPathNotEmpty parses `verb objectListPath (';' (verb
// objectListPath)?)*` against subj, returning the Path nodes (if any)
// its path-valued predicates produced; plain-IRI/var predicates are
// emitted directly into p.pendingPatterns.
func (p *Parser) propertyListPathNotEmpty(subj rdf.Term) ([]algebra.Node, error) {
	var pathNodes []algebra.Node
	for {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		objs, err := p.objectListForPath()
		if err != nil {
			return nil, err
		}
		for _, obj := range objs {
			if pred.simple != nil {
				p.pendingPatterns = append(p.pendingPatterns, algebra.TriplePattern{Subject: subj, Predicate: pred.simple, Object: obj})
			} else {
				pathNodes = append(pathNodes, algebra.Path{Subject: subj, Object: obj, Expr: pred.path})
			}
		}
		if !p.tok.punct(";") {
			return pathNodes, nil
		}
		for p.tok.punct(";") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if !p.startsPredicate() {
			return pathNodes, nil
		}
	}
}

func (p *Parser) startsPredicate() bool {
	switch {
	case p.tok.kind == tVar, p.tok.kind == tIRIRef, p.tok.kind == tPNameLN, p.tok.kind == tPNameNS:
		return true
	case p.tok.kw("a"):
		return true
	case p.tok.punct("(") || p.tok.punct("!") || p.tok.punct("^"):
		return true
	}
	return false
}

func (p *Parser) objectListForPath() ([]rdf.Term, error) {
	var objs []rdf.Term
	for {
		o, err := p.term(modePattern, nil)
		if err != nil {
			return nil, err
		}
		objs = append(objs, o)
		if !p.tok.punct(",") {
			return objs, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

// --- property paths (spec §4.G Path) ---

func (p *Parser) parsePathAlternative() (algebra.PathExpr, error) {
	left, err := p.parsePathSequence()
	if err != nil {
		return nil, err
	}
	for p.tok.punct("|") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePathSequence()
		if err != nil {
			return nil, err
		}
		left = algebra.PathAlt{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePathSequence() (algebra.PathExpr, error) {
	left, err := p.parsePathEltOrInverse()
	if err != nil {
		return nil, err
	}
	for p.tok.punct("/") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePathEltOrInverse()
		if err != nil {
			return nil, err
		}
		left = algebra.PathSeq{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePathEltOrInverse() (algebra.PathExpr, error) {
	inverse := false
	if p.tok.punct("^") {
		inverse = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	primary, err := p.parsePathPrimary()
	if err != nil {
		return nil, err
	}
	primary, err = p.applyPathMod(primary)
	if err != nil {
		return nil, err
	}
	if inverse {
		primary = algebra.PathInverse{Inner: primary}
	}
	return primary, nil
}

func (p *Parser) applyPathMod(e algebra.PathExpr) (algebra.PathExpr, error) {
	switch {
	case p.tok.punct("*"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return algebra.PathZeroOrMore{Inner: e}, nil
	case p.tok.punct("+"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return algebra.PathOneOrMore{Inner: e}, nil
	case p.tok.punct("?"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return algebra.PathZeroOrOne{Inner: e}, nil
	default:
		return e, nil
	}
}

func (p *Parser) parsePathPrimary() (algebra.PathExpr, error) {
	switch {
	case p.tok.kind == tIRIRef || p.tok.kind == tPNameLN || p.tok.kind == tPNameNS:
		iri, err := p.iriTerm()
		if err != nil {
			return nil, err
		}
		return algebra.PathIRI{IRI: iri}, nil
	case p.tok.kw("a"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return algebra.PathIRI{IRI: rdfType}, nil
	case p.tok.punct("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parsePathAlternative()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	case p.tok.punct("!"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parsePathNegatedPropertySet()
	}
	return nil, p.errf("expected a property path")
}

// parsePathNegatedPropertySet parses PathNegatedPropertySet, following
// the '!' its caller already consumed. A leading '^' on a member
// (inverse-negated) is accepted but its direction is not tracked
// separately — PathNegatedSet holds a flat IRI set, so an inverse member
// is matched in the forward direction like any other.
func (p *Parser) parsePathNegatedPropertySet() (algebra.PathExpr, error) {
	var iris []rdf.IRI
	readOne := func() error {
		if p.tok.punct("^") {
			if err := p.advance(); err != nil {
				return err
			}
		}
		if p.tok.kw("a") {
			iris = append(iris, rdfType)
			return p.advance()
		}
		iri, err := p.iriTerm()
		if err != nil {
			return err
		}
		iris = append(iris, iri)
		return nil
	}
	if p.tok.punct("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.tok.punct(")") {
			if err := readOne(); err != nil {
				return nil, err
			}
			for p.tok.punct("|") {
				if err := p.advance(); err != nil {
					return nil, err
				}
				if err := readOne(); err != nil {
					return nil, err
				}
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	} else if err := readOne(); err != nil {
		return nil, err
	}
	return algebra.PathNegatedSet{IRIs: iris}, nil
}

// inlineData parses the VALUES clause (both the parenthesized
// multi-variable DataBlock and the single-variable abbreviation).
func (p *Parser) inlineData() (algebra.Node, error) {
	if err := p.advance(); err != nil { // consume VALUES
		return nil, err
	}
	var vars []string
	if p.tok.punct("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for !p.tok.punct(")") {
			v, err := p.expectVar()
			if err != nil {
				return nil, err
			}
			vars = append(vars, v)
		}
		if err := p.advance(); err != nil { // ')'
			return nil, err
		}
		if err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		var rows [][]rdf.Term
		for !p.tok.punct("}") {
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			var row []rdf.Term
			for !p.tok.punct(")") {
				t, err := p.dataBlockValue()
				if err != nil {
					return nil, err
				}
				row = append(row, t)
			}
			if err := p.advance(); err != nil { // ')'
				return nil, err
			}
			rows = append(rows, row)
		}
		if err := p.advance(); err != nil { // '}'
			return nil, err
		}
		return algebra.Values{Vars: vars, Rows: rows}, nil
	}
	v, err := p.expectVar()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var rows [][]rdf.Term
	for !p.tok.punct("}") {
		t, err := p.dataBlockValue()
		if err != nil {
			return nil, err
		}
		rows = append(rows, []rdf.Term{t})
	}
	if err := p.advance(); err != nil { // '}'
		return nil, err
	}
	return algebra.Values{Vars: []string{v}, Rows: rows}, nil
}

func (p *Parser) dataBlockValue() (rdf.Term, error) {
	if p.tok.kw("UNDEF") {
		return nil, p.advance()
	}
	return p.term(modeData, nil)
}
