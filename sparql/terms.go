package sparql

import (
	"net/url"
	"strings"

	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
)

// rdfType/rdfFirst/rdfRest/rdfNil mirror the turtle package's well-known
// IRIs; duplicated here rather than imported since they are unexported
// constants of an unrelated parser package.
const (
	rdfType  = rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	rdfFirst = rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#first")
	rdfRest  = rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#rest")
	rdfNil   = rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#nil")
)

// termMode selects how a blank-node label or anonymous "[]"/"()" expands
// while parsing one RDF term, since the three grammars that share this
// term syntax disagree on what a blank node means there:
//   - modePattern:  a WHERE-clause triple pattern. Blank nodes are
//     non-distinguishing existentials (spec §4.H) — represented as an
//     ordinary algebra.Variable with a reserved name, scoped to the query.
//   - modeTemplate: a CONSTRUCT template or an INSERT/DELETE WHERE
//     template. Blank nodes denote a fresh node per solution row, exactly
//     like CONSTRUCT — represented as rdf.Blank with the sentinel Scope 0,
//     which the executor re-scopes per output row.
//   - modeData:     INSERT DATA / DELETE DATA ground quads. Blank nodes
//     are real, concrete nodes, allocated from one per-update rdf.Scope.
type termMode int

const (
	modePattern termMode = iota
	modeTemplate
	modeData
	// modeDeleteWhere is DELETE WHERE's QuadPattern: graph-tagged like a
	// template, but blank nodes behave like modePattern's (a
	// non-distinguishing variable, since the same pattern both matches
	// and is deleted).
	modeDeleteWhere
)

// resolveIRI resolves a (possibly relative) IRI reference against the
// current base, per RFC 3986.
func (p *Parser) resolveIRI(ref string) string {
	if p.base == "" {
		return ref
	}
	baseURL, err := url.Parse(p.base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func (p *Parser) resolvePName(pname string) (rdf.IRI, error) {
	for i := 0; i < len(pname); i++ {
		if pname[i] == ':' {
			ns := pname[:i+1]
			local := pname[i+1:]
			prefix, ok := p.prefixes[ns]
			if !ok {
				return "", p.errf("undefined prefix %q", ns)
			}
			return rdf.IRI(prefix + local), nil
		}
	}
	return "", p.errf("malformed prefixed name %q", pname)
}

// iriTerm parses a single IRIref/PrefixedName token into a resolved IRI.
func (p *Parser) iriTerm() (rdf.IRI, error) {
	switch p.tok.kind {
	case tIRIRef:
		iri := rdf.IRI(p.resolveIRI(p.tok.text))
		return iri, p.advance()
	case tPNameLN, tPNameNS:
		iri, err := p.resolvePName(p.tok.text)
		if err != nil {
			return "", err
		}
		return iri, p.advance()
	}
	return "", p.errf("expected an IRI or prefixed name")
}

// blankVar returns the internal pattern-mode variable standing in for
// blank-node label (spec §4.H: blank nodes in patterns behave like
// variables, never projected). The same label always maps to the same
// variable within one query. It is an rdf.Variable (not an algebra.Var)
// since it is used as a TriplePattern component, not an expression.
func (p *Parser) blankVar(label string) rdf.Variable {
	if v, ok := p.bnodeVars[label]; ok {
		return rdf.Variable(v)
	}
	name := "_bnode" + label
	p.bnodeVars[label] = name
	return rdf.Variable(name)
}

func (p *Parser) freshBlankVar() rdf.Variable {
	p.anonCounter++
	return rdf.Variable("_banon" + itoa(p.anonCounter))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

// emitPattern records one expanded triple according to mode: into the
// active BGP (modePattern), the active CONSTRUCT/Modify template
// (modeTemplate), or the active ground-quad buffer (modeData, with graph
// attached).
func (p *Parser) emitPattern(mode termMode, graph rdf.Term, s, pred, o rdf.Term) {
	switch mode {
	case modePattern:
		p.pendingPatterns = append(p.pendingPatterns, algebra.TriplePattern{Subject: s, Predicate: pred, Object: o})
	case modeTemplate, modeDeleteWhere:
		p.pendingTemplates = append(p.pendingTemplates, algebra.QuadPattern{Subject: s, Predicate: pred, Object: o, Graph: graph})
	case modeData:
		p.pendingQuads = append(p.pendingQuads, rdf.Quad{Subject: s, Predicate: pred, Object: o, Graph: graph})
	}
}

// term parses one RDF term (var, IRI, blank node, literal, collection,
// blank-node property list, or RDF-star quoted triple) in the given mode,
// queuing any triples the expansion produces via emitPattern.
func (p *Parser) term(mode termMode, graph rdf.Term) (rdf.Term, error) {
	switch p.tok.kind {
	case tVar:
		if mode == modeData {
			return nil, p.errf("variables are not allowed in ground quad data")
		}
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return rdf.Variable(name), nil
	case tIRIRef, tPNameLN, tPNameNS:
		return p.iriTerm()
	case tBlankNode:
		label := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.blankTerm(mode, label)
	case tString:
		return p.literalTerm()
	case tInteger:
		lex := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(lex, rdf.XSDInteger), nil
	case tDecimal:
		lex := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(lex, rdf.XSDDecimal), nil
	case tDouble:
		lex := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(lex, rdf.XSDDouble), nil
	case tIdent:
		if strings.EqualFold(p.tok.text, "true") || strings.EqualFold(p.tok.text, "false") {
			lex := strings.ToLower(p.tok.text)
			if err := p.advance(); err != nil {
				return nil, err
			}
			return rdf.NewTypedLiteral(lex, rdf.XSDBoolean), nil
		}
		return nil, p.errf("unexpected keyword %q in term position", p.tok.text)
	case tPunct:
		switch p.tok.text {
		case "[":
			return p.blankPropertyList(mode, graph)
		case "(":
			return p.collectionTerm(mode, graph)
		case "<<":
			return p.quotedTripleTerm(mode, graph)
		}
	}
	return nil, p.errf("unexpected token while parsing a term")
}

func (p *Parser) blankTerm(mode termMode, label string) (rdf.Term, error) {
	switch mode {
	case modePattern, modeDeleteWhere:
		return p.blankVar(label), nil
	case modeTemplate:
		return rdf.Blank{Scope: 0, Name: label}, nil
	default: // modeData
		return p.dataScope.Named(label), nil
	}
}

func (p *Parser) freshBlankTerm(mode termMode) rdf.Term {
	switch mode {
	case modePattern, modeDeleteWhere:
		return p.freshBlankVar()
	case modeTemplate:
		p.anonCounter++
		return rdf.Blank{Scope: 0, Name: "anon" + itoa(p.anonCounter)}
	default:
		return p.dataScope.Fresh()
	}
}

func (p *Parser) literalTerm() (rdf.Term, error) {
	lex := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch {
	case p.tok.kind == tLangTag:
		tag := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		lang, dir := tag, rdf.NoDirection
		switch {
		case strings.HasSuffix(tag, "--ltr"):
			lang, dir = strings.TrimSuffix(tag, "--ltr"), rdf.LTR
		case strings.HasSuffix(tag, "--rtl"):
			lang, dir = strings.TrimSuffix(tag, "--rtl"), rdf.RTL
		}
		return rdf.NewLangLiteral(lex, lang, dir), nil
	case p.tok.punct("^^"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		dt, err := p.iriTerm()
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(lex, dt), nil
	default:
		return rdf.NewLiteral(lex), nil
	}
}

func (p *Parser) blankPropertyList(mode termMode, graph rdf.Term) (rdf.Term, error) {
	if err := p.advance(); err != nil { // consume '['
		return nil, err
	}
	b := p.freshBlankTerm(mode)
	if p.tok.punct("]") {
		return b, p.advance()
	}
	if err := p.predicateObjectList(mode, graph, b); err != nil {
		return nil, err
	}
	if !p.tok.punct("]") {
		return nil, p.errf("expected ']' to close blank-node property list")
	}
	return b, p.advance()
}

func (p *Parser) collectionTerm(mode termMode, graph rdf.Term) (rdf.Term, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	if p.tok.punct(")") {
		return rdfNil, p.advance()
	}
	var items []rdf.Term
	for !p.tok.punct(")") {
		item, err := p.term(mode, graph)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := p.advance(); err != nil { // consume ')'
		return nil, err
	}
	head := p.freshBlankTerm(mode)
	cur := head
	for i, item := range items {
		var next rdf.Term
		if i == len(items)-1 {
			next = rdfNil
		} else {
			next = p.freshBlankTerm(mode)
		}
		p.emitPattern(mode, graph, cur, rdfFirst, item)
		p.emitPattern(mode, graph, cur, rdfRest, next)
		cur = next
	}
	return head, nil
}

func (p *Parser) quotedTripleTerm(mode termMode, graph rdf.Term) (rdf.Term, error) {
	if err := p.advance(); err != nil { // consume '<<'
		return nil, err
	}
	s, err := p.term(mode, graph)
	if err != nil {
		return nil, err
	}
	pred, err := p.verbTerm(mode, graph)
	if err != nil {
		return nil, err
	}
	o, err := p.term(mode, graph)
	if err != nil {
		return nil, err
	}
	if !p.tok.punct(">>") {
		return nil, p.errf("expected '>>' to close quoted triple")
	}
	return rdf.QuotedTriple{Subject: s, Predicate: pred, Object: o}, p.advance()
}

// verbTerm parses a predicate position that is never a property path
// (ground data and templates): 'a' or an ordinary term.
func (p *Parser) verbTerm(mode termMode, graph rdf.Term) (rdf.Term, error) {
	if p.tok.kw("a") {
		return rdfType, p.advance()
	}
	return p.term(mode, graph)
}

// predicateObjectList parses `verb objectlist (';' verb objectlist)*`
// against subj, for templates/ground-data contexts (no property paths).
func (p *Parser) predicateObjectList(mode termMode, graph rdf.Term, subj rdf.Term) error {
	for {
		pred, err := p.verbTerm(mode, graph)
		if err != nil {
			return err
		}
		if err := p.objectList(mode, graph, subj, pred); err != nil {
			return err
		}
		if !p.tok.punct(";") {
			return nil
		}
		for p.tok.punct(";") {
			if err := p.advance(); err != nil {
				return err
			}
		}
		if p.tok.punct(".") || p.tok.punct("]") || p.tok.punct("}") {
			return nil
		}
	}
}

func (p *Parser) objectList(mode termMode, graph rdf.Term, subj, pred rdf.Term) error {
	for {
		obj, err := p.term(mode, graph)
		if err != nil {
			return err
		}
		p.emitPattern(mode, graph, subj, pred, obj)
		if !p.tok.punct(",") {
			return nil
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
}
