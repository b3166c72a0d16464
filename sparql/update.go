package sparql

import (
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql/algebra"
)

// parseUpdate parses Update: Prologue (Update1 (';' Update)?)?, spec §4.H.
func (p *Parser) parseUpdate() (*algebra.Update, error) {
	var ops []algebra.UpdateOp
	for {
		if err := p.prologue(); err != nil {
			return nil, err
		}
		if p.atEOF() {
			break
		}
		op, err := p.update1()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		if !p.tok.punct(";") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.atEOF() {
			break
		}
	}
	if err := p.requireEOF(); err != nil {
		return nil, err
	}
	return &algebra.Update{Ops: ops}, nil
}

func (p *Parser) update1() (algebra.UpdateOp, error) {
	switch {
	case p.tok.kw("LOAD"):
		return p.loadOp()
	case p.tok.kw("CLEAR"):
		return p.clearOp()
	case p.tok.kw("DROP"):
		return p.dropOp()
	case p.tok.kw("CREATE"):
		return p.createOp()
	case p.tok.kw("ADD"):
		return p.addMoveCopyOp("ADD")
	case p.tok.kw("MOVE"):
		return p.addMoveCopyOp("MOVE")
	case p.tok.kw("COPY"):
		return p.addMoveCopyOp("COPY")
	case p.tok.kw("INSERT"):
		return p.insertOp()
	case p.tok.kw("DELETE"):
		return p.deleteOp()
	case p.tok.kw("WITH"):
		return p.modifyOp()
	}
	return nil, p.errf("expected an update operation")
}

func (p *Parser) loadOp() (algebra.UpdateOp, error) {
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
	src, err := p.iriTerm()
	if err != nil {
		return nil, err
	}
	var into rdf.Term
	if p.tok.kw("INTO") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKw("GRAPH"); err != nil {
			return nil, err
		}
		g, err := p.iriTerm()
		if err != nil {
			return nil, err
		}
		into = g
	}
	return algebra.Load{Source: src, Into: into, Silent: silent}, nil
}

func (p *Parser) graphRefAll() (algebra.GraphTarget, error) {
	switch {
	case p.tok.kw("DEFAULT"):
		return algebra.GraphTarget{Default: true}, p.advance()
	case p.tok.kw("NAMED"):
		return algebra.GraphTarget{Named: true}, p.advance()
	case p.tok.kw("ALL"):
		return algebra.GraphTarget{All: true}, p.advance()
	case p.tok.kw("GRAPH"):
		if err := p.advance(); err != nil {
			return algebra.GraphTarget{}, err
		}
		iri, err := p.iriTerm()
		return algebra.GraphTarget{Graph: iri}, err
	}
	return algebra.GraphTarget{}, p.errf("expected a graph reference")
}

func (p *Parser) graphOrDefault() (algebra.GraphTarget, error) {
	if p.tok.kw("DEFAULT") {
		return algebra.GraphTarget{Default: true}, p.advance()
	}
	if p.tok.kw("GRAPH") {
		if err := p.advance(); err != nil {
			return algebra.GraphTarget{}, err
		}
	}
	iri, err := p.iriTerm()
	return algebra.GraphTarget{Graph: iri}, err
}

func (p *Parser) silentFlag() (bool, error) {
	if p.tok.kw("SILENT") {
		return true, p.advance()
	}
	return false, nil
}

func (p *Parser) clearOp() (algebra.UpdateOp, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	silent, err := p.silentFlag()
	if err != nil {
		return nil, err
	}
	target, err := p.graphRefAll()
	if err != nil {
		return nil, err
	}
	return algebra.Clear{Target: target, Silent: silent}, nil
}

func (p *Parser) dropOp() (algebra.UpdateOp, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	silent, err := p.silentFlag()
	if err != nil {
		return nil, err
	}
	target, err := p.graphRefAll()
	if err != nil {
		return nil, err
	}
	return algebra.Drop{Target: target, Silent: silent}, nil
}

func (p *Parser) createOp() (algebra.UpdateOp, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	silent, err := p.silentFlag()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("GRAPH"); err != nil {
		return nil, err
	}
	iri, err := p.iriTerm()
	if err != nil {
		return nil, err
	}
	return algebra.Create{Graph: iri, Silent: silent}, nil
}

func (p *Parser) addMoveCopyOp(kind string) (algebra.UpdateOp, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	silent, err := p.silentFlag()
	if err != nil {
		return nil, err
	}
	from, err := p.graphOrDefault()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("TO"); err != nil {
		return nil, err
	}
	to, err := p.graphOrDefault()
	if err != nil {
		return nil, err
	}
	switch kind {
	case "ADD":
		return algebra.Add{From: from, To: to, Silent: silent}, nil
	case "MOVE":
		return algebra.Move{From: from, To: to, Silent: silent}, nil
	default:
		return algebra.Copy{From: from, To: to, Silent: silent}, nil
	}
}

// quadData parses QuadData: '{' (TriplesTemplate | 'GRAPH' VarOrIri
// '{' TriplesTemplate '}')* '}' — ground data, no variables (spec
// §4.H InsertData/DeleteData).
func (p *Parser) quadData() ([]rdf.Quad, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	p.pendingQuads = nil
	for !p.tok.punct("}") {
		if p.tok.kw("GRAPH") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			g, err := p.iriTerm()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("{"); err != nil {
				return nil, err
			}
			if err := p.quadTriplesTemplate(modeData, g); err != nil {
				return nil, err
			}
			if err := p.expectPunct("}"); err != nil {
				return nil, err
			}
		} else if err := p.quadTriplesTemplate(modeData, nil); err != nil {
			return nil, err
		}
	}
	if err := p.advance(); err != nil { // consume '}'
		return nil, err
	}
	out := p.pendingQuads
	p.pendingQuads = nil
	return out, nil
}

// quadPattern parses QuadPattern: the same shape as quadData, but as a
// template (variables allowed), used by Modify's DELETE/INSERT clauses
// and by DELETE WHERE.
func (p *Parser) quadPattern(mode termMode) ([]algebra.QuadPattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	p.pendingTemplates = nil
	for !p.tok.punct("}") {
		if p.tok.kw("GRAPH") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			g, err := p.term(mode, nil)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("{"); err != nil {
				return nil, err
			}
			if err := p.quadTriplesTemplate(mode, g); err != nil {
				return nil, err
			}
			if err := p.expectPunct("}"); err != nil {
				return nil, err
			}
		} else if err := p.quadTriplesTemplate(mode, nil); err != nil {
			return nil, err
		}
	}
	if err := p.advance(); err != nil { // consume '}'
		return nil, err
	}
	out := p.pendingTemplates
	p.pendingTemplates = nil
	return out, nil
}

func (p *Parser) quadTriplesTemplate(mode termMode, graph rdf.Term) error {
	for !p.tok.punct("}") {
		s, err := p.term(mode, graph)
		if err != nil {
			return err
		}
		if err := p.predicateObjectList(mode, graph, s); err != nil {
			return err
		}
		for p.tok.punct(".") {
			if err := p.advance(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) insertOp() (algebra.UpdateOp, error) {
	if err := p.advance(); err != nil { // consume INSERT
		return nil, err
	}
	if p.tok.kw("DATA") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		quads, err := p.quadData()
		if err != nil {
			return nil, err
		}
		return algebra.InsertData{Quads: quads}, nil
	}
	// InsertClause '(' WhereClause ')' with an implicit (absent) DELETE.
	insert, err := p.quadPattern(modeTemplate)
	if err != nil {
		return nil, err
	}
	using, usingNamed, err := p.usingClauses()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("WHERE"); err != nil {
		return nil, err
	}
	where, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	return algebra.Modify{Insert: insert, Using: using, UsingNamed: usingNamed, Where: where}, nil
}

func (p *Parser) deleteOp() (algebra.UpdateOp, error) {
	if err := p.advance(); err != nil { // consume DELETE
		return nil, err
	}
	if p.tok.kw("DATA") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		quads, err := p.quadData()
		if err != nil {
			return nil, err
		}
		return algebra.DeleteData{Quads: quads}, nil
	}
	if p.tok.kw("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		patterns, err := p.quadPattern(modeDeleteWhere)
		if err != nil {
			return nil, err
		}
		return algebra.DeleteWhere{Patterns: patterns}, nil
	}
	del, err := p.quadPattern(modeTemplate)
	if err != nil {
		return nil, err
	}
	var insert []algebra.QuadPattern
	if p.tok.kw("INSERT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		insert, err = p.quadPattern(modeTemplate)
		if err != nil {
			return nil, err
		}
	}
	using, usingNamed, err := p.usingClauses()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("WHERE"); err != nil {
		return nil, err
	}
	where, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	return algebra.Modify{Delete: del, Insert: insert, Using: using, UsingNamed: usingNamed, Where: where}, nil
}

// modifyOp parses the general 'WITH' iri (DeleteClause InsertClause? |
// InsertClause) UsingClause* WHERE GroupGraphPattern form.
func (p *Parser) modifyOp() (algebra.UpdateOp, error) {
	if err := p.advance(); err != nil { // consume WITH
		return nil, err
	}
	with, err := p.iriTerm()
	if err != nil {
		return nil, err
	}
	var del, insert []algebra.QuadPattern
	switch {
	case p.tok.kw("DELETE"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		del, err = p.quadPattern(modeTemplate)
		if err != nil {
			return nil, err
		}
		if p.tok.kw("INSERT") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			insert, err = p.quadPattern(modeTemplate)
			if err != nil {
				return nil, err
			}
		}
	case p.tok.kw("INSERT"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		insert, err = p.quadPattern(modeTemplate)
		if err != nil {
			return nil, err
		}
	default:
		return nil, p.errf("expected DELETE or INSERT after WITH <iri>")
	}
	using, usingNamed, err := p.usingClauses()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("WHERE"); err != nil {
		return nil, err
	}
	where, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	return algebra.Modify{With: with, Delete: del, Insert: insert, Using: using, UsingNamed: usingNamed, Where: where}, nil
}

func (p *Parser) usingClauses() ([]rdf.Term, []rdf.Term, error) {
	var using, usingNamed []rdf.Term
	for p.tok.kw("USING") {
		if err := p.advance(); err != nil {
			return nil, nil, err
		}
		named := false
		if p.tok.kw("NAMED") {
			named = true
			if err := p.advance(); err != nil {
				return nil, nil, err
			}
		}
		iri, err := p.iriTerm()
		if err != nil {
			return nil, nil, err
		}
		if named {
			usingNamed = append(usingNamed, iri)
		} else {
			using = append(using, iri)
		}
	}
	return using, usingNamed, nil
}
