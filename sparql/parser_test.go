package sparql_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql"
	"github.com/kgcore/rdfstore/sparql/algebra"
)

func TestParseSimpleSelect(t *testing.T) {
	q, err := sparql.ParseQuery(`
		PREFIX ex: <http://example.org/>
		SELECT ?s ?o WHERE { ?s ex:p ?o }
	`)
	require.NoError(t, err)
	require.Equal(t, algebra.FormSelect, q.Form)

	proj, ok := q.Pattern.(algebra.Project)
	require.True(t, ok)
	require.Equal(t, []string{"s", "o"}, proj.Vars)

	bgp, ok := proj.Inner.(algebra.BGP)
	require.True(t, ok)
	require.Len(t, bgp.Patterns, 1)
	require.Equal(t, rdf.Variable("s"), bgp.Patterns[0].Subject)
	require.Equal(t, rdf.IRI("http://example.org/p"), bgp.Patterns[0].Predicate)
	require.Equal(t, rdf.Variable("o"), bgp.Patterns[0].Object)
}

func TestParseSelectDistinct(t *testing.T) {
	q, err := sparql.ParseQuery(`SELECT DISTINCT ?s WHERE { ?s <http://example.org/p> ?o }`)
	require.NoError(t, err)
	_, ok := q.Pattern.(algebra.Distinct)
	require.True(t, ok)
}

func TestParseSelectStar(t *testing.T) {
	q, err := sparql.ParseQuery(`SELECT * WHERE { ?s <http://example.org/p> ?o }`)
	require.NoError(t, err)
	// SELECT * has no explicit Project wrapper around the pattern.
	_, ok := q.Pattern.(algebra.BGP)
	require.True(t, ok)
}

func TestParseFilterAndOptional(t *testing.T) {
	q, err := sparql.ParseQuery(`
		SELECT ?s WHERE {
			?s <http://example.org/p> ?o .
			OPTIONAL { ?s <http://example.org/q> ?r }
			FILTER(?o > 1)
		}
	`)
	require.NoError(t, err)
	proj := q.Pattern.(algebra.Project)
	filter, ok := proj.Inner.(algebra.FilterNode)
	require.True(t, ok)
	_, ok = filter.Inner.(algebra.LeftJoin)
	require.True(t, ok)
}

func TestParseUnionAndMinus(t *testing.T) {
	q, err := sparql.ParseQuery(`
		SELECT ?s WHERE {
			{ ?s <http://example.org/p> ?o } UNION { ?s <http://example.org/q> ?o }
			MINUS { ?s <http://example.org/bad> ?o }
		}
	`)
	require.NoError(t, err)
	proj := q.Pattern.(algebra.Project)
	minus, ok := proj.Inner.(algebra.Minus)
	require.True(t, ok)
	_, ok = minus.Left.(algebra.Union)
	require.True(t, ok)
}

func TestParseOrderByLimitOffset(t *testing.T) {
	q, err := sparql.ParseQuery(`
		SELECT ?s WHERE { ?s <http://example.org/p> ?o }
		ORDER BY DESC(?o) LIMIT 10 OFFSET 5
	`)
	require.NoError(t, err)
	slice, ok := q.Pattern.(algebra.Slice)
	require.True(t, ok)
	require.Equal(t, 10, slice.Limit)
	require.Equal(t, 5, slice.Offset)
	order, ok := slice.Inner.(algebra.OrderBy)
	require.True(t, ok)
	require.Len(t, order.Conditions, 1)
	require.True(t, order.Conditions[0].Descending)
}

func TestParseGroupByAggregateHaving(t *testing.T) {
	q, err := sparql.ParseQuery(`
		SELECT ?dept (SUM(?salary) AS ?total) (COUNT(?s) AS ?n)
		WHERE { ?s <http://example.org/dept> ?dept ; <http://example.org/salary> ?salary }
		GROUP BY ?dept
		HAVING (COUNT(?s) >= 1)
		ORDER BY ?dept
	`)
	require.NoError(t, err)
	order := q.Pattern.(algebra.OrderBy)
	proj, ok := order.Inner.(algebra.Project)
	require.True(t, ok)
	group, ok := proj.Inner.(algebra.Group)
	require.True(t, ok)
	require.Equal(t, []string{"dept"}, group.GroupVars)
	require.Len(t, group.Aggs, 2)
	require.Equal(t, "total", group.Aggs[0].Var)
	require.Equal(t, "SUM", group.Aggs[0].Agg.Func)
	require.Equal(t, "n", group.Aggs[1].Var)
	require.Equal(t, "COUNT", group.Aggs[1].Agg.Func)
	require.NotNil(t, group.Having)
}

func TestParseCountStar(t *testing.T) {
	q, err := sparql.ParseQuery(`SELECT (COUNT(*) AS ?n) WHERE { ?s <http://example.org/p> ?o }`)
	require.NoError(t, err)
	proj := q.Pattern.(algebra.Project)
	group := proj.Inner.(algebra.Group)
	require.Nil(t, group.Aggs[0].Agg.Arg)
	require.Equal(t, "COUNT", group.Aggs[0].Agg.Func)
}

func TestParseConstruct(t *testing.T) {
	q, err := sparql.ParseQuery(`
		CONSTRUCT { ?s <http://example.org/copy> ?o }
		WHERE { ?s <http://example.org/p> ?o }
	`)
	require.NoError(t, err)
	require.Equal(t, algebra.FormConstruct, q.Form)
	require.Len(t, q.Template, 1)
}

func TestParseAsk(t *testing.T) {
	q, err := sparql.ParseQuery(`ASK { ?s <http://example.org/p> ?o }`)
	require.NoError(t, err)
	require.Equal(t, algebra.FormAsk, q.Form)
}

func TestParseDescribeStar(t *testing.T) {
	q, err := sparql.ParseQuery(`DESCRIBE * WHERE { ?s <http://example.org/p> ?o }`)
	require.NoError(t, err)
	require.Equal(t, algebra.FormDescribe, q.Form)
	require.Nil(t, q.Describe)
}

func TestParseDescribeResource(t *testing.T) {
	q, err := sparql.ParseQuery(`DESCRIBE <http://example.org/x>`)
	require.NoError(t, err)
	require.Equal(t, algebra.FormDescribe, q.Form)
	require.Equal(t, []rdf.Term{rdf.IRI("http://example.org/x")}, q.Describe)
}

func TestParsePropertyPath(t *testing.T) {
	q, err := sparql.ParseQuery(`SELECT ?s ?o WHERE { ?s <http://example.org/p>+ ?o }`)
	require.NoError(t, err)
	proj := q.Pattern.(algebra.Project)
	path, ok := proj.Inner.(algebra.Path)
	require.True(t, ok)
	_, ok = path.Expr.(algebra.PathOneOrMore)
	require.True(t, ok)
}

func TestParseInversePath(t *testing.T) {
	q, err := sparql.ParseQuery(`SELECT ?s ?o WHERE { ?s ^<http://example.org/p> ?o }`)
	require.NoError(t, err)
	proj := q.Pattern.(algebra.Project)
	path := proj.Inner.(algebra.Path)
	_, ok := path.Expr.(algebra.PathInverse)
	require.True(t, ok)
}

func TestParseGraphClause(t *testing.T) {
	q, err := sparql.ParseQuery(`SELECT ?s WHERE { GRAPH ?g { ?s <http://example.org/p> ?o } }`)
	require.NoError(t, err)
	proj := q.Pattern.(algebra.Project)
	g, ok := proj.Inner.(algebra.Graph)
	require.True(t, ok)
	require.Equal(t, "g", g.Var)
}

func TestParseValuesClause(t *testing.T) {
	q, err := sparql.ParseQuery(`SELECT ?s WHERE { ?s <http://example.org/p> ?o VALUES ?s { <http://example.org/a> <http://example.org/b> } }`)
	require.NoError(t, err)
	_, ok := q.Pattern.(algebra.Project)
	require.True(t, ok)
}

func TestParseQuotedTriplePattern(t *testing.T) {
	q, err := sparql.ParseQuery(`
		SELECT ?s WHERE {
			?s <http://example.org/says> << <http://example.org/a> <http://example.org/b> <http://example.org/c> >>
		}
	`)
	require.NoError(t, err)
	proj := q.Pattern.(algebra.Project)
	bgp := proj.Inner.(algebra.BGP)
	_, ok := bgp.Patterns[0].Object.(rdf.QuotedTriple)
	require.True(t, ok)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := sparql.ParseQuery(`NOT A QUERY`)
	require.Error(t, err)
}

func TestParseTrailingGarbageRejected(t *testing.T) {
	_, err := sparql.ParseQuery(`SELECT ?s WHERE { ?s <http://example.org/p> ?o } GARBAGE`)
	require.Error(t, err)
}

func TestParseInsertData(t *testing.T) {
	u, err := sparql.ParseUpdate(`
		PREFIX ex: <http://example.org/>
		INSERT DATA { ex:a ex:p ex:b }
	`)
	require.NoError(t, err)
	require.Len(t, u.Ops, 1)
	ins, ok := u.Ops[0].(algebra.InsertData)
	require.True(t, ok)
	require.Len(t, ins.Quads, 1)
	require.Equal(t, rdf.IRI("http://example.org/a"), ins.Quads[0].Subject)
}

func TestParseDeleteInsertWhere(t *testing.T) {
	u, err := sparql.ParseUpdate(`
		PREFIX ex: <http://example.org/>
		DELETE { ?s ex:old ?o }
		INSERT { ?s ex:new ?o }
		WHERE { ?s ex:old ?o }
	`)
	require.NoError(t, err)
	require.Len(t, u.Ops, 1)
	mod, ok := u.Ops[0].(algebra.Modify)
	require.True(t, ok)
	require.Len(t, mod.Delete, 1)
	require.Len(t, mod.Insert, 1)
	require.NotNil(t, mod.Where)
}

func TestParseClearDefault(t *testing.T) {
	u, err := sparql.ParseUpdate(`CLEAR DEFAULT`)
	require.NoError(t, err)
	clear, ok := u.Ops[0].(algebra.Clear)
	require.True(t, ok)
	require.True(t, clear.Target.Default)
}

func TestParseClearNamedGraph(t *testing.T) {
	u, err := sparql.ParseUpdate(`CLEAR GRAPH <http://example.org/g>`)
	require.NoError(t, err)
	clear := u.Ops[0].(algebra.Clear)
	require.Equal(t, rdf.IRI("http://example.org/g"), clear.Target.Graph)
}

func TestParseCopyMoveAdd(t *testing.T) {
	u, err := sparql.ParseUpdate(`COPY GRAPH <http://example.org/a> TO GRAPH <http://example.org/b>`)
	require.NoError(t, err)
	cp, ok := u.Ops[0].(algebra.Copy)
	require.True(t, ok)
	require.Equal(t, rdf.IRI("http://example.org/a"), cp.From.Graph)
	require.Equal(t, rdf.IRI("http://example.org/b"), cp.To.Graph)
}

func TestParseLoad(t *testing.T) {
	u, err := sparql.ParseUpdate(`LOAD <http://example.org/data.ttl> INTO GRAPH <http://example.org/g>`)
	require.NoError(t, err)
	load, ok := u.Ops[0].(algebra.Load)
	require.True(t, ok)
	require.Equal(t, rdf.IRI("http://example.org/data.ttl"), load.Source)
	require.Equal(t, rdf.IRI("http://example.org/g"), load.Into)
}

func TestParseMultipleUpdatesSeparatedBySemicolon(t *testing.T) {
	u, err := sparql.ParseUpdate(`
		PREFIX ex: <http://example.org/>
		INSERT DATA { ex:a ex:p ex:b } ;
		DELETE DATA { ex:a ex:p ex:b }
	`)
	require.NoError(t, err)
	require.Len(t, u.Ops, 2)
	_, ok := u.Ops[0].(algebra.InsertData)
	require.True(t, ok)
	_, ok = u.Ops[1].(algebra.DeleteData)
	require.True(t, ok)
}
