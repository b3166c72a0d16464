package exec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/kv/memkv"
	"github.com/kgcore/rdfstore/rdf"
	"github.com/kgcore/rdfstore/sparql"
	"github.com/kgcore/rdfstore/sparql/exec"
	"github.com/kgcore/rdfstore/store"
)

func newExecutor(t *testing.T) *exec.Executor {
	t.Helper()
	return exec.New(store.New(memkv.New()), nil)
}

func mustInsert(t *testing.T, st *store.Store, quads ...rdf.Quad) {
	t.Helper()
	ctx := context.Background()
	for _, q := range quads {
		require.NoError(t, st.Insert(ctx, q))
	}
}

func runSelect(t *testing.T, ex *exec.Executor, query string) *exec.Result {
	t.Helper()
	q, err := sparql.ParseQuery(query)
	require.NoError(t, err)
	res, err := ex.Execute(context.Background(), q)
	require.NoError(t, err)
	return res
}

func runUpdate(t *testing.T, ex *exec.Executor, update string) {
	t.Helper()
	u, err := sparql.ParseUpdate(update)
	require.NoError(t, err)
	require.NoError(t, ex.ExecuteUpdate(context.Background(), u))
}

func ex_IRI(s string) rdf.IRI { return rdf.IRI(s) }

func TestSelectBasicGraphPattern(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("name"), Object: rdf.NewLiteral("Alice")},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("name"), Object: rdf.NewLiteral("Bob")},
	)
	res := runSelect(t, ex, `SELECT ?s ?n WHERE { ?s <name> ?n }`)
	require.Len(t, res.Rows, 2)
	names := map[string]bool{}
	for _, row := range res.Rows {
		n, ok := row.Get("n")
		require.True(t, ok)
		names[n.(rdf.Literal).Lexical] = true
	}
	require.True(t, names["Alice"])
	require.True(t, names["Bob"])
}

func TestAsk(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store, rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("p"), Object: ex_IRI("b")})

	res := runSelect(t, ex, `ASK { <a> <p> <b> }`)
	require.True(t, res.Ask)

	res = runSelect(t, ex, `ASK { <a> <p> <nope> }`)
	require.False(t, res.Ask)
}

func TestFilterAndOptional(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("age"), Object: rdf.NewTypedLiteral("30", rdf.XSDInteger)},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("age"), Object: rdf.NewTypedLiteral("12", rdf.XSDInteger)},
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("email"), Object: rdf.NewLiteral("a@x.com")},
	)
	res := runSelect(t, ex, `
		SELECT ?s ?email WHERE {
			?s <age> ?age .
			FILTER(?age >= 18)
			OPTIONAL { ?s <email> ?email }
		}`)
	require.Len(t, res.Rows, 1)
	s, _ := res.Rows[0].Get("s")
	require.Equal(t, rdf.IRI("a"), s)
	email, ok := res.Rows[0].Get("email")
	require.True(t, ok)
	require.Equal(t, "a@x.com", email.(rdf.Literal).Lexical)
}

func TestMinusExcludesSharedVariableMatches(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("type"), Object: ex_IRI("Person")},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("type"), Object: ex_IRI("Person")},
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("banned"), Object: rdf.NewTypedLiteral("true", rdf.XSDBoolean)},
	)
	res := runSelect(t, ex, `
		SELECT ?s WHERE {
			?s <type> <Person> .
			MINUS { ?s <banned> ?x }
		}`)
	require.Len(t, res.Rows, 1)
	s, _ := res.Rows[0].Get("s")
	require.Equal(t, rdf.IRI("b"), s)
}

func TestUnion(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("knows"), Object: ex_IRI("b")},
		rdf.Quad{Subject: ex_IRI("c"), Predicate: ex_IRI("likes"), Object: ex_IRI("d")},
	)
	res := runSelect(t, ex, `
		SELECT ?s ?o WHERE {
			{ ?s <knows> ?o } UNION { ?s <likes> ?o }
		}`)
	require.Len(t, res.Rows, 2)
}

func TestOrderByAndLimit(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("age"), Object: rdf.NewTypedLiteral("30", rdf.XSDInteger)},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("age"), Object: rdf.NewTypedLiteral("12", rdf.XSDInteger)},
		rdf.Quad{Subject: ex_IRI("c"), Predicate: ex_IRI("age"), Object: rdf.NewTypedLiteral("45", rdf.XSDInteger)},
	)
	res := runSelect(t, ex, `
		SELECT ?s WHERE { ?s <age> ?age }
		ORDER BY DESC(?age) LIMIT 2`)
	require.Len(t, res.Rows, 2)
	first, _ := res.Rows[0].Get("s")
	require.Equal(t, rdf.IRI("c"), first)
	second, _ := res.Rows[1].Get("s")
	require.Equal(t, rdf.IRI("a"), second)
}

func TestDistinct(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("type"), Object: ex_IRI("Person")},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("type"), Object: ex_IRI("Person")},
	)
	res := runSelect(t, ex, `SELECT DISTINCT ?type WHERE { ?s <type> ?type }`)
	require.Len(t, res.Rows, 1)
}

func TestGroupByWithAggregates(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("dept"), Object: ex_IRI("eng")},
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("salary"), Object: rdf.NewTypedLiteral("100", rdf.XSDInteger)},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("dept"), Object: ex_IRI("eng")},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("salary"), Object: rdf.NewTypedLiteral("200", rdf.XSDInteger)},
		rdf.Quad{Subject: ex_IRI("c"), Predicate: ex_IRI("dept"), Object: ex_IRI("sales")},
		rdf.Quad{Subject: ex_IRI("c"), Predicate: ex_IRI("salary"), Object: rdf.NewTypedLiteral("50", rdf.XSDInteger)},
	)
	res := runSelect(t, ex, `
		SELECT ?dept (SUM(?salary) AS ?total) (COUNT(?s) AS ?n) WHERE {
			?s <dept> ?dept .
			?s <salary> ?salary
		}
		GROUP BY ?dept
		HAVING (COUNT(?s) >= 1)
		ORDER BY ?dept`)
	require.Len(t, res.Rows, 2)

	dept0, _ := res.Rows[0].Get("dept")
	require.Equal(t, rdf.IRI("eng"), dept0)
	total0, _ := res.Rows[0].Get("total")
	require.Equal(t, "300", total0.(rdf.Literal).Lexical)
	n0, _ := res.Rows[0].Get("n")
	require.Equal(t, "2", n0.(rdf.Literal).Lexical)

	dept1, _ := res.Rows[1].Get("dept")
	require.Equal(t, rdf.IRI("sales"), dept1)
	total1, _ := res.Rows[1].Get("total")
	require.Equal(t, "50", total1.(rdf.Literal).Lexical)
}

func TestGroupByHavingFilters(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("dept"), Object: ex_IRI("eng")},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("dept"), Object: ex_IRI("eng")},
		rdf.Quad{Subject: ex_IRI("c"), Predicate: ex_IRI("dept"), Object: ex_IRI("sales")},
	)
	res := runSelect(t, ex, `
		SELECT ?dept (COUNT(?s) AS ?n) WHERE { ?s <dept> ?dept }
		GROUP BY ?dept
		HAVING (COUNT(?s) > 1)`)
	require.Len(t, res.Rows, 1)
	dept, _ := res.Rows[0].Get("dept")
	require.Equal(t, rdf.IRI("eng"), dept)
}

func TestPropertyPathOneOrMore(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("parent"), Object: ex_IRI("b")},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("parent"), Object: ex_IRI("c")},
		rdf.Quad{Subject: ex_IRI("c"), Predicate: ex_IRI("parent"), Object: ex_IRI("d")},
	)
	res := runSelect(t, ex, `SELECT ?anc WHERE { <a> <parent>+ ?anc }`)
	require.Len(t, res.Rows, 3)

	seen := map[rdf.Term]bool{}
	for _, row := range res.Rows {
		v, _ := row.Get("anc")
		seen[v] = true
	}
	require.True(t, seen[rdf.IRI("b")])
	require.True(t, seen[rdf.IRI("c")])
	require.True(t, seen[rdf.IRI("d")])
}

func TestPropertyPathInverse(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("parent"), Object: ex_IRI("b")},
	)
	res := runSelect(t, ex, `SELECT ?child WHERE { <b> ^<parent> ?child }`)
	require.Len(t, res.Rows, 1)
	c, _ := res.Rows[0].Get("child")
	require.Equal(t, rdf.IRI("a"), c)
}

func TestConstruct(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store, rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("knows"), Object: ex_IRI("b")})
	res := runSelect(t, ex, `CONSTRUCT { ?s <sameKnows> ?o } WHERE { ?s <knows> ?o }`)
	require.Len(t, res.Triples, 1)
	require.Equal(t, rdf.IRI("sameKnows"), res.Triples[0].Predicate)
}

func TestDescribeVariable(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("knows"), Object: ex_IRI("b")},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("name"), Object: rdf.NewLiteral("Bob")},
	)
	res := runSelect(t, ex, `DESCRIBE ?s WHERE { ?s <knows> ?o }`)
	require.NotEmpty(t, res.Triples)
}

func TestGraphNamedPattern(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("p"), Object: ex_IRI("b"), Graph: ex_IRI("g1")},
		rdf.Quad{Subject: ex_IRI("x"), Predicate: ex_IRI("p"), Object: ex_IRI("y")}, // default graph
	)
	res := runSelect(t, ex, `SELECT ?s ?g WHERE { GRAPH ?g { ?s <p> ?o } }`)
	require.Len(t, res.Rows, 1)
	s, _ := res.Rows[0].Get("s")
	require.Equal(t, rdf.IRI("a"), s)
}

func TestInsertDataAndDeleteData(t *testing.T) {
	ex := newExecutor(t)
	runUpdate(t, ex, `INSERT DATA { <a> <p> <b> }`)

	ok, err := ex.Store.Contains(context.Background(), rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("p"), Object: ex_IRI("b")})
	require.NoError(t, err)
	require.True(t, ok)

	runUpdate(t, ex, `DELETE DATA { <a> <p> <b> }`)
	ok, err = ex.Store.Contains(context.Background(), rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("p"), Object: ex_IRI("b")})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestModifyDeletesBeforeInsert(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store, rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("status"), Object: rdf.NewLiteral("pending")})

	runUpdate(t, ex, `
		DELETE { ?s <status> ?old }
		INSERT { ?s <status> "done" }
		WHERE { ?s <status> ?old }`)

	ok, err := ex.Store.Contains(context.Background(), rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("status"), Object: rdf.NewLiteral("pending")})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = ex.Store.Contains(context.Background(), rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("status"), Object: rdf.NewLiteral("done")})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestClearDefaultGraphLeavesNamedGraphsIntact(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("p"), Object: ex_IRI("b")},
		rdf.Quad{Subject: ex_IRI("x"), Predicate: ex_IRI("p"), Object: ex_IRI("y"), Graph: ex_IRI("g1")},
	)
	runUpdate(t, ex, `CLEAR DEFAULT`)

	ctx := context.Background()
	ok, err := ex.Store.Contains(ctx, rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("p"), Object: ex_IRI("b")})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = ex.Store.Contains(ctx, rdf.Quad{Subject: ex_IRI("x"), Predicate: ex_IRI("p"), Object: ex_IRI("y"), Graph: ex_IRI("g1")})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCopyGraph(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store, rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("p"), Object: ex_IRI("b"), Graph: ex_IRI("src")})

	runUpdate(t, ex, `COPY GRAPH <src> TO GRAPH <dst>`)

	ctx := context.Background()
	ok, err := ex.Store.Contains(ctx, rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("p"), Object: ex_IRI("b"), Graph: ex_IRI("dst")})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = ex.Store.Contains(ctx, rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("p"), Object: ex_IRI("b"), Graph: ex_IRI("src")})
	require.NoError(t, err)
	require.True(t, ok, "COPY leaves the source graph intact")
}

func TestValuesClause(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("p"), Object: ex_IRI("b")},
		rdf.Quad{Subject: ex_IRI("c"), Predicate: ex_IRI("p"), Object: ex_IRI("d")},
	)
	res := runSelect(t, ex, `
		SELECT ?s ?o WHERE {
			?s <p> ?o .
			VALUES ?s { <a> }
		}`)
	require.Len(t, res.Rows, 1)
	s, _ := res.Rows[0].Get("s")
	require.Equal(t, rdf.IRI("a"), s)
}

func TestBuiltinFunctionsInFilter(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{Subject: ex_IRI("a"), Predicate: ex_IRI("name"), Object: rdf.NewLiteral("alice")},
		rdf.Quad{Subject: ex_IRI("b"), Predicate: ex_IRI("name"), Object: rdf.NewLiteral("bob")},
	)
	res := runSelect(t, ex, `
		SELECT ?s WHERE {
			?s <name> ?n .
			FILTER(STRSTARTS(?n, "al"))
		}`)
	require.Len(t, res.Rows, 1)
	s, _ := res.Rows[0].Get("s")
	require.Equal(t, rdf.IRI("a"), s)
}

func TestQuotedTriplePattern(t *testing.T) {
	ex := newExecutor(t)
	mustInsert(t, ex.Store,
		rdf.Quad{
			Subject:   rdf.QuotedTriple{Subject: ex_IRI("a"), Predicate: ex_IRI("says"), Object: rdf.NewLiteral("hi")},
			Predicate: ex_IRI("assertedBy"),
			Object:    ex_IRI("bob"),
		},
	)
	res := runSelect(t, ex, `SELECT ?who WHERE { << <a> <says> "hi" >> <assertedBy> ?who }`)
	require.Len(t, res.Rows, 1)
	who, _ := res.Rows[0].Get("who")
	require.Equal(t, rdf.IRI("bob"), who)
}
