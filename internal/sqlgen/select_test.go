package sqlgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinqerjs/tinqer-go/internal/dialect"
	"github.com/tinqerjs/tinqer-go/internal/expr"
	"github.com/tinqerjs/tinqer-go/internal/op"
	"github.com/tinqerjs/tinqer-go/internal/sqlgen"
)

// TestPredicateWithParams mirrors `from(ctx, "users").where(u => u.age
// > p.minAge && u.name == "Ann")` with `{minAge: 18}`.
func TestPredicateWithParams(t *testing.T) {
	root := op.From{Table: "users", AliasHint: "t0"}
	where := op.Where{
		Base: op.Base{Source: root},
		Predicate: expr.Logical{
			Operator: expr.And,
			Left: expr.Comparison{
				Operator: expr.Gt,
				Left:     expr.Column{Name: "age"},
				Right:    expr.Param{Name: "minAge"},
			},
			Right: expr.Comparison{
				Operator: expr.Eq,
				Left:     expr.Column{Name: "name"},
				Right:    expr.Param{Name: "__p1"},
			},
		},
	}

	result, err := sqlgen.Generate(where, map[string]any{"__p1": "Ann"}, map[string]any{"minAge": 18}, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE ("age" > $(minAge) AND "name" = $(__p1))`, result.SQL)
	assert.Equal(t, map[string]any{"minAge": 18, "__p1": "Ann"}, result.Params)
}

// TestNullRewrite mirrors `from(ctx, "users").where(u => u.age ==
// null)`.
func TestNullRewrite(t *testing.T) {
	root := op.From{Table: "users", AliasHint: "t0"}
	where := op.Where{
		Base: op.Base{Source: root},
		Predicate: expr.Comparison{
			Operator: expr.Eq,
			Left:     expr.Column{Name: "age"},
			Right:    expr.Constant{ValueType: expr.TypeNull},
		},
	}

	result, err := sqlgen.Generate(where, nil, nil, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "age" IS NULL`, result.SQL)
	assert.Empty(t, result.Params)
}

// TestInnerJoinProjection mirrors `from(ctx, "users").join(ctx.from
// ("departments"), u=>u.department_id, d=>d.id, (u,d)=>({u,d}))
// .select(j => ({ userName: j.u.name, deptName: j.d.name }))`.
func TestInnerJoinProjection(t *testing.T) {
	root := op.From{Table: "users", AliasHint: "t0"}
	inner := op.From{Table: "departments", AliasHint: "t1"}
	join := op.Join{
		Base:       op.Base{Source: root},
		Inner:      inner,
		OuterKey:   expr.Column{Table: "t0", Name: "department_id"},
		InnerKey:   expr.Column{Table: "t1", Name: "id"},
		JoinType:   op.JoinInner,
		InnerAlias: "t1",
		OuterAlias: "t0",
	}
	sel := op.Select{
		Base: op.Base{Source: join},
		Selector: expr.NewObject([]string{"userName", "deptName"}, map[string]expr.Expression{
			"userName": expr.Column{Table: "t0", Name: "name"},
			"deptName": expr.Column{Table: "t1", Name: "name"},
		}),
	}

	result, err := sqlgen.Generate(sel, nil, nil, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "t0"."name" AS "userName", "t1"."name" AS "deptName" FROM "users" AS "t0" INNER JOIN "departments" AS "t1" ON "t0"."department_id" = "t1"."id"`,
		result.SQL,
	)
}

// TestLeftOuterJoinProjection mirrors the post-normalization shape of
// `from(ctx, "users").groupJoin(ctx.from("departments"), ...)
// .selectMany(x=>x.g.defaultIfEmpty(), ...).select(...)`.
func TestLeftOuterJoinProjection(t *testing.T) {
	root := op.From{Table: "users", AliasHint: "t0"}
	inner := op.From{Table: "departments", AliasHint: "t1"}
	join := op.Join{
		Base:       op.Base{Source: root},
		Inner:      inner,
		OuterKey:   expr.Column{Table: "t0", Name: "department_id"},
		InnerKey:   expr.Column{Table: "t1", Name: "id"},
		JoinType:   op.JoinLeft,
		InnerAlias: "t1",
		OuterAlias: "t0",
	}
	sel := op.Select{
		Base: op.Base{Source: join},
		Selector: expr.NewObject([]string{"userId", "deptId"}, map[string]expr.Expression{
			"userId": expr.Column{Table: "t0", Name: "id"},
			"deptId": expr.Column{Table: "t1", Name: "id"},
		}),
	}

	result, err := sqlgen.Generate(sel, nil, nil, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "t0"."id" AS "userId", "t1"."id" AS "deptId" FROM "users" AS "t0" LEFT OUTER JOIN "departments" AS "t1" ON "t0"."department_id" = "t1"."id"`,
		result.SQL,
	)
}

// TestGroupByAggregates mirrors `from(ctx, "order_items").groupBy(oi
// => oi.order_id).select(g => ({ orderId: g.key, totalQuantity: g.sum
// (oi => oi.quantity), totalValue: g.sum(oi => oi.quantity *
// oi.unit_price), avgItemValue: g.average(oi => oi.unit_price) }))`.
func TestGroupByAggregates(t *testing.T) {
	root := op.From{Table: "order_items", AliasHint: "t0"}
	gb := op.GroupBy{Base: op.Base{Source: root}, KeySelector: expr.Column{Name: "order_id"}}
	sel := op.Select{
		Base: op.Base{Source: gb},
		Selector: expr.NewObject(
			[]string{"orderId", "totalQuantity", "totalValue", "avgItemValue"},
			map[string]expr.Expression{
				"orderId":       expr.Column{Name: "order_id"},
				"totalQuantity": expr.Aggregate{Function: expr.AggSum, Expression: expr.Column{Name: "quantity"}},
				"totalValue": expr.Aggregate{Function: expr.AggSum, Expression: expr.Arithmetic{
					Operator: expr.Mul,
					Left:     expr.Column{Name: "quantity"},
					Right:    expr.Column{Name: "unit_price"},
				}},
				"avgItemValue": expr.Aggregate{Function: expr.AggAvg, Expression: expr.Column{Name: "unit_price"}},
			},
		),
	}

	result, err := sqlgen.Generate(sel, nil, nil, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "order_id" AS "orderId", SUM("quantity") AS "totalQuantity", SUM(("quantity" * "unit_price")) AS "totalValue", AVG("unit_price") AS "avgItemValue" FROM "order_items" GROUP BY "order_id"`,
		result.SQL,
	)
}

// TestPagination mirrors `from(ctx, "users").orderByDescending(u =>
// u.age).skip(10).take(20)`.
func TestPagination(t *testing.T) {
	root := op.From{Table: "users", AliasHint: "t0"}
	ob := op.OrderBy{Base: op.Base{Source: root}, KeySelector: expr.Column{Name: "age"}, Descending: true}
	skip := op.Skip{Base: op.Base{Source: ob}, Count: expr.Param{Name: "__p1"}}
	take := op.Take{Base: op.Base{Source: skip}, Count: expr.Param{Name: "__p2"}}

	result, err := sqlgen.Generate(take, map[string]any{"__p1": 10, "__p2": 20}, nil, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" ORDER BY "age" DESC LIMIT $(__p2) OFFSET $(__p1)`, result.SQL)
	assert.Equal(t, map[string]any{"__p1": 10, "__p2": 20}, result.Params)
}

// TestWhereStackingCommutativity covers P6: stacking two where
// predicates conjoins them in emission order.
func TestWhereStackingCommutativity(t *testing.T) {
	root := op.From{Table: "users", AliasHint: "t0"}
	w1 := op.Where{
		Base:      op.Base{Source: root},
		Predicate: expr.Comparison{Operator: expr.Gt, Left: expr.Column{Name: "age"}, Right: expr.Param{Name: "minAge"}},
	}
	w2 := op.Where{
		Base:      op.Base{Source: w1},
		Predicate: expr.Comparison{Operator: expr.Eq, Left: expr.Column{Name: "status"}, Right: expr.Param{Name: "__p1"}},
	}

	result, err := sqlgen.Generate(w2, map[string]any{"__p1": "active"}, map[string]any{"minAge": 18}, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE ("age" > $(minAge) AND "status" = $(__p1))`, result.SQL)
}

// TestLastReversal covers P7: an explicit orderBy direction is flipped
// and a LIMIT 1 is applied.
func TestLastReversal(t *testing.T) {
	root := op.From{Table: "users", AliasHint: "t0"}
	ob := op.OrderBy{Base: op.Base{Source: root}, KeySelector: expr.Column{Name: "age"}, Descending: false}
	term := op.Terminal{Base: op.Base{Source: ob}, Kind: op.Last}

	result, err := sqlgen.Generate(term, nil, nil, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" ORDER BY "age" DESC LIMIT 1`, result.SQL)
}

// TestLastReversalImplicitOrder covers the no-orderBy fallback: an
// implicit `ORDER BY 1 DESC LIMIT 1`.
func TestLastReversalImplicitOrder(t *testing.T) {
	root := op.From{Table: "users", AliasHint: "t0"}
	term := op.Terminal{Base: op.Base{Source: root}, Kind: op.LastOrDefault}

	result, err := sqlgen.Generate(term, nil, nil, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" ORDER BY 1 DESC LIMIT 1`, result.SQL)
}

// TestAnyExists covers the EXISTS rewrite for a terminal `any`
// predicate.
func TestAnyExists(t *testing.T) {
	root := op.From{Table: "users", AliasHint: "t0"}
	term := op.Terminal{
		Base:      op.Base{Source: root},
		Kind:      op.Any,
		Predicate: expr.Comparison{Operator: expr.Gt, Left: expr.Column{Name: "age"}, Right: expr.Param{Name: "minAge"}},
	}

	result, err := sqlgen.Generate(term, nil, map[string]any{"minAge": 18}, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT CASE WHEN EXISTS(SELECT 1 FROM "users" WHERE "age" > $(minAge)) THEN 1 ELSE 0 END`,
		result.SQL,
	)
}

// TestAllExistsNegatesPredicate covers the EXISTS rewrite for a
// terminal `all` predicate: NOT EXISTS over the negated predicate.
func TestAllExistsNegatesPredicate(t *testing.T) {
	root := op.From{Table: "users", AliasHint: "t0"}
	term := op.Terminal{
		Base:      op.Base{Source: root},
		Kind:      op.All,
		Predicate: expr.Comparison{Operator: expr.Gt, Left: expr.Column{Name: "age"}, Right: expr.Param{Name: "minAge"}},
	}

	result, err := sqlgen.Generate(term, nil, map[string]any{"minAge": 18}, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT CASE WHEN NOT EXISTS(SELECT 1 FROM "users" WHERE NOT ("age" > $(minAge))) THEN 1 ELSE 0 END`,
		result.SQL,
	)
}

// TestArrayInSQLiteBindsIndexedElementsOnly covers the dialect-aware
// `in` rendering: SQLite expands to indexed placeholders and must
// never also bind the raw array under its base key.
func TestArrayInSQLiteBindsIndexedElementsOnly(t *testing.T) {
	root := op.From{Table: "orders", AliasHint: "t0"}
	where := op.Where{
		Base: op.Base{Source: root},
		Predicate: expr.In{
			Value: expr.Column{Name: "id"},
			List:  expr.Param{Name: "ids"},
		},
	}

	result, err := sqlgen.Generate(where, nil, map[string]any{"ids": []int{1, 2, 3}}, dialect.SQLite)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "orders" WHERE "id" IN (@ids_0, @ids_1, @ids_2)`, result.SQL)
	assert.Equal(t, map[string]any{"ids_0": 1, "ids_1": 2, "ids_2": 3}, result.Params)
}

// TestArrayInPostgresBindsArrayParam covers the PostgreSQL side of the
// same rewrite: the array is bound once under its own name and
// referenced via ANY.
func TestArrayInPostgresBindsArrayParam(t *testing.T) {
	root := op.From{Table: "orders", AliasHint: "t0"}
	where := op.Where{
		Base: op.Base{Source: root},
		Predicate: expr.In{
			Value: expr.Column{Name: "id"},
			List:  expr.Param{Name: "ids"},
		},
	}

	result, err := sqlgen.Generate(where, nil, map[string]any{"ids": []int{1, 2, 3}}, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "orders" WHERE "id" = ANY($(ids))`, result.SQL)
	assert.Equal(t, map[string]any{"ids": []int{1, 2, 3}}, result.Params)
}

// TestArrayInEmptySQLiteCollapsesToLiteral covers the empty-array
// safety rewrite for SQLite's indexed expansion.
func TestArrayInEmptySQLiteCollapsesToLiteral(t *testing.T) {
	root := op.From{Table: "orders", AliasHint: "t0"}
	where := op.Where{
		Base: op.Base{Source: root},
		Predicate: expr.In{
			Value: expr.Column{Name: "id"},
			List:  expr.Param{Name: "ids"},
		},
	}

	result, err := sqlgen.Generate(where, nil, map[string]any{"ids": []int{}}, dialect.SQLite)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "orders" WHERE FALSE`, result.SQL)
	assert.Empty(t, result.Params)
}

// TestMissingFromRoot covers the ParseFailed error when a read-path
// chain is not rooted at from(...).
func TestMissingFromRoot(t *testing.T) {
	_, err := sqlgen.Generate(op.Where{Predicate: expr.Constant{ValueType: expr.TypeBoolean, Value: true}}, nil, nil, dialect.Postgres)
	assert.Error(t, err)
}
