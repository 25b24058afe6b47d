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

// TestInsertWithReturning mirrors `insert(ctx, "users").values({
// name: p.name, age: p.age }).returning("id")` on PostgreSQL.
func TestInsertWithReturning(t *testing.T) {
	insert := op.Insert{
		Table: "users",
		Values: expr.NewObject([]string{"name", "age"}, map[string]expr.Expression{
			"name": expr.Param{Name: "name"},
			"age":  expr.Param{Name: "age"},
		}),
		Returning: []string{"id"},
	}

	result, err := sqlgen.Generate(insert, nil, map[string]any{"name": "Ann", "age": 30}, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "users" ("name", "age") VALUES ($(name), $(age)) RETURNING "id"`, result.SQL)
	assert.Equal(t, map[string]any{"name": "Ann", "age": 30}, result.Params)
}

// TestUpdateWithWhere mirrors `update(ctx, "users").set({ age: p.age
// }).where(u => u.id == p.id)` on SQLite.
func TestUpdateWithWhere(t *testing.T) {
	update := op.Update{
		Table: "users",
		Set:   expr.NewObject([]string{"age"}, map[string]expr.Expression{"age": expr.Param{Name: "age"}}),
		Where: []expr.Expression{
			expr.Comparison{Operator: expr.Eq, Left: expr.Column{Name: "id"}, Right: expr.Param{Name: "id"}},
		},
	}

	result, err := sqlgen.Generate(update, nil, map[string]any{"age": 31, "id": 7}, dialect.SQLite)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "users" SET "age" = @age WHERE "id" = @id`, result.SQL)
	assert.Equal(t, map[string]any{"age": 31, "id": 7}, result.Params)
}

// TestDeleteWithArrayInSQLiteBindsIndexedElementsOnly is a regression
// test: a delete filtered by an array-valued `in` on SQLite must bind
// only the indexed siblings its rendered SQL references, never the raw
// slice under its base key (the driver cannot bind a slice directly).
func TestDeleteWithArrayInSQLiteBindsIndexedElementsOnly(t *testing.T) {
	del := op.Delete{
		Table: "orders",
		Where: []expr.Expression{
			expr.In{Value: expr.Column{Name: "id"}, List: expr.Param{Name: "ids"}},
		},
	}

	result, err := sqlgen.Generate(del, nil, map[string]any{"ids": []int{1, 2, 3}}, dialect.SQLite)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "orders" WHERE "id" IN (@ids_0, @ids_1, @ids_2)`, result.SQL)
	assert.Equal(t, map[string]any{"ids_0": 1, "ids_1": 2, "ids_2": 3}, result.Params)
	assert.NotContains(t, result.Params, "ids")
}

// TestDeleteWithArrayInPostgresBindsBaseKey covers the PostgreSQL side:
// the array is bound once under its own name for the ANY/ALL form.
func TestDeleteWithArrayInPostgresBindsBaseKey(t *testing.T) {
	del := op.Delete{
		Table: "orders",
		Where: []expr.Expression{
			expr.In{Value: expr.Column{Name: "id"}, List: expr.Param{Name: "ids"}},
		},
	}

	result, err := sqlgen.Generate(del, nil, map[string]any{"ids": []int{1, 2, 3}}, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "orders" WHERE "id" = ANY($(ids))`, result.SQL)
	assert.Equal(t, map[string]any{"ids": []int{1, 2, 3}}, result.Params)
}

// TestDeleteWithoutWhere mirrors a full-table delete where the
// generator itself does not enforce the missing-where guard (that
// lives in the chain recognizer); it simply omits the clause.
func TestDeleteWithoutWhere(t *testing.T) {
	del := op.Delete{Table: "sessions", AllowFullTableDelete: true}

	result, err := sqlgen.Generate(del, nil, nil, dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "sessions"`, result.SQL)
}
