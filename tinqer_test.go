package tinqer_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinqerjs/tinqer-go"
	"github.com/tinqerjs/tinqer-go/internal/dialect"
	"github.com/tinqerjs/tinqer-go/internal/errs"
)

func TestCompileSimplePredicate(t *testing.T) {
	ctx := tinqer.NewContext().Table("users", tinqer.Columns("id", "name", "age"))

	result, err := tinqer.Compile(
		dialect.Postgres,
		ctx,
		`(q, p) => q.from("users").where(u => u.age > p.minAge)`,
		map[string]any{"minAge": 18},
	)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "age" > $(minAge)`, result.SQL)
	assert.Equal(t, map[string]any{"minAge": 18}, result.Params)
}

// TestDeleteWithoutWhereRequiresGuard covers the delete-path
// MissingWhereGuard invariant: a deleteFrom chain with no where clause
// and no explicit allowFullTableDelete() fails to compile.
func TestDeleteWithoutWhereRequiresGuard(t *testing.T) {
	ctx := tinqer.NewContext().Table("test_products", tinqer.Columns("id", "name"))

	_, err := tinqer.Compile(
		dialect.Postgres,
		ctx,
		`(q) => q.deleteFrom("test_products")`,
		nil,
	)
	require.Error(t, err)

	var compileErr *errs.CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, errs.MissingWhereGuard, compileErr.Kind)
}

// TestDeleteWithAllowFullTableDeleteBypassesGuard confirms the escape
// hatch compiles cleanly once the caller opts in explicitly.
func TestDeleteWithAllowFullTableDeleteBypassesGuard(t *testing.T) {
	ctx := tinqer.NewContext().Table("test_products", tinqer.Columns("id", "name"))

	result, err := tinqer.Compile(
		dialect.Postgres,
		ctx,
		`(q) => q.deleteFrom("test_products").allowFullTableDelete()`,
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "test_products"`, result.SQL)
}

func TestCompileEmptySourceFails(t *testing.T) {
	ctx := tinqer.NewContext()

	_, err := tinqer.Compile(dialect.Postgres, ctx, "", nil)
	require.Error(t, err)

	var compileErr *errs.CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, errs.SourceUnavailable, compileErr.Kind)
}

// TestCompileRecordsFieldContextForColumnComparison covers the
// auto-parameter naming rule: a literal compared directly against a
// column gets a FieldContext entry naming that column.
func TestCompileRecordsFieldContextForColumnComparison(t *testing.T) {
	ctx := tinqer.NewContext().Table("users", tinqer.Columns("id", "name", "age"))

	result, err := tinqer.Compile(
		dialect.Postgres,
		ctx,
		`(q) => q.from("users").where(u => u.age > 18)`,
		nil,
	)
	require.NoError(t, err)

	require.Len(t, result.FieldContexts, 1)

	for _, fc := range result.FieldContexts {
		assert.Equal(t, "age", fc.FieldName)
		assert.Equal(t, float64(18), fc.Value)
	}
}

// TestCompileOmitsFieldContextForStringConcat confirms a literal
// concatenated onto a column with `+` gets no FieldContext entry,
// since concatenation is not "arithmetic against a column" under
// spec.md §4.4's naming rule.
func TestCompileOmitsFieldContextForStringConcat(t *testing.T) {
	ctx := tinqer.NewContext().Table("users", tinqer.Columns("id", "name"))

	result, err := tinqer.Compile(
		dialect.Postgres,
		ctx,
		`(q) => q.from("users").select(u => ({ label: u.name + " (VIP)" }))`,
		nil,
	)
	require.NoError(t, err)
	assert.Empty(t, result.FieldContexts)
}

// TestCompileOmitsFieldContextOutsideColumnComparison confirms a
// literal with no paired column (here, inside an object literal) gets
// no FieldContext entry.
func TestCompileOmitsFieldContextOutsideColumnComparison(t *testing.T) {
	ctx := tinqer.NewContext().Table("users", tinqer.Columns("id", "name"))

	result, err := tinqer.Compile(
		dialect.Postgres,
		ctx,
		`(q) => q.from("users").select(u => ({ id: u.id, tag: "vip" }))`,
		nil,
	)
	require.NoError(t, err)
	assert.Empty(t, result.FieldContexts)
}

func TestCompileFirstOrDefaultSetsSingleRowMode(t *testing.T) {
	ctx := tinqer.NewContext().Table("users", tinqer.Columns("id", "name"))

	result, err := tinqer.Compile(
		dialect.Postgres,
		ctx,
		`(q) => q.from("users").firstOrDefault()`,
		nil,
	)
	require.NoError(t, err)
	assert.True(t, result.SingleRowMode.AllowDefault)
	assert.False(t, result.SingleRowMode.RequireExactlyOne)
}
