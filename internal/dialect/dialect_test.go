package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tinqerjs/tinqer-go/internal/dialect"
)

func TestPostgresPlaceholder(t *testing.T) {
	assert.Equal(t, "$(minAge)", dialect.Postgres.Placeholder("minAge"))
}

func TestSQLitePlaceholder(t *testing.T) {
	assert.Equal(t, "@minAge", dialect.SQLite.Placeholder("minAge"))
}

func TestPostgresSupportsReturning(t *testing.T) {
	assert.True(t, dialect.Postgres.SupportsReturning())
	assert.False(t, dialect.SQLite.SupportsReturning())
}

func TestPostgresRenderArrayIn(t *testing.T) {
	assert.Equal(t, `"id" = ANY($(ids))`, dialect.Postgres.RenderArrayIn(`"id"`, "ids", false, 3))
	assert.Equal(t, `"id" <> ALL($(ids))`, dialect.Postgres.RenderArrayIn(`"id"`, "ids", true, 3))

	// PostgreSQL's ANY/ALL form is length-agnostic: an empty bound
	// array is still rendered as a placeholder reference, not a
	// constant, since the driver can bind an empty array directly.
	assert.Equal(t, `"id" = ANY($(ids))`, dialect.Postgres.RenderArrayIn(`"id"`, "ids", false, 0))
}

func TestSQLiteRenderArrayIn(t *testing.T) {
	assert.Equal(t, `"id" IN (@ids_0, @ids_1, @ids_2)`, dialect.SQLite.RenderArrayIn(`"id"`, "ids", false, 3))
	assert.Equal(t, `NOT ("id" IN (@ids_0, @ids_1, @ids_2))`, dialect.SQLite.RenderArrayIn(`"id"`, "ids", true, 3))
}

func TestSQLiteRenderArrayInEmpty(t *testing.T) {
	assert.Equal(t, "FALSE", dialect.SQLite.RenderArrayIn(`"id"`, "ids", false, 0))
	assert.Equal(t, "TRUE", dialect.SQLite.RenderArrayIn(`"id"`, "ids", true, 0))
}

func TestUsesIndexedArrayParams(t *testing.T) {
	assert.False(t, dialect.Postgres.UsesIndexedArrayParams())
	assert.True(t, dialect.SQLite.UsesIndexedArrayParams())
}
