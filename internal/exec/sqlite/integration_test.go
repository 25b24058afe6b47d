package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinqerjs/tinqer-go"
	"github.com/tinqerjs/tinqer-go/internal/dialect"
	"github.com/tinqerjs/tinqer-go/internal/exec"
	"github.com/tinqerjs/tinqer-go/internal/exec/sqlite"
	"github.com/tinqerjs/tinqer-go/log"
)

func TestAnyAllAgainstRealConnection(t *testing.T) {
	executor, db, err := sqlite.Open(sqlite.ConnConfig{}, log.Named("sqlite_test"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, age INTEGER NOT NULL)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (id, age) VALUES (1, 17), (2, 20)`)
	require.NoError(t, err)

	ctx := context.Background()

	anyResult, err := tinqer.Compile(
		dialect.SQLite,
		tinqer.NewContext().Table("users", tinqer.Columns("id", "age")),
		`(q, p) => q.from("users").any(u => u.age > p.threshold)`,
		map[string]any{"threshold": 100},
	)
	require.NoError(t, err)

	got, err := executor.ExecuteSelectSimple(ctx, anyResult.Statement(), anyResult.SingleRowMode, exec.Options{})
	require.NoError(t, err)
	assert.Equal(t, false, got, "no row has age > 100, any() must report false, not the row-count bug")

	allResult, err := tinqer.Compile(
		dialect.SQLite,
		tinqer.NewContext().Table("users", tinqer.Columns("id", "age")),
		`(q, p) => q.from("users").all(u => u.age > p.threshold)`,
		map[string]any{"threshold": 0},
	)
	require.NoError(t, err)

	got, err = executor.ExecuteSelectSimple(ctx, allResult.Statement(), allResult.SingleRowMode, exec.Options{})
	require.NoError(t, err)
	assert.Equal(t, true, got, "every row has age > 0, all() must report true")
}

func TestQueryVersionReturnsSQLiteVersion(t *testing.T) {
	_, db, err := sqlite.Open(sqlite.ConnConfig{}, log.Named("sqlite_test"))
	require.NoError(t, err)
	defer db.Close()

	version, err := sqlite.QueryVersion(db)
	require.NoError(t, err)
	assert.NotEmpty(t, version)
}
