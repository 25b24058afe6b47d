package exec

import (
	"database/sql"

	"github.com/tinqerjs/tinqer-go/log"
)

// NewExecutor builds the shared raw-SQL executor used by both dialect
// packages, parameterized on the coercion function and RETURNING
// support the caller's driver needs.
func NewExecutor(db *sql.DB, logger log.Logger, coerceParams func(map[string]any) map[string]any, supportsReturning bool) Executor {
	return newRawExecutor(db, logger, coerceParams, supportsReturning)
}
