// Package sqlite opens a SQLite connection and exposes an
// exec.Executor over it.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tinqerjs/tinqer-go/constants"
	"github.com/tinqerjs/tinqer-go/internal/exec"
	"github.com/tinqerjs/tinqer-go/log"
)

// ConnConfig holds the connection fields this package needs.
type ConnConfig struct {
	// Path is the database file path. An empty Path opens an in-memory
	// database.
	Path string
}

// dateLayout is the SQLite text representation required for
// time.Time-valued bound parameters.
const dateLayout = "2006-01-02 15:04:05"

// Open dials SQLite via sqliteshim and wraps the resulting *sql.DB in
// an exec.Executor. SQLite cannot execute RETURNING through this
// driver, so the executor rejects RETURNING statements at run time.
func Open(cfg ConnConfig, logger log.Logger) (exec.Executor, *sql.DB, error) {
	db, err := sql.Open(sqliteshim.ShimName, buildDSN(cfg))
	if err != nil {
		return nil, nil, err
	}

	return exec.NewExecutor(db, logger, coerceParams, false), db, nil
}

// buildDSN constructs the SQLite data source name, defaulting to a
// shared in-memory database when no path is given.
func buildDSN(cfg ConnConfig) string {
	if cfg.Path == constants.Empty {
		return ":memory:?cache=shared&mode=memory"
	}

	return cfg.Path + "?cache=shared"
}

// coerceParams rewrites bool params to 0/1 and time.Time params to
// SQLite's sortable text form; every other value passes through
// unchanged.
func coerceParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))

	for name, value := range params {
		switch v := value.(type) {
		case bool:
			if v {
				out[name] = 1
			} else {
				out[name] = 0
			}
		case time.Time:
			out[name] = v.UTC().Format(dateLayout)
		default:
			out[name] = value
		}
	}

	return out
}

// QueryVersion reports the linked SQLite library version.
func QueryVersion(db *sql.DB) (string, error) {
	var version string

	row := db.QueryRow("select sqlite_version()")

	return version, row.Scan(&version)
}
