// Package pg opens a PostgreSQL connection and exposes an
// exec.Executor over it.
package pg

import (
	"database/sql"
	"fmt"

	"github.com/samber/lo"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/tinqerjs/tinqer-go/constants"
	"github.com/tinqerjs/tinqer-go/internal/exec"
	"github.com/tinqerjs/tinqer-go/log"
)

// ConnConfig holds the connection fields this package needs, without
// pulling in a full application config package.
type ConnConfig struct {
	Host     string
	Port     uint16
	User     string
	Password string
	Database string
	Schema   string
}

// Open dials PostgreSQL via pgdriver and wraps the resulting *sql.DB
// in an exec.Executor. PostgreSQL supports RETURNING natively, so the
// executor never rejects a RETURNING statement.
func Open(cfg ConnConfig, logger log.Logger) (exec.Executor, *sql.DB, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithNetwork("tcp"),
		pgdriver.WithAddr(
			fmt.Sprintf(
				"%s:%d",
				lo.Ternary(cfg.Host != constants.Empty, cfg.Host, "127.0.0.1"),
				lo.Ternary(cfg.Port != 0, cfg.Port, uint16(5432)),
			),
		),
		pgdriver.WithInsecure(true),
		pgdriver.WithUser(lo.Ternary(cfg.User != constants.Empty, cfg.User, "postgres")),
		pgdriver.WithPassword(lo.Ternary(cfg.Password != constants.Empty, cfg.Password, "postgres")),
		pgdriver.WithDatabase(lo.Ternary(cfg.Database != constants.Empty, cfg.Database, "postgres")),
		pgdriver.WithApplicationName(constants.AppName),
		pgdriver.WithConnParams(map[string]any{
			"search_path": lo.Ternary(cfg.Schema != constants.Empty, cfg.Schema, "public"),
		}),
	)

	db := sql.OpenDB(connector)

	return exec.NewExecutor(db, logger, identityParams, true), db, nil
}

// identityParams leaves bound parameters untouched; PostgreSQL's
// driver accepts Go's native bool and time.Time values directly.
func identityParams(params map[string]any) map[string]any {
	return params
}

// QueryVersion reports the connected server's version string.
func QueryVersion(db *sql.DB) (string, error) {
	var version string

	row := db.QueryRow("select version()")

	return version, row.Scan(&version)
}
