package compile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinqerjs/tinqer-go"
	"github.com/tinqerjs/tinqer-go/internal/exec"
	"github.com/tinqerjs/tinqer-go/internal/exec/pg"
	"github.com/tinqerjs/tinqer-go/internal/exec/sqlite"
	"github.com/tinqerjs/tinqer-go/log"
)

// addExecuteFlags registers the connection flags that opt a compile
// into actually running the statement, instead of just printing it.
func addExecuteFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("execute", false, "run the compiled statement against a real database instead of printing it")
	cmd.Flags().String("host", "", "PostgreSQL host (default 127.0.0.1)")
	cmd.Flags().Uint16("port", 0, "PostgreSQL port (default 5432)")
	cmd.Flags().String("user", "", "PostgreSQL user (default postgres)")
	cmd.Flags().String("password", "", "PostgreSQL password (default postgres)")
	cmd.Flags().String("database", "", "PostgreSQL database name (default postgres)")
	cmd.Flags().String("schema", "", "PostgreSQL search_path schema (default public)")
	cmd.Flags().String("sqlite-path", "", "SQLite database file path (default: in-memory)")
}

// openExecutor dials the target database for dialectName using the
// connection flags, returning an exec.Executor the compiled statement
// can run through.
func openExecutor(cmd *cobra.Command, dialectName string) (exec.Executor, func() error, error) {
	logger := log.Named("tinqer-cli")

	switch dialectName {
	case "postgres", "postgresql", "pg":
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetUint16("port")
		user, _ := cmd.Flags().GetString("user")
		password, _ := cmd.Flags().GetString("password")
		database, _ := cmd.Flags().GetString("database")
		schema, _ := cmd.Flags().GetString("schema")

		executor, db, err := pg.Open(pg.ConnConfig{
			Host:     host,
			Port:     port,
			User:     user,
			Password: password,
			Database: database,
			Schema:   schema,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres connection: %w", err)
		}

		if version, err := pg.QueryVersion(db); err == nil {
			logger.Infof("connected to postgres: %s", version)
		}

		return executor, db.Close, nil

	case "sqlite", "sqlite3":
		path, _ := cmd.Flags().GetString("sqlite-path")

		executor, db, err := sqlite.Open(sqlite.ConnConfig{Path: path}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite connection: %w", err)
		}

		if version, err := sqlite.QueryVersion(db); err == nil {
			logger.Infof("connected to sqlite: %s", version)
		}

		return executor, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unrecognized dialect %q (want postgres or sqlite)", dialectName)
	}
}

// runExecute opens a real connection for dialectName, runs result
// through the Executor method its RootKind/Terminal selects, and
// prints the outcome as JSON.
func runExecute(cmd *cobra.Command, dialectName string, result *tinqer.CompileResult) error {
	executor, closeDB, err := openExecutor(cmd, dialectName)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := context.Background()
	stmt := result.Statement()

	var outcome any

	switch result.RootKind {
	case "insert":
		affected, err := executor.ExecuteInsert(ctx, stmt, exec.Options{})
		if err != nil {
			return fmt.Errorf("execute insert: %w", err)
		}

		outcome = map[string]any{"rowsAffected": affected}

	case "update":
		affected, err := executor.ExecuteUpdate(ctx, stmt, exec.Options{})
		if err != nil {
			return fmt.Errorf("execute update: %w", err)
		}

		outcome = map[string]any{"rowsAffected": affected}

	case "delete":
		affected, err := executor.ExecuteDelete(ctx, stmt, exec.Options{})
		if err != nil {
			return fmt.Errorf("execute delete: %w", err)
		}

		outcome = map[string]any{"rowsAffected": affected}

	default:
		if result.Terminal == exec.TerminalScalar || result.Terminal == exec.TerminalBool {
			outcome, err = executor.ExecuteSelectSimple(ctx, stmt, result.SingleRowMode, exec.Options{})
		} else {
			outcome, err = executor.ExecuteSelect(ctx, stmt, result.SingleRowMode, exec.Options{})
		}

		if err != nil {
			return fmt.Errorf("execute select: %w", err)
		}
	}

	encoded, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

	return err
}
