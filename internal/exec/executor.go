// Package exec provides the optional execution shell that runs a
// tinqer.CompileResult against a real database connection. The
// compiler stages (internal/chain, internal/convert, internal/sqlgen,
// internal/dialect) never import this package; the tinqer facade
// imports it for the Statement, TerminalKind and SingleRowMode types a
// CompileResult carries. Opening an executor is left to the caller.
package exec

import (
	"context"
	"database/sql"
	"sort"

	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/guard"
	"github.com/tinqerjs/tinqer-go/log"
)

// SqlHook is invoked synchronously with the final SQL text and bound
// parameters before a statement runs. Callers use it for logging or
// for capturing the exact statement issued in tests.
type SqlHook func(sqlText string, params map[string]any)

// Options configures a single execution call.
type Options struct {
	// OnSql, if set, is called before the statement executes.
	OnSql SqlHook
}

// Statement is the minimal shape an Executor needs from a compiled
// query: the dialect-rendered SQL text, its bound parameters, and the
// terminal kind that decides how results are shaped.
type Statement struct {
	SQL      string
	Params   map[string]any
	Terminal TerminalKind
}

// TerminalKind mirrors the compiler's chain terminal and decides what
// shape ExecuteSelect returns.
type TerminalKind int8

const (
	// TerminalRows returns every matching row.
	TerminalRows TerminalKind = iota
	// TerminalSingleRow returns at most one row (first/firstOrDefault,
	// single/singleOrDefault, last/lastOrDefault).
	TerminalSingleRow
	// TerminalScalar returns a single numeric or aggregate value
	// (count, sum, average, min, max).
	TerminalScalar
	// TerminalBool returns a boolean (any/all).
	TerminalBool
)

// SingleRowMode distinguishes the first/single/last family and whether
// a missing row is an error or yields a nil default.
type SingleRowMode struct {
	// RequireExactlyOne rejects zero or multiple matches (single,
	// singleOrDefault's "at most one" half).
	RequireExactlyOne bool
	// AllowDefault returns nil instead of errs.NoElement when no row
	// matches.
	AllowDefault bool
	// FromEnd selects the last matching row instead of the first.
	FromEnd bool
}

// Executor runs compiled statements against a live connection. Each
// method wraps driver errors with fmt.Errorf("%w", ...) rather than
// retrying.
type Executor interface {
	// ExecuteSelect runs a SELECT statement and returns rows, a single
	// row, a scalar, or a bool depending on stmt.Terminal.
	ExecuteSelect(ctx context.Context, stmt Statement, mode SingleRowMode, opts Options) (any, error)
	// ExecuteSelectSimple runs a SELECT expected to return exactly one
	// column per row, for scalar and single-row terminals that skip
	// struct scanning.
	ExecuteSelectSimple(ctx context.Context, stmt Statement, mode SingleRowMode, opts Options) (any, error)
	// ExecuteInsert runs an INSERT and returns the number of rows
	// affected, or an error if stmt requests a RETURNING form this
	// executor cannot run.
	ExecuteInsert(ctx context.Context, stmt Statement, opts Options) (int64, error)
	// ExecuteUpdate runs an UPDATE and returns the number of rows
	// affected.
	ExecuteUpdate(ctx context.Context, stmt Statement, opts Options) (int64, error)
	// ExecuteDelete runs a DELETE and returns the number of rows
	// affected.
	ExecuteDelete(ctx context.Context, stmt Statement, opts Options) (int64, error)
}

// rawExecutor is the shared implementation behind the pg and sqlite
// executors; dialect-specific behavior (parameter coercion, RETURNING
// support) is injected via hooks.
type rawExecutor struct {
	db     *sql.DB
	logger log.Logger

	// coerceParams rewrites bound parameters for the target driver
	// (e.g. SQLite's bool→0/1 and time.Time→string coercion). Postgres
	// uses the identity function.
	coerceParams func(map[string]any) map[string]any

	// supportsReturning reports whether this driver can execute
	// INSERT/UPDATE statements with a RETURNING clause.
	supportsReturning bool

	// guard runs a defense-in-depth check over a mutation's rendered
	// SQL text before it executes.
	guard *guard.Guard
}

func newRawExecutor(db *sql.DB, logger log.Logger, coerce func(map[string]any) map[string]any, supportsReturning bool) *rawExecutor {
	return &rawExecutor{
		db:                db,
		logger:            logger,
		coerceParams:      coerce,
		supportsReturning: supportsReturning,
		guard:             guard.NewGuard(logger),
	}
}

func (e *rawExecutor) fireHook(stmt Statement, opts Options) {
	if opts.OnSql != nil {
		opts.OnSql(stmt.SQL, stmt.Params)
	}
}

// namedArgs converts a params map into driver named-argument values in
// a deterministic, dialect-agnostic way; pg/sqliteshim both accept
// sql.Named.
func namedArgs(params map[string]any) []any {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}

	sort.Strings(names)

	args := make([]any, 0, len(params))
	for _, name := range names {
		args = append(args, sql.Named(name, params[name]))
	}

	return args
}

func (e *rawExecutor) ExecuteSelect(ctx context.Context, stmt Statement, mode SingleRowMode, opts Options) (any, error) {
	e.fireHook(stmt, opts)

	rows, err := e.db.QueryContext(ctx, stmt.SQL, namedArgs(e.coerceParams(stmt.Params))...)
	if err != nil {
		return nil, errs.Wrap(errs.RuntimeUnsupported, "exec.select", err)
	}
	defer rows.Close()

	results, err := scanRowsToMaps(rows)
	if err != nil {
		return nil, errs.Wrap(errs.RuntimeUnsupported, "exec.select", err)
	}

	return shapeResults(results, stmt.Terminal, mode)
}

func (e *rawExecutor) ExecuteSelectSimple(ctx context.Context, stmt Statement, mode SingleRowMode, opts Options) (any, error) {
	e.fireHook(stmt, opts)

	rows, err := e.db.QueryContext(ctx, stmt.SQL, namedArgs(e.coerceParams(stmt.Params))...)
	if err != nil {
		return nil, errs.Wrap(errs.RuntimeUnsupported, "exec.selectSimple", err)
	}
	defer rows.Close()

	values, err := scanRowsToScalars(rows)
	if err != nil {
		return nil, errs.Wrap(errs.RuntimeUnsupported, "exec.selectSimple", err)
	}

	return shapeScalars(values, stmt.Terminal, mode)
}

func (e *rawExecutor) execMutation(ctx context.Context, stmt Statement, opts Options, op string) (int64, error) {
	if returningStatement(stmt.SQL) && !e.supportsReturning {
		return 0, errs.New(errs.RuntimeUnsupported, op, "this driver does not execute RETURNING statements")
	}

	if err := e.guard.Check(stmt.SQL); err != nil {
		return 0, errs.Wrap(errs.GuardRejected, op, err)
	}

	e.fireHook(stmt, opts)

	result, err := e.db.ExecContext(ctx, stmt.SQL, namedArgs(e.coerceParams(stmt.Params))...)
	if err != nil {
		return 0, errs.Wrap(errs.RuntimeUnsupported, op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errs.Wrap(errs.RuntimeUnsupported, op, err)
	}

	return affected, nil
}

func (e *rawExecutor) ExecuteInsert(ctx context.Context, stmt Statement, opts Options) (int64, error) {
	return e.execMutation(ctx, stmt, opts, "exec.insert")
}

func (e *rawExecutor) ExecuteUpdate(ctx context.Context, stmt Statement, opts Options) (int64, error) {
	return e.execMutation(ctx, stmt, opts, "exec.update")
}

func (e *rawExecutor) ExecuteDelete(ctx context.Context, stmt Statement, opts Options) (int64, error) {
	return e.execMutation(ctx, stmt, opts, "exec.delete")
}
