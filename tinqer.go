// Package tinqer compiles a JavaScript-like arrow-function lambda
// chain into a parameterized SQL statement for PostgreSQL or SQLite.
// It is the public facade over the internal pipeline:
// tinqparse (parse) → chain (recognize + build) → sqlgen (generate),
// dialect-rendered via internal/dialect.
package tinqer

import (
	"strings"

	"github.com/tinqerjs/tinqer-go/internal/chain"
	"github.com/tinqerjs/tinqer-go/internal/dialect"
	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/exec"
	"github.com/tinqerjs/tinqer-go/internal/op"
	"github.com/tinqerjs/tinqer-go/internal/sqlgen"
	"github.com/tinqerjs/tinqer-go/internal/tinqparse"
)

// TableSchema describes one table's known columns, as declared by a
// caller through Table/Columns. The compiler does not currently use
// this beyond documenting the queryable surface; it exists so a
// future type-checked query builder has a schema to validate against
// without changing Compile's signature.
type TableSchema struct {
	Name    string
	Columns []string
}

// Columns is a small readability helper for building a TableSchema's
// column list: tinqer.Columns("id", "name") reads better at a call
// site than a bare []string literal.
func Columns(names ...string) []string {
	return names
}

// Context holds the set of tables a compiled query may reference.
// Tables are added fluently and Context is safe to share (read-only)
// across concurrent Compile calls once built.
type Context struct {
	tables map[string]TableSchema
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{tables: map[string]TableSchema{}}
}

// Table registers a table and its known columns, returning ctx so
// calls chain: NewContext().Table(...).Table(...).
func (ctx *Context) Table(name string, columns []string) *Context {
	ctx.tables[name] = TableSchema{Name: name, Columns: columns}
	return ctx
}

// FieldContext records the column a synthetic auto-parameter was
// compared or arithmetic'd against, for callers building field-aware
// diagnostics (e.g. "value out of range for users.age") from a
// compiled query's bound parameters.
type FieldContext struct {
	Value     any
	FieldName string
	TableName string
}

// CompileResult is the dialect-rendered SQL text and the subset of
// bound parameters the statement actually references, plus enough
// shape information for a caller to route execution through
// internal/exec without re-parsing source.
type CompileResult struct {
	SQL    string
	Params map[string]any

	// RootKind is "select", "insert", "update", or "delete", telling a
	// caller which Executor method routes this statement.
	RootKind string

	// Terminal classifies the read-path result shape (rows, a single
	// row, a scalar, or a bool). It is exec.TerminalRows for
	// insert/update/delete results, which route through
	// ExecuteInsert/ExecuteUpdate/ExecuteDelete instead.
	Terminal exec.TerminalKind
	// SingleRowMode only matters when Terminal is TerminalSingleRow;
	// it is the zero value otherwise.
	SingleRowMode exec.SingleRowMode

	// FieldContexts maps an auto-parameter name (e.g. "__p1") to the
	// column it was directly compared or arithmetic'd against, for the
	// subset of auto-parameters that had one. Not every entry in Params
	// has a FieldContexts entry.
	FieldContexts map[string]FieldContext
}

// Statement adapts a CompileResult into the exec.Statement shape
// Executor methods take.
func (r *CompileResult) Statement() exec.Statement {
	return exec.Statement{SQL: r.SQL, Params: r.Params, Terminal: r.Terminal}
}

// Options configures a single Compile call.
type Options struct {
	// ForbidComplexProjection rejects arithmetic/concat/conditional/
	// coalesce expressions inside a select body, for callers whose
	// target surface needs a pure column list.
	ForbidComplexProjection bool
}

// Compile parses source, recognizes and builds its operation chain
// against ctx, and renders it into d's SQL surface. params supplies
// the caller's bound values for any p.<name> reference in source;
// the auto-parameters the lambda converter extracts from inline
// literals are merged in automatically and never need to appear in
// params.
func Compile(d dialect.Dialect, ctx *Context, source string, params map[string]any, opts ...Options) (*CompileResult, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errs.New(errs.SourceUnavailable, "tinqer.Compile", "lambda chain source is empty")
	}

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	root, err := tinqparse.Parse(source)
	if err != nil {
		return nil, err
	}

	built, err := chain.Build(root, chain.Options{ForbidComplexProjection: o.ForbidComplexProjection})
	if err != nil {
		return nil, err
	}

	result, err := sqlgen.Generate(built.Tail, built.AutoParams, params, d)
	if err != nil {
		return nil, err
	}

	kind, mode := terminalShape(result.Terminal)

	fieldContexts := make(map[string]FieldContext, len(built.FieldContexts))
	for name, fc := range built.FieldContexts {
		fieldContexts[name] = FieldContext{Value: fc.Value, FieldName: fc.FieldName, TableName: fc.TableName}
	}

	return &CompileResult{
		SQL:           result.SQL,
		Params:        result.Params,
		RootKind:      result.RootKind,
		Terminal:      kind,
		SingleRowMode: mode,
		FieldContexts: fieldContexts,
	}, nil
}

// terminalShape maps a compiled query's terminal operator to the
// execution shell's TerminalKind plus the SingleRowMode describing
// first/single/last's zero-or-one-row semantics.
func terminalShape(t op.TerminalKind) (exec.TerminalKind, exec.SingleRowMode) {
	switch t {
	case op.Count, op.Sum, op.Avg, op.Min, op.Max:
		return exec.TerminalScalar, exec.SingleRowMode{}
	case op.Any, op.All:
		return exec.TerminalBool, exec.SingleRowMode{}
	case op.First:
		return exec.TerminalSingleRow, exec.SingleRowMode{}
	case op.FirstOrDefault:
		return exec.TerminalSingleRow, exec.SingleRowMode{AllowDefault: true}
	case op.Single:
		return exec.TerminalSingleRow, exec.SingleRowMode{RequireExactlyOne: true}
	case op.SingleOrDefault:
		return exec.TerminalSingleRow, exec.SingleRowMode{RequireExactlyOne: true, AllowDefault: true}
	case op.Last:
		return exec.TerminalSingleRow, exec.SingleRowMode{FromEnd: true}
	case op.LastOrDefault:
		return exec.TerminalSingleRow, exec.SingleRowMode{FromEnd: true, AllowDefault: true}
	default:
		return exec.TerminalRows, exec.SingleRowMode{}
	}
}
