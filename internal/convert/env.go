// Package convert turns a lambda body AST (as produced by tinqparse)
// into an expr.Expression tree, tracking the lexical environment that
// distinguishes row parameters, query parameters, and grouping
// parameters, and extracting literal constants into auto-parameters
// along the way.
package convert

import (
	"github.com/tinqerjs/tinqer-go/internal/expr"
	"github.com/tinqerjs/tinqer-go/internal/op"
)

// RowScope describes what a row-parameter identifier is bound to:
// either a single table alias (unqualified column access), or a
// joined composite shape resolved through a SymbolTable (e.g. the `j`
// in `j.u.name` after an inner join's `(u, d) => ({u, d})`).
type RowScope struct {
	Table   string
	Symbols *op.SymbolTable
}

// GroupScope describes the lambda parameter introduced by groupBy: it
// exposes `.key` (the stored key selector) and aggregate methods
// scoped to the grouped table.
type GroupScope struct {
	Table string
	Key   expr.Expression
}

// Env is the lexical environment in effect while converting one
// lambda body. A fresh Env is built per operator-lambda call site; the
// State (auto-parameter counter and map) is shared across the whole
// compile.
type Env struct {
	Row        map[string]RowScope
	QueryParam string
	Group      map[string]GroupScope
}

// NewEnv builds an empty Env.
func NewEnv() *Env {
	return &Env{Row: map[string]RowScope{}, Group: map[string]GroupScope{}}
}

// WithRow returns a copy of env with an additional row-parameter
// binding, leaving the receiver untouched so sibling lambdas (e.g. a
// join's two key selectors) don't see each other's bindings.
func (e *Env) WithRow(name string, scope RowScope) *Env {
	next := e.clone()
	next.Row[name] = scope

	return next
}

// WithQueryParam returns a copy of env with the query-parameter name
// bound.
func (e *Env) WithQueryParam(name string) *Env {
	next := e.clone()
	next.QueryParam = name

	return next
}

// WithGroup returns a copy of env with a grouping-parameter binding.
func (e *Env) WithGroup(name string, scope GroupScope) *Env {
	next := e.clone()
	next.Group[name] = scope

	return next
}

func (e *Env) clone() *Env {
	next := &Env{
		Row:        make(map[string]RowScope, len(e.Row)+1),
		QueryParam: e.QueryParam,
		Group:      make(map[string]GroupScope, len(e.Group)+1),
	}

	for k, v := range e.Row {
		next.Row[k] = v
	}

	for k, v := range e.Group {
		next.Group[k] = v
	}

	return next
}

// FieldContext records the column a synthetic auto-parameter was
// compared or arithmetic'd against, used by callers that want to
// surface field-aware diagnostics.
type FieldContext struct {
	Value     any
	FieldName string
	TableName string
}

// State carries the per-compile mutable bookkeeping: the
// auto-parameter counter, the accumulated auto-parameter values, and
// whether the current conversion is inside a select projection (which
// may forbid computed expressions, per the adapter's
// ForbidComplexProjection flag).
type State struct {
	counter                 int
	AutoParams              map[string]any
	FieldContexts           map[string]FieldContext
	InProjection            bool
	ForbidComplexProjection bool
}

// NewState builds a fresh State for one compile call.
func NewState(forbidComplexProjection bool) *State {
	return &State{
		AutoParams:              map[string]any{},
		FieldContexts:           map[string]FieldContext{},
		ForbidComplexProjection: forbidComplexProjection,
	}
}

// nextAutoParamName allocates the next `__pN` name and records its
// value (and optional field context) in the shared state.
func (s *State) nextAutoParamName(value any, fieldName, tableName string) string {
	s.counter++
	name := autoParamPrefix(s.counter)
	s.AutoParams[name] = value

	if fieldName != "" {
		s.FieldContexts[name] = FieldContext{Value: value, FieldName: fieldName, TableName: tableName}
	}

	return name
}

// RecordFieldContext backfills a FieldContext for whichever side of a
// comparison or arithmetic expression is a bare auto-parameter, when
// the other side is a table column. Called after both operands of a
// binary expression have been converted, since autoParamOrInline runs
// before either side knows about its sibling.
func RecordFieldContext(state *State, left, right expr.Expression) {
	if col, ok := left.(expr.Column); ok {
		tagParamWithColumn(state, right, col)
		return
	}

	if col, ok := right.(expr.Column); ok {
		tagParamWithColumn(state, left, col)
	}
}

func tagParamWithColumn(state *State, candidate expr.Expression, col expr.Column) {
	p, ok := candidate.(expr.Param)
	if !ok || p.HasIndex || p.Property != "" {
		return
	}

	if _, exists := state.FieldContexts[p.Name]; exists {
		return
	}

	value, ok := state.AutoParams[p.Name]
	if !ok {
		return
	}

	state.FieldContexts[p.Name] = FieldContext{Value: value, FieldName: col.Name, TableName: col.Table}
}

func autoParamPrefix(n int) string {
	const prefix = "__p"

	digits := make([]byte, 0, 4)
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}

	if len(digits) == 0 {
		digits = []byte{'0'}
	}

	return prefix + string(digits)
}
