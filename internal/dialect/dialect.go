// Package dialect isolates the handful of places PostgreSQL and SQLite
// disagree about SQL surface: the bound-parameter placeholder syntax,
// array-membership rendering, and RETURNING support. internal/sqlgen
// asks a Dialect for each of these instead of branching on a dialect
// name string at every call site.
package dialect

// Dialect renders the dialect-specific fragments the SQL generator
// cannot express in a dialect-neutral way.
type Dialect interface {
	// Name identifies the dialect for diagnostics and CLI flags.
	Name() string

	// Placeholder renders a bound-parameter reference for name.
	Placeholder(name string) string

	// SupportsReturning reports whether this dialect's driver can
	// execute an INSERT/UPDATE/DELETE statement carrying RETURNING.
	// The generator still emits RETURNING SQL regardless; only the
	// execution shell consults this.
	SupportsReturning() bool

	// RenderArrayIn renders membership of columnSQL against the array
	// bound to paramName (e.g. `p.ids` in `p.ids.includes(u.id)`).
	// negate renders the "not a member of" form. arrayLen is the
	// length of the array actually bound at compile time; PostgreSQL
	// ignores it (ANY/ALL are length-agnostic and empty-array safe),
	// SQLite uses it to expand an indexed placeholder list and to
	// special-case the empty array.
	RenderArrayIn(columnSQL, paramName string, negate bool, arrayLen int) string

	// UsesIndexedArrayParams reports whether RenderArrayIn references
	// paramName's indexed siblings (paramName_0, paramName_1, …)
	// instead of paramName itself. The expression emitter uses this to
	// decide which bound-parameter keys a rendered `in` expression
	// actually needs, so it never binds an unreferenced array value a
	// driver can't accept directly.
	UsesIndexedArrayParams() bool
}

// Postgres is the PostgreSQL dialect: `$(name)` named placeholders
// (the pg-promise convention) and `= ANY`/`<> ALL` array membership.
var Postgres Dialect = postgres{}

// SQLite is the SQLite dialect: `@name` placeholders and an expanded,
// indexed `IN (@list_0, @list_1, …)` array membership form.
var SQLite Dialect = sqlite{}
