// Package op defines Tinqer's Operation tagged union: the linked
// chain of query-tree nodes the chain recognizer builds and the SQL
// generator walks. Each non-source node stores its upstream as
// Source, forming an immutable singly-linked tree per compile.
package op

import "github.com/tinqerjs/tinqer-go/internal/expr"

// Operation is implemented by every node kind in the tree.
type Operation interface {
	opNode()
	// Upstream returns the operation this node chains from, or nil
	// for a root (From, Insert, Update, Delete).
	Upstream() Operation
}

// Base carries the shared Source pointer so every non-root node gets
// Upstream() for free.
type Base struct {
	Source Operation
}

func (b Base) Upstream() Operation { return b.Source }

// JoinType enumerates the three join shapes the normalizer can
// produce.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "leftOuter"
	JoinCross JoinType = "cross"
)

// From is the root of a read-path chain: a table reference or a
// nested subquery operation tree.
type From struct {
	Table     string
	Schema    string
	Subquery  Operation // non-nil when this From wraps a nested query
	AliasHint string
}

func (From) opNode()             {}
func (From) Upstream() Operation { return nil }

// Where stacks a predicate onto the chain; multiple Where nodes are
// conjoined by the generator in chain order.
type Where struct {
	Base
	Predicate expr.Expression
}

func (Where) opNode() {}

// Select applies a projection selector.
type Select struct {
	Base
	Selector expr.Expression
}

func (Select) opNode() {}

// Join joins another operation tree using outer/inner key selectors
// and a result selector describing the joined shape.
type Join struct {
	Base
	Inner         Operation
	OuterKey      expr.Expression
	InnerKey      expr.Expression
	ResultShape   *SymbolTable
	JoinType      JoinType
	InnerAlias    string
	OuterAlias    string
}

func (Join) opNode() {}

// SymbolTable maps a result-selector property path to the column (and
// table alias) it resolves to, or marks it as a bare table reference
// whose members resolve through a nested lookup.
type SymbolTable struct {
	// Columns maps "propertyPath" -> qualified column.
	Columns map[string]SymbolColumn
	// TableRefs maps "propertyPath" -> table alias, for result
	// selectors like `(u, d) => ({u, d})`.
	TableRefs map[string]string
}

// SymbolColumn is a single resolved column reference in a join's
// symbol table.
type SymbolColumn struct {
	Table  string
	Column string
}

// NewSymbolTable builds an empty, ready-to-populate SymbolTable.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		Columns:   map[string]SymbolColumn{},
		TableRefs: map[string]string{},
	}
}

// LookupColumn resolves a projected property path to its underlying
// (table alias, column name) pair.
func (s *SymbolTable) LookupColumn(path string) (table, column string, ok bool) {
	col, found := s.Columns[path]
	if !found {
		return "", "", false
	}

	return col.Table, col.Column, true
}

// LookupTableRef resolves a projected property path to a bare
// table-reference alias, e.g. the `u` in `(u, d) => ({u, d})`.
func (s *SymbolTable) LookupTableRef(path string) (alias string, ok bool) {
	alias, found := s.TableRefs[path]
	return alias, found
}

// GroupBy introduces a grouping parameter for the following Select
// and OrderBy/ThenBy nodes.
type GroupBy struct {
	Base
	KeySelector expr.Expression
}

func (GroupBy) opNode() {}

// OrderBy begins an ordering; ThenBy nodes may stack after it.
type OrderBy struct {
	Base
	KeySelector expr.Expression
	Descending  bool
}

func (OrderBy) opNode() {}

// ThenBy stacks an additional ordering key after an OrderBy.
type ThenBy struct {
	Base
	KeySelector expr.Expression
	Descending  bool
}

func (ThenBy) opNode() {}

// Take limits the result set; Count is usually an auto-parameter
// reference carried in the compiled params map.
type Take struct {
	Base
	Count expr.Expression
}

func (Take) opNode() {}

// Skip offsets the result set.
type Skip struct {
	Base
	Count expr.Expression
}

func (Skip) opNode() {}

// Distinct deduplicates the result set.
type Distinct struct {
	Base
}

func (Distinct) opNode() {}

// Reverse records a `.reverse()` call. The SQL generator notes it but
// no clause consults it, so a chain renders the same SQL with or
// without it, including when a last/lastOrDefault follows.
type Reverse struct {
	Base
}

func (Reverse) opNode() {}

// TerminalKind enumerates the terminal operators that close a chain
// and decide its result shape.
type TerminalKind string

const (
	Count           TerminalKind = "count"
	Sum             TerminalKind = "sum"
	Avg             TerminalKind = "avg"
	Min             TerminalKind = "min"
	Max             TerminalKind = "max"
	First           TerminalKind = "first"
	FirstOrDefault  TerminalKind = "firstOrDefault"
	Single          TerminalKind = "single"
	SingleOrDefault TerminalKind = "singleOrDefault"
	Last            TerminalKind = "last"
	LastOrDefault   TerminalKind = "lastOrDefault"
	Any             TerminalKind = "any"
	All             TerminalKind = "all"
	ToArray         TerminalKind = "toArray"
)

// Terminal closes a read-path chain and selects its result shape.
// Selector holds the aggregate's target expression (sum/avg/min/max);
// it is nil for every other kind.
type Terminal struct {
	Base
	Kind      TerminalKind
	Selector  expr.Expression
	Predicate expr.Expression // inline predicate of any/all/first/single/last (and their OrDefault forms), if given
}

func (Terminal) opNode() {}

// Insert is a side-effecting root that inserts a row of Values.
type Insert struct {
	Table     string
	Schema    string
	Values    expr.Object
	Returning []string
}

func (Insert) opNode()             {}
func (Insert) Upstream() Operation { return nil }

// Update is a side-effecting root that sets columns on rows matched
// by an accumulated Where chain.
type Update struct {
	Table                string
	Schema               string
	Set                  expr.Object
	Where                []expr.Expression
	Returning            []string
	AllowFullTableUpdate bool
}

func (Update) opNode()             {}
func (Update) Upstream() Operation { return nil }

// Delete is a side-effecting root that removes rows matched by an
// accumulated Where chain.
type Delete struct {
	Table                string
	Schema               string
	Where                []expr.Expression
	Returning            []string
	AllowFullTableDelete bool
}

func (Delete) opNode()             {}
func (Delete) Upstream() Operation { return nil }

// Flatten walks an operation chain from its terminal node back to its
// root and returns the nodes in source-first order, the shape the SQL
// generator's clause orchestration consumes.
func Flatten(tail Operation) []Operation {
	var reversed []Operation

	for node := tail; node != nil; node = node.Upstream() {
		reversed = append(reversed, node)
	}

	out := make([]Operation, len(reversed))
	for i, node := range reversed {
		out[len(reversed)-1-i] = node
	}

	return out
}
