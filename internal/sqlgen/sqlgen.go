// Package sqlgen walks a normalized operation tree and renders it into
// dialect-specific SQL text plus the bound-parameter map the statement
// actually references, the "SQL Generator" stage of the compiler.
package sqlgen

import (
	"github.com/tinqerjs/tinqer-go/internal/dialect"
	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/op"
)

// Result is one compiled statement: its SQL text, the parameters it
// binds, and enough shape information for a caller to route execution
// without re-walking the operation tree.
type Result struct {
	SQL    string
	Params map[string]any

	// RootKind is "select", "insert", "update", or "delete".
	RootKind string

	// Terminal is the read-path terminal operator, or the empty
	// string when the chain has no terminal call (an explicit
	// toArray/toList gives op.ToArray). Unset for write-path results.
	Terminal op.TerminalKind
}

// Generate renders tail into a Result. autoParams and callerParams are
// merged (callerParams winning on name collision) before any
// placeholder is resolved, so array-valued parameters referenced by an
// `in` expression can be measured for SQLite's indexed expansion.
func Generate(tail op.Operation, autoParams, callerParams map[string]any, d dialect.Dialect) (*Result, error) {
	merged := make(map[string]any, len(autoParams)+len(callerParams))
	for k, v := range autoParams {
		merged[k] = v
	}

	for k, v := range callerParams {
		merged[k] = v
	}

	switch root := tail.(type) {
	case op.Insert:
		return generateInsert(root, merged, d)
	case op.Update:
		return generateUpdate(root, merged, d)
	case op.Delete:
		return generateDelete(root, merged, d)
	default:
		return generateSelect(tail, merged, d)
	}
}

// plan buckets a flattened read-path operation chain into the
// clause-relevant accumulators the generator assembles, in source
// order (so multiple `where`/`thenBy` nodes stack correctly).
type plan struct {
	root     op.From
	wheres   []op.Where
	joins    []op.Join
	selector op.Operation // the op.Select node, if any
	groupBy  *op.GroupBy
	orderBy  *op.OrderBy
	thenBys  []op.ThenBy
	take     op.Operation
	skip     op.Operation
	distinct bool
	reverse  bool
	terminal *op.Terminal
}

func buildPlan(tail op.Operation) (*plan, error) {
	nodes := op.Flatten(tail)
	if len(nodes) == 0 {
		return nil, errs.New(errs.ParseFailed, "sqlgen.buildPlan", "empty operation chain")
	}

	root, ok := nodes[0].(op.From)
	if !ok {
		return nil, errs.New(errs.ParseFailed, "sqlgen.buildPlan", "read-path chain must be rooted at from(...)")
	}

	p := &plan{root: root}

	for _, node := range nodes[1:] {
		switch n := node.(type) {
		case op.Where:
			p.wheres = append(p.wheres, n)
		case op.Join:
			p.joins = append(p.joins, n)
		case op.Select:
			p.selector = n
		case op.GroupBy:
			gb := n
			p.groupBy = &gb
		case op.OrderBy:
			ob := n
			p.orderBy = &ob
			p.thenBys = nil
		case op.ThenBy:
			p.thenBys = append(p.thenBys, n)
		case op.Take:
			p.take = n
		case op.Skip:
			p.skip = n
		case op.Distinct:
			p.distinct = true
		case op.Reverse:
			p.reverse = true
		case op.Terminal:
			t := n
			p.terminal = &t
		default:
			return nil, errs.Newf(errs.ParseFailed, "sqlgen.buildPlan", "unrecognized operation node %T", node)
		}
	}

	return p, nil
}

func (p *plan) hasJoins() bool { return len(p.joins) > 0 }
