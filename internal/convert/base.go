package convert

import (
	"github.com/dop251/goja/ast"

	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/expr"
)

// baseKind classifies what an identifier-rooted member-access chain
// currently refers to, while it is still being resolved one `.prop`
// at a time.
type baseKind int

const (
	// baseRow means the chain so far names a single table's row;
	// accessing one more property yields a Column.
	baseRow baseKind = iota
	// baseRowComposite means the chain names a joined composite
	// shape; the next property is looked up in a SymbolTable.
	baseRowComposite
	// baseQueryParam means the chain names the caller's params
	// object; the next property (and optional index) yields a Param.
	baseQueryParam
	// baseGroup means the chain names the groupBy lambda parameter;
	// only `.key` may follow (aggregate method calls are handled by
	// the call-expression converter, not by member resolution).
	baseGroup
	// baseTerminal means the chain has already resolved to a concrete
	// Expression; no further member access is supported on it.
	baseTerminal
)

type base struct {
	kind     baseKind
	table    string
	symbols  symbolLookup
	param    string
	group    *GroupScope
	terminal expr.Expression
}

// symbolLookup is satisfied by *op.SymbolTable; defined as an
// interface here so this file doesn't need to import internal/op just
// for the two map lookups it performs.
type symbolLookup interface {
	LookupColumn(path string) (table, column string, ok bool)
	LookupTableRef(path string) (alias string, ok bool)
}

// resolveBase walks an identifier or member-access chain and returns
// what it currently names. Callers peel one DotExpression/
// BracketExpression at a time, calling resolveBase on the Left side
// first.
func resolveBase(env *Env, node ast.Expression) (base, error) {
	switch n := node.(type) {
	case *ast.Identifier:
		name := string(n.Name)

		if rs, ok := env.Row[name]; ok {
			if rs.Symbols != nil {
				return base{kind: baseRowComposite, symbols: rs.Symbols}, nil
			}

			return base{kind: baseRow, table: rs.Table}, nil
		}

		if env.QueryParam != "" && name == env.QueryParam {
			return base{kind: baseQueryParam, param: name}, nil
		}

		if gs, ok := env.Group[name]; ok {
			return base{kind: baseGroup, group: &gs}, nil
		}

		return base{}, errs.Newf(errs.UnboundIdentifier, "convert.resolveBase", "identifier %q is not a row, query, or grouping parameter", name)

	case *ast.DotExpression:
		inner, err := resolveBase(env, n.Left)
		if err != nil {
			return base{}, err
		}

		prop := string(n.Identifier.Name)

		return resolveProperty(inner, prop)

	default:
		return base{}, errs.New(errs.ParseFailed, "convert.resolveBase", "unsupported member-access base")
	}
}

// ResolveRowRef reports whether node is a bare reference to a table
// row: a row-parameter identifier, or a member access that resolves
// through a composite symbol table's table-ref entries, rather than a
// concrete column or other value. Join result-selector properties use
// this to decide whether they name a whole table (requiring a
// downstream select) or a computed field.
func ResolveRowRef(env *Env, node ast.Expression) (table string, ok bool) {
	b, err := resolveBase(env, node)
	if err != nil || b.kind != baseRow {
		return "", false
	}

	return b.table, true
}

func resolveProperty(inner base, prop string) (base, error) {
	switch inner.kind {
	case baseRowComposite:
		if table, column, ok := inner.symbols.LookupColumn(prop); ok {
			return base{kind: baseTerminal, terminal: expr.Column{Name: column, Table: table}}, nil
		}

		if alias, ok := inner.symbols.LookupTableRef(prop); ok {
			return base{kind: baseRow, table: alias}, nil
		}

		return base{}, errs.Newf(errs.UnboundIdentifier, "convert.resolveBase", "joined shape has no property %q", prop)

	case baseRow:
		return base{kind: baseTerminal, terminal: expr.Column{Name: prop, Table: inner.table}}, nil

	case baseQueryParam:
		return base{kind: baseTerminal, terminal: expr.Param{Name: inner.param, Property: prop}}, nil

	case baseGroup:
		if prop == "key" {
			return base{kind: baseTerminal, terminal: inner.group.Key}, nil
		}

		return base{}, errs.Newf(errs.UnboundIdentifier, "convert.resolveBase", "grouping parameter has no property %q", prop)

	default:
		return base{}, errs.New(errs.ParseFailed, "convert.resolveBase", "cannot access a property on an already-resolved expression")
	}
}
