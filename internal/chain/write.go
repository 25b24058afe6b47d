package chain

import (
	"github.com/dop251/goja/ast"

	"github.com/tinqerjs/tinqer-go/internal/convert"
	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/expr"
	"github.com/tinqerjs/tinqer-go/internal/op"
)

// buildUpdate handles `update(table).set({...}).where(...).returning(...)?
// .allowFullTableUpdate()?`, enforcing the MissingWhereGuard invariant
// (P5) unless the caller explicitly opts into a full-table update.
func (b *builder) buildUpdate(env *convert.Env, rootArgs []ast.Expression, calls []call) (op.Operation, error) {
	table, ok := stringArg(firstArg(rootArgs))
	if !ok {
		return nil, errs.New(errs.WrongArity, "chain.buildUpdate", "update(table) requires a string table name")
	}

	upd := op.Update{Table: table}
	rowScope := convert.RowScope{Table: ""}

	var hasSet bool

	for _, c := range calls {
		switch c.method {
		case "set":
			obj, err := b.convertMutationObject(env, firstArg(c.args))
			if err != nil {
				return nil, err
			}

			upd.Set = obj
			hasSet = true

		case "where":
			predicate, err := b.convertRowPredicate(env, firstArg(c.args), rowScope)
			if err != nil {
				return nil, err
			}

			upd.Where = append(upd.Where, predicate)

		case "returning":
			cols, err := stringListArgs(c.args)
			if err != nil {
				return nil, err
			}

			upd.Returning = cols

		case "allowFullTableUpdate":
			upd.AllowFullTableUpdate = true

		default:
			return nil, errs.Newf(errs.UnknownOperator, "chain.buildUpdate", "unrecognized operator %q in an update chain", c.method)
		}
	}

	if !hasSet {
		return nil, errs.New(errs.WrongArity, "chain.buildUpdate", "update requires a set(...) call")
	}

	if len(upd.Where) == 0 && !upd.AllowFullTableUpdate {
		return nil, errs.New(errs.MissingWhereGuard, "chain.buildUpdate", "update without a where clause requires allowFullTableUpdate()")
	}

	return upd, nil
}

// buildInsert handles `insert(table).values({...}).returning(...)?`.
func (b *builder) buildInsert(env *convert.Env, rootArgs []ast.Expression, calls []call) (op.Operation, error) {
	table, ok := stringArg(firstArg(rootArgs))
	if !ok {
		return nil, errs.New(errs.WrongArity, "chain.buildInsert", "insert(table) requires a string table name")
	}

	ins := op.Insert{Table: table}

	var hasValues bool

	for _, c := range calls {
		switch c.method {
		case "values":
			obj, err := b.convertMutationObject(env, firstArg(c.args))
			if err != nil {
				return nil, err
			}

			ins.Values = obj
			hasValues = true

		case "returning":
			cols, err := stringListArgs(c.args)
			if err != nil {
				return nil, err
			}

			ins.Returning = cols

		default:
			return nil, errs.Newf(errs.UnknownOperator, "chain.buildInsert", "unrecognized operator %q in an insert chain", c.method)
		}
	}

	if !hasValues {
		return nil, errs.New(errs.WrongArity, "chain.buildInsert", "insert requires a values(...) call")
	}

	return ins, nil
}

// buildDelete handles `deleteFrom(table).where(...).returning(...)?
// .allowFullTableDelete()?`, enforcing the same MissingWhereGuard
// invariant as buildUpdate.
func (b *builder) buildDelete(env *convert.Env, rootArgs []ast.Expression, calls []call) (op.Operation, error) {
	table, ok := stringArg(firstArg(rootArgs))
	if !ok {
		return nil, errs.New(errs.WrongArity, "chain.buildDelete", "deleteFrom(table) requires a string table name")
	}

	del := op.Delete{Table: table}
	rowScope := convert.RowScope{Table: ""}

	for _, c := range calls {
		switch c.method {
		case "where":
			predicate, err := b.convertRowPredicate(env, firstArg(c.args), rowScope)
			if err != nil {
				return nil, err
			}

			del.Where = append(del.Where, predicate)

		case "returning":
			cols, err := stringListArgs(c.args)
			if err != nil {
				return nil, err
			}

			del.Returning = cols

		case "allowFullTableDelete":
			del.AllowFullTableDelete = true

		default:
			return nil, errs.Newf(errs.UnknownOperator, "chain.buildDelete", "unrecognized operator %q in a deleteFrom chain", c.method)
		}
	}

	if len(del.Where) == 0 && !del.AllowFullTableDelete {
		return nil, errs.New(errs.MissingWhereGuard, "chain.buildDelete", "delete without a where clause requires allowFullTableDelete()")
	}

	return del, nil
}

// convertMutationObject converts an insert/update `values`/`set`
// argument, accepting either a plain object literal or a single-
// parameter lambda over the query-parameters object that returns one.
func (b *builder) convertMutationObject(env *convert.Env, arg ast.Expression) (expr.Object, error) {
	if arg == nil {
		return expr.Object{}, errs.New(errs.WrongArity, "chain.convertMutationObject", "values/set requires an object or lambda argument")
	}

	objNode := arg
	mutEnv := env

	if arrow, ok := arrowArg(arg); ok {
		names, err := convert.ArrowParamNames(arrow)
		if err != nil {
			return expr.Object{}, err
		}

		if len(names) == 1 {
			mutEnv = env.WithQueryParam(names[0])
		}

		body, err := convert.ArrowBody(arrow)
		if err != nil {
			return expr.Object{}, err
		}

		objNode = body
	}

	converted, err := convert.Expression(mutEnv, objNode, b.state)
	if err != nil {
		return expr.Object{}, err
	}

	obj, ok := converted.(expr.Object)
	if !ok {
		return expr.Object{}, errs.New(errs.ParseFailed, "chain.convertMutationObject", "values/set must be an object literal")
	}

	return obj, nil
}

// convertRowPredicate converts an update/delete where lambda, binding
// its single parameter to a row over the mutated table.
func (b *builder) convertRowPredicate(env *convert.Env, arg ast.Expression, rowScope convert.RowScope) (expr.Expression, error) {
	arrow, ok := arrowArg(arg)
	if !ok {
		return nil, errs.New(errs.WrongArity, "chain.convertRowPredicate", "where(predicate) requires a lambda")
	}

	names, err := convert.ArrowParamNames(arrow)
	if err != nil {
		return nil, err
	}

	if len(names) != 1 {
		return nil, errs.New(errs.WrongArity, "chain.convertRowPredicate", "where predicate must take exactly one parameter")
	}

	lambdaEnv := env.WithRow(names[0], rowScope)

	body, err := convert.ArrowBody(arrow)
	if err != nil {
		return nil, err
	}

	return convert.Expression(lambdaEnv, body, b.state)
}

// stringListArgs narrows a call's arguments to plain string literals,
// used for returning(...)'s column-name list.
func stringListArgs(args []ast.Expression) ([]string, error) {
	cols := make([]string, 0, len(args))

	for _, a := range args {
		s, ok := stringArg(a)
		if !ok {
			return nil, errs.New(errs.WrongArity, "chain.stringListArgs", "returning(...) takes only string column names")
		}

		cols = append(cols, s)
	}

	return cols, nil
}
