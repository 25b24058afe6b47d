package chain

import (
	"github.com/dop251/goja/ast"

	"github.com/tinqerjs/tinqer-go/internal/convert"
	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/op"
)

var terminalKinds = map[string]op.TerminalKind{
	"count":           op.Count,
	"sum":             op.Sum,
	"avg":             op.Avg,
	"average":         op.Avg,
	"min":             op.Min,
	"max":             op.Max,
	"first":           op.First,
	"firstOrDefault":  op.FirstOrDefault,
	"single":          op.Single,
	"singleOrDefault": op.SingleOrDefault,
	"last":            op.Last,
	"lastOrDefault":   op.LastOrDefault,
	"any":             op.Any,
	"all":             op.All,
	"toArray":         op.ToArray,
	"toList":          op.ToArray,
}

// foldReadChain processes every post-`from` call in a read-path chain,
// threading the current row (or grouping) scope and building up the
// operation tree in source order.
func (b *builder) foldReadChain(env *convert.Env, tail op.Operation, rowScope convert.RowScope, calls []call) (op.Operation, convert.RowScope, error) {
	var groupScope *convert.GroupScope

	var hasOrderBy bool

	bindCurrent := func(arrow *ast.ArrowFunctionLiteral) (*convert.Env, error) {
		names, err := convert.ArrowParamNames(arrow)
		if err != nil {
			return nil, err
		}

		if len(names) != 1 {
			return nil, errs.New(errs.WrongArity, "chain.foldReadChain", "lambda must take exactly one parameter")
		}

		if groupScope != nil {
			return env.WithGroup(names[0], *groupScope), nil
		}

		return env.WithRow(names[0], rowScope), nil
	}

	for i := 0; i < len(calls); i++ {
		c := calls[i]

		switch c.method {
		case "where":
			arrow, ok := arrowArg(firstArg(c.args))
			if !ok {
				return nil, rowScope, errs.New(errs.WrongArity, "chain.foldReadChain", "where(predicate) requires exactly one lambda")
			}

			lambdaEnv, err := bindCurrent(arrow)
			if err != nil {
				return nil, rowScope, err
			}

			body, err := convert.ArrowBody(arrow)
			if err != nil {
				return nil, rowScope, err
			}

			predicate, err := convert.Expression(lambdaEnv, body, b.state)
			if err != nil {
				return nil, rowScope, err
			}

			tail = op.Where{Base: op.Base{Source: tail}, Predicate: predicate}

		case "select":
			arrow, ok := arrowArg(firstArg(c.args))
			if !ok {
				return nil, rowScope, errs.New(errs.WrongArity, "chain.foldReadChain", "select(selector) requires exactly one lambda")
			}

			lambdaEnv, err := bindCurrent(arrow)
			if err != nil {
				return nil, rowScope, err
			}

			body, err := convert.ArrowBody(arrow)
			if err != nil {
				return nil, rowScope, err
			}

			b.state.InProjection = true
			selector, err := convert.Expression(lambdaEnv, body, b.state)
			b.state.InProjection = false

			if err != nil {
				return nil, rowScope, err
			}

			tail = op.Select{Base: op.Base{Source: tail}, Selector: selector}

		case "distinct":
			tail = op.Distinct{Base: op.Base{Source: tail}}

		case "reverse":
			tail = op.Reverse{Base: op.Base{Source: tail}}

		case "groupBy":
			arrow, ok := arrowArg(firstArg(c.args))
			if !ok {
				return nil, rowScope, errs.New(errs.WrongArity, "chain.foldReadChain", "groupBy(keySelector) requires exactly one lambda")
			}

			lambdaEnv, err := bindCurrent(arrow)
			if err != nil {
				return nil, rowScope, err
			}

			body, err := convert.ArrowBody(arrow)
			if err != nil {
				return nil, rowScope, err
			}

			keySelector, err := convert.Expression(lambdaEnv, body, b.state)
			if err != nil {
				return nil, rowScope, err
			}

			groupScope = &convert.GroupScope{Table: rowScope.Table, Key: keySelector}
			tail = op.GroupBy{Base: op.Base{Source: tail}, KeySelector: keySelector}

		case "orderBy", "orderByDescending":
			arrow, ok := arrowArg(firstArg(c.args))
			if !ok {
				return nil, rowScope, errs.New(errs.WrongArity, "chain.foldReadChain", "orderBy(keySelector) requires exactly one lambda")
			}

			lambdaEnv, err := bindCurrent(arrow)
			if err != nil {
				return nil, rowScope, err
			}

			body, err := convert.ArrowBody(arrow)
			if err != nil {
				return nil, rowScope, err
			}

			keySelector, err := convert.Expression(lambdaEnv, body, b.state)
			if err != nil {
				return nil, rowScope, err
			}

			tail = op.OrderBy{Base: op.Base{Source: tail}, KeySelector: keySelector, Descending: c.method == "orderByDescending"}
			hasOrderBy = true

		case "thenBy", "thenByDescending":
			if !hasOrderBy {
				return nil, rowScope, errs.New(errs.ParseFailed, "chain.foldReadChain", "thenBy must follow an orderBy")
			}

			arrow, ok := arrowArg(firstArg(c.args))
			if !ok {
				return nil, rowScope, errs.New(errs.WrongArity, "chain.foldReadChain", "thenBy(keySelector) requires exactly one lambda")
			}

			lambdaEnv, err := bindCurrent(arrow)
			if err != nil {
				return nil, rowScope, err
			}

			body, err := convert.ArrowBody(arrow)
			if err != nil {
				return nil, rowScope, err
			}

			keySelector, err := convert.Expression(lambdaEnv, body, b.state)
			if err != nil {
				return nil, rowScope, err
			}

			tail = op.ThenBy{Base: op.Base{Source: tail}, KeySelector: keySelector, Descending: c.method == "thenByDescending"}

		case "take":
			countExpr, err := convert.Expression(env, firstArg(c.args), b.state)
			if err != nil {
				return nil, rowScope, err
			}

			tail = op.Take{Base: op.Base{Source: tail}, Count: countExpr}

		case "skip":
			countExpr, err := convert.Expression(env, firstArg(c.args), b.state)
			if err != nil {
				return nil, rowScope, err
			}

			tail = op.Skip{Base: op.Base{Source: tail}, Count: countExpr}

		case "join":
			newTail, newScope, requireSelect, err := b.buildJoin(env, tail, rowScope, c.args)
			if err != nil {
				return nil, rowScope, err
			}

			if requireSelect && (i+1 >= len(calls) || calls[i+1].method != "select") {
				return nil, rowScope, errs.New(errs.JoinShapeError, "chain.foldReadChain", "a join with a pure table-reference result selector must be followed by select")
			}

			tail, rowScope = newTail, newScope

		case "groupJoin":
			if i+1 >= len(calls) || calls[i+1].method != "selectMany" {
				return nil, rowScope, errs.New(errs.JoinShapeError, "chain.foldReadChain", "groupJoin must be followed by selectMany(g => g.defaultIfEmpty(), ...)")
			}

			newTail, newScope, err := b.buildGroupJoinSelectMany(env, tail, rowScope, c.args, calls[i+1].args)
			if err != nil {
				return nil, rowScope, err
			}

			tail, rowScope = newTail, newScope
			i++

		case "selectMany":
			newTail, newScope, err := b.buildCrossJoin(env, tail, rowScope, c.args)
			if err != nil {
				return nil, rowScope, err
			}

			tail, rowScope = newTail, newScope

		default:
			if kind, ok := terminalKinds[c.method]; ok {
				terminalTail, err := b.buildTerminal(env, tail, rowScope, groupScope, kind, c.args)
				if err != nil {
					return nil, rowScope, err
				}

				return terminalTail, rowScope, nil
			}

			return nil, rowScope, errs.Newf(errs.UnknownOperator, "chain.foldReadChain", "unrecognized operator %q", c.method)
		}
	}

	return tail, rowScope, nil
}

func (b *builder) buildTerminal(env *convert.Env, tail op.Operation, rowScope convert.RowScope, groupScope *convert.GroupScope, kind op.TerminalKind, args []ast.Expression) (op.Operation, error) {
	term := op.Terminal{Base: op.Base{Source: tail}, Kind: kind}

	switch kind {
	case op.Sum, op.Avg, op.Min, op.Max:
		if len(args) == 1 {
			arrow, ok := arrowArg(args[0])
			if !ok {
				return nil, errs.New(errs.WrongArity, "chain.buildTerminal", "aggregate terminal requires a selector lambda")
			}

			names, err := convert.ArrowParamNames(arrow)
			if err != nil {
				return nil, err
			}

			if len(names) != 1 {
				return nil, errs.New(errs.WrongArity, "chain.buildTerminal", "aggregate selector must take exactly one parameter")
			}

			var lambdaEnv *convert.Env
			if groupScope != nil {
				lambdaEnv = env.WithGroup(names[0], *groupScope)
			} else {
				lambdaEnv = env.WithRow(names[0], rowScope)
			}

			body, err := convert.ArrowBody(arrow)
			if err != nil {
				return nil, err
			}

			selector, err := convert.Expression(lambdaEnv, body, b.state)
			if err != nil {
				return nil, err
			}

			term.Selector = selector
		}

	case op.Any, op.All,
		op.First, op.FirstOrDefault,
		op.Single, op.SingleOrDefault,
		op.Last, op.LastOrDefault:
		if len(args) == 1 {
			arrow, ok := arrowArg(args[0])
			if !ok {
				return nil, errs.New(errs.WrongArity, "chain.buildTerminal", "predicate argument must be a lambda")
			}

			names, err := convert.ArrowParamNames(arrow)
			if err != nil {
				return nil, err
			}

			lambdaEnv := env.WithRow(names[0], rowScope)

			body, err := convert.ArrowBody(arrow)
			if err != nil {
				return nil, err
			}

			predicate, err := convert.Expression(lambdaEnv, body, b.state)
			if err != nil {
				return nil, err
			}

			term.Predicate = predicate
		}
	}

	return term, nil
}

// isQueryable reports whether a collection-selector body resolves to
// another `from`-rooted chain (as opposed to a plain array property),
// the test the normalizer uses to decide selectMany's CROSS JOIN
// rewrite.
func isQueryable(body ast.Expression) bool {
	_, _, _, err := unchain(body)
	return err == nil
}
