package convert

import (
	"github.com/dop251/goja/ast"

	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/expr"
)

// groupAggregateMethods maps a grouping parameter's method name to the
// aggregate function it produces; "average" is accepted as an alias
// of "avg".
var groupAggregateMethods = map[string]expr.AggregateFunc{
	"count":   expr.AggCount,
	"sum":     expr.AggSum,
	"avg":     expr.AggAvg,
	"average": expr.AggAvg,
	"min":     expr.AggMin,
	"max":     expr.AggMax,
}

var booleanMethods = map[string]expr.BooleanMethodName{
	"startsWith": expr.StartsWith,
	"endsWith":   expr.EndsWith,
	"includes":   expr.Includes,
	"contains":   expr.Contains,
}

var stringMethods = map[string]expr.StringMethodName{
	"toLowerCase": expr.ToLowerCase,
	"toUpperCase": expr.ToUpperCase,
}

func convertCall(env *Env, n *ast.CallExpression, state *State) (expr.Expression, error) {
	dot, ok := n.Callee.(*ast.DotExpression)
	if !ok {
		return nil, errs.New(errs.ParseFailed, "convert.convertCall", "only method calls of the form object.method(...) are supported")
	}

	methodName := string(dot.Identifier.Name)

	if ident, isIdent := dot.Left.(*ast.Identifier); isIdent {
		if gs, isGroup := env.Group[string(ident.Name)]; isGroup {
			return convertGroupAggregate(env, gs, methodName, n.ArgumentList, state)
		}
	}

	if boolMethod, ok := booleanMethods[methodName]; ok {
		return convertBooleanMethod(env, dot.Left, boolMethod, n.ArgumentList, state)
	}

	if strMethod, ok := stringMethods[methodName]; ok {
		object, err := Expression(env, dot.Left, state)
		if err != nil {
			return nil, err
		}

		return expr.StringMethod{Object: object, Method: strMethod}, nil
	}

	return nil, errs.Newf(errs.UnknownOperator, "convert.convertCall", "unsupported method %q", methodName)
}

func convertGroupAggregate(env *Env, gs GroupScope, methodName string, args []ast.Expression, state *State) (expr.Expression, error) {
	fn, ok := groupAggregateMethods[methodName]
	if !ok {
		return nil, errs.Newf(errs.UnknownOperator, "convert.convertGroupAggregate", "unsupported grouping method %q", methodName)
	}

	if fn == expr.AggCount {
		if len(args) != 0 {
			return nil, errs.New(errs.WrongArity, "convert.convertGroupAggregate", "count() takes no arguments")
		}

		return expr.Aggregate{Function: expr.AggCount}, nil
	}

	if len(args) != 1 {
		return nil, errs.Newf(errs.WrongArity, "convert.convertGroupAggregate", "%s() takes exactly one selector argument", methodName)
	}

	arrow, ok := args[0].(*ast.ArrowFunctionLiteral)
	if !ok {
		return nil, errs.New(errs.ParseFailed, "convert.convertGroupAggregate", "aggregate selector must be an arrow function")
	}

	rowEnv, _, err := bindSingleRowParam(env, arrow, gs.Table)
	if err != nil {
		return nil, err
	}

	body, err := ArrowBody(arrow)
	if err != nil {
		return nil, err
	}

	selector, err := Expression(rowEnv, body, state)
	if err != nil {
		return nil, err
	}

	return expr.Aggregate{Function: fn, Expression: selector}, nil
}

func convertBooleanMethod(env *Env, objectNode ast.Expression, method expr.BooleanMethodName, args []ast.Expression, state *State) (expr.Expression, error) {
	if len(args) != 1 {
		return nil, errs.Newf(errs.WrongArity, "convert.convertBooleanMethod", "%s() takes exactly one argument", method)
	}

	argExpr, err := Expression(env, args[0], state)
	if err != nil {
		return nil, err
	}

	if method == expr.Includes {
		if base, err := resolveBase(env, objectNode); err == nil && base.kind == baseTerminal {
			if param, isParam := base.terminal.(expr.Param); isParam && !looksStringish(param.Property) && !looksStringish(param.Name) {
				return expr.In{Value: argExpr, List: param}, nil
			}
		}

		if arrayLit, ok := objectNode.(*ast.ArrayLiteral); ok {
			listExpr, err := convertArray(env, arrayLit, state)
			if err != nil {
				return nil, err
			}

			return expr.In{Value: argExpr, List: listExpr}, nil
		}
	}

	object, err := Expression(env, objectNode, state)
	if err != nil {
		return nil, err
	}

	return expr.BooleanMethod{Object: object, Method: method, Arguments: []expr.Expression{argExpr}}, nil
}

// bindSingleRowParam binds an arrow function's single parameter to a
// row scope over table; it is used for group aggregate selectors.
func bindSingleRowParam(env *Env, arrow *ast.ArrowFunctionLiteral, table string) (*Env, string, error) {
	if arrow.ParameterList == nil || len(arrow.ParameterList.List) != 1 {
		return nil, "", errs.New(errs.WrongArity, "convert.bindSingleRowParam", "selector lambda must take exactly one parameter")
	}

	ident, ok := arrow.ParameterList.List[0].Target.(*ast.Identifier)
	if !ok {
		return nil, "", errs.New(errs.ParseFailed, "convert.bindSingleRowParam", "selector lambda parameter must be a simple identifier")
	}

	name := string(ident.Name)

	return env.WithRow(name, RowScope{Table: table}), name, nil
}
