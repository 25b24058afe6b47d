package convert

import (
	"github.com/dop251/goja/ast"

	"github.com/tinqerjs/tinqer-go/internal/errs"
)

// ArrowBody extracts an arrow function's body expression, accepting
// either the expression form (`=> expr`) or a block body containing a
// single return statement, matching the syntactic-parser contract.
func ArrowBody(arrow *ast.ArrowFunctionLiteral) (ast.Expression, error) {
	switch body := arrow.Body.(type) {
	case *ast.ExpressionBody:
		return body.Expression, nil
	case ast.Expression:
		return body, nil
	case *ast.BlockStatement:
		if len(body.List) != 1 {
			return nil, errs.New(errs.ParseFailed, "convert.ArrowBody", "block-bodied lambda must contain a single return statement")
		}

		ret, ok := body.List[0].(*ast.ReturnStatement)
		if !ok || ret.Argument == nil {
			return nil, errs.New(errs.ParseFailed, "convert.ArrowBody", "block-bodied lambda must contain a single return statement")
		}

		return ret.Argument, nil
	default:
		return nil, errs.New(errs.ParseFailed, "convert.ArrowBody", "unsupported arrow function body")
	}
}

// ArrowParamNames extracts an arrow function's simple identifier
// parameter names, in declaration order.
func ArrowParamNames(arrow *ast.ArrowFunctionLiteral) ([]string, error) {
	if arrow.ParameterList == nil {
		return nil, nil
	}

	names := make([]string, 0, len(arrow.ParameterList.List))

	for _, binding := range arrow.ParameterList.List {
		ident, ok := binding.Target.(*ast.Identifier)
		if !ok {
			return nil, errs.New(errs.ParseFailed, "convert.ArrowParamNames", "lambda parameters must be simple identifiers")
		}

		names = append(names, string(ident.Name))
	}

	return names, nil
}
