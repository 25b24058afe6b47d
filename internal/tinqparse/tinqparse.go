// Package tinqparse turns a caller-supplied lambda-chain source string
// into the root arrow-function AST node the chain recognizer walks.
// It is the thin "Syntactic Parser" stage of the pipeline: it owns
// nothing beyond invoking goja's parser and unwrapping the program
// down to a single expression.
package tinqparse

import (
	"github.com/dop251/goja/ast"

	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/js"
)

// Root is the parsed query-builder lambda: `(q, p) => q.from(...)...`
// or the side-effecting `(q, p) => q.update(...)...` forms. ParamNames
// holds the lambda's declared parameter names in order, typically
// ["q", "p"].
type Root struct {
	ParamNames []string
	Body       ast.Expression
}

// Parse parses source and extracts the single top-level arrow
// function's parameter names and body expression. A block body is
// only accepted when it is a single return statement, per the
// contract the syntactic-parser stage documents.
func Parse(source string) (*Root, error) {
	if source == "" {
		return nil, errs.New(errs.SourceUnavailable, "tinqparse.Parse", "empty lambda source")
	}

	program, err := js.Parse("query.js", source)
	if err != nil {
		return nil, errs.Wrap(errs.ParseFailed, "tinqparse.Parse", err)
	}

	expression, err := topLevelExpression(program)
	if err != nil {
		return nil, err
	}

	arrow, ok := expression.(*ast.ArrowFunctionLiteral)
	if !ok {
		return nil, errs.New(errs.ParseFailed, "tinqparse.Parse", "top-level source must be a single arrow function")
	}

	names, err := parameterNames(arrow)
	if err != nil {
		return nil, err
	}

	body, err := arrowBody(arrow)
	if err != nil {
		return nil, err
	}

	return &Root{ParamNames: names, Body: body}, nil
}

// topLevelExpression unwraps a Program down to its single top-level
// expression statement.
func topLevelExpression(program *js.AstProgram) (ast.Expression, error) {
	if len(program.Body) != 1 {
		return nil, errs.New(errs.ParseFailed, "tinqparse.Parse", "lambda source must contain exactly one statement")
	}

	stmt, ok := program.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, errs.New(errs.ParseFailed, "tinqparse.Parse", "top-level statement must be an expression")
	}

	return stmt.Expression, nil
}

// parameterNames extracts simple identifier parameter names from an
// arrow function's parameter list. Destructuring parameters are not
// part of the recognized construct set.
func parameterNames(arrow *ast.ArrowFunctionLiteral) ([]string, error) {
	if arrow.ParameterList == nil {
		return nil, nil
	}

	names := make([]string, 0, len(arrow.ParameterList.List))

	for _, binding := range arrow.ParameterList.List {
		ident, ok := binding.Target.(*ast.Identifier)
		if !ok {
			return nil, errs.New(errs.ParseFailed, "tinqparse.Parse", "lambda parameters must be simple identifiers")
		}

		names = append(names, string(ident.Name))
	}

	return names, nil
}

// arrowBody accepts either an expression body (`=> expr`) or a block
// body consisting of a single return statement (`=> { return expr }`).
func arrowBody(arrow *ast.ArrowFunctionLiteral) (ast.Expression, error) {
	switch body := arrow.Body.(type) {
	case *ast.ExpressionBody:
		return body.Expression, nil
	case ast.Expression:
		return body, nil
	case *ast.BlockStatement:
		if len(body.List) != 1 {
			return nil, errs.New(errs.ParseFailed, "tinqparse.Parse", "block-bodied lambda must contain a single return statement")
		}

		ret, ok := body.List[0].(*ast.ReturnStatement)
		if !ok {
			return nil, errs.New(errs.ParseFailed, "tinqparse.Parse", "block-bodied lambda must contain a single return statement")
		}

		if ret.Argument == nil {
			return nil, errs.New(errs.ParseFailed, "tinqparse.Parse", "return statement must return a value")
		}

		return ret.Argument, nil
	default:
		return nil, errs.New(errs.ParseFailed, "tinqparse.Parse", "unsupported arrow function body")
	}
}

// Identifier narrows an expression to a plain identifier name, used
// throughout the chain recognizer and converter to check "is this
// bare name `p` / `g` / a row parameter".
func Identifier(e ast.Expression) (string, bool) {
	ident, ok := e.(*ast.Identifier)
	if !ok {
		return "", false
	}

	return string(ident.Name), true
}
