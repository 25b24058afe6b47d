package chain

import (
	"github.com/dop251/goja/ast"

	"github.com/tinqerjs/tinqer-go/internal/errs"
)

// call is one recognized method call in a source-first chain, e.g.
// the `.where(...)` in `q.from("users").where(...)`.
type call struct {
	method string
	args   []ast.Expression
}

// unchain peels a nested CallExpression/DotExpression chain down to
// its root call (e.g. `q.from("users")` or `q.update("users")`) and
// returns the root's method name and arguments plus every subsequent
// call in source order.
func unchain(body ast.Expression) (rootMethod string, rootArgs []ast.Expression, calls []call, err error) {
	var reversed []call

	cur := body

	for {
		ce, ok := cur.(*ast.CallExpression)
		if !ok {
			return "", nil, nil, errs.New(errs.ParseFailed, "chain.unchain", "expected a method-call chain")
		}

		dot, ok := ce.Callee.(*ast.DotExpression)
		if !ok {
			return "", nil, nil, errs.New(errs.ParseFailed, "chain.unchain", "expected a method call of the form object.method(...)")
		}

		method := string(dot.Identifier.Name)

		if _, isIdent := dot.Left.(*ast.Identifier); isIdent {
			calls := make([]call, len(reversed))
			for i, c := range reversed {
				calls[len(reversed)-1-i] = c
			}

			return method, ce.ArgumentList, calls, nil
		}

		reversed = append(reversed, call{method: method, args: ce.ArgumentList})
		cur = dot.Left
	}
}

// stringArg extracts a plain string literal argument, used for table
// names and property lists.
func stringArg(e ast.Expression) (string, bool) {
	lit, ok := e.(*ast.StringLiteral)
	if !ok {
		return "", false
	}

	return string(lit.Value), true
}

// arrowArg narrows an argument to an arrow function literal.
func arrowArg(e ast.Expression) (*ast.ArrowFunctionLiteral, bool) {
	arrow, ok := e.(*ast.ArrowFunctionLiteral)
	return arrow, ok
}
