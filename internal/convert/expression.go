package convert

import (
	"github.com/dop251/goja/ast"

	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/expr"
)

// Expression converts a single lambda-body AST node into an
// expr.Expression, threading env (the lexical scope) and state (the
// shared auto-parameter bookkeeping) through every recursive call.
func Expression(env *Env, node ast.Expression, state *State) (expr.Expression, error) {
	switch n := node.(type) {
	case *ast.Identifier:
		return convertIdentifier(env, n)

	case *ast.DotExpression, *ast.BracketExpression:
		return convertMemberAccess(env, node)

	case *ast.NumberLiteral:
		return autoParamOrInline(state, n.Value, expr.TypeNumber, ""), nil

	case *ast.StringLiteral:
		return autoParamOrInline(state, string(n.Value), expr.TypeString, ""), nil

	case *ast.BooleanLiteral:
		return autoParamOrInline(state, n.Value, expr.TypeBoolean, ""), nil

	case *ast.NullLiteral:
		return expr.Constant{Value: nil, ValueType: expr.TypeNull}, nil

	case *ast.UnaryExpression:
		return convertUnary(env, n, state)

	case *ast.BinaryExpression:
		return convertBinary(env, n, state)

	case *ast.ConditionalExpression:
		return convertConditional(env, n, state)

	case *ast.CallExpression:
		return convertCall(env, n, state)

	case *ast.ObjectLiteral:
		return convertObject(env, n, state)

	case *ast.ArrayLiteral:
		return convertArray(env, n, state)

	case *ast.ParenthesizedExpression:
		return Expression(env, n.Expression, state)

	default:
		return nil, errs.New(errs.ParseFailed, "convert.Expression", "unsupported expression construct")
	}
}

func convertIdentifier(env *Env, n *ast.Identifier) (expr.Expression, error) {
	b, err := resolveBase(env, n)
	if err != nil {
		return nil, err
	}

	switch b.kind {
	case baseRow:
		// A bare row reference used directly, e.g. `where(active => active)`,
		// names the row's sole boolean column only when the table has an
		// implicit single column; callers normally reach this via a
		// member access instead. Treat it as a boolean column keyed by
		// the identifier's own name for the common `active => active`
		// shorthand is not derivable without a schema, so this is an
		// error in this compiler.
		return nil, errs.New(errs.UnboundIdentifier, "convert.convertIdentifier", "a bare row parameter cannot be used as a value; access a property")
	case baseTerminal:
		return b.terminal, nil
	default:
		return nil, errs.New(errs.UnboundIdentifier, "convert.convertIdentifier", "identifier does not resolve to a value")
	}
}

func convertMemberAccess(env *Env, node ast.Expression) (expr.Expression, error) {
	target := node
	if bracket, ok := node.(*ast.BracketExpression); ok {
		target = bracket.Left
	}

	b, err := resolveBase(env, target)
	if err != nil {
		return nil, err
	}

	if b.kind != baseTerminal {
		return nil, errs.New(errs.ProjectionTooComplex, "convert.convertMemberAccess", "member access did not resolve to a value")
	}

	return applyBracketIndex(node, b.terminal)
}

// applyBracketIndex handles the outermost BracketExpression of a
// member chain, e.g. `p.ids[0]`: resolveBase already turned `p.ids`
// into a Param, so this attaches the literal index from the bracket.
func applyBracketIndex(node ast.Expression, resolved expr.Expression) (expr.Expression, error) {
	bracket, ok := node.(*ast.BracketExpression)
	if !ok {
		return resolved, nil
	}

	param, ok := resolved.(expr.Param)
	if !ok {
		return nil, errs.New(errs.ParseFailed, "convert.applyBracketIndex", "indexing is only supported on query-parameter arrays")
	}

	numberLit, ok := bracket.Member.(*ast.NumberLiteral)
	if !ok {
		return nil, errs.New(errs.ParseFailed, "convert.applyBracketIndex", "array index must be a numeric literal")
	}

	var index int
	switch v := any(numberLit.Value).(type) {
	case int64:
		index = int(v)
	case float64:
		index = int(v)
	default:
		return nil, errs.New(errs.ParseFailed, "convert.applyBracketIndex", "array index must be a numeric literal")
	}

	param.HasIndex = true
	param.Index = index

	return param, nil
}

func autoParamOrInline(state *State, value any, valueType expr.ValueType, fieldName string) expr.Expression {
	name := state.nextAutoParamName(value, fieldName, "")
	return expr.Param{Name: name}
}

func convertUnary(env *Env, n *ast.UnaryExpression, state *State) (expr.Expression, error) {
	operand, err := Expression(env, n.Operand, state)
	if err != nil {
		return nil, err
	}

	switch n.Operator.String() {
	case "!":
		return expr.Not{Expression: operand}, nil
	case "-":
		if c, ok := operand.(expr.Constant); ok {
			if num, ok := c.Value.(float64); ok {
				return expr.Constant{Value: -num, ValueType: expr.TypeNumber}, nil
			}
		}

		return expr.Arithmetic{Operator: expr.Sub, Left: expr.Constant{Value: float64(0), ValueType: expr.TypeNumber}, Right: operand}, nil
	default:
		return nil, errs.Newf(errs.ParseFailed, "convert.convertUnary", "unsupported unary operator %q", n.Operator.String())
	}
}

func convertBinary(env *Env, n *ast.BinaryExpression, state *State) (expr.Expression, error) {
	left, err := Expression(env, n.Left, state)
	if err != nil {
		return nil, err
	}

	right, err := Expression(env, n.Right, state)
	if err != nil {
		return nil, err
	}

	switch n.Operator.String() {
	case "==", "===", "!=", "!==", ">", ">=", "<", "<=":
		RecordFieldContext(state, left, right)
	case "+":
		if !classifyConcat(n.Left, n.Right) {
			RecordFieldContext(state, left, right)
		}
	case "-", "*", "/", "%":
		RecordFieldContext(state, left, right)
	}

	switch n.Operator.String() {
	case "==", "===":
		return expr.Comparison{Operator: expr.Eq, Left: left, Right: right}, nil
	case "!=", "!==":
		return expr.Comparison{Operator: expr.Neq, Left: left, Right: right}, nil
	case ">":
		return expr.Comparison{Operator: expr.Gt, Left: left, Right: right}, nil
	case ">=":
		return expr.Comparison{Operator: expr.Gte, Left: left, Right: right}, nil
	case "<":
		return expr.Comparison{Operator: expr.Lt, Left: left, Right: right}, nil
	case "<=":
		return expr.Comparison{Operator: expr.Lte, Left: left, Right: right}, nil
	case "&&":
		return expr.Logical{Operator: expr.And, Left: left, Right: right}, nil
	case "||":
		isPredicate := func(e expr.Expression) bool {
			switch e.(type) {
			case expr.Comparison, expr.Logical, expr.Not, expr.BooleanMethod, expr.In:
				return true
			}
			return false
		}
		if isPredicate(left) || isPredicate(right) {
			return expr.Logical{Operator: expr.Or, Left: left, Right: right}, nil
		}

		if state.ForbidComplexProjection && state.InProjection {
			return nil, errs.New(errs.ProjectionTooComplex, "convert.convertBinary", "|| is not permitted in a pure-column projection")
		}

		return expr.Coalesce{Expressions: []expr.Expression{left, right}}, nil
	case "??":
		return expr.Coalesce{Expressions: []expr.Expression{left, right}}, nil
	case "+":
		if (state.ForbidComplexProjection && state.InProjection) && !isStringValued(n.Left) && !isStringValued(n.Right) {
			return nil, errs.New(errs.ProjectionTooComplex, "convert.convertBinary", "arithmetic is not permitted in a pure-column projection")
		}

		if classifyConcat(n.Left, n.Right) {
			return expr.Concat{Left: left, Right: right}, nil
		}

		return expr.Arithmetic{Operator: expr.Add, Left: left, Right: right}, nil
	case "-":
		return rejectInProjection(state, expr.Arithmetic{Operator: expr.Sub, Left: left, Right: right})
	case "*":
		return rejectInProjection(state, expr.Arithmetic{Operator: expr.Mul, Left: left, Right: right})
	case "/":
		return rejectInProjection(state, expr.Arithmetic{Operator: expr.Div, Left: left, Right: right})
	case "%":
		return rejectInProjection(state, expr.Arithmetic{Operator: expr.Mod, Left: left, Right: right})
	default:
		return nil, errs.Newf(errs.ParseFailed, "convert.convertBinary", "unsupported binary operator %q", n.Operator.String())
	}
}

func rejectInProjection(state *State, e expr.Arithmetic) (expr.Expression, error) {
	if state.ForbidComplexProjection && state.InProjection {
		return nil, errs.New(errs.ProjectionTooComplex, "convert.convertBinary", "arithmetic is not permitted in a pure-column projection")
	}

	return e, nil
}

// classifyConcat decides whether a `+` binary expression is string
// concatenation, based on the AST shape of its operands rather than
// the already-converted expr.Expression (so string-literal operands
// are detected before auto-parameter extraction erases their literal
// form).
func classifyConcat(left, right ast.Expression) bool {
	return isStringValued(left) || isStringValued(right)
}

func isStringValued(node ast.Expression) bool {
	switch n := node.(type) {
	case *ast.StringLiteral:
		return true
	case *ast.BinaryExpression:
		return n.Operator.String() == "+" && classifyConcat(n.Left, n.Right)
	case *ast.DotExpression:
		return looksStringish(string(n.Identifier.Name))
	case *ast.Identifier:
		return looksStringish(string(n.Name))
	default:
		return false
	}
}

func convertConditional(env *Env, n *ast.ConditionalExpression, state *State) (expr.Expression, error) {
	if state.ForbidComplexProjection && state.InProjection {
		return nil, errs.New(errs.ProjectionTooComplex, "convert.convertConditional", "conditional expressions are not permitted in a pure-column projection")
	}

	test, err := Expression(env, n.Test, state)
	if err != nil {
		return nil, err
	}

	then, err := Expression(env, n.Consequent, state)
	if err != nil {
		return nil, err
	}

	alt, err := Expression(env, n.Alternate, state)
	if err != nil {
		return nil, err
	}

	return expr.Conditional{Condition: test, Then: then, Else: alt}, nil
}

func convertArray(env *Env, n *ast.ArrayLiteral, state *State) (expr.Expression, error) {
	elements := make([]expr.Expression, 0, len(n.Value))

	for _, item := range n.Value {
		converted, err := Expression(env, item, state)
		if err != nil {
			return nil, err
		}

		elements = append(elements, converted)
	}

	return expr.Array{Elements: elements}, nil
}

func convertObject(env *Env, n *ast.ObjectLiteral, state *State) (expr.Expression, error) {
	names := make([]string, 0, len(n.Value))
	values := make(map[string]expr.Expression, len(n.Value))

	for _, prop := range n.Value {
		switch p := prop.(type) {
		case *ast.PropertyShort:
			name := string(p.Name.Name)

			converted, err := convertIdentifier(env, &ast.Identifier{Name: p.Name.Name})
			if err != nil {
				return nil, err
			}

			names = append(names, name)
			values[name] = converted

		case *ast.PropertyKeyed:
			name, err := propertyKeyName(p.Key)
			if err != nil {
				return nil, err
			}

			valueExpr, ok := p.Value.(ast.Expression)
			if !ok {
				return nil, errs.New(errs.ParseFailed, "convert.convertObject", "object property value must be an expression")
			}

			converted, err := Expression(env, valueExpr, state)
			if err != nil {
				return nil, err
			}

			names = append(names, name)
			values[name] = converted

		default:
			return nil, errs.New(errs.ParseFailed, "convert.convertObject", "unsupported object property form")
		}
	}

	return expr.NewObject(names, values), nil
}

// PropertyKeyName extracts an object property key's name, accepting
// both identifier and string-literal keys. Exported for callers (the
// chain package's join result-selector classifier) that need to walk
// ObjectLiteral properties without re-running full conversion.
func PropertyKeyName(key ast.Expression) (string, error) {
	return propertyKeyName(key)
}

func propertyKeyName(key ast.Expression) (string, error) {
	switch k := key.(type) {
	case *ast.Identifier:
		return string(k.Name), nil
	case *ast.StringLiteral:
		return string(k.Value), nil
	default:
		return "", errs.New(errs.ParseFailed, "convert.propertyKeyName", "object property keys must be identifiers or string literals")
	}
}
