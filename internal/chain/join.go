package chain

import (
	"github.com/dop251/goja/ast"

	"github.com/tinqerjs/tinqer-go/internal/convert"
	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/expr"
	"github.com/tinqerjs/tinqer-go/internal/op"
)

// buildInnerSource compiles a join/selectMany argument that names
// another queryable source (`ctx.from("departments")`, optionally
// chained with its own where/select) into an operation tree rooted at
// a freshly aliased From.
func (b *builder) buildInnerSource(env *convert.Env, source ast.Expression) (op.Operation, convert.RowScope, error) {
	rootMethod, rootArgs, calls, err := unchain(source)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	if rootMethod != "from" {
		return nil, convert.RowScope{}, errs.New(errs.JoinShapeError, "chain.buildInnerSource", "a join/selectMany source must be a from(...) chain")
	}

	table, ok := stringArg(firstArg(rootArgs))
	if !ok {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildInnerSource", "from(table) requires a string table name")
	}

	alias := b.nextAlias()
	from := op.From{Table: table, AliasHint: alias}
	rowScope := convert.RowScope{Table: alias}

	return b.foldReadChain(env, from, rowScope, calls)
}

// convertKeySelector converts a join key-selector lambda, binding its
// single parameter to scope.
func (b *builder) convertKeySelector(env *convert.Env, arg ast.Expression, scope convert.RowScope) (expr.Expression, error) {
	arrow, ok := arrowArg(arg)
	if !ok {
		return nil, errs.New(errs.WrongArity, "chain.convertKeySelector", "a join key selector must be a lambda")
	}

	names, err := convert.ArrowParamNames(arrow)
	if err != nil {
		return nil, err
	}

	if len(names) != 1 {
		return nil, errs.New(errs.WrongArity, "chain.convertKeySelector", "a join key selector must take exactly one parameter")
	}

	lambdaEnv := env.WithRow(names[0], scope)

	body, err := convert.ArrowBody(arrow)
	if err != nil {
		return nil, err
	}

	return convert.Expression(lambdaEnv, body, b.state)
}

// buildJoin handles `.join(inner, outerKey, innerKey, resultSelector)`,
// producing an inner-join node and classifying the result selector per
// a join's pure-table-reference vs. completed-projection rule.
func (b *builder) buildJoin(env *convert.Env, outerTail op.Operation, outerScope convert.RowScope, args []ast.Expression) (op.Operation, convert.RowScope, bool, error) {
	if len(args) != 4 {
		return nil, convert.RowScope{}, false, errs.New(errs.WrongArity, "chain.buildJoin", "join(inner, outerKeySelector, innerKeySelector, resultSelector) requires four arguments")
	}

	innerTail, innerScope, err := b.buildInnerSource(env, args[0])
	if err != nil {
		return nil, convert.RowScope{}, false, err
	}

	outerKey, err := b.convertKeySelector(env, args[1], outerScope)
	if err != nil {
		return nil, convert.RowScope{}, false, err
	}

	innerKey, err := b.convertKeySelector(env, args[2], innerScope)
	if err != nil {
		return nil, convert.RowScope{}, false, err
	}

	resultArrow, ok := arrowArg(args[3])
	if !ok {
		return nil, convert.RowScope{}, false, errs.New(errs.WrongArity, "chain.buildJoin", "join's result selector must be a lambda")
	}

	names, err := convert.ArrowParamNames(resultArrow)
	if err != nil {
		return nil, convert.RowScope{}, false, err
	}

	if len(names) != 2 {
		return nil, convert.RowScope{}, false, errs.New(errs.WrongArity, "chain.buildJoin", "join's result selector must take exactly two parameters")
	}

	joinOp := op.Join{
		Base:       op.Base{Source: outerTail},
		Inner:      innerTail,
		OuterKey:   outerKey,
		InnerKey:   innerKey,
		JoinType:   op.JoinInner,
		OuterAlias: outerScope.Table,
		InnerAlias: innerScope.Table,
	}

	return b.buildResultSelector(env, joinOp, resultArrow, names[0], outerScope, names[1], innerScope)
}

// buildCrossJoin handles a bare `.selectMany(collectionSelector[,
// resultSelector])` whose collection selector returns another
// queryable source, rewriting it to a CROSS JOIN.
func (b *builder) buildCrossJoin(env *convert.Env, outerTail op.Operation, outerScope convert.RowScope, args []ast.Expression) (op.Operation, convert.RowScope, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildCrossJoin", "selectMany(collectionSelector[, resultSelector]) takes one or two arguments")
	}

	collectionArrow, ok := arrowArg(args[0])
	if !ok {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildCrossJoin", "selectMany's collection selector must be a lambda")
	}

	collectionBody, err := convert.ArrowBody(collectionArrow)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	if !isQueryable(collectionBody) {
		return nil, convert.RowScope{}, errs.New(errs.JoinShapeError, "chain.buildCrossJoin", "selectMany's collection selector must return a queryable source for a cross join")
	}

	innerTail, innerScope, err := b.buildInnerSource(env, collectionBody)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	joinOp := op.Join{
		Base:       op.Base{Source: outerTail},
		Inner:      innerTail,
		JoinType:   op.JoinCross,
		OuterAlias: outerScope.Table,
		InnerAlias: innerScope.Table,
	}

	if len(args) == 1 {
		return joinOp, convert.RowScope{}, nil
	}

	resultArrow, ok := arrowArg(args[1])
	if !ok {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildCrossJoin", "selectMany's result selector must be a lambda")
	}

	names, err := convert.ArrowParamNames(resultArrow)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	if len(names) != 2 {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildCrossJoin", "selectMany's result selector must take exactly two parameters")
	}

	tail, newScope, _, err := b.buildResultSelector(env, joinOp, resultArrow, names[0], outerScope, names[1], innerScope)

	return tail, newScope, err
}

// buildGroupJoinSelectMany recognizes `.groupJoin(inner, outerKey,
// innerKey, (u, g) => ({ user: u, g })).selectMany(x => x.g.defaultIfEmpty(),
// (x, dept) => ({...}))` and rewrites the pair into a single LEFT
// OUTER JOIN.
func (b *builder) buildGroupJoinSelectMany(env *convert.Env, outerTail op.Operation, outerScope convert.RowScope, groupJoinArgs, selectManyArgs []ast.Expression) (op.Operation, convert.RowScope, error) {
	if len(groupJoinArgs) != 4 {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildGroupJoinSelectMany", "groupJoin(inner, outerKeySelector, innerKeySelector, resultSelector) requires four arguments")
	}

	innerTail, innerScope, err := b.buildInnerSource(env, groupJoinArgs[0])
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	outerKey, err := b.convertKeySelector(env, groupJoinArgs[1], outerScope)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	innerKey, err := b.convertKeySelector(env, groupJoinArgs[2], innerScope)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	groupResultArrow, ok := arrowArg(groupJoinArgs[3])
	if !ok {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildGroupJoinSelectMany", "groupJoin's result selector must be a lambda")
	}

	groupNames, err := convert.ArrowParamNames(groupResultArrow)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	if len(groupNames) != 2 {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildGroupJoinSelectMany", "groupJoin's result selector must take exactly two parameters")
	}

	groupBody, err := convert.ArrowBody(groupResultArrow)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	groupObj, ok := groupBody.(*ast.ObjectLiteral)
	if !ok {
		return nil, convert.RowScope{}, errs.New(errs.JoinShapeError, "chain.buildGroupJoinSelectMany", "groupJoin's result selector must return a pure table-reference object")
	}

	outerParam, groupParam := groupNames[0], groupNames[1]

	var outerPropName, groupPropName string

	for _, prop := range groupObj.Value {
		name, valueNode, perr := objectProperty(prop)
		if perr != nil {
			return nil, convert.RowScope{}, perr
		}

		ident, ok := valueNode.(*ast.Identifier)
		if !ok {
			return nil, convert.RowScope{}, errs.New(errs.JoinShapeError, "chain.buildGroupJoinSelectMany", "groupJoin's result selector must be a pure table-reference object")
		}

		switch string(ident.Name) {
		case outerParam:
			outerPropName = name
		case groupParam:
			groupPropName = name
		default:
			return nil, convert.RowScope{}, errs.New(errs.UnboundIdentifier, "chain.buildGroupJoinSelectMany", "groupJoin's result selector references an unbound identifier")
		}
	}

	if outerPropName == "" || groupPropName == "" {
		return nil, convert.RowScope{}, errs.New(errs.JoinShapeError, "chain.buildGroupJoinSelectMany", "groupJoin's result selector must expose both the outer row and the grouped collection")
	}

	if len(selectManyArgs) != 2 {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildGroupJoinSelectMany", "selectMany(collectionSelector, resultSelector) requires two arguments after a groupJoin")
	}

	collectionArrow, ok := arrowArg(selectManyArgs[0])
	if !ok {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildGroupJoinSelectMany", "selectMany's collection selector must be a lambda")
	}

	collectionNames, err := convert.ArrowParamNames(collectionArrow)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	if len(collectionNames) != 1 {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildGroupJoinSelectMany", "selectMany's collection selector must take exactly one parameter")
	}

	collectionBody, err := convert.ArrowBody(collectionArrow)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	if err := validateDefaultIfEmpty(collectionBody, collectionNames[0], groupPropName); err != nil {
		return nil, convert.RowScope{}, err
	}

	resultArrow, ok := arrowArg(selectManyArgs[1])
	if !ok {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildGroupJoinSelectMany", "selectMany's result selector must be a lambda")
	}

	resultNames, err := convert.ArrowParamNames(resultArrow)
	if err != nil {
		return nil, convert.RowScope{}, err
	}

	if len(resultNames) != 2 {
		return nil, convert.RowScope{}, errs.New(errs.WrongArity, "chain.buildGroupJoinSelectMany", "selectMany's result selector must take exactly two parameters")
	}

	// The groupJoin composite (`x`) resolves its outer-row property
	// through a one-entry symbol table; the unwrapped grouped row
	// binds directly under the selectMany result selector's second
	// parameter name.
	compositeSymbols := op.NewSymbolTable()
	compositeSymbols.TableRefs[outerPropName] = outerScope.Table
	compositeScope := convert.RowScope{Symbols: compositeSymbols}

	joinOp := op.Join{
		Base:       op.Base{Source: outerTail},
		Inner:      innerTail,
		OuterKey:   outerKey,
		InnerKey:   innerKey,
		JoinType:   op.JoinLeft,
		OuterAlias: outerScope.Table,
		InnerAlias: innerScope.Table,
	}

	tail, newScope, _, err := b.buildResultSelector(env, joinOp, resultArrow, resultNames[0], compositeScope, resultNames[1], innerScope)

	return tail, newScope, err
}

// validateDefaultIfEmpty checks that a groupJoin's paired selectMany
// collection selector has the required `x.<group>.defaultIfEmpty()`
// shape that marks the rewrite as a LEFT OUTER JOIN.
func validateDefaultIfEmpty(body ast.Expression, paramName, groupPropName string) error {
	call, ok := body.(*ast.CallExpression)
	if !ok || len(call.ArgumentList) != 0 {
		return errs.New(errs.JoinShapeError, "chain.validateDefaultIfEmpty", "groupJoin must be followed by selectMany(g => g.<group>.defaultIfEmpty(), ...)")
	}

	dot, ok := call.Callee.(*ast.DotExpression)
	if !ok || string(dot.Identifier.Name) != "defaultIfEmpty" {
		return errs.New(errs.JoinShapeError, "chain.validateDefaultIfEmpty", "groupJoin must be followed by selectMany(g => g.<group>.defaultIfEmpty(), ...)")
	}

	groupAccess, ok := dot.Left.(*ast.DotExpression)
	if !ok {
		return errs.New(errs.JoinShapeError, "chain.validateDefaultIfEmpty", "defaultIfEmpty must be called on the grouped collection property")
	}

	ident, ok := groupAccess.Left.(*ast.Identifier)
	if !ok || string(ident.Name) != paramName || string(groupAccess.Identifier.Name) != groupPropName {
		return errs.New(errs.JoinShapeError, "chain.validateDefaultIfEmpty", "defaultIfEmpty must be called on the grouped collection property")
	}

	return nil
}

// buildResultSelector classifies a two-parameter join/selectMany
// result-selector object literal: if every property is a bare
// table-reference (resolves via convert.ResolveRowRef), it builds a
// symbol table and requires a following select; if every property is
// a computed field, it builds the completed projection directly as an
// op.Select. Mixing the two is a JoinShapeError.
func (b *builder) buildResultSelector(env *convert.Env, source op.Operation, resultArrow *ast.ArrowFunctionLiteral, nameA string, scopeA convert.RowScope, nameB string, scopeB convert.RowScope) (op.Operation, convert.RowScope, bool, error) {
	resultEnv := env.WithRow(nameA, scopeA).WithRow(nameB, scopeB)

	body, err := convert.ArrowBody(resultArrow)
	if err != nil {
		return nil, convert.RowScope{}, false, err
	}

	obj, ok := body.(*ast.ObjectLiteral)
	if !ok {
		return nil, convert.RowScope{}, false, errs.New(errs.JoinShapeError, "chain.buildResultSelector", "a join/selectMany result selector must return an object literal")
	}

	pureRefs := map[string]string{}

	var computedCount int

	for _, prop := range obj.Value {
		name, valueNode, perr := objectProperty(prop)
		if perr != nil {
			return nil, convert.RowScope{}, false, perr
		}

		if table, ok := convert.ResolveRowRef(resultEnv, valueNode); ok {
			pureRefs[name] = table
			continue
		}

		computedCount++
	}

	if len(pureRefs) > 0 && computedCount > 0 {
		return nil, convert.RowScope{}, false, errs.New(errs.JoinShapeError, "chain.buildResultSelector", "a join result selector mixes table references with field selections")
	}

	if len(pureRefs) > 0 {
		symbols := op.NewSymbolTable()
		for name, table := range pureRefs {
			symbols.TableRefs[name] = table
		}

		if j, ok := source.(op.Join); ok {
			j.ResultShape = symbols
			source = j
		}

		return source, convert.RowScope{Symbols: symbols}, true, nil
	}

	b.state.InProjection = true
	selector, err := convert.Expression(resultEnv, body, b.state)
	b.state.InProjection = false

	if err != nil {
		return nil, convert.RowScope{}, false, err
	}

	return op.Select{Base: op.Base{Source: source}, Selector: selector}, convert.RowScope{}, false, nil
}

// objectProperty extracts an object literal property's key name and
// value expression, accepting both shorthand and keyed forms.
func objectProperty(prop ast.Property) (string, ast.Expression, error) {
	switch p := prop.(type) {
	case *ast.PropertyShort:
		return string(p.Name.Name), &ast.Identifier{Name: p.Name.Name}, nil

	case *ast.PropertyKeyed:
		name, err := convert.PropertyKeyName(p.Key)
		if err != nil {
			return "", nil, err
		}

		valueExpr, ok := p.Value.(ast.Expression)
		if !ok {
			return "", nil, errs.New(errs.ParseFailed, "chain.objectProperty", "object property value must be an expression")
		}

		return name, valueExpr, nil

	default:
		return "", nil, errs.New(errs.ParseFailed, "chain.objectProperty", "unsupported object property form")
	}
}
