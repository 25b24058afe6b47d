// Package chain recognizes the outermost method-call chain rooted at
// `q.from(...)` (or `q.update`/`q.insert`/`q.deleteFrom`), classifies
// each call by operator name, and builds the typed op.Operation tree,
// converting every lambda argument through internal/convert.
package chain

import (
	"github.com/dop251/goja/ast"

	"github.com/tinqerjs/tinqer-go/internal/convert"
	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/op"
	"github.com/tinqerjs/tinqer-go/internal/tinqparse"
)

// Options configures how the chain is converted.
type Options struct {
	// ForbidComplexProjection rejects arithmetic/concat/conditional/
	// coalesce inside select bodies, for dialects whose projection
	// surface must stay a pure column list.
	ForbidComplexProjection bool
}

// Result is the chain recognizer's output: the built operation tree
// and the auto-parameters extracted while converting it.
type Result struct {
	Tail       op.Operation
	AutoParams map[string]any

	// FieldContexts records, for every auto-parameter extracted from a
	// literal compared or arithmetic'd directly against a column, which
	// column it was paired with. Auto-parameters with no such pairing
	// (e.g. a literal used only inside an object literal) have no entry.
	FieldContexts map[string]convert.FieldContext
}

// builder threads the shared conversion state and the monotone join
// alias counter through recursive chain construction.
type builder struct {
	state   *convert.State
	queryP  string
	aliasN  int
}

func (b *builder) nextAlias() string {
	alias := aliasName(b.aliasN)
	b.aliasN++

	return alias
}

func aliasName(n int) string {
	digits := []byte{byte('0' + n%10)}
	for n >= 10 {
		n /= 10
		digits = append([]byte{byte('0' + n%10)}, digits...)
	}

	return "t" + string(digits)
}

// Build walks root's body and returns the compiled operation tree.
func Build(root *tinqparse.Root, opts Options) (*Result, error) {
	b := &builder{state: convert.NewState(opts.ForbidComplexProjection)}

	if len(root.ParamNames) > 1 {
		b.queryP = root.ParamNames[1]
	}

	env := convert.NewEnv()
	if b.queryP != "" {
		env = env.WithQueryParam(b.queryP)
	}

	rootMethod, rootArgs, calls, err := unchain(root.Body)
	if err != nil {
		return nil, err
	}

	tail, err := b.buildRoot(env, rootMethod, rootArgs, calls)
	if err != nil {
		return nil, err
	}

	return &Result{Tail: tail, AutoParams: b.state.AutoParams, FieldContexts: b.state.FieldContexts}, nil
}

func (b *builder) buildRoot(env *convert.Env, rootMethod string, rootArgs []ast.Expression, calls []call) (op.Operation, error) {
	switch rootMethod {
	case "from":
		table, ok := stringArg(firstArg(rootArgs))
		if !ok {
			return nil, errs.New(errs.WrongArity, "chain.buildRoot", "from(table) requires a string table name")
		}

		alias := b.nextAlias()
		from := op.From{Table: table, AliasHint: alias}
		rowScope := convert.RowScope{Table: alias}

		tail, _, err := b.foldReadChain(env, from, rowScope, calls)

		return tail, err

	case "update":
		return b.buildUpdate(env, rootArgs, calls)

	case "insert":
		return b.buildInsert(env, rootArgs, calls)

	case "deleteFrom":
		return b.buildDelete(env, rootArgs, calls)

	default:
		return nil, errs.Newf(errs.UnknownOperator, "chain.buildRoot", "unrecognized chain root %q", rootMethod)
	}
}

func firstArg(args []ast.Expression) ast.Expression {
	if len(args) == 0 {
		return nil
	}

	return args[0]
}
