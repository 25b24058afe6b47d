package sqlgen

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/tinqerjs/tinqer-go/constants"
	"github.com/tinqerjs/tinqer-go/internal/dialect"
	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/expr"
)

// emitter walks one query's Expression trees, rendering SQL text and
// recording every bound parameter it actually references (including
// the indexed siblings an array-valued parameter expands into) into
// params, the subset of allParams the generated statement needs.
type emitter struct {
	dialect   dialect.Dialect
	hasJoins  bool
	allParams map[string]any
	params    map[string]any
}

func newEmitter(d dialect.Dialect, hasJoins bool, allParams map[string]any) *emitter {
	return &emitter{dialect: d, hasJoins: hasJoins, allParams: allParams, params: map[string]any{}}
}

func quoteIdent(name string) string {
	return constants.DoubleQuote + name + constants.DoubleQuote
}

func (em *emitter) emitColumnRef(table, name string) string {
	if em.hasJoins && table != "" {
		return quoteIdent(table) + constants.Dot + quoteIdent(name)
	}

	return quoteIdent(name)
}

func (em *emitter) emit(e expr.Expression) (string, error) {
	switch n := e.(type) {
	case expr.Column:
		return em.emitColumnRef(n.Table, n.Name), nil

	case expr.Constant:
		return em.emitConstant(n), nil

	case expr.Param:
		return em.emitParam(n), nil

	case expr.Comparison:
		return em.emitComparison(n)

	case expr.Logical:
		left, err := em.emit(n.Left)
		if err != nil {
			return "", err
		}

		right, err := em.emit(n.Right)
		if err != nil {
			return "", err
		}

		op := "AND"
		if n.Operator == expr.Or {
			op = "OR"
		}

		return fmt.Sprintf("(%s %s %s)", left, op, right), nil

	case expr.Not:
		if in, ok := n.Expression.(expr.In); ok {
			return em.emitIn(in, true)
		}

		inner, err := em.emit(n.Expression)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("NOT (%s)", inner), nil

	case expr.Arithmetic:
		left, err := em.emit(n.Left)
		if err != nil {
			return "", err
		}

		right, err := em.emit(n.Right)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("(%s %s %s)", left, string(n.Operator), right), nil

	case expr.Concat:
		left, err := em.emit(n.Left)
		if err != nil {
			return "", err
		}

		right, err := em.emit(n.Right)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("%s || %s", left, right), nil

	case expr.StringMethod:
		obj, err := em.emit(n.Object)
		if err != nil {
			return "", err
		}

		switch n.Method {
		case expr.ToLowerCase:
			return fmt.Sprintf("LOWER(%s)", obj), nil
		case expr.ToUpperCase:
			return fmt.Sprintf("UPPER(%s)", obj), nil
		default:
			return "", errs.Newf(errs.ParseFailed, "sqlgen.emit", "unsupported string method %q", n.Method)
		}

	case expr.BooleanMethod:
		return em.emitBooleanMethod(n)

	case expr.Aggregate:
		return em.emitAggregate(n)

	case expr.Conditional:
		cond, err := em.emit(n.Condition)
		if err != nil {
			return "", err
		}

		then, err := em.emit(n.Then)
		if err != nil {
			return "", err
		}

		els, err := em.emit(n.Else)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("CASE WHEN %s THEN %s ELSE %s END", cond, then, els), nil

	case expr.Coalesce:
		parts := make([]string, len(n.Expressions))

		for i, sub := range n.Expressions {
			part, err := em.emit(sub)
			if err != nil {
				return "", err
			}

			parts[i] = part
		}

		return fmt.Sprintf("COALESCE(%s)", strings.Join(parts, constants.CommaSpace)), nil

	case expr.In:
		return em.emitIn(n, false)

	default:
		return "", errs.Newf(errs.ParseFailed, "sqlgen.emit", "unsupported expression node %T", e)
	}
}

func (em *emitter) emitConstant(n expr.Constant) string {
	switch n.ValueType {
	case expr.TypeNull:
		return "NULL"
	case expr.TypeBoolean:
		if b, _ := n.Value.(bool); b {
			return "TRUE"
		}

		return "FALSE"
	case expr.TypeNumber:
		if f, ok := n.Value.(float64); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}

		return fmt.Sprintf("%v", n.Value)
	case expr.TypeString:
		s, _ := n.Value.(string)
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	default:
		return "NULL"
	}
}

func paramBaseKey(p expr.Param) string {
	if p.Property != constants.Empty {
		return p.Property
	}

	return p.Name
}

func (em *emitter) emitParam(p expr.Param) string {
	baseKey := paramBaseKey(p)

	if !p.HasIndex {
		if v, ok := em.allParams[baseKey]; ok {
			em.params[baseKey] = v
		}

		return em.dialect.Placeholder(baseKey)
	}

	indexedKey := fmt.Sprintf("%s_%d", baseKey, p.Index)

	if v, ok := indexInto(em.allParams[baseKey], p.Index); ok {
		em.params[indexedKey] = v
	}

	return em.dialect.Placeholder(indexedKey)
}

// indexInto extracts element i from a slice-valued parameter using
// reflection, since the caller's params map holds `any` and the
// concrete element type (string, int, …) is not known to the
// generator.
func indexInto(arr any, i int) (any, bool) {
	if arr == nil {
		return nil, false
	}

	v := reflect.ValueOf(arr)
	if v.Kind() != reflect.Slice || i < 0 || i >= v.Len() {
		return nil, false
	}

	return v.Index(i).Interface(), true
}

func arrayLen(arr any) int {
	if arr == nil {
		return 0
	}

	v := reflect.ValueOf(arr)
	if v.Kind() != reflect.Slice {
		return 0
	}

	return v.Len()
}

var comparisonSQL = map[expr.ComparisonOp]string{
	expr.Eq:  "=",
	expr.Neq: "<>",
	expr.Gt:  ">",
	expr.Gte: ">=",
	expr.Lt:  "<",
	expr.Lte: "<=",
}

func isNullConstant(e expr.Expression) bool {
	c, ok := e.(expr.Constant)
	return ok && c.ValueType == expr.TypeNull
}

func (em *emitter) emitComparison(n expr.Comparison) (string, error) {
	if isNullConstant(n.Right) || isNullConstant(n.Left) {
		var sideSQL string

		var err error

		if isNullConstant(n.Right) {
			sideSQL, err = em.emit(n.Left)
		} else {
			sideSQL, err = em.emit(n.Right)
		}

		if err != nil {
			return "", err
		}

		switch n.Operator {
		case expr.Eq:
			return sideSQL + " IS NULL", nil
		case expr.Neq:
			return sideSQL + " IS NOT NULL", nil
		default:
			return "", errs.New(errs.ParseFailed, "sqlgen.emitComparison", "only == and != are valid against null")
		}
	}

	left, err := em.emit(n.Left)
	if err != nil {
		return "", err
	}

	right, err := em.emit(n.Right)
	if err != nil {
		return "", err
	}

	opSQL, ok := comparisonSQL[n.Operator]
	if !ok {
		return "", errs.Newf(errs.ParseFailed, "sqlgen.emitComparison", "unsupported comparison operator %q", n.Operator)
	}

	return fmt.Sprintf("%s %s %s", left, opSQL, right), nil
}

func (em *emitter) emitBooleanMethod(n expr.BooleanMethod) (string, error) {
	obj, err := em.emit(n.Object)
	if err != nil {
		return "", err
	}

	if len(n.Arguments) != 1 {
		return "", errs.New(errs.WrongArity, "sqlgen.emitBooleanMethod", "LIKE-backed methods take exactly one argument")
	}

	arg, err := em.emit(n.Arguments[0])
	if err != nil {
		return "", err
	}

	switch n.Method {
	case expr.StartsWith:
		return fmt.Sprintf("%s LIKE %s || '%s'", obj, arg, constants.Percent), nil
	case expr.EndsWith:
		return fmt.Sprintf("%s LIKE '%s' || %s", obj, constants.Percent, arg), nil
	case expr.Includes, expr.Contains:
		return fmt.Sprintf("%s LIKE '%s' || %s || '%s'", obj, constants.Percent, arg, constants.Percent), nil
	default:
		return "", errs.Newf(errs.ParseFailed, "sqlgen.emitBooleanMethod", "unsupported boolean method %q", n.Method)
	}
}

var aggregateSQL = map[expr.AggregateFunc]string{
	expr.AggSum: "SUM",
	expr.AggAvg: "AVG",
	expr.AggMin: "MIN",
	expr.AggMax: "MAX",
}

func (em *emitter) emitAggregate(n expr.Aggregate) (string, error) {
	if n.Function == expr.AggCount {
		return "COUNT(*)", nil
	}

	fn, ok := aggregateSQL[n.Function]
	if !ok {
		return "", errs.Newf(errs.ParseFailed, "sqlgen.emitAggregate", "unsupported aggregate function %q", n.Function)
	}

	if n.Expression == nil {
		return "", errs.New(errs.ParseFailed, "sqlgen.emitAggregate", "aggregate requires a selector expression")
	}

	inner, err := em.emit(n.Expression)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s(%s)", fn, inner), nil
}

func (em *emitter) emitIn(n expr.In, negate bool) (string, error) {
	valueSQL, err := em.emit(n.Value)
	if err != nil {
		return "", err
	}

	switch list := n.List.(type) {
	case expr.Array:
		return em.emitArrayLiteralIn(valueSQL, list, negate)
	case expr.Param:
		return em.emitArrayParamIn(valueSQL, list, negate)
	default:
		return "", errs.Newf(errs.ParseFailed, "sqlgen.emitIn", "unsupported membership list %T", n.List)
	}
}

func (em *emitter) emitArrayLiteralIn(valueSQL string, list expr.Array, negate bool) (string, error) {
	if len(list.Elements) == 0 {
		if negate {
			return "TRUE", nil
		}

		return "FALSE", nil
	}

	parts := make([]string, len(list.Elements))

	for i, elemExpr := range list.Elements {
		part, err := em.emit(elemExpr)
		if err != nil {
			return "", err
		}

		parts[i] = part
	}

	clause := fmt.Sprintf("%s IN (%s)", valueSQL, strings.Join(parts, constants.CommaSpace))
	if negate {
		return fmt.Sprintf("NOT (%s)", clause), nil
	}

	return clause, nil
}

// emitArrayParamIn binds only the parameter keys the rendered SQL
// actually references: SQLite's indexed expansion needs the array's
// elements under their indexed keys and never the array itself (a
// slice value the driver can't bind directly); PostgreSQL's ANY/ALL
// form references the array parameter by its base key instead.
func (em *emitter) emitArrayParamIn(valueSQL string, list expr.Param, negate bool) (string, error) {
	baseKey := paramBaseKey(list)
	bound := em.allParams[baseKey]
	length := arrayLen(bound)

	if em.dialect.UsesIndexedArrayParams() {
		for i := 0; i < length; i++ {
			if v, ok := indexInto(bound, i); ok {
				em.params[fmt.Sprintf("%s_%d", baseKey, i)] = v
			}
		}
	} else if v, ok := em.allParams[baseKey]; ok {
		em.params[baseKey] = v
	}

	return em.dialect.RenderArrayIn(valueSQL, baseKey, negate, length), nil
}
