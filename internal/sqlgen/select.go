package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tinqerjs/tinqer-go/constants"
	"github.com/tinqerjs/tinqer-go/internal/dialect"
	"github.com/tinqerjs/tinqer-go/internal/errs"
	"github.com/tinqerjs/tinqer-go/internal/expr"
	"github.com/tinqerjs/tinqer-go/internal/op"
)

func generateSelect(tail op.Operation, allParams map[string]any, d dialect.Dialect) (*Result, error) {
	p, err := buildPlan(tail)
	if err != nil {
		return nil, err
	}

	em := newEmitter(d, p.hasJoins(), allParams)

	if p.terminal != nil && (p.terminal.Kind == op.Any || p.terminal.Kind == op.All) {
		return generateExists(p, em)
	}

	wherePredicates, err := collectWherePredicates(p)
	if err != nil {
		return nil, err
	}

	selectSQL, err := buildSelectList(em, p)
	if err != nil {
		return nil, err
	}

	fromSQL, err := renderFrom(p.root, p.hasJoins())
	if err != nil {
		return nil, err
	}

	joinSQL, err := renderJoins(em, p.joins)
	if err != nil {
		return nil, err
	}

	whereSQL, err := renderWhere(em, wherePredicates)
	if err != nil {
		return nil, err
	}

	groupBySQL, err := renderGroupBy(em, p.groupBy)
	if err != nil {
		return nil, err
	}

	flipOrder := p.terminal != nil && (p.terminal.Kind == op.Last || p.terminal.Kind == op.LastOrDefault)

	orderBySQL, err := renderOrderBy(em, p.orderBy, p.thenBys, flipOrder)
	if err != nil {
		return nil, err
	}

	limitOffsetSQL, err := renderLimitOffset(em, p)
	if err != nil {
		return nil, err
	}

	var b strings.Builder

	b.WriteString("SELECT ")

	if p.distinct {
		b.WriteString("DISTINCT ")
	}

	b.WriteString(selectSQL)
	b.WriteString(" FROM ")
	b.WriteString(fromSQL)

	if joinSQL != "" {
		b.WriteString(constants.Space)
		b.WriteString(joinSQL)
	}

	if whereSQL != "" {
		b.WriteString(" WHERE ")
		b.WriteString(whereSQL)
	}

	if groupBySQL != "" {
		b.WriteString(" GROUP BY ")
		b.WriteString(groupBySQL)
	}

	if orderBySQL != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBySQL)
	}

	if limitOffsetSQL != "" {
		b.WriteString(constants.Space)
		b.WriteString(limitOffsetSQL)
	}

	terminal := op.TerminalKind("")
	if p.terminal != nil {
		terminal = p.terminal.Kind
	}

	return &Result{SQL: b.String(), Params: em.params, RootKind: "select", Terminal: terminal}, nil
}

// collectWherePredicates gathers every stacked `where` predicate plus
// a terminal first/single/last's inline predicate, in chain order.
func collectWherePredicates(p *plan) ([]expr.Expression, error) {
	preds := make([]expr.Expression, 0, len(p.wheres)+1)

	for _, w := range p.wheres {
		preds = append(preds, w.Predicate)
	}

	if p.terminal != nil && p.terminal.Predicate != nil {
		preds = append(preds, p.terminal.Predicate)
	}

	return preds, nil
}

func renderWhere(em *emitter, preds []expr.Expression) (string, error) {
	if len(preds) == 0 {
		return "", nil
	}

	parts := make([]string, len(preds))

	for i, pred := range preds {
		part, err := em.emit(pred)
		if err != nil {
			return "", err
		}

		parts[i] = part
	}

	if len(parts) == 1 {
		return parts[0], nil
	}

	return "(" + strings.Join(parts, " AND ") + ")", nil
}

func renderFrom(root op.From, hasJoins bool) (string, error) {
	table := quoteIdent(root.Table)
	if root.Schema != constants.Empty {
		table = quoteIdent(root.Schema) + constants.Dot + table
	}

	if !hasJoins {
		return table, nil
	}

	return fmt.Sprintf("%s AS %s", table, quoteIdent(root.AliasHint)), nil
}

// innerSource extracts the bare table reference and any stacked
// `where` predicates (filters applied before the join) from a join's
// inner operation tree. Any other inner node kind (select, groupBy,
// further joins, …) is not yet supported as a join source.
func innerSource(inner op.Operation) (op.From, []expr.Expression, error) {
	nodes := op.Flatten(inner)
	if len(nodes) == 0 {
		return op.From{}, nil, errs.New(errs.ParseFailed, "sqlgen.innerSource", "join source is empty")
	}

	from, ok := nodes[0].(op.From)
	if !ok {
		return op.From{}, nil, errs.New(errs.ParseFailed, "sqlgen.innerSource", "join source must be rooted at from(...)")
	}

	var preds []expr.Expression

	for _, node := range nodes[1:] {
		w, ok := node.(op.Where)
		if !ok {
			return op.From{}, nil, errs.Newf(errs.ParseFailed, "sqlgen.innerSource", "join source does not support %T before the join", node)
		}

		preds = append(preds, w.Predicate)
	}

	return from, preds, nil
}

func renderJoins(em *emitter, joins []op.Join) (string, error) {
	if len(joins) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(joins))

	for _, j := range joins {
		from, preds, err := innerSource(j.Inner)
		if err != nil {
			return "", err
		}

		table := quoteIdent(from.Table)
		if from.Schema != constants.Empty {
			table = quoteIdent(from.Schema) + constants.Dot + table
		}

		kind, err := joinKeyword(j.JoinType)
		if err != nil {
			return "", err
		}

		fragment := fmt.Sprintf("%s %s AS %s", kind, table, quoteIdent(j.InnerAlias))

		if j.JoinType != op.JoinCross {
			onParts := make([]string, 0, 1+len(preds))

			outerKey, err := em.emit(j.OuterKey)
			if err != nil {
				return "", err
			}

			innerKey, err := em.emit(j.InnerKey)
			if err != nil {
				return "", err
			}

			onParts = append(onParts, fmt.Sprintf("%s = %s", outerKey, innerKey))

			for _, pred := range preds {
				predSQL, err := em.emit(pred)
				if err != nil {
					return "", err
				}

				onParts = append(onParts, predSQL)
			}

			fragment += " ON " + strings.Join(onParts, " AND ")
		}

		parts = append(parts, fragment)
	}

	return strings.Join(parts, constants.Space), nil
}

func joinKeyword(t op.JoinType) (string, error) {
	switch t {
	case op.JoinInner:
		return "INNER JOIN", nil
	case op.JoinLeft:
		return "LEFT OUTER JOIN", nil
	case op.JoinCross:
		return "CROSS JOIN", nil
	default:
		return "", errs.Newf(errs.ParseFailed, "sqlgen.joinKeyword", "unrecognized join type %q", t)
	}
}

// buildSelectList implements the SELECT-list priority order: count,
// then sum/avg/min/max over the terminal's selector, then a select
// projection, then a bare `*`.
func buildSelectList(em *emitter, p *plan) (string, error) {
	if p.terminal != nil {
		switch p.terminal.Kind {
		case op.Count:
			return "COUNT(*)", nil
		case op.Sum, op.Avg, op.Min, op.Max:
			fn := map[op.TerminalKind]expr.AggregateFunc{
				op.Sum: expr.AggSum,
				op.Avg: expr.AggAvg,
				op.Min: expr.AggMin,
				op.Max: expr.AggMax,
			}[p.terminal.Kind]

			return em.emitAggregate(expr.Aggregate{Function: fn, Expression: p.terminal.Selector})
		}
	}

	if p.selector != nil {
		sel, ok := p.selector.(op.Select)
		if !ok {
			return "", errs.New(errs.ParseFailed, "sqlgen.buildSelectList", "selector node is not a select")
		}

		return renderProjection(em, sel.Selector)
	}

	return "*", nil
}

// renderProjection emits a select body: an Object becomes a
// comma-separated `expr AS "alias"` list in declaration order; any
// other expression (a bare column, a computed scalar) is emitted
// without an alias.
func renderProjection(em *emitter, selector expr.Expression) (string, error) {
	obj, ok := selector.(expr.Object)
	if !ok {
		return em.emit(selector)
	}

	parts := make([]string, len(obj.Names))

	for i, name := range obj.Names {
		valueExpr, ok := obj.Expressions[name]
		if !ok {
			return "", errs.Newf(errs.ParseFailed, "sqlgen.renderProjection", "projection is missing property %q", name)
		}

		valueSQL, err := em.emit(valueExpr)
		if err != nil {
			return "", err
		}

		parts[i] = fmt.Sprintf("%s AS %s", valueSQL, quoteIdent(name))
	}

	return strings.Join(parts, constants.CommaSpace), nil
}

func renderGroupBy(em *emitter, gb *op.GroupBy) (string, error) {
	if gb == nil {
		return "", nil
	}

	if obj, ok := gb.KeySelector.(expr.Object); ok {
		parts := make([]string, len(obj.Names))

		for i, name := range obj.Names {
			part, err := em.emit(obj.Expressions[name])
			if err != nil {
				return "", err
			}

			parts[i] = part
		}

		return strings.Join(parts, constants.CommaSpace), nil
	}

	return em.emit(gb.KeySelector)
}

func renderOrderBy(em *emitter, ob *op.OrderBy, thenBys []op.ThenBy, flip bool) (string, error) {
	if ob == nil {
		return "", nil
	}

	keys := make([]struct {
		key        expr.Expression
		descending bool
	}, 0, 1+len(thenBys))

	keys = append(keys, struct {
		key        expr.Expression
		descending bool
	}{ob.KeySelector, ob.Descending})

	for _, t := range thenBys {
		keys = append(keys, struct {
			key        expr.Expression
			descending bool
		}{t.KeySelector, t.Descending})
	}

	parts := make([]string, len(keys))

	for i, k := range keys {
		keySQL, err := em.emit(k.key)
		if err != nil {
			return "", err
		}

		descending := k.descending
		if flip {
			descending = !descending
		}

		if descending {
			parts[i] = keySQL + " DESC"
		} else {
			parts[i] = keySQL + " ASC"
		}
	}

	return strings.Join(parts, constants.CommaSpace), nil
}

var singleRowLimitKinds = map[op.TerminalKind]bool{
	op.First: true, op.FirstOrDefault: true,
	op.Single: true, op.SingleOrDefault: true,
	op.Last: true, op.LastOrDefault: true,
}

// renderLimitOffset emits LIMIT/OFFSET for pagination (`take`/`skip`)
// and for the single-row terminal family, which always caps at one
// row; `last`/`lastOrDefault` rely on renderOrderBy's direction flip
// (or an implicit `ORDER BY 1 DESC`) to select the right row.
func renderLimitOffset(em *emitter, p *plan) (string, error) {
	if p.terminal != nil && singleRowLimitKinds[p.terminal.Kind] {
		if (p.terminal.Kind == op.Last || p.terminal.Kind == op.LastOrDefault) && p.orderBy == nil {
			return "ORDER BY 1 DESC LIMIT 1", nil
		}

		return "LIMIT 1", nil
	}

	var b strings.Builder

	if p.take != nil {
		take, ok := p.take.(op.Take)
		if !ok {
			return "", errs.New(errs.ParseFailed, "sqlgen.renderLimitOffset", "take node has the wrong type")
		}

		countSQL, err := em.emit(take.Count)
		if err != nil {
			return "", err
		}

		b.WriteString("LIMIT ")
		b.WriteString(countSQL)
	}

	if p.skip != nil {
		skip, ok := p.skip.(op.Skip)
		if !ok {
			return "", errs.New(errs.ParseFailed, "sqlgen.renderLimitOffset", "skip node has the wrong type")
		}

		countSQL, err := em.emit(skip.Count)
		if err != nil {
			return "", err
		}

		if b.Len() > 0 {
			b.WriteString(constants.Space)
		}

		b.WriteString("OFFSET ")
		b.WriteString(countSQL)
	}

	return b.String(), nil
}

// generateExists implements the `any`/`all` EXISTS rewrite: the outer
// statement is a constant-shape boolean projection wrapping an inner
// query whose WHERE conjoins the chain's own predicates with (for
// `any`) the terminal's predicate or (for `all`) its negation.
func generateExists(p *plan, em *emitter) (*Result, error) {
	preds, err := collectWherePredicatesExists(p)
	if err != nil {
		return nil, err
	}

	fromSQL, err := renderFrom(p.root, p.hasJoins())
	if err != nil {
		return nil, err
	}

	joinSQL, err := renderJoins(em, p.joins)
	if err != nil {
		return nil, err
	}

	whereSQL, err := renderWhere(em, preds)
	if err != nil {
		return nil, err
	}

	var inner strings.Builder

	inner.WriteString("SELECT 1 FROM ")
	inner.WriteString(fromSQL)

	if joinSQL != "" {
		inner.WriteString(constants.Space)
		inner.WriteString(joinSQL)
	}

	if whereSQL != "" {
		inner.WriteString(" WHERE ")
		inner.WriteString(whereSQL)
	}

	var sql string

	if p.terminal.Kind == op.Any {
		sql = fmt.Sprintf("SELECT CASE WHEN EXISTS(%s) THEN 1 ELSE 0 END", inner.String())
	} else {
		sql = fmt.Sprintf("SELECT CASE WHEN NOT EXISTS(%s) THEN 1 ELSE 0 END", inner.String())
	}

	return &Result{SQL: sql, Params: em.params, RootKind: "select", Terminal: p.terminal.Kind}, nil
}

func collectWherePredicatesExists(p *plan) ([]expr.Expression, error) {
	preds := make([]expr.Expression, 0, len(p.wheres)+1)

	for _, w := range p.wheres {
		preds = append(preds, w.Predicate)
	}

	if p.terminal.Predicate == nil {
		return preds, nil
	}

	if p.terminal.Kind == op.All {
		preds = append(preds, expr.Not{Expression: p.terminal.Predicate})
	} else {
		preds = append(preds, p.terminal.Predicate)
	}

	return preds, nil
}
