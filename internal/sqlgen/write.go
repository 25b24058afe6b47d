package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tinqerjs/tinqer-go/constants"
	"github.com/tinqerjs/tinqer-go/internal/dialect"
	"github.com/tinqerjs/tinqer-go/internal/op"
)

func qualifiedTable(table, schema string) string {
	if schema == constants.Empty {
		return quoteIdent(table)
	}

	return quoteIdent(schema) + constants.Dot + quoteIdent(table)
}

func renderReturning(returning []string) string {
	if len(returning) == 0 {
		return ""
	}

	cols := make([]string, len(returning))
	for i, c := range returning {
		cols[i] = quoteIdent(c)
	}

	return " RETURNING " + strings.Join(cols, constants.CommaSpace)
}

func generateInsert(n op.Insert, allParams map[string]any, d dialect.Dialect) (*Result, error) {
	em := newEmitter(d, false, allParams)

	cols := make([]string, len(n.Values.Names))
	placeholders := make([]string, len(n.Values.Names))

	for i, name := range n.Values.Names {
		cols[i] = quoteIdent(name)

		valueSQL, err := em.emit(n.Values.Expressions[name])
		if err != nil {
			return nil, err
		}

		placeholders[i] = valueSQL
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)%s",
		qualifiedTable(n.Table, n.Schema),
		strings.Join(cols, constants.CommaSpace),
		strings.Join(placeholders, constants.CommaSpace),
		renderReturning(n.Returning),
	)

	return &Result{SQL: sql, Params: em.params, RootKind: "insert"}, nil
}

func generateUpdate(n op.Update, allParams map[string]any, d dialect.Dialect) (*Result, error) {
	em := newEmitter(d, false, allParams)

	sets := make([]string, len(n.Set.Names))

	for i, name := range n.Set.Names {
		valueSQL, err := em.emit(n.Set.Expressions[name])
		if err != nil {
			return nil, err
		}

		sets[i] = fmt.Sprintf("%s = %s", quoteIdent(name), valueSQL)
	}

	whereSQL, err := renderWhere(em, n.Where)
	if err != nil {
		return nil, err
	}

	var b strings.Builder

	b.WriteString("UPDATE ")
	b.WriteString(qualifiedTable(n.Table, n.Schema))
	b.WriteString(" SET ")
	b.WriteString(strings.Join(sets, constants.CommaSpace))

	if whereSQL != "" {
		b.WriteString(" WHERE ")
		b.WriteString(whereSQL)
	}

	b.WriteString(renderReturning(n.Returning))

	return &Result{SQL: b.String(), Params: em.params, RootKind: "update"}, nil
}

func generateDelete(n op.Delete, allParams map[string]any, d dialect.Dialect) (*Result, error) {
	em := newEmitter(d, false, allParams)

	whereSQL, err := renderWhere(em, n.Where)
	if err != nil {
		return nil, err
	}

	var b strings.Builder

	b.WriteString("DELETE FROM ")
	b.WriteString(qualifiedTable(n.Table, n.Schema))

	if whereSQL != "" {
		b.WriteString(" WHERE ")
		b.WriteString(whereSQL)
	}

	b.WriteString(renderReturning(n.Returning))

	return &Result{SQL: b.String(), Params: em.params, RootKind: "delete"}, nil
}
