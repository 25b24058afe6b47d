package exec

import (
	"database/sql"
	"strings"

	"github.com/tinqerjs/tinqer-go/internal/errs"
)

// returningStatement reports whether sqlText contains a RETURNING
// clause, the cheap syntactic check the executor uses to decide
// whether a mutation needs RETURNING support from the driver.
func returningStatement(sqlText string) bool {
	return strings.Contains(strings.ToUpper(sqlText), "RETURNING")
}

// scanRowsToMaps reads every row into a column-name-keyed map, the
// default array-of-rows shape for a read-path terminal.
func scanRowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}

		out = append(out, row)
	}

	return out, rows.Err()
}

// scanRowsToScalars reads every row's single column into a flat slice,
// for terminals that project exactly one value per row.
func scanRowsToScalars(rows *sql.Rows) ([]any, error) {
	var out []any

	for rows.Next() {
		var value any
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}

		out = append(out, value)
	}

	return out, rows.Err()
}

// shapeResults applies the terminal-kind rules to a row set: rows,
// first/single/last, count, or any/all.
func shapeResults(rows []map[string]any, terminal TerminalKind, mode SingleRowMode) (any, error) {
	switch terminal {
	case TerminalRows:
		return rows, nil
	case TerminalSingleRow:
		return pickSingleRow(rows, mode)
	case TerminalBool:
		if len(rows) == 0 {
			return false, nil
		}

		for _, v := range rows[0] {
			return boolFromScalar(v), nil
		}

		return false, nil
	case TerminalScalar:
		if len(rows) == 0 {
			return nil, nil
		}

		for _, v := range rows[0] {
			return v, nil
		}

		return nil, nil
	default:
		return rows, nil
	}
}

// shapeScalars is scanRowsToMaps' single-column counterpart, used by
// ExecuteSelectSimple.
func shapeScalars(values []any, terminal TerminalKind, mode SingleRowMode) (any, error) {
	switch terminal {
	case TerminalRows:
		return values, nil
	case TerminalSingleRow:
		return pickSingleScalar(values, mode)
	case TerminalBool:
		if len(values) == 0 {
			return false, nil
		}

		return boolFromScalar(values[0]), nil
	case TerminalScalar:
		if len(values) == 0 {
			return nil, nil
		}

		return values[0], nil
	default:
		return values, nil
	}
}

// boolFromScalar converts the single column an any/all query's
// `SELECT CASE WHEN [NOT] EXISTS(...) THEN 1 ELSE 0 END` returns into
// a bool. Drivers report this as an int64 0/1 (PostgreSQL, SQLite) or
// occasionally a native bool; any other value is treated as false.
func boolFromScalar(v any) bool {
	switch n := v.(type) {
	case bool:
		return n
	case int64:
		return n != 0
	case int32:
		return n != 0
	case int:
		return n != 0
	case float64:
		return n != 0
	default:
		return false
	}
}

func pickSingleRow(rows []map[string]any, mode SingleRowMode) (any, error) {
	if len(rows) == 0 {
		if mode.AllowDefault {
			return nil, nil
		}

		return nil, errs.New(errs.NoElement, "exec.singleRow", "no matching row")
	}

	if mode.RequireExactlyOne && len(rows) > 1 {
		return nil, errs.New(errs.MultipleElements, "exec.singleRow", "more than one matching row")
	}

	if mode.FromEnd {
		return rows[len(rows)-1], nil
	}

	return rows[0], nil
}

func pickSingleScalar(values []any, mode SingleRowMode) (any, error) {
	if len(values) == 0 {
		if mode.AllowDefault {
			return nil, nil
		}

		return nil, errs.New(errs.NoElement, "exec.singleRow", "no matching row")
	}

	if mode.RequireExactlyOne && len(values) > 1 {
		return nil, errs.New(errs.MultipleElements, "exec.singleRow", "more than one matching row")
	}

	if mode.FromEnd {
		return values[len(values)-1], nil
	}

	return values[0], nil
}
