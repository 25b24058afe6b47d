package guard

import "github.com/ajitpratap0/GoSQLX/pkg/sql/ast"

// DropStatementRule blocks DROP statements. Tinqer-Go's generator never
// emits DDL, so a DROP reaching the executor did not come from a
// compiled query.
type DropStatementRule struct{}

func (r *DropStatementRule) Name() string { return "no_drop" }

func (r *DropStatementRule) Check(astNode *ast.AST) *Violation {
	for _, stmt := range astNode.Statements {
		if _, ok := stmt.(*ast.DropStatement); ok {
			return &Violation{Rule: r.Name(), Statement: "DROP", Description: "DROP statements are prohibited"}
		}
	}

	return nil
}

// TruncateStatementRule blocks TRUNCATE statements, for the same
// reason as DropStatementRule.
type TruncateStatementRule struct{}

func (r *TruncateStatementRule) Name() string { return "no_truncate" }

func (r *TruncateStatementRule) Check(astNode *ast.AST) *Violation {
	for _, stmt := range astNode.Statements {
		if _, ok := stmt.(*ast.TruncateStatement); ok {
			return &Violation{Rule: r.Name(), Statement: "TRUNCATE", Description: "TRUNCATE statements are prohibited"}
		}
	}

	return nil
}

// DefaultRules returns the guard's default rule set. A
// delete/update-without-where rule is deliberately not included here:
// Tinqer-Go already enforces that invariant at compile time
// (errs.MissingWhereGuard) with an explicit allowFullTableDelete()/
// allowFullTableUpdate() escape hatch, and this runtime layer has no
// way to see that a mutation was compiled with that flag set, so
// re-checking it here would reject calls the compiler deliberately
// allowed.
func DefaultRules() []Rule {
	return []Rule{
		new(DropStatementRule),
		new(TruncateStatementRule),
	}
}
