// Package guard is a defense-in-depth runtime check over the raw SQL
// text the execution shell is about to run. It parses the statement
// with GoSQLX and rejects shapes Tinqer-Go's own generator never
// produces but a hand-built exec.Statement could still carry.
package guard

import (
	"errors"
	"fmt"

	"github.com/ajitpratap0/GoSQLX/pkg/gosqlx"
	"github.com/ajitpratap0/GoSQLX/pkg/sql/ast"

	"github.com/tinqerjs/tinqer-go/log"
)

// ErrDangerousSQL is the sentinel every GuardError wraps.
var ErrDangerousSQL = errors.New("dangerous sql detected")

// Violation describes which rule rejected a statement and why.
type Violation struct {
	Rule        string
	Statement   string
	Description string
}

// GuardError wraps ErrDangerousSQL with the offending statement and
// the rule that rejected it.
type GuardError struct {
	Err       error
	Violation *Violation
	SQL       string
}

func (e *GuardError) Error() string {
	if e.Violation != nil {
		return fmt.Sprintf("%v: rule=%s, statement=%s, description=%s",
			e.Err, e.Violation.Rule, e.Violation.Statement, e.Violation.Description)
	}

	return e.Err.Error()
}

func (e *GuardError) Unwrap() error {
	return e.Err
}

// Rule checks one statement-shape invariant against a parsed AST.
type Rule interface {
	Name() string
	Check(astNode *ast.AST) *Violation
}

// Guard coordinates rule checking over SQL text the executor is about
// to run.
type Guard struct {
	rules  []Rule
	logger log.Logger
}

// NewGuard builds a Guard over the given rules, or DefaultRules when
// none are given.
func NewGuard(logger log.Logger, rules ...Rule) *Guard {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	return &Guard{rules: rules, logger: logger}
}

// Check validates sqlText against every rule. A parse failure is not
// itself a violation: GoSQLX's grammar coverage lags the dialects
// Tinqer-Go targets, so an unparseable statement passes through rather
// than blocking SQL the guard simply can't read yet.
func (g *Guard) Check(sqlText string) error {
	astNode, err := gosqlx.Parse(sqlText)
	if err != nil {
		g.logger.Debugf("guard: failed to parse sql, allowing it through: %v", err)
		return nil
	}

	for _, rule := range g.rules {
		if violation := rule.Check(astNode); violation != nil {
			g.logger.Warnf("guard: sql rejected by rule %s: %s", violation.Rule, sqlText)

			return &GuardError{Err: ErrDangerousSQL, Violation: violation, SQL: sqlText}
		}
	}

	return nil
}
