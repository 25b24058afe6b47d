package dialect

import (
	"fmt"
	"strings"
)

type sqlite struct{}

func (sqlite) Name() string { return "sqlite" }

func (sqlite) Placeholder(name string) string {
	return "@" + name
}

func (sqlite) SupportsReturning() bool { return false }

func (sqlite) UsesIndexedArrayParams() bool { return true }

// RenderArrayIn expands the bound array into indexed placeholders
// (`@list_0, @list_1, …`) since SQLite has no ANY/ALL array operator.
// An empty array collapses to the constant boolean the membership test
// always evaluates to.
func (sqlite) RenderArrayIn(columnSQL, paramName string, negate bool, arrayLen int) string {
	if arrayLen == 0 {
		if negate {
			return "TRUE"
		}

		return "FALSE"
	}

	placeholders := make([]string, arrayLen)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("@%s_%d", paramName, i)
	}

	clause := fmt.Sprintf("%s IN (%s)", columnSQL, strings.Join(placeholders, ", "))
	if negate {
		return fmt.Sprintf("NOT (%s)", clause)
	}

	return clause
}
