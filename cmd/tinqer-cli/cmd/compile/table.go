package compile

import (
	"fmt"
	"strings"
)

// splitTableDecl parses a --table flag value of the form
// "name=col1,col2,col3" into its table name and column list.
func splitTableDecl(decl string) (string, []string, error) {
	name, cols, found := strings.Cut(decl, "=")
	if !found || name == "" {
		return "", nil, fmt.Errorf("invalid --table value %q, want name=col1,col2,...", decl)
	}

	columns := strings.Split(cols, ",")
	for i, c := range columns {
		columns[i] = strings.TrimSpace(c)
	}

	return name, columns, nil
}
