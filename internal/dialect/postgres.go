package dialect

import "fmt"

type postgres struct{}

func (postgres) Name() string { return "postgres" }

func (postgres) Placeholder(name string) string {
	return fmt.Sprintf("$(%s)", name)
}

func (postgres) SupportsReturning() bool { return true }

func (postgres) UsesIndexedArrayParams() bool { return false }

func (p postgres) RenderArrayIn(columnSQL, paramName string, negate bool, _ int) string {
	if negate {
		return fmt.Sprintf("%s <> ALL(%s)", columnSQL, p.Placeholder(paramName))
	}

	return fmt.Sprintf("%s = ANY(%s)", columnSQL, p.Placeholder(paramName))
}
