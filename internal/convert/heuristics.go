package convert

import "strings"

// stringishSuffixes is the heuristic set of column/parameter name
// endings the binary `+` classifier treats as string-valued.
var stringishSuffixes = []string{
	"Name", "Title", "Email", "Description", "Address", "City", "Country", "Code", "Url", "Id",
}

// looksStringish reports whether name matches one of the heuristic
// string-ish suffixes, case-insensitively.
func looksStringish(name string) bool {
	lower := strings.ToLower(name)

	for _, suffix := range stringishSuffixes {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}

	return false
}
