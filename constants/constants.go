// Package constants collects the small literal values shared across the
// compiler, the execution shell, and the CLI.
package constants

// String literals reused by the SQL generator and the lambda converter.
const (
	// Empty is the empty string.
	Empty = ""
	// Dot separates a table alias from a column, or a property path segment
	// from the next (e.g. "u.name").
	Dot = "."
	// Comma separates items in a SELECT list, GROUP BY clause, or argument list.
	Comma = ","
	// CommaSpace is Comma followed by a single space, used when rendering
	// clauses back out as SQL text.
	CommaSpace = ", "
	// Space is the single space character, used as a clause separator.
	Space = " "
	// Underscore separates an auto-parameter prefix from its counter, and
	// an array parameter name from its expanded index.
	Underscore = "_"
	// Percent is the LIKE wildcard character.
	Percent = "%"
	// DoubleQuote is the identifier-quoting character for both dialects.
	DoubleQuote = `"`
	// LeftBracket and RightBracket wrap a logger's name in console output.
	LeftBracket  = "["
	RightBracket = "]"
)

// Byte forms of the literals above, for callers building SQL with a
// strings.Builder (which accepts WriteByte for single-character writes).
const (
	ByteSpace      = ' '
	ByteDot        = '.'
	ByteComma      = ','
	ByteUnderscore = '_'
)

// Environment variable keys read by the CLI and the logger.
const (
	// EnvKeyPrefix namespaces every Tinqer-specific environment variable.
	EnvKeyPrefix = "TINQER"
	// EnvLogLevel selects the logger's minimum level (debug|info|warn|error).
	EnvLogLevel = EnvKeyPrefix + "_LOG_LEVEL"
	// EnvConfigPath names a config-file path variable; no package in this
	// module reads it.
	EnvConfigPath = EnvKeyPrefix + "_CONFIG_PATH"
)

// AppName is the application name the PostgreSQL connection reports to
// the server.
const AppName = "tinqer"
