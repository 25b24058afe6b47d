// Package js wraps the goja ECMAScript parser so the rest of the
// compiler consumes a real AST instead of a hand-rolled tokenizer.
// Tinqer-Go never executes JavaScript, so only the parse-time surface
// of goja is exposed here.
package js

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// Type aliases from goja for convenient access.
type (
	AstProgram = ast.Program
	AstNode    = ast.Node
)

// Type-check helpers re-exported from goja for literal classification.
var (
	IsNaN      = goja.IsNaN
	IsInfinity = goja.IsInfinity
)

// Parse parses a lambda-chain source string into an AST.
func Parse(name, src string) (*AstProgram, error) {
	return goja.Parse(name, src, parser.WithDisableSourceMaps)
}
