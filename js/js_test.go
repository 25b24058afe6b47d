package js_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinqerjs/tinqer-go/js"
)

func TestParseArrowFunction(t *testing.T) {
	program, err := js.Parse("query.js", `(q, p) => q.from("users").where(u => u.age > p.minAge)`)
	require.NoError(t, err)
	assert.Len(t, program.Body, 1)
}

func TestParseRejectsInvalidSource(t *testing.T) {
	_, err := js.Parse("query.js", `(q => q.from(`)
	assert.Error(t, err)
}
