package varexpand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookupMap(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestExpandPlain(t *testing.T) {
	lk := lookupMap(map[string]string{"_cmd": "show version"})
	got := Expand("run: ${_cmd}", lk, EscapeAction)
	assert.Equal(t, "run: show version", got)
}

func TestExpandQuoteModifier(t *testing.T) {
	lk := lookupMap(map[string]string{"msg": "hello world"})
	got := Expand("${#msg}", lk, EscapeAction)
	assert.Equal(t, Quote("hello world"), got)
}

func TestExpandNoEscapeModifier(t *testing.T) {
	lk := lookupMap(map[string]string{"pat": "a|b"})
	got := Expand("${^pat}", lk, EscapeAction)
	assert.Equal(t, "a|b", got)
}

func TestExpandDefaultEscapesPipe(t *testing.T) {
	lk := lookupMap(map[string]string{"pat": "a|b"})
	got := Expand("${pat}", lk, EscapeAction)
	assert.Equal(t, `a\|b`, got)
}

func TestExpandAlternativesFallback(t *testing.T) {
	lk := lookupMap(map[string]string{})
	got := Expand("${missing:literal-fallback}", lk, EscapeAction)
	assert.Equal(t, "literal-fallback", got)
}

func TestExpandAlternativesFirstResolvedWins(t *testing.T) {
	lk := lookupMap(map[string]string{"second": "val2", "third": "val3"})
	got := Expand("${first:second:third}", lk, EscapeAction)
	assert.Equal(t, "val2", got)
}

func TestExpandEmptyReferenceLeftEmpty(t *testing.T) {
	lk := lookupMap(map[string]string{})
	got := Expand("x${}y", lk, EscapeAction)
	assert.Equal(t, "xy", got)
}
