package ptype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerRangeRoundTrip(t *testing.T) {
	p, err := New("uint_1_65535", "", "", "", MethodUnsignedInteger, PreprocessNone, 1, 65535, nil)
	require.NoError(t, err)

	cases := []struct {
		in    string
		valid bool
	}{
		{"1", true},
		{"65535", true},
		{"70000", false},
		{"0", false},
		{"-5", false},
		{"abc", false},
	}
	for _, tc := range cases {
		_, ok := p.Validate(tc.in)
		assert.Equal(t, tc.valid, ok, "value %q", tc.in)
	}
	assert.Equal(t, "1..65535", p.RangeText())
}

func TestSelectValidateAndTranslate(t *testing.T) {
	p, err := New("color", "", "", "", MethodSelect, PreprocessNone, 0, 0, []SelectEntry{
		{Display: "one", Value: "1"},
		{Display: "two", Value: "2"},
		{Display: "three", Value: "3"},
	})
	require.NoError(t, err)

	for _, e := range p.Select {
		display, ok := p.Validate(e.Display)
		assert.True(t, ok)
		assert.Equal(t, e.Display, display)

		value, ok := p.Translate(e.Display)
		assert.True(t, ok)
		assert.Equal(t, e.Value, value)
	}

	// case-insensitive
	_, ok := p.Validate("ONE")
	assert.True(t, ok)

	_, ok = p.Validate("four")
	assert.False(t, ok)

	assert.Equal(t, "one/two/three", p.RangeText())
}

func TestRegexFullMatch(t *testing.T) {
	p, err := New("ipv4ish", "", "", `[0-9]+\.[0-9]+\.[0-9]+\.[0-9]+`, MethodRegex, PreprocessNone, 0, 0, nil)
	require.NoError(t, err)

	_, ok := p.Validate("10.0.0.1")
	assert.True(t, ok)

	// partial match must be rejected (implicit ^...$)
	_, ok = p.Validate("x10.0.0.1x")
	assert.False(t, ok)
	assert.Equal(t, "", p.RangeText())
}

func TestPreprocessCaseFold(t *testing.T) {
	p, err := New("upperword", "", "", "[A-Z]+", MethodRegex, PreprocessToUpper, 0, 0, nil)
	require.NoError(t, err)
	v, ok := p.Validate("abc")
	assert.True(t, ok)
	assert.Equal(t, "ABC", v)
}

func TestWordGeneratorPrefix(t *testing.T) {
	p, err := New("color", "", "", "", MethodSelect, PreprocessNone, 0, 0, []SelectEntry{
		{Display: "red", Value: "r"}, {Display: "rust", Value: "u"}, {Display: "green", Value: "g"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"red", "rust"}, p.WordGenerator("r"))
}
