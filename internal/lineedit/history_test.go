package lineedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryExpansion(t *testing.T) {
	h := NewHistory("", 10, 0, nil)
	h.Add("show version")
	h.Add("show running-config")
	h.Add("configure terminal")

	v, err := h.Expand("!!")
	require.NoError(t, err)
	assert.Equal(t, "configure terminal", v)

	v, err = h.Expand("!1")
	require.NoError(t, err)
	assert.Equal(t, "show version", v)

	v, err = h.Expand("!-2")
	require.NoError(t, err)
	assert.Equal(t, "show running-config", v)

	_, err = h.Expand("!99")
	assert.ErrorIs(t, err, ErrBadExpansion)

	v, err = h.Expand("plain line")
	require.NoError(t, err)
	assert.Equal(t, "plain line", v)
}

func TestHistoryStifle(t *testing.T) {
	h := NewHistory("", 2, 0, nil)
	h.Add("one")
	h.Add("two")
	h.Add("three")
	assert.Equal(t, []string{"two", "three"}, h.Entries())
}
