package konf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetUnsetDumpOrdering(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set(nil, 0x0200, "", "b-line", 0, false))
	require.NoError(t, tr.Set(nil, 0x0100, "", "a-line", 0, false))
	require.NoError(t, tr.Set(nil, 0x0100, "", "a2-line", 0, false))

	out, err := tr.Dump(nil, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "a-line\na2-line\n!\nb-line\n", out)
}

func TestSetUniqueReplacesSibling(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set(nil, 0x0100, "", "interface eth0", 0, false))
	require.NoError(t, tr.Set(nil, 0x0100, `^interface `, "interface eth0 up", 0, true))

	out, err := tr.Dump(nil, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "interface eth0 up\n", out)
}

func TestUnsetRenumbersSequence(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set(nil, 0x0100, "", "one", 1, false))
	require.NoError(t, tr.Set(nil, 0x0100, "", "two", 1, false))
	require.NoError(t, tr.Set(nil, 0x0100, "", "three", 1, false))

	require.NoError(t, tr.Unset(nil, "two", 0))

	node := tr.Navigate(nil, false)
	require.Len(t, node.Children, 2)
	assert.Equal(t, 1, node.Children[0].Sequence)
	assert.Equal(t, 2, node.Children[1].Sequence)
}

func TestNavigateCreatesNestedPath(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set([]string{"interfaces", "eth0"}, 0x0100, "", "mtu 1500", 0, false))

	out, err := tr.Dump([]string{"interfaces", "eth0"}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "mtu 1500\n", out)
}
