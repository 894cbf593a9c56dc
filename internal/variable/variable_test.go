package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticVariableCachesFirstResult(t *testing.T) {
	calls := 0
	v := &Var{Name: "host", Action: "gethost", Static: true}
	compute := func(string) (string, error) {
		calls++
		return "router1", nil
	}

	out, err := v.Resolve(compute)
	require.NoError(t, err)
	assert.Equal(t, "router1", out)

	out, err = v.Resolve(compute)
	require.NoError(t, err)
	assert.Equal(t, "router1", out)
	assert.Equal(t, 1, calls)

	v.ResetCache()
	_, err = v.Resolve(compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDynamicVariableRecomputes(t *testing.T) {
	calls := 0
	v := &Var{Name: "now", Action: "getnow"}
	compute := func(string) (string, error) {
		calls++
		return "tick", nil
	}

	_, err := v.Resolve(compute)
	require.NoError(t, err)
	_, err = v.Resolve(compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
