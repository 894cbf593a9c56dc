package symbol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoPlugin(name string, permanent bool) *Plugin {
	p := &Plugin{Name: name}
	p.Init = func() ([]*Symbol, error) {
		return []*Symbol{{
			Name: "echo", Type: TypeAction, API: APISimple, Permanent: permanent,
			Fn: func(ctx context.Context, ec *ExecContext, script string, out *string) error {
				*out = script
				return nil
			},
		}}, nil
	}
	return p
}

func TestResolveBareAndPinned(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Load(echoPlugin("pluginA", true)))
	require.NoError(t, r.Load(echoPlugin("pluginB", false)))

	s, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, "pluginA", s.Plugin.Name)

	s, err = r.Resolve("echo@pluginB")
	require.NoError(t, err)
	assert.Equal(t, "pluginB", s.Plugin.Name)

	_, err = r.Resolve("missing")
	assert.Error(t, err)

	_, err = r.Resolve("echo@nope")
	assert.Error(t, err)
}

func TestInvokeDryRunSuppressesNonPermanent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Load(echoPlugin("p", false)))
	s, _ := r.Resolve("echo")

	ec := &ExecContext{DryRun: true}
	out, rc, err := Invoke(context.Background(), s, ec, "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, rc)
	assert.Equal(t, "", out)
}

func TestInvokePermanentRunsEvenInDryRun(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Load(echoPlugin("p", true)))
	s, _ := r.Resolve("echo")

	ec := &ExecContext{DryRun: true}
	out, rc, err := Invoke(context.Background(), s, ec, "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, rc)
	assert.Equal(t, "hello", out)
}

func TestInvokeExpandsScript(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Load(echoPlugin("p", true)))
	s, _ := r.Resolve("echo")

	ec := &ExecContext{Expand: func(script string) string { return "[" + script + "]" }}
	out, _, err := Invoke(context.Background(), s, ec, "x")
	require.NoError(t, err)
	assert.Equal(t, "[x]", out)
}
