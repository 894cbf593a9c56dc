package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-klish/klish/internal/command"
	"github.com/go-klish/klish/internal/param"
	"github.com/go-klish/klish/internal/symbol"
	"github.com/go-klish/klish/internal/view"
)

// loadAccessHook installs an access hook that denies the expression
// "secret" and allows everything else.
func loadAccessHook(t *testing.T, e *Engine) {
	t.Helper()
	plugin := &symbol.Plugin{
		Name: "test-access",
		Init: func() ([]*symbol.Symbol, error) {
			return []*symbol.Symbol{{
				Name:      "access_check",
				Type:      symbol.TypeAccess,
				API:       symbol.APISimple,
				Permanent: true,
				Fn: func(ctx context.Context, ec *symbol.ExecContext, script string, out *string) error {
					if script == "secret" {
						return assert.AnError
					}
					return nil
				},
			}}, nil
		},
	}
	require.NoError(t, e.Symbols.Load(plugin))
	e.Hooks[HookAccess] = "access_check"
}

func TestPrepareFiltersDeniedCommands(t *testing.T) {
	e := newTestEngine(t)
	loadAccessHook(t, e)

	gv, _ := e.Views.Get("global")
	gv.AddCommand(&command.Command{Name: "show", Params: param.NewVector()})
	gv.AddCommand(&command.Command{Name: "reboot", Params: param.NewVector(), Access: "secret"})

	require.NoError(t, e.Prepare())

	_, ok := gv.Command("show")
	assert.True(t, ok)
	_, ok = gv.Command("reboot")
	assert.False(t, ok, "denied command must not stay in the model")

	// Denied commands are invisible to completion too.
	assert.NotContains(t, e.Views.Complete("global", "completion"), "reboot")
}

func TestPrepareFiltersDeniedParams(t *testing.T) {
	e := newTestEngine(t)
	loadAccessHook(t, e)

	vec := param.NewVector()
	vec.Add(&param.Param{Name: "public", Mode: param.ModeSubcommand, Optional: true})
	vec.Add(&param.Param{Name: "hidden", Mode: param.ModeSubcommand, Optional: true, Access: "secret"})

	gv, _ := e.Views.Get("global")
	gv.AddCommand(&command.Command{Name: "show", Params: vec})

	require.NoError(t, e.Prepare())

	require.Equal(t, 1, vec.Len())
	assert.Equal(t, "public", vec.Params[0].Name)
}

func TestPrepareRejectsUnresolvedSymbol(t *testing.T) {
	e := newTestEngine(t)

	gv, _ := e.Views.Get("global")
	gv.AddCommand(&command.Command{
		Name:   "broken",
		Params: param.NewVector(),
		Action: &command.Action{Symbol: "no_such_symbol"},
	})

	require.Error(t, e.Prepare())
}

func TestPreTransitionRestoresOwningView(t *testing.T) {
	e := newTestEngine(t)

	// global declares restore=view; a nested "interface" view imports
	// nothing, but global commands stay reachable from it.
	gv, _ := e.Views.Get("global")
	gv.Restore = view.RestoreView
	gv.AddCommand(&command.Command{Name: "hostname", Params: param.NewVector()})

	iv := view.New("interface")
	e.Views.Add(iv)
	gv.AddCommand(&command.Command{Name: "interface", Params: param.NewVector(), ViewName: "interface"})

	require.NoError(t, e.Execute(context.Background(), "interface"))
	require.Equal(t, "interface", e.CurrentView())
	require.Equal(t, 2, e.pwd.depth())

	// Running a global-owned command from the nested view restores the
	// session to global before the command executes.
	require.NoError(t, e.Execute(context.Background(), "hostname"))
	assert.Equal(t, "global", e.CurrentView())
	assert.Equal(t, 1, e.pwd.depth())
}
