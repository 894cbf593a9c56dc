package shell

import (
	"context"
	"os"
	"testing"

	"github.com/go-klish/klish/internal/command"
	"github.com/go-klish/klish/internal/param"
	"github.com/go-klish/klish/internal/symbol"
	"github.com/go-klish/klish/internal/view"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(Options{}, nil)
	require.NoError(t, e.Initialize(os.Stdin, os.Stdout))
	return e
}

func TestEngineExecuteRunsAction(t *testing.T) {
	e := newTestEngine(t)

	var ran string
	plugin := &symbol.Plugin{
		Name: "test",
		Init: func() ([]*symbol.Symbol, error) {
			return []*symbol.Symbol{{
				Name: "greet",
				Type: symbol.TypeAction,
				API:  symbol.APISimple,
				Fn: func(ctx context.Context, ec *symbol.ExecContext, script string, out *string) error {
					ran = script
					return nil
				},
			}}, nil
		},
	}
	require.NoError(t, e.Symbols.Load(plugin))

	gv, _ := e.Views.Get("global")
	cmd := &command.Command{
		Name:   "greet",
		Params: param.NewVector(),
		Action: &command.Action{Symbol: "greet", Script: "hello"},
	}
	gv.AddCommand(cmd)

	require.NoError(t, e.Execute(context.Background(), "greet"))
	require.Equal(t, "hello", ran)
}

func TestEngineViewTransitionAndUp(t *testing.T) {
	e := newTestEngine(t)

	sub := view.New("config")
	e.Views.Add(sub)

	gv, _ := e.Views.Get("global")
	enter := &command.Command{Name: "configure", Params: param.NewVector(), ViewName: "config"}
	gv.AddCommand(enter)

	require.NoError(t, e.Execute(context.Background(), "configure"))
	require.Equal(t, "config", e.CurrentView())

	v, ok := e.pwd.pop()
	require.True(t, ok)
	require.Equal(t, "global", v)
}

func TestEngineBadCommand(t *testing.T) {
	e := newTestEngine(t)
	err := e.Execute(context.Background(), "nope")
	require.Error(t, err)
}
