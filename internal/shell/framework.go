package shell

import (
	"context"
	"fmt"

	"github.com/go-klish/klish/internal/symbol"
)

// NewFrameworkPlugin builds the shell's always-loaded default plugin:
// navigation (up/exit), pwd-stack nesting, history expansion/listing,
// script sourcing, overview printing, and the default external script
// executor.
func NewFrameworkPlugin(e *Engine) *symbol.Plugin {
	return &symbol.Plugin{
		Name: "framework",
		Init: func() ([]*symbol.Symbol, error) {
			return []*symbol.Symbol{
				{Name: "nav_up", Type: symbol.TypeAction, API: symbol.APISimple, Permanent: true, Fn: e.symNavUp},
				{Name: "nav_exit", Type: symbol.TypeAction, API: symbol.APISimple, Permanent: true, Fn: e.symNavExit},
				{Name: "history_list", Type: symbol.TypeAction, API: symbol.APISimple, Permanent: true, Fn: e.symHistoryList},
				{Name: "source_file", Type: symbol.TypeAction, API: symbol.APISimple, Fn: e.symSourceFile},
				{Name: "overview", Type: symbol.TypeAction, API: symbol.APISimple, Permanent: true, Fn: e.symOverview},
				{Name: "default_script", Type: symbol.TypeAction, API: symbol.APISimple, Fn: e.symDefaultScript},
			}, nil
		},
	}
}

// symNavUp pops one level off the pwd stack, the "up" builtin.
func (e *Engine) symNavUp(ctx context.Context, ec *symbol.ExecContext, script string, out *string) error {
	v, ok := e.pwd.pop()
	if !ok {
		*out = ""
		return nil
	}
	e.setView(v)
	*out = v
	return nil
}

// symNavExit unwinds the pwd stack to the root view and signals the
// engine loop to close by emptying the file stack's current source.
func (e *Engine) symNavExit(ctx context.Context, ec *symbol.ExecContext, script string, out *string) error {
	for e.pwd.depth() > 1 {
		e.pwd.pop()
	}
	e.files.pop()
	return nil
}

func (e *Engine) symHistoryList(ctx context.Context, ec *symbol.ExecContext, script string, out *string) error {
	for i, line := range e.hist.Entries() {
		*out += fmt.Sprintf("%4d  %s\n", i+1, line)
	}
	return nil
}

// symSourceFile pushes script (its argument, the expanded script text
// holding a path) onto the file stack, implementing the "source"
// builtin.
func (e *Engine) symSourceFile(ctx context.Context, ec *symbol.ExecContext, script string, out *string) error {
	if script == "" {
		return fmt.Errorf("source: missing file path")
	}
	return e.files.push(script, e.opts.StopOnError)
}

func (e *Engine) symOverview(ctx context.Context, ec *symbol.ExecContext, script string, out *string) error {
	*out = e.Overview
	return nil
}

// symDefaultScript is the symbol bound when a command declares an action
// script but no explicit symbol reference: run it through the process
// shell.
func (e *Engine) symDefaultScript(ctx context.Context, ec *symbol.ExecContext, script string, out *string) error {
	result, err := symbol.ExternalCommand(ctx, ec.Shebang, script)
	*out = result
	return err
}
