package shell

import (
	"context"
	"fmt"
	"os/user"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-klish/klish/internal/command"
	"github.com/go-klish/klish/internal/param"
	"github.com/go-klish/klish/internal/parser"
	"github.com/go-klish/klish/internal/symbol"
	"github.com/go-klish/klish/internal/varexpand"
	"github.com/go-klish/klish/internal/view"
)

// evaluator adapts the shell's symbol registry to parser.Evaluator for
// PARAM/@test and PARAM/@completion side-channel scripts.
type evaluator struct{ e *Engine }

func (ev evaluator) Test(p *param.Param) bool {
	sym, err := ev.e.Symbols.Resolve(symbol.Ref(p.Test))
	if err != nil {
		return false
	}
	out, _, err := symbol.Invoke(context.Background(), sym, ev.e.execCtx, "")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) != "" && strings.TrimSpace(out) != "0"
}

func (ev evaluator) Completions(p *param.Param, currentWord string) []string {
	sym, err := ev.e.Symbols.Resolve(symbol.Ref(p.Completion))
	if err != nil {
		return nil
	}
	out, _, err := symbol.Invoke(context.Background(), sym, ev.e.execCtx, currentWord)
	if err != nil {
		return nil
	}
	return strings.Fields(out)
}

// Execute resolves line against the current view, matches its parameter
// grammar, runs the access check and action, and applies any attached
// config directive.
func (e *Engine) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	match, ok := e.Views.Resolve(e.currentView, line)
	if !ok {
		return fmt.Errorf("unrecognized command: %s", line)
	}
	cmd := match.Cmd

	if cmd.Access != "" && !e.checkAccess(cmd.Access) {
		return fmt.Errorf("access denied: %s", cmd.Name)
	}

	e.preTransition(match)

	rest := strings.TrimSpace(strings.TrimPrefix(line, match.MatchedText))
	tokens := tokenizeArgs(rest)

	res := parser.Match(cmd, tokens, 0, -1, evaluator{e})
	switch res.Status {
	case parser.StatusBadParam:
		return fmt.Errorf("bad parameter for %s", cmd.Name)
	case parser.StatusPartial:
		return fmt.Errorf("incomplete command: %s", cmd.Name)
	case parser.StatusBadCmd:
		return fmt.Errorf("unrecognized arguments for %s", cmd.Name)
	}

	scope := e.newScope(cmd, match.MatchedText, line, rest, res)

	rc := 0
	var out string
	var runErr error
	withActionSignals(cmd.Interrupt, func() {
		out, rc, runErr = e.runAction(ctx, cmd, res, scope)
	})
	e.printOutput(out)
	e.logAction(line, rc)
	if runErr != nil {
		return runErr
	}

	if cmd.Config != nil && !e.opts.SyntaxCheck {
		if err := e.applyConfig(cmd, res, scope); err != nil {
			return err
		}
	}

	if cmd.ViewName != "" {
		if !e.transition(cmd, line, res, scope) {
			return fmt.Errorf("unknown view %q", cmd.ViewName)
		}
	}
	return nil
}

// newScope captures the context-fixed variable values of this
// invocation: _cmd, _full_cmd, _line, _params, and the _prefixN words.
func (e *Engine) newScope(cmd *command.Command, matched, fullLine, rest string, res *parser.Result) *execScope {
	scope := &execScope{
		fullCmd:  matched,
		cmd:      cmd.Name,
		origCmd:  cmd.Name,
		line:     rest,
		fullLine: fullLine,
	}
	if cmd.IsLink() {
		scope.cmd = cmd.AliasOf
	}
	for _, a := range res.PARGV.Args {
		scope.params = append(scope.params, a.Value)
	}
	// Words of the matched text beyond the target command's own name are
	// the namespace-prefix words (_prefix0..n).
	if extra := strings.TrimSpace(strings.TrimSuffix(matched, scope.cmd)); extra != "" && extra != matched {
		scope.prefixes = strings.Fields(extra)
	}
	return scope
}

func (e *Engine) runAction(ctx context.Context, cmd *command.Command, res *parser.Result, scope *execScope) (string, int, error) {
	if cmd.Action == nil {
		return "", 0, nil
	}
	if cmd.Lock && e.lock != nil {
		if err := e.lock.acquire(); err != nil {
			return "", 1, err
		}
		defer e.lock.release()
	}

	shebang := e.opts.Shebang
	if cmd.Action.Shebang != "" {
		shebang = cmd.Action.Shebang
	}

	sym, err := e.Symbols.Resolve(symbol.Ref(cmd.Action.Symbol))
	if err != nil {
		if cmd.Action.Script == "" {
			return "", 1, err
		}
		if e.opts.DryRun {
			return "", 0, nil
		}
		out, xerr := symbol.ExternalCommand(ctx, shebang, e.expandWithScope(cmd.Action.Script, res, scope))
		if xerr != nil {
			return out, 1, fmt.Errorf("%s: %w", out, xerr)
		}
		return out, 0, nil
	}

	script := e.expandWithScope(cmd.Action.Script, res, scope)
	out, rc, err := symbol.Invoke(ctx, sym, e.execCtx, script)
	return out, rc, err
}

// preTransition restores the session's position before a command owned
// by another view runs: restore=view jumps back to the owning view,
// restore=depth truncates the pwd stack to the owning view's declared
// depth. The owning view's policy decides; restore=none leaves the
// session where it is.
func (e *Engine) preTransition(match *view.Match) {
	pv, ok := e.Views.Get(match.SourceView)
	if !ok || pv.Name == e.currentView {
		return
	}
	switch pv.Restore {
	case view.RestoreView:
		for e.pwd.depth() > 1 && e.pwd.current() != pv.Name {
			e.pwd.pop()
		}
		e.setView(pv.Name)
	case view.RestoreDepth:
		if pv.Depth < e.pwd.depth()-1 {
			e.pwd.truncate(pv.Depth)
			e.setView(e.pwd.current())
		}
	}
}

// transition applies the command's viewname/viewid on success: the
// viewid template is expanded against the just-parsed PARGV and its
// NAME=VALUE bindings seed the new pwd level.
func (e *Engine) transition(cmd *command.Command, line string, res *parser.Result, scope *execScope) bool {
	if !e.setView(cmd.ViewName) {
		return false
	}
	bindings := parseViewID(e.expandWithScope(cmd.ViewID, res, scope))
	e.pwd.push(cmd.ViewName, line, bindings)
	return true
}

// checkAccess evaluates an access expression: through the access hook
// when one is installed, otherwise by the default group-membership test
// (the expression names one or more groups, the session user must belong
// to at least one).
func (e *Engine) checkAccess(expr string) bool {
	if expr == "" {
		return true
	}
	if ref, ok := e.Hooks[HookAccess]; ok && ref != "" {
		sym, err := e.Symbols.Resolve(ref)
		if err != nil {
			return false
		}
		_, _, err = symbol.Invoke(context.Background(), sym, e.execCtx, expr)
		return err == nil
	}
	return e.groupAccess(expr)
}

// groupAccess is the builtin access check: expr is a ':' or ',' separated
// list of group names.
func (e *Engine) groupAccess(expr string) bool {
	if e.user == nil {
		return false
	}
	gids, err := e.user.GroupIds()
	if err != nil {
		return false
	}
	for _, name := range strings.FieldsFunc(expr, func(r rune) bool { return r == ':' || r == ',' }) {
		g, err := user.LookupGroup(strings.TrimSpace(name))
		if err != nil {
			continue
		}
		for _, gid := range gids {
			if gid == g.Gid {
				return true
			}
		}
	}
	return false
}

// applyConfig composes and sends a configuration query derived from the
// command's CONFIG directive, its matched parameters, and the pwd path.
func (e *Engine) applyConfig(cmd *command.Command, res *parser.Result, scope *execScope) error {
	if e.Client == nil {
		return nil
	}
	cfg := cmd.Config
	pwd := e.pwd.lines()

	// An absent pattern means "this command's own line": the stored line
	// is the full expanded command and the match pattern its anchored
	// literal form.
	line := scope.fullLine
	pattern := "^" + regexp.QuoteMeta(scope.fullLine) + "$"
	if cfg.Pattern != "" {
		line = varexpand.Expand(cfg.Pattern, e.lookupFor(res, scope), varexpand.EscapeNone)
		pattern = varexpand.Expand(cfg.Pattern, e.lookupFor(res, scope), varexpand.EscapeRegex)
	}

	switch cfg.Op {
	case command.ConfigSet:
		seq := 0
		if cfg.Sequence != "" {
			expanded := e.expandWithScope(cfg.Sequence, res, scope)
			if n, err := strconv.Atoi(strings.TrimSpace(expanded)); err == nil {
				seq = n
			}
		}
		return e.Client.Set(pwd, cfg.Priority, pattern, line, seq, cfg.Unique)
	case command.ConfigUnset:
		return e.Client.Unset(pwd, pattern, cfg.Priority, 0)
	case command.ConfigDump:
		depth := 0
		if cfg.Depth != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(e.expandWithScope(cfg.Depth, res, scope))); err == nil {
				depth = n
			}
		}
		out, err := e.Client.Dump(pwd, pattern, depth, cfg.File)
		if err != nil {
			return err
		}
		if cfg.File == "" {
			e.printOutput(out)
		}
		return nil
	}
	return nil
}

// expand runs variable expansion with no parsed-argument scope, for
// prompts, hook scripts, and other contexts outside a command match.
func (e *Engine) expand(s string) string {
	return varexpand.Expand(s, e.lookupFor(nil, nil), varexpand.EscapeAction)
}

func (e *Engine) expandWithScope(script string, res *parser.Result, scope *execScope) string {
	return varexpand.Expand(script, e.lookupFor(res, scope), varexpand.EscapeAction)
}

// lookupFor builds the variable lookup-order chain: parsed args, defaults
// of parameters nested under a matched parameter, per-pwd view-id
// bindings, context-fixed variables, globals, then environment. Defaults
// of the command's own top-level parameters are not consulted.
func (e *Engine) lookupFor(res *parser.Result, scope *execScope) varexpand.Lookup {
	return func(name string) (string, bool) {
		if res != nil {
			if v, ok := res.PARGV.ByName(name); ok {
				return v, true
			}
			for _, a := range res.PARGV.Args {
				if p := a.Param; p.Params != nil {
					if dp := p.Params.ByName(name); dp != nil && dp.Default != "" {
						return dp.Default, true
					}
				}
			}
		}
		if v, ok := e.pwd.lookupViewID(name); ok {
			return v, true
		}
		if v, ok := e.lookupContextVar(name, scope); ok {
			return v, true
		}
		if v, ok := e.Globals.Get(name); ok {
			s, err := v.Resolve(e.computeAction)
			if err == nil {
				return s, true
			}
		}
		if v, ok := lookupEnv(name); ok {
			return v, true
		}
		return "", false
	}
}

func (e *Engine) computeAction(action string) (string, error) {
	sym, err := e.Symbols.Resolve(symbol.Ref(action))
	if err != nil {
		return "", err
	}
	out, _, err := symbol.Invoke(context.Background(), sym, e.execCtx, "")
	return out, err
}

// complete implements the editor's Complete callback: tokenize the
// current line, resolve the command, and ask the parser for candidates
// at the cursor's token boundary.
func (e *Engine) complete(line string, cursor int) []string {
	match, ok := e.Views.Resolve(e.currentView, line)
	if !ok {
		return e.Views.Complete(e.currentView, "completion")
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, match.MatchedText))
	tokens := tokenizeArgs(rest)

	res := parser.Match(match.Cmd, tokens, 0, len(tokens), evaluator{e})
	var out []string
	for _, p := range res.Completions {
		out = append(out, p.Name)
	}
	out = append(out, res.WordHints...)
	return out
}

// onHotkey implements the editor's Hotkey callback: a per-view hotkey
// lookup on the active view.
func (e *Engine) onHotkey(name string) (string, bool) {
	if v, ok := e.Views.Get(e.currentView); ok {
		if line, ok := v.Hotkeys[name]; ok {
			return line, true
		}
	}
	if gv, ok := e.Views.GlobalView(); ok {
		if line, ok := gv.Hotkeys[name]; ok {
			return line, true
		}
	}
	return "", false
}

func tokenizeArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}
