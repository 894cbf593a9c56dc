// Package shell implements the shell engine: the state
// machine that owns the view/ptype/variable trees, drives the line
// editor, resolves and executes commands, and dispatches hooks.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/go-klish/klish/internal/command"
	"github.com/go-klish/klish/internal/lineedit"
	"github.com/go-klish/klish/internal/param"
	"github.com/go-klish/klish/internal/ptype"
	"github.com/go-klish/klish/internal/symbol"
	"github.com/go-klish/klish/internal/variable"
	"github.com/go-klish/klish/internal/view"
)

// State is the engine's lifecycle stage.
type State int

const (
	StateNew State = iota
	StateInitializing
	StateOK
	StateClosing
	StateClosed
)

// HookType names the one-symbol-per-type hook table.
type HookType int

const (
	HookStartup HookType = iota
	HookWatchdog
	HookAccess
	HookLog
)

// ConfigClient is the engine's handle to the configuration daemon,
// implemented by internal/konfclient; kept as an interface here so shell
// does not import the client package.
type ConfigClient interface {
	Set(pwd []string, priority uint16, pattern, line string, seq int, unique bool) error
	Unset(pwd []string, pattern string, priority uint16, seq int) error
	Dump(pwd []string, pattern string, depth int, file string) (string, error)
}

// Options configures a new Engine; fields mirror the clish CLI flags.
type Options struct {
	Interactive     bool
	Quiet           bool // -q: suppress echo of command output
	DryRun          bool
	SyntaxCheck     bool // -k: implies dry-run + lockless, disables config/log hooks
	LogActions      bool
	SyslogFacility  string
	Shebang         string
	FIFOName        string
	Lockfile        string
	IdleTimeout     time.Duration
	WatchdogTimeout time.Duration
	HistoryFile     string
	HistorySize     int
	StopOnError     bool
}

// Engine owns the scheme trees, the line editor, the pwd stack, and the
// execution state of one interactive session.
type Engine struct {
	opts   Options
	logger *zap.Logger

	Views     *view.Set
	PTypes    map[string]*ptype.PTYPE
	Globals   *variable.Tree
	Symbols   *symbol.Registry
	Hooks     map[HookType]symbol.Ref
	Overview  string

	Client ConfigClient

	pwd    *pwdStack
	files  *fileStack
	editor *lineedit.Editor
	hist   *lineedit.History
	lock   *lockfile
	out    io.Writer

	currentView string
	state       State
	user        *user.User
	userData    map[string]any

	execCtx *symbol.ExecContext

	startup  *Lifecycle
	watchdog *Lifecycle
}

// Lifecycle binds an action plus an optional view transition to the
// STARTUP/WATCHDOG scheme elements.
type Lifecycle struct {
	Action   *command.Action
	ViewName string
	ViewID   string
}

// SetStartup installs the scheme's STARTUP declaration, run once by
// Startup after the scheme and plugins are loaded.
func (e *Engine) SetStartup(lc *Lifecycle) { e.startup = lc }

// SetWatchdog installs the scheme's WATCHDOG declaration, run each time
// the editor's watchdog timeout fires with no keypress.
func (e *Engine) SetWatchdog(lc *Lifecycle) { e.watchdog = lc }

// New creates an Engine in StateNew; call Initialize to proceed through
// the load, startup, loop, and close stages.
func New(opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		opts:     opts,
		logger:   logger,
		PTypes:   make(map[string]*ptype.PTYPE),
		Hooks:    make(map[HookType]symbol.Ref),
		userData: make(map[string]any),
		state:    StateNew,
	}
}

// Initialize creates the empty trees, the line editor, the empty global
// view, the default plugin, and the builtin "args" ptype.
func (e *Engine) Initialize(in *os.File, out *os.File) error {
	e.state = StateInitializing
	e.out = out

	if e.opts.SyntaxCheck {
		e.opts.DryRun = true
		e.opts.Lockfile = ""
		e.opts.LogActions = false
	}

	e.Views = view.NewSet()
	e.Globals = variable.NewTree()
	e.Symbols = symbol.NewRegistry()
	e.pwd = newPwdStack("global")
	e.files = newFileStack()

	e.Views.Add(view.New("global"))
	e.currentView = "global"

	if u, err := user.Current(); err == nil {
		e.user = u
	}

	argsType, err := ptype.New("args", "remaining arguments", "", "", ptype.MethodRegex, ptype.PreprocessNone, 0, 0, nil)
	if err != nil {
		return fmt.Errorf("builtin args ptype: %w", err)
	}
	e.PTypes["args"] = argsType

	if err := e.Symbols.Load(NewFrameworkPlugin(e)); err != nil {
		return fmt.Errorf("load framework plugin: %w", err)
	}

	e.hist = lineedit.NewHistory(e.opts.HistoryFile, e.opts.HistorySize, 0, e.logger)
	if err := e.hist.Load(); err != nil && e.logger != nil {
		e.logger.Warn("history load failed", zap.Error(err))
	}

	e.editor = lineedit.New(in, out, e.logger)
	e.editor.Hist = e.hist
	e.editor.IdleTimeout = e.opts.IdleTimeout
	e.editor.WatchdogTimeout = e.opts.WatchdogTimeout
	e.editor.CB = lineedit.Callbacks{
		Complete: e.complete,
		Help:     e.contextHelp,
		Watchdog: e.onWatchdog,
		Hotkey:   e.onHotkey,
	}

	e.execCtx = &symbol.ExecContext{
		DryRun:   e.opts.DryRun,
		Shebang:  e.opts.Shebang,
		FIFOName: e.opts.FIFOName,
		Lockfile: e.opts.Lockfile,
		User:     e.user,
		UserData: e.userData,
		Expand:   e.expand,
		Log:      e.logAction,
	}

	if e.opts.Lockfile != "" {
		e.lock = newLockfile(e.opts.Lockfile)
	}

	return nil
}

// PushSource pushes a script file (or, with path "", the interactive
// terminal) onto the LIFO source stack.
func (e *Engine) PushSource(path string, stopOnError bool) error {
	return e.files.push(path, stopOnError)
}

// Startup runs the distinguished "startup" command, which typically
// transitions to the initial view and prints the banner, then
// transitions to its viewname/viewid target.
func (e *Engine) Startup(ctx context.Context) error {
	if e.startup != nil {
		if _, err := e.runLifecycle(ctx, e.startup); err != nil {
			return fmt.Errorf("startup: %w", err)
		}
	}
	if ref, ok := e.Hooks[HookStartup]; ok && ref != "" {
		if _, err := e.runHook(ctx, ref); err != nil {
			return fmt.Errorf("startup hook: %w", err)
		}
	}
	e.state = StateOK
	return nil
}

// runLifecycle runs a STARTUP/WATCHDOG action (resolving its builtin
// symbol, or falling back to the default script executor) and applies
// any attached view transition, mirroring command execution without the
// parameter grammar a full command carries.
func (e *Engine) runLifecycle(ctx context.Context, lc *Lifecycle) (string, error) {
	var out string
	if lc.Action != nil {
		script := e.expand(lc.Action.Script)
		if sym, err := e.Symbols.Resolve(symbol.Ref(lc.Action.Symbol)); err == nil {
			var rerr error
			out, _, rerr = symbol.Invoke(ctx, sym, e.execCtx, script)
			if rerr != nil {
				return out, rerr
			}
		} else if script != "" {
			shebang := e.opts.Shebang
			if lc.Action.Shebang != "" {
				shebang = lc.Action.Shebang
			}
			var xerr error
			out, xerr = symbol.ExternalCommand(ctx, shebang, script)
			if xerr != nil {
				return out, xerr
			}
		}
	}
	if lc.ViewName != "" {
		if !e.setView(lc.ViewName) {
			return out, fmt.Errorf("unknown view %q", lc.ViewName)
		}
		e.pwd.push(lc.ViewName, "", parseViewID(e.expand(lc.ViewID)))
	}
	return out, nil
}

// SetInitialView applies the -w/-i flags: jump straight to a named view
// with an explicit "NAME=VALUE;..." view-id assignment.
func (e *Engine) SetInitialView(name, ids string) error {
	if name == "" {
		return nil
	}
	if !e.setView(name) {
		return fmt.Errorf("unknown view %q", name)
	}
	e.pwd.push(name, "", parseViewID(ids))
	return nil
}

// Prepare runs after the scheme and plugins have loaded: every access
// expression is evaluated once; denied commands and parameters are
// removed from the model, and a denied view is kept but loses all of its
// own commands, so they never surface in completion or contextual help. Commands that name an action symbol
// are also checked against the registry; an unresolved symbol fails the
// load with a diagnostic.
func (e *Engine) Prepare() error {
	for _, v := range e.Views.All() {
		if v.Access != "" && !e.checkAccess(v.Access) {
			for _, c := range v.Commands() {
				v.RemoveCommand(c.Name)
			}
			continue
		}
		for _, c := range v.Commands() {
			if c.Access != "" && !e.checkAccess(c.Access) {
				v.RemoveCommand(c.Name)
				continue
			}
			if c.Action != nil && c.Action.Symbol != "" {
				if _, err := e.Symbols.Resolve(symbol.Ref(c.Action.Symbol)); err != nil {
					return fmt.Errorf("view %s: command %s: %w", v.Name, c.Name, err)
				}
			}
			e.filterParams(c.Params)
		}
	}
	return nil
}

// filterParams removes parameters whose access check fails, recursing
// into nested vectors.
func (e *Engine) filterParams(vec *param.Vector) {
	if vec == nil {
		return
	}
	kept := vec.Params[:0]
	for _, p := range vec.Params {
		if p.Access != "" && !e.checkAccess(p.Access) {
			continue
		}
		e.filterParams(p.Params)
		kept = append(kept, p)
	}
	vec.Params = kept
}

// printOutput echoes action/dump output to the session stream unless the
// shell is quiet (-q).
func (e *Engine) printOutput(s string) {
	if s == "" || e.opts.Quiet || e.out == nil {
		return
	}
	fmt.Fprint(e.out, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(e.out)
	}
}

func (e *Engine) runHook(ctx context.Context, ref symbol.Ref) (string, error) {
	sym, err := e.Symbols.Resolve(ref)
	if err != nil {
		return "", err
	}
	out, _, err := symbol.Invoke(ctx, sym, e.execCtx, "")
	return out, err
}

func (e *Engine) onWatchdog() bool {
	if e.watchdog != nil {
		if _, err := e.runLifecycle(context.Background(), e.watchdog); err != nil && e.logger != nil {
			e.logger.Warn("watchdog failed", zap.Error(err))
		}
		return false
	}
	if ref, ok := e.Hooks[HookWatchdog]; ok && ref != "" {
		if _, err := e.runHook(context.Background(), ref); err != nil && e.logger != nil {
			e.logger.Warn("watchdog hook failed", zap.Error(err))
		}
		return false
	}
	return true
}

// Loop reads, parses, and executes one line at a time until the file
// stack empties.
func (e *Engine) Loop(ctx context.Context) error {
	for {
		line, ok, err := e.nextLine(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}

		runErr := e.Execute(ctx, line)
		if runErr == nil {
			continue
		}

		top := e.files.top()
		interactive := top == nil || top.path == ""
		e.printDiagnostic(top, line, runErr)
		if interactive || !top.stopOnError {
			if e.logger != nil {
				e.logger.Warn("command failed", zap.String("line", line), zap.Error(runErr))
			}
			continue
		}

		e.files.pop()
		if e.files.empty() {
			return runErr
		}
	}
}

// nextLine reads one line from the topmost source: either the line
// editor (interactive/terminal source) or the next unread line of a
// script file.
func (e *Engine) nextLine(ctx context.Context) (line string, ok bool, err error) {
	top := e.files.top()
	if top == nil {
		return "", false, nil
	}
	if top.path == "" {
		raw, rerr := e.editor.ReadLine(ctx)
		if rerr != nil {
			e.files.pop()
			if e.files.empty() {
				return "", false, nil
			}
			return e.nextLine(ctx)
		}
		expanded, herr := e.hist.Expand(raw)
		if herr != nil {
			return raw, true, nil
		}
		return expanded, true, nil
	}

	l, more := top.nextLine()
	if !more {
		e.files.pop()
		if e.files.empty() {
			return "", false, nil
		}
		return e.nextLine(ctx)
	}
	return l, true, nil
}

// Close saves history, runs plugin finis, and releases the lock.
func (e *Engine) Close() error {
	e.state = StateClosing
	var firstErr error
	if e.hist != nil {
		if err := e.hist.Save(); err != nil {
			firstErr = err
		}
	}
	if err := e.Symbols.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if e.lock != nil {
		e.lock.release()
	}
	e.state = StateClosed
	return firstErr
}

func (e *Engine) CurrentView() string { return e.currentView }

func (e *Engine) setView(name string) bool {
	if _, ok := e.Views.Get(name); !ok {
		return false
	}
	e.currentView = name
	e.editor.Prompt = e.promptFor(name)
	return true
}

func (e *Engine) promptFor(viewName string) string {
	v, ok := e.Views.Get(viewName)
	if !ok || v.Prompt == "" {
		return viewName + "> "
	}
	return e.expand(v.Prompt)
}

// printDiagnostic renders a failed line's diagnostic: syntax
// failures get the "Syntax error: " prefix, everything else "Error: ";
// non-interactive sources also name the offending file.
func (e *Engine) printDiagnostic(top *sourceFile, line string, err error) {
	if e.out == nil || err == nil {
		return
	}
	prefix := "Error"
	msg := err.Error()
	if strings.HasPrefix(msg, "unrecognized") || strings.HasPrefix(msg, "bad parameter") || strings.HasPrefix(msg, "incomplete") {
		prefix = "Syntax error"
	}
	if top != nil && top.path != "" {
		fmt.Fprintf(e.out, "%s: %s: %q: %s\n", prefix, top.path, line, msg)
		return
	}
	fmt.Fprintf(e.out, "%s: %s\n", prefix, msg)
}

func (e *Engine) logAction(line string, rc int) {
	if !e.opts.LogActions || e.logger == nil {
		return
	}
	e.logger.Info("action", zap.String("line", line), zap.Int("rc", rc))
}
