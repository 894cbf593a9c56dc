package shell

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// execScope carries the per-invocation values behind the context-fixed
// underscore variables: the matched command, the raw line, and the
// namespace-prefix words that led to it.
type execScope struct {
	fullCmd  string // resolved command name, prefix included
	cmd      string // target command name (link target for namespace links)
	origCmd  string
	line     string // arguments after the command name
	fullLine string
	params   []string // validated parameter values, in match order
	prefixes []string // _prefix0.._prefixN
}

// lookupContextVar resolves the context-fixed underscore variables. scope may
// be nil outside a command match (prompt expansion, hook scripts), in
// which case only the session-level ones resolve.
func (e *Engine) lookupContextVar(name string, scope *execScope) (string, bool) {
	switch name {
	case "_width":
		w, _ := e.termSize()
		return strconv.Itoa(w), true
	case "_height":
		_, h := e.termSize()
		return strconv.Itoa(h), true
	case "_watchdog_timeout":
		return strconv.Itoa(int(e.opts.WatchdogTimeout.Seconds())), true
	case "_interactive":
		return boolVar(e.opts.Interactive), true
	case "_isatty":
		return boolVar(term.IsTerminal(int(os.Stdin.Fd()))), true
	case "_pid":
		return strconv.Itoa(os.Getpid()), true
	case "_cur_depth":
		return strconv.Itoa(e.pwd.depth() - 1), true
	case "_cur_pwd":
		return strings.Join(e.pwd.lines(), " "), true
	}

	if scope == nil {
		return "", false
	}
	switch name {
	case "_full_cmd":
		return scope.fullCmd, true
	case "_cmd":
		return scope.cmd, true
	case "_orig_cmd":
		return scope.origCmd, true
	case "_line":
		return scope.line, true
	case "_full_line":
		return scope.fullLine, true
	case "_params":
		return strings.Join(scope.params, " "), true
	}
	if idx, ok := strings.CutPrefix(name, "_prefix"); ok {
		n, err := strconv.Atoi(idx)
		if err == nil && n >= 0 && n < len(scope.prefixes) {
			return scope.prefixes[n], true
		}
	}
	return "", false
}

func (e *Engine) termSize() (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80, 24
	}
	return w, h
}

func boolVar(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
