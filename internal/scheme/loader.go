package scheme

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-klish/klish/internal/command"
	"github.com/go-klish/klish/internal/param"
	"github.com/go-klish/klish/internal/ptype"
	"github.com/go-klish/klish/internal/variable"
	"github.com/go-klish/klish/internal/view"
)

// ExternalPlugin is an undispatched <PLUGIN> reference: a named module
// backed by a file (directory or executable) the symbol registry's
// plugin manager loads after scheme load.
type ExternalPlugin struct {
	Name string
	File string
}

// Lifecycle is a STARTUP or WATCHDOG command-shaped declaration.
type Lifecycle struct {
	Timeout  time.Duration
	ViewName string
	ViewID   string
	Action   *command.Action
}

// Result is everything a scheme directory populates: views, ptypes,
// commands, params, actions, configs, namespaces, vars, and hotkeys.
type Result struct {
	Views    *view.Set
	PTypes   map[string]*ptype.PTYPE
	Vars     *variable.Tree
	Overview string
	Startup  *Lifecycle
	Watchdog *Lifecycle
	Plugins  []ExternalPlugin
	Hotkeys  map[string]string // module-level hotkeys, merged into "global"
}

// Loader walks a scheme directory bottom-up, enforcing the uniqueness
// and single-overview invariants across every file it reads.
type Loader struct {
	res          *Result
	overviewSeen bool
	pendingLinks []pendingLink
}

type pendingLink struct {
	view *view.View
	cmd  *command.Command
}

// New creates an empty Loader; call LoadDirs with every scheme directory.
func New() *Loader {
	return &Loader{
		res: &Result{
			Views:   view.NewSet(),
			PTypes:  make(map[string]*ptype.PTYPE),
			Vars:    variable.NewTree(),
			Hotkeys: make(map[string]string),
		},
	}
}

// LoadDirs loads every "*.xml" file across the given directories, in
// lexical order within each directory, then resolves command-links.
func (l *Loader) LoadDirs(dirs []string) (*Result, error) {
	for _, dir := range dirs {
		if err := l.loadDir(dir); err != nil {
			return nil, err
		}
	}
	if err := l.resolveLinks(); err != nil {
		return nil, err
	}
	return l.res, nil
}

func (l *Loader) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scheme dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".xml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	for _, f := range files {
		if err := l.loadFile(f); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}

func (l *Loader) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var mod xmlModule
	if err := xml.Unmarshal(data, &mod); err != nil {
		return fmt.Errorf("parse xml: %w", err)
	}
	return l.loadModule(&mod)
}

func (l *Loader) loadModule(mod *xmlModule) error {
	for _, pt := range mod.PTypes {
		p, err := buildPType(pt)
		if err != nil {
			return err
		}
		if _, dup := l.res.PTypes[p.Name]; dup {
			return fmt.Errorf("duplicate PTYPE %q", p.Name)
		}
		l.res.PTypes[p.Name] = p
	}

	for _, vr := range mod.Vars {
		v := &variable.Var{Name: vr.Name, Value: vr.Value, Action: vr.Action, Static: !boolAttr(vr.Dynamic, false)}
		if _, dup := l.res.Vars.Get(v.Name); dup {
			return fmt.Errorf("duplicate VAR %q", v.Name)
		}
		l.res.Vars.Add(v)
	}

	for _, pl := range mod.Plugins {
		l.res.Plugins = append(l.res.Plugins, ExternalPlugin{Name: pl.Name, File: pl.File})
	}

	for _, xh := range mod.Hotkeys {
		l.res.Hotkeys[xh.Key] = xh.Cmd
	}

	if mod.Overview != nil {
		if l.overviewSeen {
			return fmt.Errorf("multiple OVERVIEW elements in one scheme directory")
		}
		l.overviewSeen = true
		l.res.Overview = strings.TrimSpace(mod.Overview.Text)
	}

	if mod.Startup != nil {
		lc, err := buildLifecycle(mod.Startup)
		if err != nil {
			return err
		}
		l.res.Startup = lc
	}
	if mod.Watchdog != nil {
		lc, err := buildLifecycle(mod.Watchdog)
		if err != nil {
			return err
		}
		l.res.Watchdog = lc
	}

	for _, xv := range mod.Views {
		v, err := l.buildView(xv)
		if err != nil {
			return err
		}
		l.res.Views.Add(v)
	}
	return nil
}

func buildLifecycle(xl *xmlLifecycle) (*Lifecycle, error) {
	lc := &Lifecycle{ViewName: xl.ViewName, ViewID: xl.ViewID}
	if xl.Timeout != "" {
		secs, err := strconv.Atoi(xl.Timeout)
		if err != nil {
			return nil, fmt.Errorf("bad timeout %q: %w", xl.Timeout, err)
		}
		lc.Timeout = time.Duration(secs) * time.Second
	}
	if xl.Action != nil {
		lc.Action = &command.Action{Script: strings.TrimSpace(xl.Action.Script), Symbol: xl.Action.Builtin, Shebang: xl.Action.Shebang}
	}
	return lc, nil
}

func (l *Loader) buildView(xv xmlView) (*view.View, error) {
	v := view.New(xv.Name)
	v.Prompt = xv.Prompt
	v.Access = xv.Access
	v.Restore = restorePolicy(xv.Restore)
	if xv.Depth != "" {
		d, err := strconv.Atoi(xv.Depth)
		if err != nil {
			return nil, fmt.Errorf("view %s: bad depth %q: %w", xv.Name, xv.Depth, err)
		}
		v.Depth = d
	}

	for _, xh := range xv.Hotkeys {
		v.Hotkeys[xh.Key] = xh.Cmd
	}

	for _, xns := range xv.Namespaces {
		ns := &view.Namespace{
			TargetView:  xns.Ref,
			Help:        boolAttr(xns.Help, true),
			Completion:  boolAttr(xns.Completion, true),
			ContextHelp: boolAttr(xns.ContextHelp, true),
			Inherit:     boolAttr(xns.Inherit, false),
		}
		if xns.Prefix != "" {
			re, err := regexp.Compile(xns.Prefix)
			if err != nil {
				return nil, fmt.Errorf("view %s: namespace prefix %q: %w", xv.Name, xns.Prefix, err)
			}
			ns.Prefix = re
		}
		v.Namespaces = append(v.Namespaces, ns)
	}

	for _, xc := range xv.Commands {
		c, isLink, err := l.buildCommand(xc)
		if err != nil {
			return nil, fmt.Errorf("view %s: command %s: %w", xv.Name, xc.Name, err)
		}
		if !v.AddCommand(c) {
			return nil, fmt.Errorf("view %s: duplicate command %q", xv.Name, xc.Name)
		}
		if isLink {
			l.pendingLinks = append(l.pendingLinks, pendingLink{view: v, cmd: c})
		}
	}
	return v, nil
}

func (l *Loader) buildCommand(xc xmlCommand) (*command.Command, bool, error) {
	c := &command.Command{
		Name:       xc.Name,
		Help:       xc.Help,
		Detail:     strings.TrimSpace(xc.Detail),
		ViewName:   xc.ViewName,
		ViewID:     xc.ViewID,
		EscapeChar: xc.EscapeChar,
		RegexChar:  xc.RegexChar,
		Lock:       boolAttr(xc.Lock, false),
		Interrupt:  boolAttr(xc.Interrupt, false),
		Access:     xc.Access,
	}

	if xc.Ref != "" {
		c.AliasOf = xc.Ref
		return c, true, nil
	}

	vec := param.NewVector()
	var argsParam *param.Param
	for _, xp := range xc.Params {
		p, err := l.buildParam(xp)
		if err != nil {
			return nil, false, err
		}
		if p.PType != nil && p.PType.Name == "args" {
			argsParam = p
			continue
		}
		if vec.ByName(p.Name) != nil {
			return nil, false, fmt.Errorf("duplicate parameter %q", p.Name)
		}
		vec.Add(p)
	}
	c.Params = vec
	c.ArgsParam = argsParam

	if xc.Action != nil {
		c.Action = &command.Action{Script: strings.TrimSpace(xc.Action.Script), Symbol: xc.Action.Builtin, Shebang: xc.Action.Shebang}
	}
	if xc.Config != nil {
		cfg, err := buildConfig(xc.Config)
		if err != nil {
			return nil, false, err
		}
		c.Config = cfg
	}
	return c, false, nil
}

func (l *Loader) buildParam(xp xmlParam) (*param.Param, error) {
	pt, ok := l.res.PTypes[xp.PType]
	if xp.PType != "" && !ok {
		return nil, fmt.Errorf("param %s: unknown ptype %q", xp.Name, xp.PType)
	}

	p := &param.Param{
		Name:       xp.Name,
		Help:       xp.Help,
		PType:      pt,
		Default:    xp.Default,
		Mode:       paramMode(xp.Mode),
		Optional:   boolAttr(xp.Optional, false),
		Ordered:    boolAttr(xp.Order, false),
		Hidden:     boolAttr(xp.Hidden, false),
		Value:      xp.Value,
		Test:       xp.Test,
		Completion: xp.Completion,
		Access:     xp.Access,
	}

	if len(xp.Params) > 0 {
		nested := param.NewVector()
		for _, child := range xp.Params {
			cp, err := l.buildParam(child)
			if err != nil {
				return nil, err
			}
			nested.Add(cp)
		}
		p.Params = nested
	}

	if xp.Prefix != "" {
		return param.WrapSubcommandPrefix(xp.Prefix, p), nil
	}
	return p, nil
}

func buildConfig(xc *xmlConfig) (*command.ConfigDirective, error) {
	cfg := &command.ConfigDirective{
		Pattern:  xc.Pattern,
		File:     xc.File,
		Splitter: boolAttr(xc.Splitter, false),
		Sequence: xc.Sequence,
		Unique:   boolAttr(xc.Unique, true),
		Depth:    xc.Depth,
	}
	switch strings.ToLower(xc.Operation) {
	case "", "none":
		cfg.Op = command.ConfigNone
	case "set":
		cfg.Op = command.ConfigSet
	case "unset":
		cfg.Op = command.ConfigUnset
	case "dump":
		cfg.Op = command.ConfigDump
	default:
		return nil, fmt.Errorf("unknown CONFIG operation %q", xc.Operation)
	}
	if xc.Priority != "" {
		v, err := strconv.ParseUint(strings.TrimPrefix(xc.Priority, "0x"), 16, 16)
		if err != nil {
			return nil, fmt.Errorf("bad CONFIG priority %q: %w", xc.Priority, err)
		}
		cfg.Priority = uint16(v)
	}
	return cfg, nil
}

func buildPType(xt xmlPTYPE) (*ptype.PTYPE, error) {
	method, sel, err := parsePTypeMethod(xt.Method, xt.Pattern)
	if err != nil {
		return nil, fmt.Errorf("ptype %s: %w", xt.Name, err)
	}
	var min, max int64
	if method == ptype.MethodInteger || method == ptype.MethodUnsignedInteger {
		min, max, err = parseRange(xt.Pattern)
		if err != nil {
			return nil, fmt.Errorf("ptype %s: %w", xt.Name, err)
		}
	}
	pre := ptype.PreprocessNone
	switch strings.ToLower(xt.Preprocess) {
	case "toupper", "to-upper":
		pre = ptype.PreprocessToUpper
	case "tolower", "to-lower":
		pre = ptype.PreprocessToLower
	}
	pattern := xt.Pattern
	if method == ptype.MethodSelect {
		pattern = ""
	}
	return ptype.New(xt.Name, xt.Help, xt.Text, pattern, method, pre, min, max, sel)
}

// parsePTypeMethod dispatches on the PTYPE/@method attribute. For select,
// Pattern holds whitespace-separated "display(value)" (or bare "display")
// tokens.
func parsePTypeMethod(method, pattern string) (ptype.Method, []ptype.SelectEntry, error) {
	switch strings.ToLower(method) {
	case "regexp", "regex", "":
		return ptype.MethodRegex, nil, nil
	case "integer":
		return ptype.MethodInteger, nil, nil
	case "unsignedinteger", "unsigned_integer":
		return ptype.MethodUnsignedInteger, nil, nil
	case "select":
		entries, err := parseSelectEntries(pattern)
		return ptype.MethodSelect, entries, err
	default:
		return 0, nil, fmt.Errorf("unknown method %q", method)
	}
}

var selectEntryRe = regexp.MustCompile(`([^\s()]+)(?:\(([^)]*)\))?`)

func parseSelectEntries(pattern string) ([]ptype.SelectEntry, error) {
	matches := selectEntryRe.FindAllStringSubmatch(pattern, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("select ptype requires at least one entry")
	}
	out := make([]ptype.SelectEntry, 0, len(matches))
	for _, m := range matches {
		value := m[2]
		if value == "" {
			value = m[1]
		}
		out = append(out, ptype.SelectEntry{Display: m[1], Value: value})
	}
	return out, nil
}

// parseRange parses "min..max" integer/unsigned_integer patterns.
func parseRange(pattern string) (int64, int64, error) {
	parts := strings.SplitN(pattern, "..", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("integer ptype pattern must be \"min..max\", got %q", pattern)
	}
	min, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad min %q: %w", parts[0], err)
	}
	max, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad max %q: %w", parts[1], err)
	}
	return min, max, nil
}

func paramMode(s string) param.Mode {
	switch strings.ToLower(s) {
	case "switch":
		return param.ModeSwitch
	case "subcommand":
		return param.ModeSubcommand
	default:
		return param.ModeCommon
	}
}

func restorePolicy(s string) view.RestorePolicy {
	switch strings.ToLower(s) {
	case "depth":
		return view.RestoreDepth
	case "view":
		return view.RestoreView
	default:
		return view.RestoreNone
	}
}

func boolAttr(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

// resolveLinks binds every command-link's AliasOf to its target command's
// body, copying Params/Action/Config/view-transition fields while keeping
// the link's own Name/Help. Links are resolved here, after every file has
// loaded, so declaration order between link and target does not matter.
func (l *Loader) resolveLinks() error {
	for _, pl := range l.pendingLinks {
		targetView := pl.view
		if pl.cmd.AliasOfView != "" {
			v, ok := l.res.Views.Get(pl.cmd.AliasOfView)
			if !ok {
				return fmt.Errorf("command link %s: unknown view %q", pl.cmd.Name, pl.cmd.AliasOfView)
			}
			targetView = v
		}
		target, ok := targetView.Command(pl.cmd.AliasOf)
		if !ok {
			return fmt.Errorf("command link %s: target %q not found", pl.cmd.Name, pl.cmd.AliasOf)
		}
		name, help, pview := pl.cmd.Name, pl.cmd.Help, pl.cmd.PView
		aliasOf, aliasOfView := pl.cmd.AliasOf, pl.cmd.AliasOfView
		*pl.cmd = *target
		pl.cmd.Name = name
		pl.cmd.PView = pview
		pl.cmd.AliasOf = aliasOf
		pl.cmd.AliasOfView = aliasOfView
		if help != "" {
			pl.cmd.Help = help
		}
	}
	return nil
}
