// Package symbol implements pluggable named functions (action, access,
// config, log hooks), dynamic plugin loading, and namespaced symbol
// resolution ("sym@plugin").
package symbol

import (
	"context"
	"fmt"
	"strings"
)

// Type classifies what a symbol is used for.
type Type int

const (
	TypeNone Type = iota
	TypeAction
	TypeAccess
	TypeConfig
	TypeLog
)

// APIStyle selects the calling convention for an action-type symbol.
type APIStyle int

const (
	// APISimple: func(ctx, script, out *string) error — the symbol itself
	// writes captured textual output, if any.
	APISimple APIStyle = iota
	// APIStdout: func(ctx, script) error — the framework forks/pipes and
	// captures the symbol's stdout up to StdoutMaxBuf bytes.
	APIStdout
)

// StdoutMaxBuf bounds captured output for APIStdout symbols
// (CLISH_STDOUT_MAXBUF).
const StdoutMaxBuf = 1 << 20 // 1 MiB

// Fn is a symbol's native Go implementation. out receives captured text for
// APISimple symbols; for APIStdout it points at a string that is discarded,
// since runStdoutCapture captures the symbol's stdout itself. A non-nil
// error is a script_error.
type Fn func(ctx context.Context, ec *ExecContext, script string, out *string) error

// Symbol is one named, pluggable function.
type Symbol struct {
	Name      string
	Fn        Fn
	Type      Type
	API       APIStyle
	Permanent bool // survives dry-run
	Plugin    *Plugin
}

// Plugin is a loaded module contributing named symbols.
type Plugin struct {
	Name    string
	Init    func() ([]*Symbol, error)
	Fini    func() error
	symbols map[string]*Symbol
}

// Ref is an unresolved textual symbol reference as it appears in the
// scheme: bare "name" (matches any plugin) or "name@plugin" (pinned).
type Ref string

func (r Ref) parts() (name, plugin string) {
	if i := strings.IndexByte(string(r), '@'); i >= 0 {
		return string(r)[:i], string(r)[i+1:]
	}
	return string(r), ""
}

// Registry resolves Refs against the set of loaded plugins.
type Registry struct {
	plugins []*Plugin
	byName  map[string][]*Symbol // bare name -> candidates across plugins
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string][]*Symbol)}
}

// Load runs a plugin's Init and indexes its symbols.
func (r *Registry) Load(p *Plugin) error {
	syms, err := p.Init()
	if err != nil {
		return fmt.Errorf("plugin %s: init: %w", p.Name, err)
	}
	p.symbols = make(map[string]*Symbol, len(syms))
	for _, s := range syms {
		s.Plugin = p
		p.symbols[s.Name] = s
		r.byName[s.Name] = append(r.byName[s.Name], s)
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Resolve binds a textual reference to a concrete Symbol. Unresolved
// symbols fail the load.
func (r *Registry) Resolve(ref Ref) (*Symbol, error) {
	name, plugin := ref.parts()
	if plugin != "" {
		for _, p := range r.plugins {
			if p.Name == plugin {
				if s, ok := p.symbols[name]; ok {
					return s, nil
				}
				return nil, fmt.Errorf("symbol %q not found in plugin %q", name, plugin)
			}
		}
		return nil, fmt.Errorf("plugin %q not loaded", plugin)
	}
	cands := r.byName[name]
	if len(cands) == 0 {
		return nil, fmt.Errorf("unresolved symbol %q", name)
	}
	return cands[0], nil
}

// Close runs every loaded plugin's Fini, in reverse load order.
func (r *Registry) Close() error {
	var firstErr error
	for i := len(r.plugins) - 1; i >= 0; i-- {
		p := r.plugins[i]
		if p.Fini == nil {
			continue
		}
		if err := p.Fini(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("plugin %s: fini: %w", p.Name, err)
		}
	}
	return firstErr
}
