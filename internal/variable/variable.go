// Package variable holds global and per-view-id variable trees and the
// lookup-order chain consumed by varexpand.Lookup.
package variable

import "sync"

// Var is a named text value: either a literal Value or an Action invoked to
// compute one. Static variables cache their first computed value.
type Var struct {
	Name   string
	Value  string
	Action string // non-empty => dynamic, computed via the action resolver
	Static bool

	mu     sync.Mutex
	cached string
	hasVal bool
}

// Resolve returns the variable's text, invoking compute (normally a call
// through the symbol resolver) for Action variables. Static variables
// cache their first computed result in the Var record itself.
func (v *Var) Resolve(compute func(action string) (string, error)) (string, error) {
	if v.Action == "" {
		return v.Value, nil
	}
	if v.Static {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.hasVal {
			return v.cached, nil
		}
		out, err := compute(v.Action)
		if err != nil {
			return "", err
		}
		v.cached, v.hasVal = out, true
		return out, nil
	}
	return compute(v.Action)
}

// ResetCache clears a static variable's cached value (scheme reload).
func (v *Var) ResetCache() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hasVal = false
	v.cached = ""
}

// Tree is a flat named map of variables, used both for the shell's global
// tree and for each view's namespace-local tree.
type Tree struct {
	mu   sync.RWMutex
	vars map[string]*Var
}

func NewTree() *Tree { return &Tree{vars: make(map[string]*Var)} }

func (t *Tree) Add(v *Var) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vars[v.Name] = v
}

func (t *Tree) Get(name string) (*Var, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.vars[name]
	return v, ok
}

// All returns every variable in the tree, in no particular order.
func (t *Tree) All() []*Var {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Var, 0, len(t.vars))
	for _, v := range t.vars {
		out = append(out, v)
	}
	return out
}

// ResetAll clears static-variable caches, e.g. on scheme reload.
func (t *Tree) ResetAll() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, v := range t.vars {
		v.ResetCache()
	}
}
