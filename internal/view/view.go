// Package view implements VIEW and NAMESPACE: ordered
// containers of commands, with import/prefix resolution and per-view
// hotkeys.
package view

import (
	"regexp"
	"strings"

	"github.com/go-klish/klish/internal/command"
)

// RestorePolicy controls how the session's position is restored before a
// command owned by this view runs from a deeper nesting level.
type RestorePolicy int

const (
	RestoreNone RestorePolicy = iota
	RestoreDepth
	RestoreView
)

// Namespace is an import of another view's commands into this one,
// optionally gated behind a literal prefix regex.
type Namespace struct {
	TargetView   string
	Prefix       *regexp.Regexp
	Help         bool
	Completion   bool
	ContextHelp  bool
	Inherit      bool

	linkCache map[string]*command.Command
}

func (ns *Namespace) cacheLink(key string, target *command.Command, name string) *command.Command {
	if ns.linkCache == nil {
		ns.linkCache = make(map[string]*command.Command)
	}
	if c, ok := ns.linkCache[key]; ok {
		return c
	}
	link := *target
	link.Name = name
	link.AliasOf = target.Name
	link.AliasOfView = ns.TargetView
	ns.linkCache[key] = &link
	return &link
}

// View is an ordered container of commands plus namespace imports and
// per-view hotkeys.
type View struct {
	Name    string
	Prompt  string
	Access  string
	Depth   int
	Restore RestorePolicy

	order   []string
	cmds    map[string]*command.Command
	Namespaces []*Namespace
	Hotkeys map[string]string // "^A".."^_" -> command line
}

func New(name string) *View {
	return &View{Name: name, cmds: make(map[string]*command.Command), Hotkeys: make(map[string]string)}
}

// AddCommand registers a command, enforcing the per-view name-uniqueness
// invariant, and records the owning view on the command.
func (v *View) AddCommand(c *command.Command) bool {
	if _, exists := v.cmds[c.Name]; exists {
		return false
	}
	c.PView = v.Name
	v.cmds[c.Name] = c
	v.order = append(v.order, c.Name)
	return true
}

// RemoveCommand drops a command from the view, e.g. when its access
// check fails at prepare time.
func (v *View) RemoveCommand(name string) {
	if _, ok := v.cmds[name]; !ok {
		return
	}
	delete(v.cmds, name)
	for i, n := range v.order {
		if n == name {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

func (v *View) Command(name string) (*command.Command, bool) {
	c, ok := v.cmds[name]
	return c, ok
}

// Commands returns commands in declaration order.
func (v *View) Commands() []*command.Command {
	out := make([]*command.Command, 0, len(v.order))
	for _, n := range v.order {
		out = append(out, v.cmds[n])
	}
	return out
}

// localPrefixMatch finds the longest locally-declared command name that is
// a whole-token prefix of line.
func (v *View) localPrefixMatch(line string) (*command.Command, string, bool) {
	var best *command.Command
	var bestName string
	for _, name := range v.order {
		if line == name || strings.HasPrefix(line, name+" ") {
			if len(name) > len(bestName) {
				best, bestName = v.cmds[name], name
			}
		}
	}
	return best, bestName, best != nil
}

// Set is the full collection of views, keyed by name. "global" is the
// distinguished view searched from every other view.
type Set struct {
	views map[string]*View
}

func NewSet() *Set { return &Set{views: make(map[string]*View)} }

func (s *Set) Add(v *View) { s.views[v.Name] = v }

func (s *Set) Get(name string) (*View, bool) {
	v, ok := s.views[name]
	return v, ok
}

func (s *Set) GlobalView() (*View, bool) { return s.Get("global") }

// All returns every view in the set, in no particular order.
func (s *Set) All() []*View {
	out := make([]*View, 0, len(s.views))
	for _, v := range s.views {
		out = append(out, v)
	}
	return out
}

// Match is one candidate resolution of a line against the view graph.
type Match struct {
	Cmd         *command.Command
	MatchedText string
	SourceView  string // view the command actually lives in
}

// Resolve implements the command-lookup procedure: current view, then
// global, then namespace imports in reverse insertion order, preferring
// the longest match and the local view on ties.
func (s *Set) Resolve(currentView, line string) (*Match, bool) {
	var best *Match
	consider := func(m *Match, localWins bool) {
		if m == nil {
			return
		}
		if best == nil || len(m.MatchedText) > len(best.MatchedText) {
			best = m
			return
		}
		if localWins && len(m.MatchedText) == len(best.MatchedText) {
			best = m
		}
	}

	cv, ok := s.Get(currentView)
	if ok {
		if c, name, hit := cv.localPrefixMatch(line); hit {
			consider(&Match{Cmd: c, MatchedText: name, SourceView: currentView}, true)
		}
	}

	if gv, ok := s.GlobalView(); ok && currentView != "global" {
		if c, name, hit := gv.localPrefixMatch(line); hit {
			consider(&Match{Cmd: c, MatchedText: name, SourceView: "global"}, false)
		}
	}

	if ok {
		for i := len(cv.Namespaces) - 1; i >= 0; i-- {
			if m := s.resolveNamespace(cv.Namespaces[i], line, visibilityAny, map[string]bool{currentView: true}); m != nil {
				consider(m, false)
			}
		}
	}

	return best, best != nil
}

type visibility int

const (
	visibilityAny visibility = iota
	visibilityHelp
	visibilityCompletion
	visibilityContextHelp
)

func (ns *Namespace) visible(want visibility) bool {
	switch want {
	case visibilityHelp:
		return ns.Help
	case visibilityCompletion:
		return ns.Completion
	case visibilityContextHelp:
		return ns.ContextHelp
	default:
		return true
	}
}

func (s *Set) resolveNamespace(ns *Namespace, line string, want visibility, visited map[string]bool) *Match {
	if !ns.visible(want) || visited[ns.TargetView] {
		return nil
	}
	target, ok := s.Get(ns.TargetView)
	if !ok {
		return nil
	}
	visited = cloneVisited(visited)
	visited[ns.TargetView] = true

	searchLine := line
	prefixText := ""
	if ns.Prefix != nil {
		loc := ns.Prefix.FindStringIndex(line)
		if loc == nil || loc[0] != 0 {
			return nil
		}
		prefixText = line[:loc[1]]
		rest := line[loc[1]:]
		rest = strings.TrimPrefix(rest, " ")
		searchLine = rest
	}

	if c, name, hit := target.localPrefixMatch(searchLine); hit {
		if ns.Prefix == nil {
			return &Match{Cmd: c, MatchedText: name, SourceView: ns.TargetView}
		}
		linkName := prefixText + name
		link := ns.cacheLink(name, c, linkName)
		return &Match{Cmd: link, MatchedText: prefixText + name, SourceView: ns.TargetView}
	}

	if ns.Inherit {
		for i := len(target.Namespaces) - 1; i >= 0; i-- {
			if m := s.resolveNamespace(target.Namespaces[i], searchLine, want, visited); m != nil {
				if prefixText != "" {
					m.MatchedText = prefixText + m.MatchedText
				}
				return m
			}
		}
	}
	return nil
}

func cloneVisited(v map[string]bool) map[string]bool {
	out := make(map[string]bool, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Complete enumerates command-name completions reachable from
// currentView for the given visibility surface, mirroring the Resolve
// walk.
func (s *Set) Complete(currentView string, want string) []string {
	var vis visibility
	switch want {
	case "help":
		vis = visibilityHelp
	case "completion":
		vis = visibilityCompletion
	case "context_help":
		vis = visibilityContextHelp
	default:
		vis = visibilityAny
	}

	var out []string
	cv, ok := s.Get(currentView)
	if !ok {
		return out
	}
	for _, c := range cv.Commands() {
		out = append(out, c.Name)
	}
	if gv, ok := s.GlobalView(); ok && currentView != "global" {
		for _, c := range gv.Commands() {
			out = append(out, c.Name)
		}
	}
	for _, ns := range cv.Namespaces {
		out = append(out, s.namespaceCompletions(ns, vis, map[string]bool{currentView: true})...)
	}
	return out
}

func (s *Set) namespaceCompletions(ns *Namespace, vis visibility, visited map[string]bool) []string {
	if !ns.visible(vis) || visited[ns.TargetView] {
		return nil
	}
	target, ok := s.Get(ns.TargetView)
	if !ok {
		return nil
	}
	visited = cloneVisited(visited)
	visited[ns.TargetView] = true

	var out []string
	for _, c := range target.Commands() {
		name := c.Name
		if ns.Prefix != nil {
			name = ns.Prefix.String() + c.Name
		}
		out = append(out, name)
	}
	if ns.Inherit {
		for _, child := range target.Namespaces {
			out = append(out, s.namespaceCompletions(child, vis, visited)...)
		}
	}
	return out
}
