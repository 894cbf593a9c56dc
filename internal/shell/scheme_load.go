package shell

import (
	"github.com/go-klish/klish/internal/scheme"
	"github.com/go-klish/klish/internal/view"
)

// LoadScheme merges a loaded scheme.Result into the engine's trees:
// views, ptypes, commands, params, namespaces, vars, and hotkeys.
// Initialize must have run first so the
// engine's own empty "global" view and builtin "args" ptype already
// exist; a scheme-declared "global" view merges into it rather than
// replacing it.
func (e *Engine) LoadScheme(res *scheme.Result) {
	for name, pt := range res.PTypes {
		e.PTypes[name] = pt
	}
	for _, v := range res.Vars.All() {
		e.Globals.Add(v)
	}
	for _, v := range res.Views.All() {
		if v.Name == "global" {
			if existing, ok := e.Views.Get("global"); ok {
				mergeView(existing, v)
				continue
			}
		}
		e.Views.Add(v)
	}
	if res.Overview != "" {
		e.Overview = res.Overview
	}
	if len(res.Hotkeys) > 0 {
		if gv, ok := e.Views.Get("global"); ok {
			for k, cmd := range res.Hotkeys {
				gv.Hotkeys[k] = cmd
			}
		}
	}
	if res.Startup != nil {
		e.SetStartup(&Lifecycle{Action: res.Startup.Action, ViewName: res.Startup.ViewName, ViewID: res.Startup.ViewID})
	}
	if res.Watchdog != nil {
		e.SetWatchdog(&Lifecycle{Action: res.Watchdog.Action, ViewName: res.Watchdog.ViewName, ViewID: res.Watchdog.ViewID})
		if res.Watchdog.Timeout > 0 {
			e.opts.WatchdogTimeout = res.Watchdog.Timeout
			e.editor.WatchdogTimeout = res.Watchdog.Timeout
		}
	}
}

func mergeView(dst, src *view.View) {
	if src.Prompt != "" {
		dst.Prompt = src.Prompt
	}
	if src.Access != "" {
		dst.Access = src.Access
	}
	for _, c := range src.Commands() {
		dst.AddCommand(c)
	}
	dst.Namespaces = append(dst.Namespaces, src.Namespaces...)
	for k, v := range src.Hotkeys {
		dst.Hotkeys[k] = v
	}
}
