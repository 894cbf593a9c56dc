package shell

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/go-klish/klish/internal/parser"
)

// contextHelp implements the editor's '?' callback: resolve the line,
// walk the completion candidates at the cursor, and render per-parameter
// help. A fully-matched command additionally renders its DETAIL text as
// terminal markdown.
func (e *Engine) contextHelp(line string, cursor int) string {
	var b strings.Builder

	match, ok := e.Views.Resolve(e.currentView, line)
	if !ok {
		for _, v := range e.commandsForHelp() {
			fmt.Fprintf(&b, "  %-24s %s\n", v.name, v.help)
		}
		return b.String()
	}

	cmd := match.Cmd
	rest := strings.TrimSpace(strings.TrimPrefix(line, match.MatchedText))
	tokens := tokenizeArgs(rest)
	res := parser.Match(cmd, tokens, 0, len(tokens), evaluator{e})

	for _, p := range res.Completions {
		if p.Hidden {
			continue
		}
		name := p.Name
		if p.PType != nil && p.PType.RangeText() != "" {
			name = fmt.Sprintf("%s (%s)", p.Name, p.PType.RangeText())
		}
		fmt.Fprintf(&b, "  %-24s %s\n", name, p.Help)
	}

	if res.Status == parser.StatusOK {
		fmt.Fprintf(&b, "  %-24s %s\n", "<cr>", cmd.Help)
		if cmd.Detail != "" {
			b.WriteString(e.renderDetail(cmd.Detail))
		}
	}
	return b.String()
}

type helpEntry struct{ name, help string }

// commandsForHelp lists the commands visible on the context-help surface
// of the current view.
func (e *Engine) commandsForHelp() []helpEntry {
	var out []helpEntry
	v, ok := e.Views.Get(e.currentView)
	if !ok {
		return out
	}
	for _, c := range v.Commands() {
		out = append(out, helpEntry{c.Name, c.Help})
	}
	if gv, ok := e.Views.GlobalView(); ok && e.currentView != "global" {
		for _, c := range gv.Commands() {
			out = append(out, helpEntry{c.Name, c.Help})
		}
	}
	for _, name := range e.Views.Complete(e.currentView, "context_help") {
		seen := false
		for _, h := range out {
			if h.name == name {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, helpEntry{name, ""})
		}
	}
	return out
}

// renderDetail runs a command's DETAIL text through the terminal markdown
// renderer, falling back to the raw text if rendering fails.
func (e *Engine) renderDetail(detail string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return detail + "\n"
	}
	out, err := r.Render(detail)
	if err != nil {
		return detail + "\n"
	}
	return out
}
