// Package command implements COMMAND: named invokable grammar nodes.
package command

import "github.com/go-klish/klish/internal/param"

// ConfigOp selects what a command's attached CONFIG directive does on
// successful execution.
type ConfigOp int

const (
	ConfigNone ConfigOp = iota
	ConfigSet
	ConfigUnset
	ConfigDump
)

// ConfigDirective is attached to a command and composes a configuration
// query on success.
type ConfigDirective struct {
	Op       ConfigOp
	Priority uint16
	Pattern  string
	File     string
	Splitter bool
	Sequence string // expression; "" and "0" both leave the entry unsequenced (no automatic numbering)
	Unique   bool
	Depth    string
}

// Action is a command's script body.
type Action struct {
	Script  string
	Symbol  string // textual ref, resolved by the scheme loader/registry
	Shebang string // per-action interpreter override; "" defers to the shell-wide default
}

// Command is a named invokable grammar node, owned by a view.
type Command struct {
	Name       string
	Help       string
	Detail     string
	Params     *param.Vector
	ArgsParam  *param.Param // optional trailing greedy parameter
	Action     *Action
	Config     *ConfigDirective
	ViewName   string // view to transition to on success; "" = stay
	ViewID     string // template expanded against the PARGV to seed view-id bindings
	PView      string // owning view, set when a view adopts the command
	EscapeChar string // override escape table used for this command's context
	RegexChar  string
	Lock       bool
	Interrupt  bool
	Access     string

	// Alias/link: a command-link projects AliasOf's body into this view
	// under Name. Resolved by name (not a raw pointer) so deleting the
	// original is safe until link-resolution time.
	AliasOf     string
	AliasOfView string
}

// IsLink reports whether this command is a projection of another.
func (c *Command) IsLink() bool { return c.AliasOf != "" }
