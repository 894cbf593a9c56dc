// Package param implements PARAMs and parameter vectors: the named typed
// slots that make up a command's grammar.
package param

import "github.com/go-klish/klish/internal/ptype"

// Mode selects how a parameter is matched.
type Mode int

const (
	ModeCommon Mode = iota
	ModeSwitch
	ModeSubcommand
)

// Param is one named slot in a command's grammar.
type Param struct {
	Name       string
	Help       string
	PType      *ptype.PTYPE
	Default    string
	Mode       Mode
	Optional   bool
	Ordered    bool
	Hidden     bool
	Value      string // subcommand literal; defaults to Name if empty
	Test       string // action symbol name, invoked with an empty script; the param counts as absent unless it succeeds with output other than "" or "0" (not run as a shell expression)
	Completion string // action symbol name, invoked with the current word as script; each word of its output is a candidate
	Access     string // group-access expression
	Params     *Vector // nested parameter vector (switch children, or sub-params)
}

// Literal is the subcommand literal text this parameter matches.
func (p *Param) Literal() string {
	if p.Mode == ModeSubcommand {
		if p.Value != "" {
			return p.Value
		}
		return p.Name
	}
	return ""
}

// Vector is an ordered collection of parameters. Optional, non-ordered
// parameters may be matched out of their declared order.
type Vector struct {
	Params []*Param
}

func NewVector() *Vector { return &Vector{} }

func (v *Vector) Add(p *Param) { v.Params = append(v.Params, p) }

func (v *Vector) ByName(name string) *Param {
	for _, p := range v.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (v *Vector) Len() int { return len(v.Params) }

// WrapSubcommandPrefix implements the PARAM/@prefix auto-expansion:
// a literal subcommand wrapper is synthesised around an optional inner
// parameter carrying the given literal prefix text.
func WrapSubcommandPrefix(prefix string, inner *Param) *Param {
	inner.Optional = true
	wrapper := &Param{
		Name:     prefix,
		Mode:     ModeSubcommand,
		Value:    prefix,
		Optional: inner.Optional,
		Params:   &Vector{Params: []*Param{inner}},
	}
	return wrapper
}
