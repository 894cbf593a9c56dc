// Package parser implements the matcher: resolving a
// partial or complete token stream against a command's parameter grammar.
package parser

import (
	"strings"

	"github.com/go-klish/klish/internal/command"
	"github.com/go-klish/klish/internal/param"
)

// Status is the outcome of matching a token stream against a grammar.
type Status int

const (
	StatusOK Status = iota
	StatusPartial
	StatusBadCmd
	StatusBadParam
)

// PARG is one matched (parameter, validated-value) pair.
type PARG struct {
	Param *param.Param
	Value string
}

// PARGV is the ordered set of PARGs produced by one command match.
type PARGV struct {
	Args []PARG
}

func (v *PARGV) add(p *param.Param, val string) { v.Args = append(v.Args, PARG{Param: p, Value: val}) }

func (v *PARGV) has(p *param.Param) bool {
	for _, a := range v.Args {
		if a.Param == p {
			return true
		}
	}
	return false
}

// ByName looks up the validated value of a named parameter.
func (v *PARGV) ByName(name string) (string, bool) {
	for _, a := range v.Args {
		if a.Param.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Evaluator runs the side-channel scripts a grammar can reference: PARAM/@test
// (conditional enablement) and PARAM/@completion (candidate generation).
type Evaluator interface {
	Test(p *param.Param) bool
	Completions(p *param.Param, currentWord string) []string
}

// Result is the full outcome of one Match call.
type Result struct {
	Status      Status
	PARGV       *PARGV
	Completions []*param.Param // candidates eligible at insertionIndex
	WordHints   []string       // extra text candidates (ptype select / param completion)
}

// Match walks cmd's parameter vector against tokens starting at
// startIndex. When insertionIndex equals startIndex..len(tokens), the
// legal parameters and word-hints at that cursor position are collected
// into Result.Completions/WordHints in addition to normal matching.
func Match(cmd *command.Command, tokens []string, startIndex, insertionIndex int, ev Evaluator) *Result {
	res := &Result{PARGV: &PARGV{}}
	tokenIdx := matchVector(cmd.Params, tokens, startIndex, insertionIndex, res, ev)
	if res.Status == StatusBadParam {
		return res
	}

	if tokenIdx < len(tokens) {
		if cmd.ArgsParam != nil {
			res.PARGV.add(cmd.ArgsParam, strings.Join(tokens[tokenIdx:], " "))
		} else {
			res.Status = StatusBadCmd
			return res
		}
	} else if !vectorSatisfied(cmd.Params, res.PARGV, ev) {
		res.Status = StatusPartial
		return res
	}

	res.Status = StatusOK
	return res
}

func vectorSatisfied(vec *param.Vector, pargv *PARGV, ev Evaluator) bool {
	if vec == nil {
		return true
	}
	for _, p := range vec.Params {
		if p.Test != "" && ev != nil && !ev.Test(p) {
			continue
		}
		if !p.Optional && !pargv.has(p) {
			return false
		}
	}
	return true
}

// matchVector returns the token index reached. It mutates res.Status to
// StatusBadParam on a hard failure (required parameter fails validation).
func matchVector(vec *param.Vector, tokens []string, tokenIdx, insertionIndex int, res *Result, ev Evaluator) int {
	if vec == nil {
		return tokenIdx
	}

	lastRequired := -1
	i := 0
	for i < len(vec.Params) {
		p := vec.Params[i]
		if p.Test != "" && ev != nil && !ev.Test(p) {
			i++
			continue
		}

		if tokenIdx == insertionIndex {
			recordCompletionCandidates(p, tokens, tokenIdx, res, ev)
		}

		if tokenIdx >= len(tokens) {
			if p.Optional {
				i++
				continue
			}
			return tokenIdx // StatusPartial decided by caller
		}

		token := tokens[tokenIdx]

		switch p.Mode {
		case param.ModeSubcommand:
			if token == p.Literal() && !res.PARGV.has(p) {
				res.PARGV.add(p, token)
				tokenIdx++
				if p.Params != nil {
					tokenIdx = matchVector(p.Params, tokens, tokenIdx, insertionIndex, res, ev)
					if res.Status == StatusBadParam {
						return tokenIdx
					}
				}
				if p.Optional && !p.Ordered {
					i = lastRequired + 1
					continue
				}
				lastRequired = i
				i++
				continue
			}
			if p.Optional {
				i++
				continue
			}
			res.Status = StatusBadParam
			return tokenIdx

		case param.ModeSwitch:
			matched := false
			if p.Params != nil {
				for _, child := range p.Params.Params {
					var ok bool
					var val string
					if child.Mode == param.ModeSubcommand {
						ok = token == child.Literal()
						val = token
					} else if child.PType != nil {
						val, ok = child.PType.Validate(token)
					}
					if ok {
						res.PARGV.add(p, child.Name)
						res.PARGV.add(child, val)
						tokenIdx++
						matched = true
						break
					}
				}
			}
			if matched {
				if p.Optional && !p.Ordered {
					i = lastRequired + 1
					continue
				}
				lastRequired = i
				i++
				continue
			}
			if p.Optional {
				i++
				continue
			}
			res.Status = StatusBadParam
			return tokenIdx

		default: // common
			var val string
			var ok bool
			if p.PType != nil {
				val, ok = p.PType.Validate(token)
			}
			if ok && !res.PARGV.has(p) {
				res.PARGV.add(p, val)
				tokenIdx++
				if p.Params != nil {
					tokenIdx = matchVector(p.Params, tokens, tokenIdx, insertionIndex, res, ev)
					if res.Status == StatusBadParam {
						return tokenIdx
					}
				}
				if p.Optional && !p.Ordered {
					i = lastRequired + 1
					continue
				}
				lastRequired = i
				i++
				continue
			}
			if p.Optional {
				i++
				continue
			}
			res.Status = StatusBadParam
			return tokenIdx
		}
	}
	return tokenIdx
}

func recordCompletionCandidates(p *param.Param, tokens []string, tokenIdx int, res *Result, ev Evaluator) {
	var current string
	if tokenIdx < len(tokens) {
		current = tokens[tokenIdx]
	}
	switch p.Mode {
	case param.ModeSwitch:
		if p.Params != nil {
			for _, child := range p.Params.Params {
				if child.Mode == param.ModeSubcommand {
					if strings.HasPrefix(child.Literal(), current) {
						res.Completions = append(res.Completions, child)
					}
				} else {
					res.Completions = append(res.Completions, child)
				}
			}
		}
	case param.ModeSubcommand:
		if strings.HasPrefix(p.Literal(), current) {
			res.Completions = append(res.Completions, p)
		}
	default:
		res.Completions = append(res.Completions, p)
		if p.PType != nil {
			res.WordHints = append(res.WordHints, p.PType.WordGenerator(current)...)
		}
	}
	if p.Completion != "" && ev != nil {
		res.WordHints = append(res.WordHints, ev.Completions(p, current)...)
	}
}
