// Package ptype implements parameter types (PTYPE): named validators
// referenced by parameters in a command's grammar.
package ptype

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Method selects how a PTYPE validates and translates values.
type Method int

const (
	MethodRegex Method = iota
	MethodInteger
	MethodUnsignedInteger
	MethodSelect
)

// Preprocess selects case-folding applied before validation.
type Preprocess int

const (
	PreprocessNone Preprocess = iota
	PreprocessToUpper
	PreprocessToLower
)

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// SelectEntry is one (display, value) pair of an enumerated PTYPE.
type SelectEntry struct {
	Display string
	Value   string
}

// PTYPE is a named, immutable-after-load value validator.
type PTYPE struct {
	Name        string
	Help        string
	Text        string // optional display text
	Pattern     string
	Method      Method
	Preprocess  Preprocess
	Min, Max    int64 // integer/unsigned_integer only
	Select      []SelectEntry
	compiledRe  *regexp.Regexp
	rangeText   string
}

// New compiles a PTYPE from its scheme attributes. For MethodRegex, Pattern
// is wrapped in an implicit ^...$ full-match anchor.
func New(name, help, text, pattern string, method Method, pre Preprocess, min, max int64, sel []SelectEntry) (*PTYPE, error) {
	p := &PTYPE{
		Name: name, Help: help, Text: text, Pattern: pattern,
		Method: method, Preprocess: pre, Min: min, Max: max, Select: sel,
	}
	switch method {
	case MethodRegex:
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("ptype %s: invalid regex %q: %w", name, pattern, err)
		}
		p.compiledRe = re
		p.rangeText = ""
	case MethodInteger, MethodUnsignedInteger:
		p.rangeText = fmt.Sprintf("%d..%d", min, max)
	case MethodSelect:
		names := make([]string, len(sel))
		for i, e := range sel {
			names[i] = e.Display
		}
		p.rangeText = strings.Join(names, "/")
	}
	return p, nil
}

// RangeText is the help-surfaced range: "min..max" for integers, a "/"
// joined list for select, empty for regex.
func (p *PTYPE) RangeText() string { return p.rangeText }

func (p *PTYPE) applyPreprocess(v string) string {
	switch p.Preprocess {
	case PreprocessToUpper:
		return upperCaser.String(v)
	case PreprocessToLower:
		return lowerCaser.String(v)
	default:
		return v
	}
}

// Validate returns the canonical value on success, or ("", false).
func (p *PTYPE) Validate(value string) (string, bool) {
	v := p.applyPreprocess(value)
	switch p.Method {
	case MethodRegex:
		if p.compiledRe.MatchString(v) {
			return v, true
		}
		return "", false
	case MethodInteger:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < p.Min || n > p.Max {
			return "", false
		}
		return v, true
	case MethodUnsignedInteger:
		if strings.HasPrefix(v, "-") {
			return "", false
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || int64(n) < p.Min || int64(n) > p.Max {
			return "", false
		}
		return v, true
	case MethodSelect:
		for _, e := range p.Select {
			if strings.EqualFold(e.Display, v) {
				return e.Display, true
			}
		}
		return "", false
	}
	return "", false
}

// Translate is like Validate but, for MethodSelect, returns the entry's
// mapped value instead of its display name.
func (p *PTYPE) Translate(value string) (string, bool) {
	if p.Method != MethodSelect {
		return p.Validate(value)
	}
	v := p.applyPreprocess(value)
	for _, e := range p.Select {
		if strings.EqualFold(e.Display, v) {
			return e.Value, true
		}
	}
	return "", false
}

// WordGenerator returns candidate completions for MethodSelect PTYPEs whose
// display name is prefixed by prefix. Non-select methods return nil.
func (p *PTYPE) WordGenerator(prefix string) []string {
	if p.Method != MethodSelect {
		return nil
	}
	var out []string
	for _, e := range p.Select {
		if strings.HasPrefix(strings.ToLower(e.Display), strings.ToLower(prefix)) {
			out = append(out, e.Display)
		}
	}
	return out
}
