// Package varexpand implements ${...} variable expansion with modifier
// flags and context-dependent escaping.
package varexpand

import (
	"strings"
)

// EscapeContext selects which escape table applies to the text surrounding
// an expansion, per the target that will consume it.
type EscapeContext int

const (
	EscapeAction EscapeContext = iota // default table
	EscapeRegex
	EscapeQuoted
	EscapeNone
)

var (
	defaultEscapeChars = "\\|$<>&()#;\"!`"
	regexEscapeChars   = "\\|$<>&()#;\"!`.*+?[]^"
	quotedEscapeChars  = "\\\"$`"
)

func tableFor(ctx EscapeContext) string {
	switch ctx {
	case EscapeRegex:
		return regexEscapeChars
	case EscapeQuoted:
		return quotedEscapeChars
	case EscapeNone:
		return ""
	default:
		return defaultEscapeChars
	}
}

// escape backslash-escapes every byte of v that appears in chars.
func escape(v, chars string) string {
	if chars == "" {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		if strings.IndexByte(chars, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Quote wraps v in POSIX single quotes, escaping embedded quotes, the way
// the shell layer quotes a value containing spaces for the `#` modifier.
func Quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

// modifiers is the parsed bit-field + booleans for one ${...} reference's
// leading modifier characters.
type modifiers struct {
	quoteIfSpace    bool // '#' or '!'
	escapeInternal  bool // '\', '#', '!' or '~'
	skipOuterEscape bool // '!' or '~'
	noEscape        bool // '^'
	autoVarRef      bool // leading "__"
}

func parseModifiers(s string) (modifiers, string) {
	var m modifiers
	if strings.HasPrefix(s, "__") {
		m.autoVarRef = true
		s = s[2:]
	}
	for len(s) > 0 {
		switch s[0] {
		case '#':
			m.quoteIfSpace = true
			m.escapeInternal = true
		case '\\':
			m.escapeInternal = true
		case '!':
			m.quoteIfSpace = true
			m.escapeInternal = true
			m.skipOuterEscape = true
		case '~':
			m.escapeInternal = true
			m.skipOuterEscape = true
		case '^':
			m.noEscape = true
		default:
			return m, s
		}
		s = s[1:]
	}
	return m, s
}

// Lookup resolves a bare variable name (no modifiers, no braces) to its
// current text value. ok is false when the name is unknown, which lets
// Expand fall through alternatives and, eventually, to literal text.
type Lookup func(name string) (value string, ok bool)

// Expand scans s for ${...} references and replaces them with resolved,
// escaped text. lookup implements the variable lookup-order chain
// (parsed args -> defaults -> view-id -> context-fixed -> globals ->
// env); composing it is the caller's responsibility.
func Expand(s string, lookup Lookup, ctx EscapeContext) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			end := matchBrace(s, i+1)
			if end < 0 {
				out.WriteByte(s[i])
				i++
				continue
			}
			inner := s[i+2 : end]
			out.WriteString(expandOne(inner, lookup, ctx))
			i = end + 1
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// matchBrace returns the index of the matching '}' for the '{' at open, or
// -1 if unterminated.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func expandOne(inner string, lookup Lookup, ctx EscapeContext) string {
	m, rest := parseModifiers(inner)

	escCtx := ctx
	if m.noEscape {
		escCtx = EscapeNone
	}
	table := tableFor(escCtx)
	if m.skipOuterEscape {
		table = tableFor(EscapeNone)
	}

	alts := strings.Split(rest, ":")
	var resolved string
	found := false
	for _, alt := range alts {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if v, ok := lookup(alt); ok {
			resolved = v
			found = true
			break
		}
	}
	if !found {
		// No alternative named a known variable: the last alternative
		// doubles as literal fallback text.
		for i := len(alts) - 1; i >= 0; i-- {
			if alt := strings.TrimSpace(alts[i]); alt != "" {
				resolved = alt
				found = true
				break
			}
		}
	}
	if !found {
		return ""
	}

	if m.escapeInternal {
		resolved = escape(resolved, table)
	} else if !m.noEscape {
		resolved = escape(resolved, table)
	}

	if m.quoteIfSpace && strings.ContainsAny(resolved, " \t") {
		resolved = Quote(resolved)
	}

	return resolved
}
