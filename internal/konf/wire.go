package konf

import (
	"fmt"
	"strconv"
	"strings"
)

// Query is one parsed client request, following the short-option wire
// grammar: "-s|-u|-d|-t  -l <line>  -r <pattern>  -p <hex>  -q <seq>
// -i  -n  -h <depth>  -f <path>  <pwd...>".
type Query struct {
	Op       byte // 's' set, 'u' unset, 'd' dump, 't' stream
	Line     string
	Pattern  string
	Priority uint16
	Seq      int
	Splitter bool // -i absent => true; present => false
	Unique   bool // -n absent => true; present => false
	Depth    int
	File     string
	Pwd      []string
}

// ParseQuery tokenizes one wire-protocol line, honoring double-quoted
// tokens, into a Query.
func ParseQuery(line string) (*Query, error) {
	toks, err := splitQuoted(line)
	if err != nil {
		return nil, err
	}
	q := &Query{Splitter: true, Unique: true}

	i := 0
	for i < len(toks) {
		tok := toks[i]
		switch tok {
		case "-s":
			q.Op = 's'
		case "-u":
			q.Op = 'u'
		case "-d":
			q.Op = 'd'
		case "-t":
			q.Op = 't'
		case "-l":
			i++
			q.Line = arg(toks, i)
		case "-r":
			i++
			q.Pattern = arg(toks, i)
		case "-p":
			i++
			v, err := strconv.ParseUint(strings.TrimPrefix(arg(toks, i), "0x"), 16, 16)
			if err != nil {
				return nil, fmt.Errorf("bad -p value: %w", err)
			}
			q.Priority = uint16(v)
		case "-q":
			i++
			n, err := strconv.Atoi(arg(toks, i))
			if err != nil {
				return nil, fmt.Errorf("bad -q value: %w", err)
			}
			q.Seq = n
		case "-i":
			q.Splitter = false
		case "-n":
			q.Unique = false
		case "-h":
			i++
			n, err := strconv.Atoi(arg(toks, i))
			if err != nil {
				return nil, fmt.Errorf("bad -h value: %w", err)
			}
			q.Depth = n
		case "-f":
			i++
			q.File = arg(toks, i)
		default:
			q.Pwd = append(q.Pwd, tok)
		}
		i++
	}
	return q, nil
}

func arg(toks []string, i int) string {
	if i >= len(toks) {
		return ""
	}
	return toks[i]
}

// splitQuoted tokenizes a wire line honoring double-quoted arguments with
// backslash escapes, mirroring the quoting konf's client applies when it
// composes a query.
func splitQuoted(line string) ([]string, error) {
	var toks []string
	var cur strings.Builder
	inQuotes := false
	escaped := false
	started := false

	flush := func() {
		if started {
			toks = append(toks, cur.String())
			cur.Reset()
			started = false
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
			started = true
		case c == '\\':
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
			started = true
		case c == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteByte(c)
			started = true
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quote in query")
	}
	flush()
	return toks, nil
}
