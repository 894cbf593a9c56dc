// Package lineedit implements a UTF-8 aware, single-line, readline-style
// editor: history, completion, hotkeys, idle/watchdog timers, and
// escape-sequence decoding. Terminal raw mode comes from
// golang.org/x/term and cell-width accounting from
// github.com/mattn/go-runewidth.
package lineedit

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Buffer is the editable line: a slice of runes plus a cursor position
// measured in runes (not bytes, not cells).
type Buffer struct {
	runes  []rune
	cursor int
}

func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) String() string { return string(b.runes) }

func (b *Buffer) SetString(s string) {
	b.runes = []rune(s)
	b.cursor = len(b.runes)
}

func (b *Buffer) Len() int { return len(b.runes) }

func (b *Buffer) Cursor() int { return b.cursor }

func (b *Buffer) SetCursor(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.runes) {
		pos = len(b.runes)
	}
	b.cursor = pos
}

// InsertRune inserts r at the cursor and advances it by one code point.
func (b *Buffer) InsertRune(r rune) {
	b.runes = append(b.runes, 0)
	copy(b.runes[b.cursor+1:], b.runes[b.cursor:])
	b.runes[b.cursor] = r
	b.cursor++
}

// InsertString inserts s (e.g. a completion or a bracketed paste) at the
// cursor.
func (b *Buffer) InsertString(s string) {
	for _, r := range s {
		b.InsertRune(r)
	}
}

// Backspace deletes exactly one code point left of the cursor.
func (b *Buffer) Backspace() bool {
	if b.cursor == 0 {
		return false
	}
	b.runes = append(b.runes[:b.cursor-1], b.runes[b.cursor:]...)
	b.cursor--
	return true
}

// DeleteForward deletes exactly one code point at the cursor (EOT).
func (b *Buffer) DeleteForward() bool {
	if b.cursor >= len(b.runes) {
		return false
	}
	b.runes = append(b.runes[:b.cursor], b.runes[b.cursor+1:]...)
	return true
}

// DeleteToEnd truncates from the cursor to end of line (VT: kill-to-end).
func (b *Buffer) DeleteToEnd() string {
	killed := string(b.runes[b.cursor:])
	b.runes = b.runes[:b.cursor]
	return killed
}

// DeleteFromStart truncates from the start of line to the cursor (NAK).
func (b *Buffer) DeleteFromStart() string {
	killed := string(b.runes[:b.cursor])
	b.runes = append([]rune{}, b.runes[b.cursor:]...)
	b.cursor = 0
	return killed
}

// DeletePreviousWord deletes the word left of the cursor (ETB) and returns
// the killed text for the yank ring.
func (b *Buffer) DeletePreviousWord() string {
	end := b.cursor
	i := b.cursor
	for i > 0 && b.runes[i-1] == ' ' {
		i--
	}
	for i > 0 && b.runes[i-1] != ' ' {
		i--
	}
	killed := string(b.runes[i:end])
	b.runes = append(b.runes[:i], b.runes[end:]...)
	b.cursor = i
	return killed
}

// MoveLeft/MoveRight move the cursor by one code point.
func (b *Buffer) MoveLeft() bool {
	if b.cursor == 0 {
		return false
	}
	b.cursor--
	return true
}

func (b *Buffer) MoveRight() bool {
	if b.cursor >= len(b.runes) {
		return false
	}
	b.cursor++
	return true
}

func (b *Buffer) Home() { b.cursor = 0 }
func (b *Buffer) End()  { b.cursor = len(b.runes) }

// CellWidth returns the terminal column width of the first n runes
// (single-width, double-width CJK, zero-width combining), via go-runewidth.
func (b *Buffer) CellWidth(n int) int {
	if n > len(b.runes) {
		n = len(b.runes)
	}
	return runewidth.StringWidth(string(b.runes[:n]))
}

// CursorCell is the cursor's terminal column offset from the start of the
// line.
func (b *Buffer) CursorCell() int { return b.CellWidth(b.cursor) }

// QuoteDepth returns the count of unescaped double-quotes up to the
// cursor; an odd count means the cursor is "inside quotes", where a
// space never terminates a word.
func (b *Buffer) QuoteDepth() int {
	s := string(b.runes[:b.cursor])
	count := 0
	escaped := false
	for _, r := range s {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '"' {
			count++
		}
	}
	return count
}

func (b *Buffer) InsideQuotes() bool { return b.QuoteDepth()%2 == 1 }

// CurrentWord returns the word under/left of the cursor and its start
// index, honoring quote state (a space never terminates a word while
// quoting).
func (b *Buffer) CurrentWord() (word string, start int) {
	insideQuotes := b.InsideQuotes()
	i := b.cursor
	for i > 0 {
		if !insideQuotes && b.runes[i-1] == ' ' {
			break
		}
		i--
	}
	return string(b.runes[i:b.cursor]), i
}

// Tokens splits the buffer into whitespace-separated tokens, honoring
// double-quote grouping, for the parser/completion layer.
func (b *Buffer) Tokens() []string {
	return tokenize(b.String())
}

func tokenize(s string) []string {
	var toks []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}
