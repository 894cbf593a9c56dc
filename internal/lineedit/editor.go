package lineedit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// ErrClosed is returned from ReadLine when the idle/watchdog callback ends
// the session. End of the input stream is reported as io.EOF instead.
var ErrClosed = errors.New("lineedit: session closed")

// Callbacks lets the owning shell plug in completion, hotkey dispatch and
// the idle/watchdog policy without lineedit importing the shell package.
type Callbacks struct {
	// Complete returns completion candidates for the current line; the
	// editor redraws nothing itself beyond the matched common prefix and
	// leaves listing ambiguous matches to the caller via Hint.
	Complete func(line string, cursor int) []string
	// Hint is invoked to print a word-hint / help line above the prompt,
	// e.g. on ambiguous completion; it may be nil.
	Hint func(candidates []string)
	// Help returns the contextual-help text for the current line, shown
	// above the prompt when '?' is pressed outside quotes.
	Help func(line string, cursor int) string
	// Hotkey is invoked for control codes not bound by the default key
	// table; it returns a replacement line to splice in, or ok=false to
	// ignore the keystroke.
	Hotkey func(name string) (line string, ok bool)
	// Idle fires after IdleTimeout elapses with no input; returning true
	// ends the session (idle timeout close), false continues waiting.
	Idle func() bool
	// Watchdog fires after WatchdogTimeout elapses since the session
	// started, regardless of activity; returning true ends the session.
	Watchdog func() bool
}

// Editor is a single-line UTF-8 aware reader built around a raw-mode
// terminal, configured entirely through Callbacks so the owning session
// decides completion, help, hotkeys, and timeout policy.
type Editor struct {
	in     *os.File
	out    io.Writer
	oldState *term.State
	reader *bufio.Reader

	Prompt string
	Hist   *History
	CB     Callbacks

	IdleTimeout     time.Duration
	WatchdogTimeout time.Duration

	logger *zap.Logger
}

func New(in *os.File, out io.Writer, logger *zap.Logger) *Editor {
	return &Editor{in: in, out: out, reader: bufio.NewReader(in), logger: logger}
}

// EnterRaw puts the terminal into raw mode and enables bracketed paste;
// callers must defer Restore.
func (e *Editor) EnterRaw() error {
	st, err := term.MakeRaw(int(e.in.Fd()))
	if err != nil {
		return err
	}
	e.oldState = st
	fmt.Fprint(e.out, "\x1b[?2004h")
	return nil
}

func (e *Editor) Restore() error {
	if e.oldState == nil {
		return nil
	}
	fmt.Fprint(e.out, "\x1b[?2004l")
	return term.Restore(int(e.in.Fd()), e.oldState)
}

// byteEvent carries one decoded input byte, or a terminal error/EOF, from
// the reader goroutine to the ReadLine select loop.
type byteEvent struct {
	b   byte
	err error
}

// ReadLine runs one edit session: reads and decodes keystrokes, updates an
// internal Buffer, and returns the finished line on Enter. Scheduling is
// cooperative: a single reader goroutine feeds a channel, and the main
// select loop never blocks on input longer than
// IdleTimeout/WatchdogTimeout without consulting the callbacks.
func (e *Editor) ReadLine(ctx context.Context) (string, error) {
	buf := NewBuffer()
	e.redraw(buf, "")

	events := make(chan byteEvent, 1)
	done := make(chan struct{})
	go func() {
		defer close(events)
		for {
			b, err := e.reader.ReadByte()
			select {
			case events <- byteEvent{b, err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	defer close(done)

	histIdx := 0
	if e.Hist != nil {
		histIdx = e.Hist.Len()
	}
	watchdogDeadline := time.Now().Add(e.WatchdogTimeout)
	hint := ""

	next := func() (byte, bool) {
		ev, ok := <-events
		if !ok || ev.err != nil {
			return 0, false
		}
		return ev.b, true
	}

	for {
		var idleC <-chan time.Time
		if e.IdleTimeout > 0 {
			idleC = time.After(e.IdleTimeout)
		}
		var watchdogC <-chan time.Time
		if e.WatchdogTimeout > 0 {
			watchdogC = time.After(time.Until(watchdogDeadline))
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case <-watchdogC:
			if e.CB.Watchdog == nil || e.CB.Watchdog() {
				return "", ErrClosed
			}
			watchdogDeadline = time.Now().Add(e.WatchdogTimeout)

		case <-idleC:
			if e.CB.Idle != nil && e.CB.Idle() {
				return "", ErrClosed
			}

		case ev, ok := <-events:
			if !ok || ev.err != nil {
				return "", io.EOF
			}

			line, finished := e.handleByte(buf, ev.b, next, &histIdx, &hint)
			if finished {
				if e.Hist != nil {
					e.Hist.Add(line)
				}
				fmt.Fprint(e.out, "\r\n")
				return line, nil
			}
			e.redraw(buf, hint)
		}
	}
}

// handleByte decodes one raw byte (possibly consuming more via next for
// multi-byte UTF-8 or escape sequences), applies it to buf, and reports
// whether the line is finished (Enter pressed).
func (e *Editor) handleByte(buf *Buffer, b byte, next func() (byte, bool), histIdx *int, hint *string) (line string, finished bool) {
	*hint = ""

	if b == 0x1b {
		switch decodeEscape(next) {
		case KeyPasteStart:
			e.readPaste(buf, next)
		case KeyLeft:
			buf.MoveLeft()
		case KeyRight:
			buf.MoveRight()
		case KeyHome:
			buf.Home()
		case KeyEnd:
			buf.End()
		case KeyDelete:
			buf.DeleteForward()
		case KeyUp:
			e.historyUp(buf, histIdx)
		case KeyDown:
			e.historyDown(buf, histIdx)
		}
		return "", false
	}

	if k, bound := controlKeyTable[b]; bound {
		switch k {
		case KeyEnter:
			return buf.String(), true
		case KeyETX:
			buf.SetString("")
			return "", false
		case KeyDEL, KeyBS:
			buf.Backspace()
		case KeyEOT:
			if buf.Len() == 0 {
				return "", true
			}
			buf.DeleteForward()
		case KeyFF:
			fmt.Fprint(e.out, "\x1b[2J\x1b[H")
		case KeyNAK:
			buf.DeleteFromStart()
		case KeySOH:
			buf.Home()
		case KeyENQ:
			buf.End()
		case KeyVT:
			buf.DeleteToEnd()
		case KeyETB:
			buf.DeletePreviousWord()
		case KeyHT:
			e.complete(buf, hint)
		}
		return "", false
	}

	if b < 0x20 {
		if name, ok := HotkeyName(b); ok && e.CB.Hotkey != nil {
			if line, ok := e.CB.Hotkey(name); ok {
				buf.SetString(line)
				return buf.String(), true
			}
		}
		return "", false
	}

	if b == '?' && !buf.InsideQuotes() && e.CB.Help != nil {
		*hint = strings.TrimRight(e.CB.Help(buf.String(), buf.Cursor()), "\n")
		return "", false
	}

	r, _ := decodeRune(b, next)
	buf.InsertRune(r)
	return "", false
}

// pasteEnd is the byte tail of the bracketed-paste terminator ESC[201~;
// its ESC has already been consumed by the time matching starts.
var pasteEnd = []byte("[201~")

// readPaste consumes bytes between ESC[200~ and ESC[201~ and inserts them
// into the buffer verbatim, CR folded to nothing so a multi-line paste
// stays a single editable line.
func (e *Editor) readPaste(buf *Buffer, next func() (byte, bool)) {
	var pending []byte
	for {
		b, ok := next()
		if !ok {
			break
		}
		if b == 0x1b {
			matched := 0
			for matched < len(pasteEnd) {
				nb, ok := next()
				if !ok || nb != pasteEnd[matched] {
					break
				}
				matched++
			}
			if matched == len(pasteEnd) {
				break
			}
			continue
		}
		if b != '\r' {
			pending = append(pending, b)
		}
	}
	buf.InsertString(strings.ReplaceAll(string(pending), "\n", " "))
}

func (e *Editor) complete(buf *Buffer, hint *string) {
	if e.CB.Complete == nil {
		return
	}
	word, _ := buf.CurrentWord()
	cands := e.CB.Complete(buf.String(), buf.Cursor())
	if len(cands) == 0 {
		return
	}
	if len(cands) == 1 {
		if strings.HasPrefix(cands[0], word) {
			buf.InsertString(cands[0][len(word):])
		}
		return
	}
	common := commonPrefix(cands)
	if strings.HasPrefix(common, word) && len(common) > len(word) {
		buf.InsertString(common[len(word):])
	}
	if e.CB.Hint != nil {
		e.CB.Hint(cands)
	}
}

func commonPrefix(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	p := ss[0]
	for _, s := range ss[1:] {
		i := 0
		for i < len(p) && i < len(s) && p[i] == s[i] {
			i++
		}
		p = p[:i]
	}
	return p
}

func (e *Editor) historyUp(buf *Buffer, idx *int) {
	if e.Hist == nil || *idx == 0 {
		return
	}
	*idx--
	if v, ok := e.Hist.At(*idx + 1); ok {
		buf.SetString(v)
	}
}

func (e *Editor) historyDown(buf *Buffer, idx *int) {
	if e.Hist == nil {
		return
	}
	if *idx >= e.Hist.Len()-1 {
		*idx = e.Hist.Len()
		buf.SetString("")
		return
	}
	*idx++
	if v, ok := e.Hist.At(*idx + 1); ok {
		buf.SetString(v)
	}
}

// decodeRune assembles a UTF-8 code point starting with the lead byte b,
// pulling continuation bytes via next.
func decodeRune(b byte, next func() (byte, bool)) (rune, int) {
	var n int
	switch {
	case b&0x80 == 0:
		return rune(b), 1
	case b&0xe0 == 0xc0:
		n = 1
	case b&0xf0 == 0xe0:
		n = 2
	case b&0xf8 == 0xf0:
		n = 3
	default:
		return rune(b), 1
	}
	r := rune(b & (0xff >> uint(n+2)))
	for i := 0; i < n; i++ {
		cb, ok := next()
		if !ok || cb&0xc0 != 0x80 {
			return r, 1
		}
		r = r<<6 | rune(cb&0x3f)
	}
	return r, n + 1
}

// redraw repaints the prompt and buffer in place: carriage return, clear
// to end of line, prompt, buffer, then reposition the cursor.
func (e *Editor) redraw(buf *Buffer, hint string) {
	if hint != "" {
		fmt.Fprintf(e.out, "\r\n%s\r\n", hint)
	}
	fmt.Fprintf(e.out, "\r\x1b[K%s%s", e.Prompt, buf.String())
	back := buf.CellWidth(buf.Len()) - buf.CursorCell()
	if back > 0 {
		fmt.Fprintf(e.out, "\x1b[%dD", back)
	}
}
