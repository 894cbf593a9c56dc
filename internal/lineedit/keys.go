package lineedit

// Key is a decoded input event: either a literal rune, a control code, or a
// named escape-sequence movement.
type Key int

const (
	KeyNone Key = iota
	KeyRune     // a literal rune; the editor inserts runes directly, so no decoder returns this
	KeyEnter    // CR/LF
	KeyETX      // ^C
	KeyDEL      // backspace (0x7f)
	KeyBS       // ^H
	KeyEOT      // ^D, delete-right
	KeyFF       // ^L, clear screen
	KeyNAK      // ^U, erase-from-start
	KeySOH      // ^A, home
	KeyENQ      // ^E, end
	KeyVT       // ^K, kill-to-end
	KeyEM       // ^Y, yank
	KeyHT       // Tab, complete
	KeyETB      // ^W, delete previous word
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyDelete
	KeyPasteStart // bracketed paste ESC[200~
	KeyPasteEnd   // bracketed paste ESC[201~
	KeyHotkey     // an unbound control code in ^A..^_; not returned by any decoder
)

// controlKeyTable maps the default bound control codes.
var controlKeyTable = map[byte]Key{
	'\r':      KeyEnter,
	'\n':      KeyEnter,
	0x03:      KeyETX,
	0x7f:      KeyDEL,
	0x08:      KeyBS,
	0x04:      KeyEOT,
	0x0c:      KeyFF,
	0x15:      KeyNAK,
	0x01:      KeySOH,
	0x05:      KeyENQ,
	0x0b:      KeyVT,
	0x19:      KeyEM,
	0x09:      KeyHT,
	0x17:      KeyETB,
}

// HotkeyName returns the symbolic "^A".."^_" name for a raw control byte,
// used to look up the per-view hotkey map for codes not already bound
// above.
func HotkeyName(b byte) (string, bool) {
	if b < 0x01 || b > 0x1f {
		return "", false
	}
	return string([]byte{'^', b + 'A' - 1}), true
}
