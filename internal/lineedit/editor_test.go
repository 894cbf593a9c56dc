package lineedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feed(bs []byte) func() (byte, bool) {
	i := 0
	return func() (byte, bool) {
		if i >= len(bs) {
			return 0, false
		}
		b := bs[i]
		i++
		return b, true
	}
}

func TestDecodeEscapeArrowsAndHome(t *testing.T) {
	assert.Equal(t, KeyUp, decodeEscape(feed([]byte("[A"))))
	assert.Equal(t, KeyDown, decodeEscape(feed([]byte("[B"))))
	assert.Equal(t, KeyLeft, decodeEscape(feed([]byte("[D"))))
	assert.Equal(t, KeyHome, decodeEscape(feed([]byte("[H"))))
	assert.Equal(t, KeyDelete, decodeEscape(feed([]byte("[3~"))))
	assert.Equal(t, KeyEnd, decodeEscape(feed([]byte("[4~"))))
	assert.Equal(t, KeyRight, decodeEscape(feed([]byte("OC"))))
}

func TestHotkeyName(t *testing.T) {
	name, ok := HotkeyName(0x10)
	assert.True(t, ok)
	assert.Equal(t, "^P", name)

	_, ok = HotkeyName(0x41)
	assert.False(t, ok)
}

func TestDecodeRuneMultibyte(t *testing.T) {
	// 'é' = U+00E9 = 0xC3 0xA9 in UTF-8.
	r, n := decodeRune(0xC3, feed([]byte{0xA9}))
	assert.Equal(t, 'é', r)
	assert.Equal(t, 2, n)
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, "show ", commonPrefix([]string{"show version", "show running-config"}))
	assert.Equal(t, "", commonPrefix([]string{"show", "configure"}))
}

func TestReadPasteInsertsVerbatim(t *testing.T) {
	e := &Editor{}
	buf := NewBuffer()
	// "ab\r\ncd" followed by the ESC[201~ terminator.
	e.readPaste(buf, feed(append([]byte("ab\r\ncd"), 0x1b, '[', '2', '0', '1', '~')))
	assert.Equal(t, "ab cd", buf.String())
}

func TestDecodePasteMarkers(t *testing.T) {
	assert.Equal(t, KeyPasteStart, decodeEscape(feed([]byte("[200~"))))
	assert.Equal(t, KeyPasteEnd, decodeEscape(feed([]byte("[201~"))))
}

func TestEditorCompleteSingleMatch(t *testing.T) {
	e := &Editor{}
	e.CB.Complete = func(line string, cursor int) []string { return []string{"version"} }
	buf := NewBuffer()
	buf.SetString("ver")
	var hint string
	e.complete(buf, &hint)
	assert.Equal(t, "version", buf.String())
}
