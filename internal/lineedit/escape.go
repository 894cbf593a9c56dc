package lineedit

// decodeEscape interprets the bytes following an ESC (0x1b) already
// consumed from the stream, pulling further bytes through next. When next
// reports no more input, or the sequence is not a recognized one, the
// result is KeyNone.
//
// Recognized forms: CSI arrow keys ("\x1b[A".."\x1b[D"), CSI Home/End
// ("\x1b[H"/"\x1b[F" and the numbered "\x1b[1~"/"\x1b[4~" variants), CSI
// Delete ("\x1b[3~"), and the SS3 variants emitted by some terminals in
// application-keypad mode ("\x1bOA".."\x1bOD", "\x1bOH", "\x1bOF").
func decodeEscape(next func() (byte, bool)) Key {
	b, ok := next()
	if !ok {
		return KeyNone
	}
	switch b {
	case '[':
		return decodeCSI(next)
	case 'O':
		b2, ok := next()
		if !ok {
			return KeyNone
		}
		switch b2 {
		case 'A':
			return KeyUp
		case 'B':
			return KeyDown
		case 'C':
			return KeyRight
		case 'D':
			return KeyLeft
		case 'H':
			return KeyHome
		case 'F':
			return KeyEnd
		}
	}
	return KeyNone
}

func decodeCSI(next func() (byte, bool)) Key {
	b, ok := next()
	if !ok {
		return KeyNone
	}
	switch b {
	case 'A':
		return KeyUp
	case 'B':
		return KeyDown
	case 'C':
		return KeyRight
	case 'D':
		return KeyLeft
	case 'H':
		return KeyHome
	case 'F':
		return KeyEnd
	}
	if b >= '0' && b <= '9' {
		n := int(b - '0')
		for {
			b2, ok := next()
			if !ok {
				return KeyNone
			}
			if b2 >= '0' && b2 <= '9' {
				n = n*10 + int(b2-'0')
				continue
			}
			if b2 == '~' {
				switch n {
				case 1, 7:
					return KeyHome
				case 3:
					return KeyDelete
				case 4, 8:
					return KeyEnd
				case 200:
					return KeyPasteStart
				case 201:
					return KeyPasteEnd
				}
			}
			return KeyNone
		}
	}
	return KeyNone
}
