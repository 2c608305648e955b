package grammar

import "unicode/utf8"

// StringInput is an Input over a complete string, addressed by byte offset.
type StringInput string

// Next implements Input.
func (s StringInput) Next(pos int) (rune, int, error) {
	if pos >= len(s) {
		return EOS, 0, nil
	}
	switch c := s[pos]; {
	case c == '\r':
		if pos+1 < len(s) && s[pos+1] == '\n' {
			return '\n', 2, nil
		}
		return '\n', 1, nil
	case c < utf8.RuneSelf:
		return rune(c), 1, nil
	}
	r, w := utf8.DecodeRuneInString(string(s[pos:]))
	return r, w, nil
}

// Prev implements Input.
func (s StringInput) Prev(pos int) (rune, int) {
	if pos <= 0 {
		return EOS, 0
	}
	switch c := s[pos-1]; {
	case c == '\n':
		if pos >= 2 && s[pos-2] == '\r' {
			return '\n', 2
		}
		return '\n', 1
	case c == '\r':
		return '\n', 1
	case c < utf8.RuneSelf:
		return rune(c), 1
	}
	return utf8.DecodeLastRuneInString(string(s[:pos]))
}
