package css

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Unescape resolves CSS escapes in identifiers: "group\/item" becomes
// "group/item" and "\31 0" becomes "10".
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		j := i
		for j < len(s) && j-i < 6 && isHex(s[j]) {
			j++
		}
		if j == i {
			// not a hex escape - take next character literally
			r, size := utf8.DecodeRuneInString(s[i:])
			sb.WriteRune(r)
			i += size - 1
			continue
		}
		code, _ := strconv.ParseUint(s[i:j], 16, 32)
		if code == 0 || code > utf8.MaxRune {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.WriteRune(rune(code))
		}
		if j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
			j++
		}
		i = j - 1
	}
	return sb.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// Unquote returns content of CSS string token.
func Unquote(t Token) string {
	return unquote(string(t.Data))
}
