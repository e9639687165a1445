package quoting

import "strings"

var escapeMap = map[byte]byte{
	't':  '\t',
	'n':  '\n',
	'r':  '\r',
	'a':  '\a',
	'b':  '\b',
	'\'': '\'',
	'"':  '"',
	'\\': '\\',
}

// Unescape removes C-style backslash escapes: the named single-character
// escapes plus three-digit octal sequences. A backslash before any other
// character is dropped, keeping the character itself. A trailing lone
// backslash is kept as-is.
func Unescape(val string) string {
	if !strings.ContainsRune(val, '\\') {
		return val
	}
	var b strings.Builder
	b.Grow(len(val))
	for i := 0; i < len(val); i++ {
		c := val[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(val) {
			b.WriteByte('\\')
			break
		}
		if i+3 < len(val) && isOctal(val[i+1]) && isOctal(val[i+2]) && isOctal(val[i+3]) {
			b.WriteByte((val[i+1]-'0')<<6 | (val[i+2]-'0')<<3 | (val[i+3] - '0'))
			i += 3
			continue
		}
		next := val[i+1]
		if mapped, ok := escapeMap[next]; ok {
			b.WriteByte(mapped)
		} else {
			b.WriteByte(next)
		}
		i++
	}
	return b.String()
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}
