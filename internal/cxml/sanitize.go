package cxml

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"
)

var declarationRe = regexp.MustCompile(`<\?xml.*?\?>`)

// Sanitize normalizes raw partner payloads before decoding. Procurement
// systems routinely send byte-order marks, leading whitespace, misplaced
// declarations, and stray control characters.
func Sanitize(raw []byte) []byte {
	content := bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	content = bytes.TrimLeft(content, " \t\r\n")

	if !bytes.HasPrefix(content, []byte("<?xml")) {
		if loc := declarationRe.FindIndex(content); loc != nil {
			decl := content[loc[0]:loc[1]]
			rest := append(content[:loc[0]:loc[0]], content[loc[1]:]...)
			content = append(append([]byte{}, decl...), rest...)
		} else {
			content = append([]byte(xmlDeclaration), content...)
		}
	}

	return []byte(stripInvalidChars(string(content)))
}

func stripInvalidChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isValidXMLChar(r) && r != utf8.RuneError {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isValidXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD)
}
