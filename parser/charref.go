package parser

import "golang.org/x/net/html"

// longestReferenceName is the length of the longest named character
// reference, "CounterClockwiseContourIntegral;".
const longestReferenceName = 32

// longestLegacyReference is the longest reference that may appear without
// its trailing semicolon.
const longestLegacyReference = 6

// matchNamedReference finds the longest named character reference at the
// start of name, which holds ASCII alphanumerics optionally followed by a
// semicolon. It returns the replacement text and the number of bytes of name
// it covers, or zero when nothing matches.
func matchNamedReference(name string) (string, int) {
	full := html.UnescapeString("&" + name)
	if full == "&"+name {
		return "", 0
	}
	// UnescapeString falls back to the longest legacy prefix when the whole
	// name is unknown, leaving the rest of the name untouched after it.
	for j := 2; j < len(name) && j <= longestLegacyReference; j++ {
		prefix := html.UnescapeString("&" + name[:j])
		if prefix != "&"+name[:j] && prefix+name[j:] == full {
			return prefix, j
		}
	}
	return full, len(name)
}

// numericCharacterReferenceEndStateTable replaces references to C1 controls
// with the windows-1252 characters authors meant.
var numericCharacterReferenceEndStateTable = map[int]rune{
	0x80: '€',
	0x82: '‚',
	0x83: 'ƒ',
	0x84: '„',
	0x85: '…',
	0x86: '†',
	0x87: '‡',
	0x88: 'ˆ',
	0x89: '‰',
	0x8A: 'Š',
	0x8B: '‹',
	0x8C: 'Œ',
	0x8E: 'Ž',
	0x91: '‘',
	0x92: '’',
	0x93: '“',
	0x94: '”',
	0x95: '•',
	0x96: '–',
	0x97: '—',
	0x98: '˜',
	0x99: '™',
	0x9A: 'š',
	0x9B: '›',
	0x9C: 'œ',
	0x9E: 'ž',
	0x9F: 'Ÿ',
}

func isNonCharacter(code int) bool {
	if code >= 0xFDD0 && code <= 0xFDEF {
		return true
	}
	return code <= 0x10FFFF && code&0xFFFE == 0xFFFE
}

func isC0Control(code int) bool {
	return code >= 0x00 && code <= 0x1F
}

func isControl(code int) bool {
	return isC0Control(code) || (code >= 0x7F && code <= 0x9F)
}

func isSurrogate(code int) bool {
	return code >= 0xD800 && code <= 0xDFFF
}

func isASCIIWhitespace(r rune) bool {
	switch r {
	case '\u0009', '\u000A', '\u000C', '\u000D', ' ':
		return true
	default:
		return false
	}
}

func isASCIIUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isASCIILower(r rune) bool {
	return r >= 'a' && r <= 'z'
}

func isASCIIAlpha(r rune) bool {
	return isASCIIUpper(r) || isASCIILower(r)
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isASCIIAlphanumeric(r rune) bool {
	return isASCIIAlpha(r) || isASCIIDigit(r)
}

func hexDigitValue(r rune) (int, bool) {
	switch {
	case isASCIIDigit(r):
		return int(r - '0'), true
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10, true
	}
	return 0, false
}

func toASCIILower(r rune) rune {
	if isASCIIUpper(r) {
		return r + 0x20
	}
	return r
}
