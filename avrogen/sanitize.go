package avrogen

import (
	"strings"
	"unicode"
)

// goKeywords is the full Go reserved-word set; a sanitized identifier that
// collides with one of these gets a trailing underscore.
var goKeywords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
}

// sanitizeIdent replaces every character that is not a Unicode letter, a
// Unicode digit, or an underscore with an underscore, prefixes a leading digit with an underscore, and suffixes a
// Go keyword collision with an underscore. It does not change case.
func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	if goKeywords[out] {
		out += "_"
	}
	return out
}

// sanitizeExported sanitizes name per sanitizeIdent and upper-cases its
// first letter, so the result is a valid exported Go identifier (the
// generator only ever emits exported type, field, and constant names, since
// the Host Type Bridge skips unexported struct fields entirely).
func sanitizeExported(name string) string {
	ident := sanitizeIdent(name)
	return strings.ToUpper(ident[:1]) + ident[1:]
}
