package generator

import (
	"strings"
	"unicode"
)

// SanitizePinName turns a pin label into a valid identifier for the
// generated artifact. Trailing polarity marks become suffixes ("V+" to
// "V_POS"), active-low prefixes become "N_" ("~CS" to "N_CS"), and anything
// starting with a digit gets a "P" prefix.
func SanitizePinName(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		last := i == len(runes)-1
		switch {
		case r == '+' && last:
			b.WriteString("_POS")
		case r == '-' && last:
			b.WriteString("_NEG")
		case r == '+' || r == '-':
			b.WriteByte('_')
		case r == '~' || r == '!':
			b.WriteString("N_")
		case r == '#':
			b.WriteByte('H')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteByte('_')
		}
	}

	sanitized := collapseUnderscores(b.String())
	switch {
	case sanitized == "":
		return "PIN"
	case sanitized[0] >= '0' && sanitized[0] <= '9':
		return "P" + sanitized
	default:
		return sanitized
	}
}

// SanitizeMPN makes a manufacturer part number safe for file and directory
// names.
func SanitizeMPN(mpn string) string {
	var b strings.Builder
	for _, r := range mpn {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return collapseUnderscores(b.String())
}

func collapseUnderscores(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '_' })
	return strings.Join(fields, "_")
}

// truncateDescription caps free-text descriptions embedded in artifacts.
// Descriptions carry multi-byte units (Ω, ±, µ), so the cut lands on rune
// boundaries.
func truncateDescription(desc string) string {
	const max = 100
	runes := []rune(desc)
	if len(runes) <= max {
		return desc
	}
	return string(runes[:max-3]) + "..."
}
