package kit

import "strings"

const (
	// SectionSign prefixes formatting codes in display text.
	SectionSign = '§'

	colorCodeChars = "0123456789AaBbCcDdEeFfKkLlMmNnOoRr"
)

// TranslateColorCodes replaces alt followed by a valid code character with
// the section sign and the lower-cased code. "&aHello" becomes "§aHello".
func TranslateColorCodes(alt rune, text string) string {
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] == alt && strings.ContainsRune(colorCodeChars, runes[i+1]) {
			runes[i] = SectionSign
			runes[i+1] = toLowerASCII(runes[i+1])
		}
	}
	return string(runes)
}

// StripColorCodes removes section-sign formatting codes.
func StripColorCodes(text string) string {
	var sb strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] == SectionSign && i+1 < len(runes) && strings.ContainsRune(colorCodeChars, runes[i+1]) {
			i++
			continue
		}
		sb.WriteRune(runes[i])
	}
	return sb.String()
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
