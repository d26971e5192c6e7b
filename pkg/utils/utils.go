package utils

import (
	"strings"
	"unicode"
)

var latinFallbacks = map[rune]rune{
	'À': 'A', 'Á': 'A', 'Â': 'A', 'Ã': 'A', 'Ä': 'A', 'Å': 'A',
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'È': 'E', 'É': 'E', 'Ê': 'E', 'Ë': 'E',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'Ì': 'I', 'Í': 'I', 'Î': 'I', 'Ï': 'I',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'Ò': 'O', 'Ó': 'O', 'Ô': 'O', 'Õ': 'O', 'Ö': 'O',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'Ù': 'U', 'Ú': 'U', 'Û': 'U', 'Ü': 'U',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'Ç': 'C', 'ç': 'c', 'Ñ': 'N', 'ñ': 'n',
}

// SanitizeFilename converts a filename to printable ASCII for use in the
// legacy filename="..." disposition form. Accented Latin characters fall back
// to their base letter; anything else non-ASCII becomes "-". The UTF-8
// original travels separately in the filename* form.
func SanitizeFilename(filename string) string {
	if filename == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(filename))
	for _, r := range filename {
		switch {
		case r < 128 && unicode.IsPrint(r):
			result.WriteRune(r)
		default:
			if ascii, ok := latinFallbacks[r]; ok {
				result.WriteRune(ascii)
			} else {
				result.WriteRune('-')
			}
		}
	}
	return result.String()
}
