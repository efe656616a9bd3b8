package natives

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts helm/kustomize manifest keys (typically CamelCase
// resource names or chart names) to snake_case using the exact boundary
// rules the original tool relied on: a letter->digit transition inserts
// an underscore only when a letter follows the digit run, a digit->letter
// transition inserts none, nothing is inserted after '_', '-' or '.',
// and consecutive uppercase runs (acronyms) are treated as one word.
// Concretely:
//
//	k8s   -> k_8s      (split before the digit run only, not k_8_s)
//	o11y  -> o_11y
//	flux2 -> flux2     (trailing digit run with no following letter is
//	                     NOT split off)
//	CamelCase -> camel_case
func ToSnakeCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && needsUnderscoreBeforeUpper(runes, i) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r):
			if i > 0 && needsUnderscoreBeforeDigitRun(runes, i) {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		case r == '-':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsUnderscoreBeforeUpper(runes []rune, i int) bool {
	prev := runes[i-1]
	if prev == '_' || prev == '-' || prev == '.' {
		return false
	}
	// Don't split consecutive uppercase runs (acronyms): "HTTPServer" ->
	// "http_server", not "h_t_t_p_server".
	// The last capital of an acronym starts a new word when a lowercase
	// letter follows it.
	if unicode.IsUpper(prev) {
		return i+1 < len(runes) && unicode.IsLower(runes[i+1])
	}
	return true
}

func needsUnderscoreBeforeDigitRun(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsDigit(prev) {
		return false // already inside the digit run
	}
	if prev == '_' || prev == '-' || prev == '.' {
		return false
	}
	if !unicode.IsLetter(prev) {
		return false
	}
	// Only split a digit run off from the preceding letters when a letter
	// follows the run too ("k8s" -> k_8s); a trailing digit run stays
	// attached ("flux2" stays "flux2").
	j := i
	for j < len(runes) && unicode.IsDigit(runes[j]) {
		j++
	}
	return j < len(runes) && unicode.IsLetter(runes[j])
}
