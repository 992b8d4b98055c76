package scoring

import "strings"

// Normalize lowercases, strips punctuation, and collapses whitespace so
// free text can be compared deterministically.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// contentWords returns the words of normalized text longer than three
// characters. Short tokens carry too little signal for word matching.
func contentWords(normalized string) []string {
	var words []string
	for _, w := range strings.Fields(normalized) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

// hasWord reports whether normalized text contains word as a whole token.
func hasWord(normalized, word string) bool {
	for _, w := range strings.Fields(normalized) {
		if w == word {
			return true
		}
	}
	return false
}

// hasPhrase reports whether normalized text contains the normalized
// phrase as a substring on word boundaries.
func hasPhrase(normalized, phrase string) bool {
	phrase = Normalize(phrase)
	if phrase == "" {
		return false
	}
	if !strings.Contains(phrase, " ") {
		return hasWord(normalized, phrase)
	}
	return strings.Contains(" "+normalized+" ", " "+phrase+" ")
}
