package utils

import "unicode/utf8"

// charsPerToken approximates tokenizer output for English-like sheet text.
const charsPerToken = 4

// CountTokens estimates the tokens in text, at least one for non-empty text.
// Estimates size retrieval chunks and prompt context only.
func CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return max(1, n/charsPerToken)
}

// TruncateToTokenLimit keeps the leading runes of text that fit in limit tokens.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	keep := limit * charsPerToken
	seen := 0
	for i := range text {
		if seen == keep {
			return text[:i]
		}
		seen++
	}
	return text
}
