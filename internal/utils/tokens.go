package utils

import "unicode/utf8"

// runesPerToken approximates tokenizers of the supported backends on mixed
// Portuguese text and CSV digits.
const runesPerToken = 4

// CountTokens estimates the tokens a prompt will use, rounding up so any
// non-empty text costs at least one token.
func CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + runesPerToken - 1) / runesPerToken
}
