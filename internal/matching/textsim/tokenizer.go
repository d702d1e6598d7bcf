// internal/matching/textsim/tokenizer.go
package textsim

import "strings"

// Tokenize lowercases the input and splits it into tokens for
// similarity scoring. Each CJK ideograph becomes its own token, so
// descriptions in Chinese compare character by character without a
// segmenter. Latin letters and digits group into maximal runs.
// Everything else (punctuation, whitespace, other scripts) only acts
// as a separator. Token order is preserved and duplicates are kept.
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var run []rune
	var runDigits bool

	flush := func() {
		if len(run) > 0 {
			tokens = append(tokens, string(run))
			run = run[:0]
		}
	}

	for _, r := range text {
		switch {
		case r >= 0x4e00 && r <= 0x9fa5:
			flush()
			tokens = append(tokens, string(r))
		case r >= 'a' && r <= 'z':
			if runDigits {
				flush()
			}
			runDigits = false
			run = append(run, r)
		case r >= '0' && r <= '9':
			if !runDigits {
				flush()
			}
			runDigits = true
			run = append(run, r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// Bigrams returns adjacent token pairs joined with a space. Fewer than
// two tokens yields nil.
func Bigrams(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}
	grams := make([]string, 0, len(tokens)-1)
	for i := 0; i+1 < len(tokens); i++ {
		grams = append(grams, tokens[i]+" "+tokens[i+1])
	}
	return grams
}
