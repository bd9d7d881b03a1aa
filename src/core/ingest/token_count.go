package ingest

import (
	"strings"
	"unicode"
)

// EstimateTokenCount provides a rough token count for sizing chunks. It uses
// character-based heuristics rather than a real tokenizer, which is close
// enough for keeping chunks inside the embedding model's window.
func EstimateTokenCount(text string) int {
	if text == "" {
		return 0
	}

	// Account for the implicit start and end tokens
	count := 2

	// Remove extra whitespace
	text = strings.TrimSpace(text)
	if text == "" {
		return count
	}

	// Split into words
	words := strings.Fields(text)

	for _, word := range words {
		count += estimateWordTokens(word)
	}

	return count
}

func estimateWordTokens(word string) int {
	// Handle punctuation
	if len(word) == 1 && unicode.IsPunct(rune(word[0])) {
		return 1
	}

	// Handle numbers
	if isNumber(word) {
		return len(word) // Each numeric character might be an independent token
	}

	// Long words get broken into smaller pieces by subword tokenizers
	length := len(word)
	if length <= 4 {
		return 1
	}
	return (length + 3) / 4 // Rough estimation of one token per 4 characters
}

func isNumber(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}
