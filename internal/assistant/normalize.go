package assistant

import (
	"regexp"
	"strings"
)

var tokenSeparator = regexp.MustCompile(`[^a-z0-9+@.-]+`)

// Prompt is the normalised form of an admin's free-text command.
type Prompt struct {
	Text   string
	Lower  string
	Tokens []string
}

// Normalize trims raw, lowercases it and splits it into tokens. It never fails;
// blank input yields an empty prompt.
func Normalize(raw string) Prompt {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)

	parts := tokenSeparator.Split(lower, -1)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			tokens = append(tokens, part)
		}
	}

	return Prompt{Text: text, Lower: lower, Tokens: tokens}
}

// Empty reports whether the prompt carries no text.
func (p Prompt) Empty() bool {
	return p.Text == ""
}

// HasToken reports whether any of words appears as a whole token.
func (p Prompt) HasToken(words ...string) bool {
	for _, token := range p.Tokens {
		for _, word := range words {
			if token == word {
				return true
			}
		}
	}
	return false
}

// Mentions reports whether any keyword occurs as a substring of the lowercase text.
func (p Prompt) Mentions(keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(p.Lower, keyword) {
			return true
		}
	}
	return false
}
