package domain

import "strings"

// NormalizeAnswer lowercases, trims, strips punctuation and collapses
// whitespace so that "  PARIS!  " compares equal to "Paris". Idempotent.
func NormalizeAnswer(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch r {
		case '.', ',', '/', '#', '!', '$', '%', '^', '&', '*', ';', ':',
			'{', '}', '=', '-', '_', '`', '~', '(', ')', '?', '\'', '"':
			// drop punctuation
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// AnswerMatches reports whether the given answer text matches the canonical
// name or any alias, after normalization.
func AnswerMatches(answer, canonical string, aliases []string) bool {
	normalized := NormalizeAnswer(answer)
	if normalized == "" {
		return false
	}
	if normalized == NormalizeAnswer(canonical) {
		return true
	}
	for _, alias := range aliases {
		if normalized == NormalizeAnswer(alias) {
			return true
		}
	}
	return false
}

// FollowupAnswerCorrect checks a follow-up answer against the question's
// correct answer and aliases.
func FollowupAnswerCorrect(answer string, q FollowupQuestion) bool {
	return AnswerMatches(answer, q.CorrectAnswer, q.Aliases)
}
