// Package tokenizer splits lines of text into words. A line is cut on runs of
// ASCII whitespace and every character outside [A-Za-z0-9'-] is removed from
// the resulting pieces; pieces left empty are dropped. Casing is preserved.
package tokenizer

import "strings"

// Token represents a single word and its 1-based line in the source.
type Token struct {
	Term string
	Line int
}

// Tokenize returns the words of a single line, in order.
func Tokenize(line string) []string {
	fields := strings.FieldsFunc(line, isSpace)
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		word := clean(field)
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	return words
}

// TokenizeLines tokenizes every line, numbering lines from 1.
func TokenizeLines(lines []string) []Token {
	tokens := make([]Token, 0, len(lines)*4)
	for i, line := range lines {
		for _, word := range Tokenize(line) {
			tokens = append(tokens, Token{
				Term: word,
				Line: i + 1,
			})
		}
	}
	return tokens
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func keep(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '\'' || r == '-'
}

// clean drops every character that may not appear in a word.
func clean(field string) string {
	if strings.IndexFunc(field, func(r rune) bool { return !keep(r) }) < 0 {
		return field
	}
	var b strings.Builder
	b.Grow(len(field))
	for _, r := range field {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
