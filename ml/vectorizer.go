package ml

import (
	"sort"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CountVectorizer turns documents into bag-of-words counts. Tokens are runs of
// two or more letters, digits or underscores after lowercasing.
type CountVectorizer struct {
	vocabulary map[string]int
	terms      []string
}

// NewCountVectorizer returns an empty vectorizer; Fit learns the vocabulary.
func NewCountVectorizer() *CountVectorizer {
	return &CountVectorizer{}
}

// Tokenize splits doc the same way Fit and Transform do.
func Tokenize(doc string) []string {
	lowered := cases.Lower(language.Und).String(doc)
	tokens := make([]string, 0)
	word := make([]rune, 0, 16)
	flush := func() {
		if len(word) >= 2 {
			tokens = append(tokens, string(word))
		}
		word = word[:0]
	}
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_' {
			word = append(word, r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// Fit learns the vocabulary, sorted alphabetically.
func (cv *CountVectorizer) Fit(docs []string) error {
	seen := make(map[string]struct{})
	for _, doc := range docs {
		for _, token := range Tokenize(doc) {
			seen[token] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return ErrEmptyVocabulary
	}
	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	cv.terms = terms
	cv.vocabulary = make(map[string]int, len(terms))
	for i, term := range terms {
		cv.vocabulary[term] = i
	}
	return nil
}

// Transform counts known terms in doc; unknown terms are dropped.
func (cv *CountVectorizer) Transform(doc string) ([]float64, error) {
	if cv.vocabulary == nil {
		return nil, ErrNotTrained
	}
	counts := make([]float64, len(cv.terms))
	for _, token := range Tokenize(doc) {
		if idx, ok := cv.vocabulary[token]; ok {
			counts[idx]++
		}
	}
	return counts, nil
}

// Vocabulary returns the learned terms, sorted.
func (cv *CountVectorizer) Vocabulary() []string {
	return append([]string(nil), cv.terms...)
}
