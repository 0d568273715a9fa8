package ml

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Fix the SERVER, a b_c 42! Überprüfen")
	want := []string{"fix", "the", "server", "b_c", "42", "überprüfen"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
}

func TestCountVectorizer(t *testing.T) {
	cv := NewCountVectorizer()
	if _, err := cv.Transform("anything"); err != ErrNotTrained {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}
	if err := cv.Fit([]string{"buy milk", "milk the cow"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantVocab := []string{"buy", "cow", "milk", "the"}
	if !reflect.DeepEqual(cv.Vocabulary(), wantVocab) {
		t.Fatalf("Vocabulary() = %v, want %v", cv.Vocabulary(), wantVocab)
	}
	row, err := cv.Transform("Milk milk and bread")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(row, []float64{0, 0, 2, 0}) {
		t.Fatalf("Transform() = %v", row)
	}

	if err := NewCountVectorizer().Fit([]string{"a", "b"}); err != ErrEmptyVocabulary {
		t.Fatalf("expected ErrEmptyVocabulary, got %v", err)
	}
}

func TestTextClassifierPrefersCloserExample(t *testing.T) {
	tc := NewTextClassifier()
	err := tc.Fit(
		[]string{"buy milk", "fix server outage"},
		[]string{"Low", "High"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(tc.Classes(), []string{"High", "Low"}) {
		t.Fatalf("unexpected classes: %v", tc.Classes())
	}

	tests := []struct {
		doc  string
		want string
	}{
		{"server down", "High"},
		{"buy milk", "Low"},
		{"fix server outage", "High"},
		{"milk", "Low"},
	}
	for _, tt := range tests {
		got, err := tc.Predict(tt.doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("Predict(%q) = %q, want %q", tt.doc, got, tt.want)
		}
	}
}

func TestMultinomialNBTieGoesToFirstClass(t *testing.T) {
	nb := NewMultinomialNB()
	if err := nb.Fit([][]float64{{1, 0}, {0, 1}}, []string{"Medium", "High"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := nb.Predict([]float64{0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "High" {
		t.Fatalf("expected tie to resolve to High, got %q", got)
	}
}

func TestMultinomialNBPriors(t *testing.T) {
	nb := NewMultinomialNB()
	counts := [][]float64{{1, 0}, {1, 0}, {0, 1}}
	if err := nb.Fit(counts, []string{"Low", "Low", "High"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := nb.Predict([]float64{0, 0})
	if got != "Low" {
		t.Fatalf("expected prior to favour Low, got %q", got)
	}
}
