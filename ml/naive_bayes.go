package ml

import (
	"errors"
	"math"
	"sort"
)

// MultinomialNB is a multinomial naive Bayes classifier over count vectors
// with additive (Laplace) smoothing and priors fitted from the labels.
type MultinomialNB struct {
	Alpha float64

	classes        []string
	classLogPrior  []float64
	featureLogProb [][]float64
}

// NewMultinomialNB uses Laplace smoothing (alpha 1).
func NewMultinomialNB() *MultinomialNB {
	return &MultinomialNB{Alpha: 1.0}
}

// Fit estimates class priors and smoothed token likelihoods from counts.
func (nb *MultinomialNB) Fit(counts [][]float64, labels []string) error {
	if len(counts) == 0 || len(labels) == 0 {
		return errors.New("counts or labels empty")
	}
	if len(counts) != len(labels) {
		return ErrSizeMismatch
	}
	if nb.Alpha <= 0 {
		nb.Alpha = 1.0
	}
	width := len(counts[0])

	classIndex := make(map[string]int)
	for _, label := range labels {
		classIndex[label] = 0
	}
	classes := make([]string, 0, len(classIndex))
	for label := range classIndex {
		classes = append(classes, label)
	}
	sort.Strings(classes)
	for i, label := range classes {
		classIndex[label] = i
	}

	docCount := make([]float64, len(classes))
	featureCount := make([][]float64, len(classes))
	for c := range featureCount {
		featureCount[c] = make([]float64, width)
	}
	for i, row := range counts {
		if len(row) != width {
			return ErrRaggedFeatures
		}
		c := classIndex[labels[i]]
		docCount[c]++
		for j, v := range row {
			featureCount[c][j] += v
		}
	}

	nb.classes = classes
	nb.classLogPrior = make([]float64, len(classes))
	nb.featureLogProb = make([][]float64, len(classes))
	total := float64(len(labels))
	for c := range classes {
		nb.classLogPrior[c] = math.Log(docCount[c] / total)

		smoothedTotal := 0.0
		for _, v := range featureCount[c] {
			smoothedTotal += v + nb.Alpha
		}
		logProb := make([]float64, width)
		for j, v := range featureCount[c] {
			logProb[j] = math.Log(v+nb.Alpha) - math.Log(smoothedTotal)
		}
		nb.featureLogProb[c] = logProb
	}
	return nil
}

// JointLogLikelihood returns the unnormalised log posterior per class, in
// Classes() order.
func (nb *MultinomialNB) JointLogLikelihood(row []float64) ([]float64, error) {
	if len(nb.classes) == 0 {
		return nil, ErrNotTrained
	}
	scores := make([]float64, len(nb.classes))
	for c := range nb.classes {
		if len(row) != len(nb.featureLogProb[c]) {
			return nil, ErrSizeMismatch
		}
		score := nb.classLogPrior[c]
		for j, v := range row {
			if v != 0 {
				score += v * nb.featureLogProb[c][j]
			}
		}
		scores[c] = score
	}
	return scores, nil
}

// Predict returns the most likely class; ties go to the class that sorts first.
func (nb *MultinomialNB) Predict(row []float64) (string, error) {
	scores, err := nb.JointLogLikelihood(row)
	if err != nil {
		return "", err
	}
	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c] > scores[best] {
			best = c
		}
	}
	return nb.classes[best], nil
}

// Classes lists the labels in sorted order.
func (nb *MultinomialNB) Classes() []string {
	return append([]string(nil), nb.classes...)
}

// TextClassifier chains a CountVectorizer into a MultinomialNB.
type TextClassifier struct {
	vectorizer *CountVectorizer
	model      *MultinomialNB
}

// NewTextClassifier pairs a CountVectorizer with a MultinomialNB.
func NewTextClassifier() *TextClassifier {
	return &TextClassifier{
		vectorizer: NewCountVectorizer(),
		model:      NewMultinomialNB(),
	}
}

// Fit learns the vocabulary from docs and trains on their counts.
func (tc *TextClassifier) Fit(docs []string, labels []string) error {
	if len(docs) != len(labels) {
		return ErrSizeMismatch
	}
	if err := tc.vectorizer.Fit(docs); err != nil {
		return err
	}
	counts := make([][]float64, len(docs))
	for i, doc := range docs {
		row, err := tc.vectorizer.Transform(doc)
		if err != nil {
			return err
		}
		counts[i] = row
	}
	return tc.model.Fit(counts, labels)
}

func (tc *TextClassifier) Predict(doc string) (string, error) {
	row, err := tc.vectorizer.Transform(doc)
	if err != nil {
		return "", err
	}
	return tc.model.Predict(row)
}

func (tc *TextClassifier) Classes() []string {
	return tc.model.Classes()
}
