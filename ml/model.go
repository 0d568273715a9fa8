package ml

import "errors"

var (
	ErrEmptyTrainingSet = errors.New("features or targets empty")
	ErrSizeMismatch     = errors.New("features and targets size mismatch")
	ErrRaggedFeatures   = errors.New("feature rows have different lengths")
	ErrNotTrained       = errors.New("model not trained")
	ErrUnknownModel     = errors.New("unsupported model type")
	ErrEmptyVocabulary  = errors.New("empty vocabulary: documents contain no tokens")
	ErrNonFiniteScore   = errors.New("score is not a finite number")
)

// Regressor is any model that maps a numeric feature row to a real value.
type Regressor interface {
	Fit(features [][]float64, targets []float64) error
	Predict(features []float64) (float64, error)
}

func validateTrainingSet(features [][]float64, targets []float64) (int, error) {
	if len(features) == 0 || len(targets) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(features) != len(targets) {
		return 0, ErrSizeMismatch
	}
	width := len(features[0])
	for _, row := range features[1:] {
		if len(row) != width {
			return 0, ErrRaggedFeatures
		}
	}
	return width, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PredictAll runs model over every row.
func PredictAll(model Regressor, features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, row := range features {
		v, err := model.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
