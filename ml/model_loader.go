package ml

import "fmt"

const (
	LinearRegressionModel = "linear_regression"
	GradientBoostingModel = "gradient_boosting"
)

// ModelKinds lists the regressors NewRegressor understands, in display order.
func ModelKinds() []string {
	return []string{LinearRegressionModel, GradientBoostingModel}
}

// NewRegressor returns an untrained regressor with library-default parameters.
func NewRegressor(modelType string) (Regressor, error) {
	switch modelType {
	case LinearRegressionModel:
		return NewLinearRegression(), nil
	case GradientBoostingModel:
		return NewGradientBoosting(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, modelType)
	}
}
