package ml

import "errors"

// GradientBoosting is least-squares gradient boosting over regression trees.
// Defaults follow the usual library defaults: 100 stages, learning rate 0.1,
// depth-3 trees, no subsampling.
type GradientBoosting struct {
	NEstimators  int
	LearningRate float64
	MaxDepth     int

	init  float64
	trees []*RegressionTree
}

// NewGradientBoosting returns a model with the default settings.
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{
		NEstimators:  100,
		LearningRate: 0.1,
		MaxDepth:     defaultTreeDepth,
	}
}

// Fit starts from the target mean and fits each stage to the residuals.
func (gb *GradientBoosting) Fit(features [][]float64, targets []float64) error {
	if _, err := validateTrainingSet(features, targets); err != nil {
		return err
	}
	if gb.NEstimators <= 0 {
		return errors.New("n_estimators must be positive")
	}
	if gb.LearningRate <= 0 {
		return errors.New("learning_rate must be positive")
	}

	gb.init = mean(targets)
	gb.trees = make([]*RegressionTree, 0, gb.NEstimators)

	predictions := make([]float64, len(targets))
	for i := range predictions {
		predictions[i] = gb.init
	}
	residuals := make([]float64, len(targets))
	sorted := presort(features)

	for stage := 0; stage < gb.NEstimators; stage++ {
		for i := range targets {
			residuals[i] = targets[i] - predictions[i]
		}
		tree := NewRegressionTree(gb.MaxDepth)
		tree.fitSorted(features, residuals, sorted)
		for i, row := range features {
			step, err := tree.Predict(row)
			if err != nil {
				return err
			}
			predictions[i] += gb.LearningRate * step
		}
		gb.trees = append(gb.trees, tree)
	}
	return nil
}

func (gb *GradientBoosting) Predict(features []float64) (float64, error) {
	if len(gb.trees) == 0 {
		return 0, ErrNotTrained
	}
	value := gb.init
	for _, tree := range gb.trees {
		step, err := tree.Predict(features)
		if err != nil {
			return 0, err
		}
		value += gb.LearningRate * step
	}
	return value, nil
}

// Stages reports how many trees have been fitted.
func (gb *GradientBoosting) Stages() int {
	return len(gb.trees)
}
