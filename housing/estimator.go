package housing

import (
	"errors"
	"fmt"
	"time"

	"smartdash/ml"
)

const (
	DefaultTestRatio = 0.2
	DefaultSeed      = 42
)

// TrainingConfig picks the regressor and the split.
type TrainingConfig struct {
	Model     string
	TestRatio float64
	Seed      int64
}

// DefaultTrainingConfig uses the 80/20 split seeded with 42.
func DefaultTrainingConfig(model string) TrainingConfig {
	return TrainingConfig{Model: model, TestRatio: DefaultTestRatio, Seed: DefaultSeed}
}

// TrainResult is the held-out score of one fit.
type TrainResult struct {
	Dataset    string   `json:"dataset"`
	Model      string   `json:"model"`
	R2         float64  `json:"r2"`
	TrainRows  int      `json:"train_rows"`
	TestRows   int      `json:"test_rows"`
	Features   []string `json:"features"`
	DurationMS int64    `json:"duration_ms"`
}

// FeatureMatrix holds the design matrix after identifier and date columns
// are dropped and the price target is split off.
type FeatureMatrix struct {
	Names    []string
	Features [][]float64
	Targets  []float64
}

// SelectFeatures drops id/date when present, takes price as the target and
// every other column as a feature. Rows without a price are skipped; any
// other missing or non-numeric cell is an error.
func (ds *Dataset) SelectFeatures() (*FeatureMatrix, error) {
	if !ds.HasColumn(TargetColumn) {
		return nil, ErrMissingTarget
	}
	targets, targetPresent, err := ds.Numeric(TargetColumn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonNumericTarget, err)
	}

	dropped := map[string]bool{TargetColumn: true}
	for _, c := range DroppedColumns {
		dropped[c] = true
	}
	names := make([]string, 0, len(ds.Columns))
	columns := make([][]float64, 0, len(ds.Columns))
	presence := make([][]bool, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		if dropped[c] {
			continue
		}
		values, present, err := ds.Numeric(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNonNumericFeature, err)
		}
		names = append(names, c)
		columns = append(columns, values)
		presence = append(presence, present)
	}

	fm := &FeatureMatrix{Names: names}
	for i := range ds.Rows {
		if !targetPresent[i] {
			continue
		}
		row := make([]float64, len(names))
		for j := range names {
			if !presence[j][i] {
				return nil, fmt.Errorf("%w: %s row %d is empty", ErrNonNumericFeature, names[j], i+1)
			}
			row[j] = columns[j][i]
		}
		fm.Features = append(fm.Features, row)
		fm.Targets = append(fm.Targets, targets[i])
	}
	if len(fm.Targets) == 0 {
		return nil, ErrInsufficientRows
	}
	return fm, nil
}

// Train fits the configured regressor on the training side of a seeded
// split and scores R² on the held-out side.
func Train(ds *Dataset, cfg TrainingConfig) (*TrainResult, error) {
	if ds == nil {
		return nil, ErrEmptyDataset
	}
	if cfg.TestRatio <= 0 || cfg.TestRatio >= 1 {
		cfg.TestRatio = DefaultTestRatio
	}
	model, err := ml.NewRegressor(cfg.Model)
	if err != nil {
		return nil, err
	}

	fm, err := ds.SelectFeatures()
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx := ml.TrainTestSplit(len(fm.Targets), cfg.TestRatio, cfg.Seed)
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, fmt.Errorf("%w: %d rows", ErrInsufficientRows, len(fm.Targets))
	}
	trainX, trainY := fm.subset(trainIdx)
	testX, testY := fm.subset(testIdx)

	start := time.Now()
	if err := model.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit %s: %w", cfg.Model, err)
	}
	predicted, err := ml.PredictAll(model, testX)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", cfg.Model, err)
	}
	score, err := ml.R2(testY, predicted)
	if err != nil {
		return nil, err
	}

	return &TrainResult{
		Dataset:    ds.Name,
		Model:      cfg.Model,
		R2:         score,
		TrainRows:  len(trainIdx),
		TestRows:   len(testIdx),
		Features:   fm.Names,
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}

func (fm *FeatureMatrix) subset(indices []int) ([][]float64, []float64) {
	x := make([][]float64, len(indices))
	y := make([]float64, len(indices))
	for i, idx := range indices {
		x[i] = fm.Features[idx]
		y[i] = fm.Targets[idx]
	}
	return x, y
}

// IsValidationError reports errors caused by the uploaded data or the
// request rather than by the service.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrMalformedCSV, ErrMissingTarget, ErrNonNumericTarget, ErrNonNumericFeature,
		ErrMissingColumn, ErrNonNumericColumn, ErrUnknownChart, ml.ErrUnknownModel,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInsufficientData reports errors caused by too little data.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrEmptyDataset) || errors.Is(err, ErrInsufficientRows)
}
