package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"smartdash/housing"
	"smartdash/ml"
)

func main() {
	csvPath := flag.String("csv", "", "house sales CSV file")
	model := flag.String("model", ml.LinearRegressionModel, "model: "+strings.Join(ml.ModelKinds(), " | "))
	testRatio := flag.Float64("test_ratio", housing.DefaultTestRatio, "test ratio")
	seed := flag.Int64("seed", housing.DefaultSeed, "split seed")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("csv is required")
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("failed to open dataset: %v", err)
	}
	defer file.Close()

	ds, err := housing.Load(file, *csvPath)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}

	result, err := housing.Train(ds, housing.TrainingConfig{Model: *model, TestRatio: *testRatio, Seed: *seed})
	if err != nil {
		log.Fatalf("failed to train model: %v", err)
	}

	log.Printf("rows=%d train=%d test=%d features=%s", ds.Len(), result.TrainRows, result.TestRows, strings.Join(result.Features, ","))
	fmt.Printf("Model R^2 Score: %.2f\n", result.R2)
}
