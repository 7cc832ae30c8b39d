// Package model fits and serves the track score regressor: an ensemble of
// second-order gradient boosted regression trees on squared error.
package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"

	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/dataset"
)

const minRows = 5

var (
	ErrTooFewRows      = errors.New("not enough rows to train")
	ErrFeatureMismatch = errors.New("model features do not match")
)

// Ensemble is the persisted model artifact.
type Ensemble struct {
	Features  []string `json:"features"`
	BaseScore float64  `json:"base_score"`
	// LearningRate is already folded into the leaf values.
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
}

// Predict scores one feature vector in config.ModelFeatures order.
func (e *Ensemble) Predict(features []float64) (float64, error) {
	if len(features) != len(e.Features) {
		return 0, fmt.Errorf("got %d features, want %d", len(features), len(e.Features))
	}
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("feature %s is not a finite number", e.Features[i])
		}
	}
	return e.predict(features), nil
}

func (e *Ensemble) predict(x []float64) float64 {
	out := e.BaseScore
	for i := range e.Trees {
		out += e.Trees[i].predict(x)
	}
	return out
}

// Report is the outcome of one training run.
type Report struct {
	Model     *Ensemble
	TrainRows int
	TestRows  int
	R2        float64
	MAE       float64

	// Held-out targets and the model's predictions for them, in split order.
	Actual    []float64
	Predicted []float64
}

// Split returns shuffled test and train row indices. The first
// ceil(testFraction*n) positions of a seeded permutation form the test set.
func Split(n int, testFraction float64, seed int64) (test, train []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(testFraction * float64(n)))
	return perm[:nTest], perm[nTest:]
}

// Fit boosts params.NumTrees trees against y.
func Fit(x [][]float64, y []float64, params config.TrainParams) (*Ensemble, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("fit: %d rows and %d targets", len(x), len(y))
	}

	ens := &Ensemble{
		Features:     slices.Clone(config.ModelFeatures),
		BaseScore:    stat.Mean(y, nil),
		LearningRate: params.LearningRate,
	}

	g := newGrower(x, params)
	pred := make([]float64, len(y))
	grad := make([]float64, len(y))
	for i := range pred {
		pred[i] = ens.BaseScore
	}
	for t := 0; t < params.NumTrees; t++ {
		for i := range grad {
			grad[i] = pred[i] - y[i]
		}
		tree := g.grow(grad)
		for i := range pred {
			pred[i] += tree.predict(x[i])
		}
		ens.Trees = append(ens.Trees, tree)
	}
	return ens, nil
}

// Train splits the tracks, fits on the train part and scores the rest.
func Train(tracks []dataset.Track, params config.TrainParams) (*Report, error) {
	if len(tracks) < minRows {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewRows, len(tracks), minRows)
	}

	target, ok := dataset.NumericColumnByName(config.TargetColumn)
	if !ok {
		return nil, fmt.Errorf("unknown target column %q", config.TargetColumn)
	}

	x := make([][]float64, len(tracks))
	y := make([]float64, len(tracks))
	for i, t := range tracks {
		x[i] = t.Features(config.ReferenceDate)
		y[i] = *target.Field(&t)
		for j, v := range x[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("track %q: feature %s is not finite", t.Name, config.ModelFeatures[j])
			}
		}
	}

	testIdx, trainIdx := Split(len(tracks), params.TestFraction, params.Seed)
	if len(testIdx) == 0 || len(trainIdx) == 0 {
		return nil, fmt.Errorf("%w: split left an empty partition", ErrTooFewRows)
	}

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i], trainY[i] = x[idx], y[idx]
	}

	ens, err := Fit(trainX, trainY, params)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Model:     ens,
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
		Actual:    make([]float64, len(testIdx)),
		Predicted: make([]float64, len(testIdx)),
	}
	absErr := make([]float64, len(testIdx))
	for i, idx := range testIdx {
		report.Actual[i] = y[idx]
		report.Predicted[i] = ens.predict(x[idx])
		absErr[i] = math.Abs(report.Predicted[i] - report.Actual[i])
	}
	report.R2 = stat.RSquaredFrom(report.Predicted, report.Actual, nil)
	report.MAE = stat.Mean(absErr, nil)
	return report, nil
}

// Save writes the artifact to path, replacing any previous model.
func Save(path string, ens *Ensemble) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating model dir: %w", err)
	}
	data, err := json.Marshal(ens)
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing model: %w", err)
	}
	return nil
}

// Load reads a saved artifact. A missing file yields an error wrapping
// os.ErrNotExist.
func Load(path string) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	var ens Ensemble
	if err := json.Unmarshal(data, &ens); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if !slices.Equal(ens.Features, config.ModelFeatures) {
		return nil, fmt.Errorf("%w: %v", ErrFeatureMismatch, ens.Features)
	}
	for i := range ens.Trees {
		if err := ens.Trees[i].validate(len(ens.Features)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &ens, nil
}
