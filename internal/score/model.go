package score

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonFiniteFeature is returned when a feature vector holds NaN or Inf.
var ErrNonFiniteFeature = errors.New("non-finite feature")

// Scorer is the contract every risk model satisfies.
// Implementations may return values outside [0,1]; callers clamp.
type Scorer interface {
	PredictProbability(features []float64) (float64, error)
}

// LogisticModel is a fixed-weight logistic regression.
type LogisticModel struct {
	Weights []float64
	Bias    float64
}

// NewLogisticModel returns the default unsafe-zone model.
func NewLogisticModel() *LogisticModel {
	return &LogisticModel{Weights: []float64{0.4, 0.3, 0.2, 0.1}}
}

// PredictProbability returns sigmoid(bias + dot(features, weights)) over the
// shorter of the two vectors.
func (m *LogisticModel) PredictProbability(features []float64) (float64, error) {
	if err := checkFeatures(features); err != nil {
		return 0, err
	}
	return logistic(features, m.Weights, m.Bias), nil
}

// Tree is one member of a ForestModel.
type Tree struct {
	Weights []float64 `yaml:"weights"`
	Bias    float64   `yaml:"bias"`
}

// ForestModel averages the probabilities of several logistic trees.
type ForestModel struct {
	Trees []Tree
}

// NewForestModel returns the default SOS risk model.
func NewForestModel() *ForestModel {
	return &ForestModel{Trees: []Tree{
		{Weights: []float64{0.3, 0.1, -0.1}, Bias: 0.05},
		{Weights: []float64{0.1, 0.25, 0.05}, Bias: -0.05},
		{Weights: []float64{0.05, 0.05, 0.2}, Bias: 0},
	}}
}

// PredictProbability returns the mean tree probability, or 0.5 for a forest
// without trees.
func (m *ForestModel) PredictProbability(features []float64) (float64, error) {
	if err := checkFeatures(features); err != nil {
		return 0, err
	}
	if len(m.Trees) == 0 {
		return 0.5, nil
	}

	var sum float64
	for _, t := range m.Trees {
		sum += logistic(features, t.Weights, t.Bias)
	}

	return sum / float64(len(m.Trees)), nil
}

func logistic(features, weights []float64, bias float64) float64 {
	z := bias
	for i := 0; i < len(features) && i < len(weights); i++ {
		z += features[i] * weights[i]
	}
	return 1 / (1 + math.Exp(-z))
}

func checkFeatures(features []float64) error {
	for i, f := range features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("feature %d: %w", i, ErrNonFiniteFeature)
		}
	}
	return nil
}
