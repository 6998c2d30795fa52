package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Outcome mirrors the response body of POST /predict.
type Outcome struct {
	Prediction    string      `json:"prediction"`
	Probabilities [][]float64 `json:"probabilities,omitempty"`
}

type Model interface {
	Predict(f Features) (Outcome, error)
	Kind() string
}

const KindSoftmaxLinear = "softmax_linear"

var ErrInvalidModel = errors.New("invalid model")

// LinearModel scores each class as intercept + weighted features and
// normalizes the scores with softmax.
type LinearModel struct {
	Type        string                          `json:"type"`
	Classes     []string                        `json:"classes"`
	Intercept   []float64                       `json:"intercept"`
	Numeric     map[string][]float64            `json:"numeric"`
	Categorical map[string]map[string][]float64 `json:"categorical"`
}

var (
	numericFeatures = map[string]func(Features) float64{
		"bmi":        func(f Features) float64 { return f.BMI },
		"income_lpa": func(f Features) float64 { return f.IncomeLPA },
	}
	categoricalFeatures = map[string]func(Features) string{
		"age_group":      func(f Features) string { return f.AgeGroup },
		"lifestyle_risk": func(f Features) string { return f.LifestyleRisk },
		"city":           func(f Features) string { return f.City },
		"occupation":     func(f Features) string { return f.Occupation },
	}
)

func ParseLinearModel(raw []byte) (*LinearModel, error) {
	var m LinearModel

	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *LinearModel) validate() error {
	if m.Type != "" && m.Type != KindSoftmaxLinear {
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidModel, m.Type)
	}

	n := len(m.Classes)
	if n == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidModel)
	}

	if len(m.Intercept) != n {
		return fmt.Errorf("%w: intercept has %d values, want %d", ErrInvalidModel, len(m.Intercept), n)
	}

	for name, w := range m.Numeric {
		if _, ok := numericFeatures[name]; !ok {
			return fmt.Errorf("%w: unknown numeric feature %q", ErrInvalidModel, name)
		}
		if len(w) != n {
			return fmt.Errorf("%w: feature %q has %d weights, want %d", ErrInvalidModel, name, len(w), n)
		}
	}

	for name, levels := range m.Categorical {
		if _, ok := categoricalFeatures[name]; !ok {
			return fmt.Errorf("%w: unknown categorical feature %q", ErrInvalidModel, name)
		}
		for level, w := range levels {
			if len(w) != n {
				return fmt.Errorf("%w: %s=%s has %d weights, want %d", ErrInvalidModel, name, level, len(w), n)
			}
		}
	}

	return nil
}

func (m *LinearModel) Kind() string {
	return KindSoftmaxLinear
}

func (m *LinearModel) Predict(f Features) (Outcome, error) {
	scores := append([]float64(nil), m.Intercept...)

	for name, w := range m.Numeric {
		x := numericFeatures[name](f)
		for i := range scores {
			scores[i] += w[i] * x
		}
	}

	// unseen levels contribute nothing
	for name, levels := range m.Categorical {
		w, ok := levels[categoricalFeatures[name](f)]
		if !ok {
			continue
		}
		for i := range scores {
			scores[i] += w[i]
		}
	}

	probs := softmax(scores)

	best := 0
	for i, p := range probs {
		if math.IsNaN(p) {
			return Outcome{}, errors.New("model produced a non-finite score")
		}
		if p > probs[best] {
			best = i
		}
	}

	return Outcome{
		Prediction:    m.Classes[best],
		Probabilities: [][]float64{probs},
	}, nil
}

func softmax(scores []float64) []float64 {
	max := math.Inf(-1)
	for _, s := range scores {
		if s > max {
			max = s
		}
	}

	out := make([]float64, len(scores))
	sum := 0.0

	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}

	for i := range out {
		out[i] /= sum
	}

	return out
}
