// Package predictor serves trained stroke models described by JSON metadata.
//
// A model file carries a standardized logistic model together with the input
// contract it was fit against: the ordered expected features, the categorical
// codebook and the imputation constants. The contract is validated when the
// file is loaded so a mismatched model never reaches inference.
package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/Skufu/strokecare/internal/stroke"
)

// Kind selects what Predict returns.
type Kind string

const (
	KindBinary      Kind = "binary"
	KindProbability Kind = "probability"
)

const defaultThreshold = 0.5

// ErrNotFound is returned by Load when the model file does not exist.
var ErrNotFound = errors.New("model file not found")

// SchemaError reports metadata that disagrees with itself.
type SchemaError struct {
	Model  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("model %s: invalid schema: %s", e.Model, e.Reason)
}

// Scaler standardizes inputs as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Metadata is the on-disk model description.
type Metadata struct {
	Name             string             `json:"name"`
	Version          string             `json:"version"`
	Kind             Kind               `json:"kind"`
	NFeatures        int                `json:"n_features"`
	ExpectedFeatures []string           `json:"expected_features"`
	Scaler           Scaler             `json:"scaler"`
	Coefficients     []float64          `json:"coefficients"`
	Intercept        float64            `json:"intercept"`
	Threshold        float64            `json:"threshold"`
	Imputation       *stroke.Imputation `json:"imputation,omitempty"`
	Categories       stroke.Codebook    `json:"categories,omitempty"`
}

// Info summarizes a loaded model for health and logging output.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Kind      Kind   `json:"kind"`
	NFeatures int    `json:"n_features"`
}

// Model is an immutable, validated model. It is safe for concurrent use.
type Model struct {
	meta   Metadata
	schema stroke.Schema
}

// Load reads and validates a model file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates model metadata.
func Parse(data []byte) (*Model, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return New(meta)
}

// New validates meta and returns a ready model.
func New(meta Metadata) (*Model, error) {
	if err := validate(meta); err != nil {
		return nil, err
	}
	if meta.Threshold == 0 {
		meta.Threshold = defaultThreshold
	}

	imp := stroke.DefaultImputation()
	if meta.Imputation != nil {
		imp = *meta.Imputation
	}
	codebook := meta.Categories
	if codebook == nil {
		codebook = stroke.DefaultCodebook()
	}

	return &Model{
		meta: meta,
		schema: stroke.Schema{
			ExpectedFeatures: append([]string(nil), meta.ExpectedFeatures...),
			Codebook:         codebook,
			Imputation:       imp,
		},
	}, nil
}

func validate(meta Metadata) error {
	fail := func(format string, args ...any) error {
		return &SchemaError{Model: meta.Name, Reason: fmt.Sprintf(format, args...)}
	}

	switch meta.Kind {
	case KindBinary, KindProbability:
	default:
		return fail("unknown kind %q", meta.Kind)
	}
	if meta.NFeatures <= 0 {
		return fail("n_features must be positive")
	}
	if len(meta.ExpectedFeatures) != meta.NFeatures {
		return fail("n_features is %d but %d expected features are declared", meta.NFeatures, len(meta.ExpectedFeatures))
	}
	if len(meta.Coefficients) != meta.NFeatures {
		return fail("n_features is %d but %d coefficients are declared", meta.NFeatures, len(meta.Coefficients))
	}
	if len(meta.Scaler.Mean) != meta.NFeatures || len(meta.Scaler.Scale) != meta.NFeatures {
		return fail("scaler width does not match n_features %d", meta.NFeatures)
	}
	seen := make(map[string]bool, len(meta.ExpectedFeatures))
	for _, name := range meta.ExpectedFeatures {
		if name == "" {
			return fail("empty feature name")
		}
		if seen[name] {
			return fail("feature %q declared twice", name)
		}
		seen[name] = true
	}
	for i, s := range meta.Scaler.Scale {
		if s <= 0 || math.IsNaN(s) {
			return fail("scale of %q must be positive", meta.ExpectedFeatures[i])
		}
	}
	if meta.Threshold < 0 || meta.Threshold > 1 {
		return fail("threshold %v outside [0,1]", meta.Threshold)
	}
	if meta.Categories != nil {
		if err := meta.Categories.Validate(); err != nil {
			return fail("%v", err)
		}
	}
	return nil
}

// Schema returns the input contract the arbiter normalizes against.
func (m *Model) Schema() stroke.Schema { return m.schema }

// Info describes the model.
func (m *Model) Info() Info {
	return Info{Name: m.meta.Name, Version: m.meta.Version, Kind: m.meta.Kind, NFeatures: m.meta.NFeatures}
}

// Predict returns one value per row: the stroke probability for probability
// models, or the 0/1 class for binary models.
func (m *Model) Predict(batch []stroke.FeatureVector) ([]float64, error) {
	out := make([]float64, 0, len(batch))
	for i, fv := range batch {
		p, err := m.probability(fv)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if m.meta.Kind == KindBinary {
			if p >= m.meta.Threshold {
				p = 1
			} else {
				p = 0
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// PredictProba returns [P(no stroke), P(stroke)] per row.
func (m *Model) PredictProba(batch []stroke.FeatureVector) ([][2]float64, error) {
	out := make([][2]float64, 0, len(batch))
	for i, fv := range batch {
		p, err := m.probability(fv)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, [2]float64{1 - p, p})
	}
	return out, nil
}

func (m *Model) probability(fv stroke.FeatureVector) (float64, error) {
	if fv.Len() != m.meta.NFeatures || len(fv.Values) != m.meta.NFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", m.meta.NFeatures, fv.Len())
	}
	z := m.meta.Intercept
	for i, name := range m.meta.ExpectedFeatures {
		if fv.Names[i] != name {
			return 0, fmt.Errorf("feature %d is %q, expected %q", i, fv.Names[i], name)
		}
		x := (fv.Values[i] - m.meta.Scaler.Mean[i]) / m.meta.Scaler.Scale[i]
		z += m.meta.Coefficients[i] * x
	}
	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return 0, errors.New("non-finite prediction")
	}
	return p, nil
}
