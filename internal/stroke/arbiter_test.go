package stroke

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModel struct {
	schema Schema
	out    []float64
	err    error
	panics bool
	seen   []FeatureVector
}

func (f *fakeModel) Schema() Schema { return f.schema }

func (f *fakeModel) Predict(batch []FeatureVector) ([]float64, error) {
	if f.panics {
		panic("boom")
	}
	f.seen = batch
	return f.out, f.err
}

func (f *fakeModel) PredictProba(batch []FeatureVector) ([][2]float64, error) {
	out, err := f.Predict(batch)
	if err != nil {
		return nil, err
	}
	res := make([][2]float64, len(out))
	for i, p := range out {
		res[i] = [2]float64{1 - p, p}
	}
	return res, nil
}

func predicting(v float64) *fakeModel { return &fakeModel{out: []float64{v}} }

func TestAssess_NoModelsUsesRules(t *testing.T) {
	a := NewArbiter(zap.NewNop())
	p := baseProfile()
	p.Age = 75
	p.Hypertension = true

	got := a.Assess(p, nil, nil)
	rules := ScoreProfile(p)

	assert.Equal(t, rules.Percentage, got.Percentage)
	assert.Equal(t, rules.Level, got.Level)
	assert.Equal(t, rules.Factors, got.Factors)
	assert.Nil(t, got.BinaryFlag)
	assert.Equal(t, SourceRules, got.Source)
	assert.Empty(t, got.Degraded)
}

func TestAssess_OneModelMissingUsesRules(t *testing.T) {
	a := NewArbiter(nil)
	got := a.Assess(baseProfile(), predicting(1), nil)
	assert.Equal(t, SourceRules, got.Source)
	assert.Nil(t, got.BinaryFlag)

	got = a.Assess(baseProfile(), nil, predicting(0.9))
	assert.Equal(t, 5, got.Percentage)
}

func TestAssess_ModelPercentage(t *testing.T) {
	a := NewArbiter(nil)
	p := baseProfile()
	p.Hypertension = true

	got := a.Assess(p, predicting(1), predicting(0.42))

	assert.Equal(t, 42, got.Percentage)
	assert.Equal(t, LevelModerate, got.Level)
	require.NotNil(t, got.BinaryFlag)
	assert.True(t, *got.BinaryFlag)
	assert.Equal(t, SourceModel, got.Source)
	assert.Equal(t, []string{FactorHypertension}, got.Factors, "factors always come from rules")
}

func TestAssess_BinaryFloor(t *testing.T) {
	a := NewArbiter(nil)

	got := a.Assess(baseProfile(), predicting(1), predicting(0.10))
	assert.Equal(t, 30, got.Percentage)
	assert.Equal(t, LevelModerate, got.Level)

	got = a.Assess(baseProfile(), predicting(0), predicting(0.10))
	assert.Equal(t, 10, got.Percentage)
	assert.Equal(t, LevelLow, got.Level)
	require.NotNil(t, got.BinaryFlag)
	assert.False(t, *got.BinaryFlag)
}

func TestAssess_RoundsAndBounds(t *testing.T) {
	a := NewArbiter(nil)
	assert.Equal(t, 100, a.Assess(baseProfile(), predicting(0), predicting(1)).Percentage)
	assert.Equal(t, 0, a.Assess(baseProfile(), predicting(0), predicting(0)).Percentage)
	assert.Equal(t, 67, a.Assess(baseProfile(), predicting(0), predicting(0.666)).Percentage)
	assert.Equal(t, LevelHigh, a.Assess(baseProfile(), predicting(0), predicting(0.6)).Level)
}

func TestAssess_ProbabilityFailureFallsBack(t *testing.T) {
	var failed []string
	a := NewArbiter(nil, WithFailureHook(func(term string, err error) {
		assert.ErrorIs(t, err, ErrInference)
		failed = append(failed, term)
	}))
	p := baseProfile()
	p.Age = 72

	got := a.Assess(p, predicting(0), &fakeModel{err: errors.New("shape mismatch")})

	assert.Equal(t, 35, got.Percentage)
	assert.Equal(t, LevelModerate, got.Level)
	assert.Equal(t, SourceRules, got.Source)
	require.NotNil(t, got.BinaryFlag, "binary term is evaluated independently")
	assert.Equal(t, []string{TermProbability}, failed)
	require.Len(t, got.Degraded, 1)
	assert.Equal(t, TermProbability, got.Degraded[0].Term)
}

func TestAssess_BinaryFailureKeepsProbability(t *testing.T) {
	a := NewArbiter(nil)

	got := a.Assess(baseProfile(), &fakeModel{panics: true}, predicting(0.2))

	assert.Equal(t, 20, got.Percentage)
	assert.Equal(t, LevelLow, got.Level)
	assert.Nil(t, got.BinaryFlag)
	require.Len(t, got.Degraded, 1)
	assert.Equal(t, TermBinary, got.Degraded[0].Term)
}

func TestAssess_FloorAppliesToRuleFallback(t *testing.T) {
	a := NewArbiter(nil)

	got := a.Assess(baseProfile(), predicting(1), &fakeModel{err: errors.New("down")})

	assert.Equal(t, 30, got.Percentage)
	assert.Equal(t, LevelModerate, got.Level)
}

func TestAssess_MalformedOutputs(t *testing.T) {
	a := NewArbiter(nil)
	tests := []struct {
		name   string
		binary *fakeModel
		prob   *fakeModel
		terms  []string
	}{
		{"probability out of range", predicting(0), predicting(1.5), []string{TermProbability}},
		{"wrong batch size", predicting(0), &fakeModel{out: []float64{0.1, 0.2}}, []string{TermProbability}},
		{"empty output", &fakeModel{}, predicting(0.3), []string{TermBinary}},
		{"non binary class", predicting(0.5), predicting(0.3), []string{TermBinary}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Assess(baseProfile(), tt.binary, tt.prob)
			var terms []string
			for _, d := range got.Degraded {
				terms = append(terms, d.Term)
			}
			assert.Equal(t, tt.terms, terms)
			assert.GreaterOrEqual(t, got.Percentage, 0)
			assert.LessOrEqual(t, got.Percentage, 100)
		})
	}
}

func TestAssess_NormalizesPerModelSchema(t *testing.T) {
	binary := &fakeModel{schema: Schema{ExpectedFeatures: []string{"age", "hypertension"}}, out: []float64{0}}
	prob := &fakeModel{schema: Schema{ExpectedFeatures: []string{"bmi"}}, out: []float64{0.5}}

	NewArbiter(nil).Assess(baseProfile(), binary, prob)

	require.Len(t, binary.seen, 1)
	assert.Equal(t, []string{"age", "hypertension"}, binary.seen[0].Names)
	require.Len(t, prob.seen, 1)
	assert.Equal(t, []float64{23}, prob.seen[0].Values)
}

func TestAssessment_BinaryPrediction(t *testing.T) {
	assert.Nil(t, Assessment{}.BinaryPrediction())
	yes := true
	assert.Equal(t, 1, *Assessment{BinaryFlag: &yes}.BinaryPrediction())
}
