package stroke

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// ErrInference wraps every failed model invocation.
var ErrInference = errors.New("model inference failed")

// binaryFloor is the minimum percentage once the binary model predicts a stroke.
const binaryFloor = 30

// Predictor is a trained model consumed by the arbiter. Implementations must be
// safe for concurrent use; they are read-only at inference time.
type Predictor interface {
	Schema() Schema
	Predict(batch []FeatureVector) ([]float64, error)
}

// ProbabilityPredictor additionally answers the full two-class probability query.
type ProbabilityPredictor interface {
	Predictor
	PredictProba(batch []FeatureVector) ([][2]float64, error)
}

// FailureFunc observes a degraded model term.
type FailureFunc func(term string, err error)

// Arbiter merges the rule-based score with optional model predictions.
type Arbiter struct {
	logger    *zap.Logger
	onFailure FailureFunc
}

// ArbiterOption configures an Arbiter.
type ArbiterOption func(*Arbiter)

// WithFailureHook registers a callback invoked for each degraded model term.
func WithFailureHook(fn FailureFunc) ArbiterOption {
	return func(a *Arbiter) { a.onFailure = fn }
}

// NewArbiter returns an Arbiter. A nil logger disables logging.
func NewArbiter(logger *zap.Logger, opts ...ArbiterOption) *Arbiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Arbiter{logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assess runs the rule-based scorer and, when both models are present,
// reconciles their predictions with it. It never fails: a model term that
// cannot be evaluated falls back to the rule-based result and is reported in
// Assessment.Degraded.
func (a *Arbiter) Assess(p Profile, binary Predictor, probability ProbabilityPredictor) Assessment {
	rules := ScoreProfile(p)
	if binary == nil || probability == nil {
		return Assemble(rules, rules.Percentage, rules.Level, nil, SourceRules, nil)
	}

	var degraded []Degradation
	percentage := rules.Percentage
	source := SourceRules

	prob, err := evaluate(probability, p, validProbability)
	if err != nil {
		degraded = append(degraded, a.degrade(TermProbability, err))
	} else {
		percentage = clamp(int(math.Round(prob*100)), 0, 100)
		source = SourceModel
	}

	var flag *bool
	class, err := evaluate(binary, p, validClass)
	if err != nil {
		degraded = append(degraded, a.degrade(TermBinary, err))
	} else {
		positive := class == 1
		flag = &positive
		if positive && percentage < binaryFloor {
			percentage = binaryFloor
		}
	}

	return Assemble(rules, percentage, LevelFor(percentage), flag, source, degraded)
}

func (a *Arbiter) degrade(term string, err error) Degradation {
	a.logger.Warn("model term degraded to rule-based result",
		zap.String("term", term),
		zap.Error(err),
	)
	if a.onFailure != nil {
		a.onFailure(term, err)
	}
	return Degradation{Term: term, Reason: err.Error()}
}

// evaluate normalizes the profile against the model's schema and runs a
// single-row prediction. Panics inside the model count as failures.
func evaluate(model Predictor, p Profile, check func(float64) error) (value float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInference, r)
		}
	}()

	fv := Normalize(p, model.Schema())
	out, err := model.Predict([]FeatureVector{fv})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%w: expected 1 prediction, got %d", ErrInference, len(out))
	}
	if err := check(out[0]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInference, err)
	}
	return out[0], nil
}

func validProbability(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("probability %v outside [0,1]", v)
	}
	return nil
}

func validClass(v float64) error {
	if v != 0 && v != 1 {
		return fmt.Errorf("class %v is not 0 or 1", v)
	}
	return nil
}
