package predictor

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Skufu/strokecare/internal/stroke"
)

// Set holds the binary and probability models. Either may be nil, in which
// case assessments run in rule-based mode.
type Set struct {
	Binary      *Model
	Probability *Model
}

// LoadSet loads both models. A missing or invalid file leaves that model
// unset; it is logged and never fatal.
func LoadSet(binaryPath, probabilityPath string, logger *zap.Logger) Set {
	var s Set
	s.Binary = loadOptional(binaryPath, KindBinary, logger)
	s.Probability = loadOptional(probabilityPath, KindProbability, logger)
	if s.Binary == nil || s.Probability == nil {
		logger.Warn("using rule-based prediction as fallback")
	}
	return s
}

func loadOptional(path string, kind Kind, logger *zap.Logger) *Model {
	m, err := Load(path)
	switch {
	case errors.Is(err, ErrNotFound):
		logger.Warn("model not found", zap.String("kind", string(kind)), zap.String("path", path))
		return nil
	case err != nil:
		logger.Error("failed to load model", zap.String("kind", string(kind)), zap.String("path", path), zap.Error(err))
		return nil
	case m.meta.Kind != kind:
		logger.Error("model kind mismatch",
			zap.String("path", path),
			zap.String("want", string(kind)),
			zap.String("got", string(m.meta.Kind)),
		)
		return nil
	}
	info := m.Info()
	logger.Info("model loaded",
		zap.String("kind", string(kind)),
		zap.String("name", info.Name),
		zap.String("version", info.Version),
		zap.Int("n_features", info.NFeatures),
	)
	return m
}

// BinaryPredictor returns the binary model as an arbiter collaborator, or a
// nil interface when it is not loaded.
func (s Set) BinaryPredictor() stroke.Predictor {
	if s.Binary == nil {
		return nil
	}
	return s.Binary
}

// ProbabilityPredictor returns the probability model, or a nil interface.
func (s Set) ProbabilityPredictor() stroke.ProbabilityPredictor {
	if s.Probability == nil {
		return nil
	}
	return s.Probability
}
