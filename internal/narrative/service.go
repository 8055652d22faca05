package narrative

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Where a narrative came from.
const (
	SourceAI       = "ai"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

const cacheTTL = 24 * time.Hour

// Completer generates text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Insight is a generated narrative and its origin.
type Insight struct {
	Text   string
	Source string
}

// Service resolves narratives through cache, completion API and fallback, in
// that order. It never returns an error.
type Service struct {
	completer Completer
	cache     KV
	model     string
	logger    *zap.Logger
	observe   func(source string)
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables response caching.
func WithCache(kv KV) Option {
	return func(s *Service) { s.cache = kv }
}

// WithObserver registers a callback receiving the source of each insight.
func WithObserver(fn func(source string)) Option {
	return func(s *Service) { s.observe = fn }
}

// NewService returns a Service. A nil completer means every request uses the
// fallback text.
func NewService(completer Completer, model string, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{completer: completer, model: model, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insights returns the narrative for r.
func (s *Service) Insights(ctx context.Context, r Request) Insight {
	insight := s.resolve(ctx, r)
	if s.observe != nil {
		s.observe(insight.Source)
	}
	return insight
}

func (s *Service) resolve(ctx context.Context, r Request) Insight {
	if s.completer == nil {
		return Insight{Text: Fallback(r), Source: SourceFallback}
	}

	prompt := Prompt(r)
	key := cacheKey(s.model, prompt)
	if s.cache != nil {
		text, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			return Insight{Text: text, Source: SourceCache}
		case !errors.Is(err, ErrCacheMiss):
			s.logger.Warn("narrative cache read failed", zap.Error(err))
		}
	}

	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("narrative generation failed, using fallback", zap.Error(err))
		return Insight{Text: Fallback(r), Source: SourceFallback}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, text, cacheTTL); err != nil {
			s.logger.Warn("narrative cache write failed", zap.Error(err))
		}
	}
	return Insight{Text: text, Source: SourceAI}
}
