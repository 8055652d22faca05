package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Skufu/strokecare/internal/stroke"
)

func sampleRequest() Request {
	return Request{
		Profile: stroke.Profile{
			Age:             66,
			Gender:          stroke.GenderFemale,
			Hypertension:    true,
			EverMarried:     true,
			WorkType:        stroke.WorkGovtJob,
			ResidenceType:   stroke.ResidenceRural,
			AvgGlucoseLevel: 150,
			BMI:             32,
			SmokingStatus:   stroke.SmokingFormerly,
		},
		Level:      stroke.LevelHigh,
		Percentage: 72,
		Factors:    []string{"Age 60-69", "Hypertension"},
	}
}

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

type fakeCompleter struct {
	text  string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestPrompt(t *testing.T) {
	p := Prompt(sampleRequest())
	assert.Contains(t, p, "- Age: 66 years")
	assert.Contains(t, p, "- Hypertension: Yes")
	assert.Contains(t, p, "- Marital Status: Married")
	assert.Contains(t, p, "- Risk Score: 72%")
	assert.Contains(t, p, "- Key Risk Factors: Age 60-69, Hypertension")

	empty := sampleRequest()
	empty.Factors = nil
	assert.Contains(t, Prompt(empty), "None identified")
}

func TestFallback(t *testing.T) {
	text := Fallback(sampleRequest())
	assert.True(t, strings.HasPrefix(text, "Your assessment indicates an elevated risk level"))
	assert.Contains(t, text, "cardiovascular screening")
	assert.Contains(t, text, "blood pressure daily")
	assert.Contains(t, text, "endocrinologist")
	assert.Contains(t, text, "weight management")
	assert.Contains(t, text, "quitting is the single most impactful")
	assert.NotContains(t, text, "heart medications")

	low := Request{Profile: stroke.Profile{Age: 30, AvgGlucoseLevel: 90, BMI: 22, SmokingStatus: stroke.SmokingNever}, Level: stroke.LevelLow}
	text = Fallback(low)
	assert.True(t, strings.HasPrefix(text, "Great news!"))
	assert.NotContains(t, text, "endocrinologist")
	assert.Contains(t, text, "Lifestyle Tips")
}

func TestClientComplete(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "Stroke Risk Prediction App", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Stay well."}}]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "secret", Model: "m1", Title: "Stroke Risk Prediction App"}, zap.NewNop())
	text, err := c.Complete(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "Stay well.", text)
	assert.Equal(t, "m1", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
	assert.Equal(t, 800, got.MaxTokens)
}

func TestClientComplete_Failures(t *testing.T) {
	t.Run("non success status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()
		_, err := NewClient(ClientConfig{BaseURL: srv.URL}, zap.NewNop()).Complete(context.Background(), "x")
		assert.ErrorContains(t, err, "status 429")
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()
		_, err := NewClient(ClientConfig{BaseURL: srv.URL}, zap.NewNop()).Complete(context.Background(), "x")
		assert.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()
		_, err := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, zap.NewNop()).Complete(context.Background(), "x")
		assert.Error(t, err)
	})
}

func TestService_Sources(t *testing.T) {
	var observed []string
	kv := newFakeKV()
	completer := &fakeCompleter{text: "Personal advice."}
	svc := NewService(completer, "m1", zap.NewNop(),
		WithCache(kv),
		WithObserver(func(source string) { observed = append(observed, source) }),
	)

	first := svc.Insights(context.Background(), sampleRequest())
	second := svc.Insights(context.Background(), sampleRequest())

	assert.Equal(t, Insight{Text: "Personal advice.", Source: SourceAI}, first)
	assert.Equal(t, Insight{Text: "Personal advice.", Source: SourceCache}, second)
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, []string{SourceAI, SourceCache}, observed)
}

func TestService_FallbackOnError(t *testing.T) {
	kv := newFakeKV()
	svc := NewService(&fakeCompleter{err: errors.New("status 500")}, "m1", zap.NewNop(), WithCache(kv))

	got := svc.Insights(context.Background(), sampleRequest())

	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, Fallback(sampleRequest()), got.Text)
	assert.Empty(t, kv.data, "fallback text is not cached")
}

func TestService_CacheErrorStillCallsAPI(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("connection refused")
	completer := &fakeCompleter{text: "ok"}
	svc := NewService(completer, "m1", zap.NewNop(), WithCache(kv))

	got := svc.Insights(context.Background(), sampleRequest())

	assert.Equal(t, SourceAI, got.Source)
	assert.Equal(t, 1, completer.calls)
}

func TestService_NoCompleter(t *testing.T) {
	got := NewService(nil, "", zap.NewNop()).Insights(context.Background(), sampleRequest())
	assert.Equal(t, SourceFallback, got.Source)
}

func TestCacheKeyDependsOnModel(t *testing.T) {
	assert.NotEqual(t, cacheKey("a", "p"), cacheKey("b", "p"))
	assert.Equal(t, cacheKey("a", "p"), cacheKey("a", "p"))
}
