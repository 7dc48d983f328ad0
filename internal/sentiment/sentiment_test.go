package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonebot/internal/transport"
)

func newTestClassifier(endpoint string) *HTTPClassifier {
	c := NewHTTPClassifier(endpoint, "test-key")
	c.client = &http.Client{Timeout: time.Second}
	return c
}

func TestClassify_PicksHighestScoringLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "I love this", req["inputs"])
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		fmt.Fprint(w, `[[{"label":"NEGATIVE","score":0.02},{"label":"POSITIVE","score":0.98}]]`)
	}))
	defer srv.Close()

	label, err := newTestClassifier(srv.URL).Classify(context.Background(), "I love this")
	require.NoError(t, err)
	assert.Equal(t, Positive, label)
}

func TestClassify_NegativeLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[[{"label":"NEGATIVE","score":0.97},{"label":"POSITIVE","score":0.03}]]`)
	}))
	defer srv.Close()

	label, err := newTestClassifier(srv.URL).Classify(context.Background(), "this is awful")
	require.NoError(t, err)
	assert.Equal(t, Negative, label)
}

func TestClassify_UnknownLabelIsNeutral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[[{"label":"MIXED","score":0.6}]]`)
	}))
	defer srv.Close()

	label, err := newTestClassifier(srv.URL).Classify(context.Background(), "meh")
	require.NoError(t, err)
	assert.Equal(t, Neutral, label)
}

func TestClassify_ErrorStatusPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClassifier(srv.URL).Classify(context.Background(), "hello")
	assert.Error(t, err)
}

// The 10s budget must apply to each inference attempt separately, through
// the retrying transport. A whole-exchange client deadline would expire
// during the backoff waits and cut the retry schedule short.
func TestNewHTTPClassifier_TimeoutIsPerAttempt(t *testing.T) {
	c := NewHTTPClassifier("", "")
	require.IsType(t, &transport.RetryTransport{}, c.client.Transport)
	assert.Zero(t, c.client.Timeout)
}

func TestClassify_EmptyResultIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	_, err := newTestClassifier(srv.URL).Classify(context.Background(), "hello")
	assert.Error(t, err)
}
