package trend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecilia-mis/trends-cli/internal/resilience"
)

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}
}

func newTestClient(t *testing.T, server *httptest.Server) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(HTTPClientOptions{
		BaseURL:    server.URL,
		RatePerSec: 1000,
		Burst:      100,
		Retry:      fastRetry(3),
	})
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPClientOptions{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrCollect))
}

func TestHTTPClientInterestOverTime(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"keyword":   r.URL.Query().Get("keyword"),
			"geo":       r.URL.Query().Get("geo"),
			"timeframe": r.URL.Query().Get("timeframe"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"columns":["interest"],"points":{"interest":[10,20,30]}}`)) //nolint:errcheck
	}))
	defer server.Close()

	series, err := newTestClient(t, server).InterestOverTime(context.Background(), "ai detector", "US", "today 3-m")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"keyword":   "ai detector",
		"geo":       "US",
		"timeframe": "today 3-m",
	}, gotQuery)
	assert.Equal(t, []float64{10, 20, 30}, series.Points["interest"])
}

func TestHTTPClientInterestOverTime_RetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"columns":["interest"],"points":{"interest":[5]}}`)) //nolint:errcheck
	}))
	defer server.Close()

	_, err := newTestClient(t, server).InterestOverTime(context.Background(), "k", "US", "now 7-d")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestHTTPClientInterestOverTime_RetriesRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"columns":["interest"],"points":{"interest":[5]}}`)) //nolint:errcheck
	}))
	defer server.Close()

	_, err := newTestClient(t, server).InterestOverTime(context.Background(), "k", "US", "now 7-d")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestHTTPClientInterestOverTime_ClientErrorIsFinal(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).InterestOverTime(context.Background(), "k", "US", "now 7-d")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrCollect))
	// A 404 is not transient; no retries happen.
	assert.Equal(t, 1, calls)
}

func TestHTTPClientInterestOverTime_EmptySeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"columns":[],"points":{}}`)) //nolint:errcheck
	}))
	defer server.Close()

	_, err := newTestClient(t, server).InterestOverTime(context.Background(), "k", "US", "now 7-d")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrCollect))
}
