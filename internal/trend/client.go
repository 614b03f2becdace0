package trend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/cecilia-mis/trends-cli/internal/resilience"
)

// HTTPClientOptions configures the interest-over-time HTTP client.
type HTTPClientOptions struct {
	BaseURL    string
	Timeout    time.Duration // default 30s
	RatePerSec float64       // default 1 request/s
	Burst      int           // default 1
	Retry      resilience.RetryConfig
}

// HTTPClient fetches interest-over-time series from an HTTP endpoint
// that serves JSON of the form {"columns": [...], "points": {col: [...]}}.
// Requests are rate limited and retried on transient failures.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewHTTPClient builds a rate-limited client for opts.BaseURL.
func NewHTTPClient(opts HTTPClientOptions) (*HTTPClient, error) {
	if opts.BaseURL == "" {
		return nil, eris.Wrap(ErrCollect, "collector base URL must be configured")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perSec := opts.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &HTTPClient{
		baseURL: opts.BaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
		retry:   opts.Retry,
	}, nil
}

// InterestOverTime implements Client.
func (c *HTTPClient) InterestOverTime(ctx context.Context, keyword, geo, timeframe string) (*Series, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("geo", geo)
	q.Set("timeframe", timeframe)
	endpoint := fmt.Sprintf("%s/interest?%s", c.baseURL, q.Encode())

	series, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*Series, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return c.fetch(ctx, endpoint)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "trend: interest over time for %q", keyword)
	}
	if len(series.Points) == 0 {
		return nil, eris.Wrapf(ErrCollect, "no data returned for %q", keyword)
	}
	return series, nil
}

func (c *HTTPClient) fetch(ctx context.Context, endpoint string) (*Series, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "trend: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.Transient(err, 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, resilience.Transient(
			eris.Errorf("trend: upstream returned %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(ErrCollect, "upstream returned %d", resp.StatusCode)
	}

	var series Series
	if err := json.NewDecoder(resp.Body).Decode(&series); err != nil {
		return nil, eris.Wrap(err, "trend: decode series")
	}
	return &series, nil
}
