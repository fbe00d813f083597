package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (compatible; SignalSentinel/1.0)"

// NewHTTPClient builds the shared client with optional proxy support.
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// NewLimiter allows perMinute calls with a burst of a tenth of that.
// perMinute <= 0 disables limiting.
func NewLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst)
}

// restClient is the plumbing shared by the JSON-over-HTTP adapters.
type restClient struct {
	name    string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	header  http.Header
}

func newRESTClient(name, baseURL string, client *http.Client, limiter *rate.Limiter) restClient {
	if client == nil {
		client = NewHTTPClient("", 0)
	}
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return restClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		limiter: limiter,
		header:  http.Header{},
	}
}

// get performs one GET and returns the body of a 2xx response. It never waits
// on the limiter: an exhausted budget fails fast with ErrRateLimited.
func (r restClient) get(ctx context.Context, op, symbol, path string, query url.Values) ([]byte, error) {
	if !r.limiter.Allow() {
		return nil, providerErr(r.name, op, symbol, ErrRateLimited, nil)
	}

	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, providerErr(r.name, op, symbol, ErrProviderUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, providerErr(r.name, op, symbol, ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, providerErr(r.name, op, symbol, ErrProviderUnavailable, fmt.Errorf("read body: %w", err))
	}
	if kind := statusError(resp.StatusCode); kind != nil {
		return nil, providerErr(r.name, op, symbol, kind, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)))
	}
	return body, nil
}

// getJSON is get plus decoding into out.
func (r restClient) getJSON(ctx context.Context, op, symbol, path string, query url.Values, out any) error {
	body, err := r.get(ctx, op, symbol, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return providerErr(r.name, op, symbol, ErrProviderUnavailable, fmt.Errorf("decode: %w", err))
	}
	return nil
}

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusNotFound:
		return ErrSymbolNotFound
	default:
		return ErrProviderUnavailable
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
