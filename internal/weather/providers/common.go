package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weathercity/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and the upstream base URL.
type HTTPClientConfig struct {
	Client  *http.Client
	BaseURL string
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnauthorized = errors.New("unauthorized")
	errUnexpected   = errors.New("unexpected status code")
	errNoHTTPClient = errors.New("http client not configured")
	errNoAPIKey     = errors.New("api key is not configured")
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// Client errors say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errUnauthorized) || errors.Is(err, context.Canceled)
		},
	})
}

// getJSON executes a single GET through the circuit breaker and decodes the
// body into out. Failures come back as *weather.ProviderError.
func getJSON(
	ctx context.Context,
	provider string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	url string,
	out any,
) error {
	if cfg.Client == nil {
		return weather.NewProviderError(provider, weather.CodeConfig, errNoHTTPClient)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return weather.NewProviderError(provider, weather.CodeConfig, err)
	}
	req.Header.Set("Accept", "application/json")

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnauthorized, resp.StatusCode)
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			return nil, errRateLimited
		case resp.StatusCode >= 500:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}

		return resp, nil
	})
	if err != nil {
		return weather.NewProviderError(provider, classify(err), err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return weather.NewProviderError(provider, weather.CodeUpstream, fmt.Errorf("unexpected result type from circuit breaker"))
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return weather.NewProviderError(provider, weather.CodeDecode, err)
	}
	return nil
}

func classify(err error) weather.ProviderErrorCode {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return weather.CodeCircuitOpen
	case errors.Is(err, errUnauthorized):
		return weather.CodeAuth
	case errors.Is(err, errRateLimited):
		return weather.CodeRateLimited
	case errors.Is(err, errServerError), errors.Is(err, errUnexpected):
		return weather.CodeUpstream
	default:
		return weather.CodeNetwork
	}
}

// loadZone resolves an IANA zone name returned by a provider. ok is false,
// and the zone UTC, when the name is empty or unknown.
func loadZone(name string) (*time.Location, bool) {
	if name == "" {
		return time.UTC, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}

// percent converts a 0..100 probability to 0..1.
func percent(v float64) float64 {
	return v / 100
}
