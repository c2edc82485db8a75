package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/i474232898/weathercity/internal/weather"
)

// RateLimited wraps a weather.Provider with a token bucket so rapid location
// switches cannot exceed the upstream quota.
type RateLimited struct {
	provider weather.Provider
	limiter  *rate.Limiter
}

// NewRateLimited creates a rate limited provider.
// rps is the maximum requests per second allowed (can be fractional)
// burst is the maximum burst size allowed
func NewRateLimited(provider weather.Provider, rps float64, burst int) *RateLimited {
	return &RateLimited{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) Name() string {
	return r.provider.Name()
}

// FetchWeather waits for the limiter, then forwards to the wrapped provider.
func (r *RateLimited) FetchWeather(ctx context.Context, coord weather.Coordinate) (weather.WeatherSnapshot, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return weather.WeatherSnapshot{}, weather.NewProviderError(r.provider.Name(), weather.CodeRateLimited,
			fmt.Errorf("rate limit wait canceled: %w", err))
	}
	return r.provider.FetchWeather(ctx, coord)
}

var _ weather.Provider = (*RateLimited)(nil)
