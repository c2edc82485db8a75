package weather

import (
	"context"
	"time"
)

// Provider abstracts a weather data source (e.g. Open-Meteo, WeatherAPI, OpenWeatherMap).
type Provider interface {
	Name() string
	FetchWeather(ctx context.Context, coord Coordinate) (WeatherSnapshot, error)
}

// LocationResolver finds where the device currently is.
type LocationResolver interface {
	ResolveDeviceLocation(ctx context.Context) (Location, error)
}

// TimeZoneResolver maps a coordinate to the time zone used for labels.
// Implementations fall back to time.Local when the zone is unknown.
type TimeZoneResolver interface {
	ResolveTimeZone(coord Coordinate) *time.Location
}

// Store receives every state the controller commits.
type Store interface {
	Save(state State)
}
