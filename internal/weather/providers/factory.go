package providers

import (
	"fmt"
	"net/http"

	"github.com/i474232898/weathercity/internal/weather"
)

const (
	OpenMeteo   = "openmeteo"
	WeatherAPI  = "weatherapi"
	OpenWeather = "openweather"
)

// Keys holds the API keys for providers that need one.
type Keys struct {
	WeatherAPI  string
	OpenWeather string
}

// New builds the provider registered under name.
func New(name string, client *http.Client, keys Keys) (weather.Provider, error) {
	switch name {
	case OpenMeteo, "":
		return NewOpenMeteoProvider(client, ""), nil
	case WeatherAPI:
		return NewWeatherAPIProvider(client, "", keys.WeatherAPI), nil
	case OpenWeather:
		return NewOpenWeatherProvider(client, "", keys.OpenWeather), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", name)
	}
}

var (
	_ weather.Provider = (*OpenMeteoProvider)(nil)
	_ weather.Provider = (*WeatherAPIProvider)(nil)
	_ weather.Provider = (*OpenWeatherProvider)(nil)
)
