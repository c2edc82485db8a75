package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weathercity/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

// OpenWeatherProvider implements the weather.Provider interface for the
// OpenWeatherMap One Call API.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, baseURL, apiKey string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = openWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:   "openweathermap",
		apiKey: apiKey,
		httpCfg: HTTPClientConfig{
			Client:  client,
			BaseURL: baseURL,
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type openWeatherCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type openWeatherPayload struct {
	Timezone string `json:"timezone"`
	Current  struct {
		Dt      int64                  `json:"dt"`
		Temp    float64                `json:"temp"`
		Weather []openWeatherCondition `json:"weather"`
	} `json:"current"`
	Hourly []struct {
		Dt      int64                  `json:"dt"`
		Temp    float64                `json:"temp"`
		Pop     float64                `json:"pop"`
		Weather []openWeatherCondition `json:"weather"`
	} `json:"hourly"`
	Daily []struct {
		Dt   int64 `json:"dt"`
		Temp struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"temp"`
		Pop     float64                `json:"pop"`
		Weather []openWeatherCondition `json:"weather"`
	} `json:"daily"`
}

func (p *OpenWeatherProvider) FetchWeather(ctx context.Context, coord weather.Coordinate) (weather.WeatherSnapshot, error) {
	if p.apiKey == "" {
		return weather.WeatherSnapshot{}, weather.NewProviderError(p.name, weather.CodeConfig, errNoAPIKey)
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', 6, 64))
	values.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', 6, 64))
	values.Set("exclude", "minutely,alerts")

	u := fmt.Sprintf("%s?%s", p.httpCfg.BaseURL, values.Encode())

	var payload openWeatherPayload
	if err := getJSON(ctx, p.name, p.httpCfg, p.circuit, u, &payload); err != nil {
		return weather.WeatherSnapshot{}, err
	}

	tz, known := loadZone(payload.Timezone)
	cond := mapOpenWeatherCondition(payload.Current.Weather)

	conditionText := cond.Text()
	if len(payload.Current.Weather) > 0 && payload.Current.Weather[0].Description != "" {
		conditionText = capitalize(payload.Current.Weather[0].Description)
	}

	snapshot := weather.WeatherSnapshot{
		Current: weather.CurrentReading{
			Temperature:   payload.Current.Temp,
			ConditionText: conditionText,
			IconID:        cond.Icon(),
		},
		Hourly: make([]weather.HourlyReading, 0, len(payload.Hourly)),
		Daily:  make([]weather.DailyReading, 0, len(payload.Daily)),
	}
	if known {
		snapshot.TimeZone = tz
	}

	for _, h := range payload.Hourly {
		snapshot.Hourly = append(snapshot.Hourly, weather.HourlyReading{
			Timestamp:           time.Unix(h.Dt, 0).UTC(),
			Temperature:         h.Temp,
			IconID:              mapOpenWeatherCondition(h.Weather).Icon(),
			PrecipitationChance: h.Pop,
		})
	}

	for _, d := range payload.Daily {
		date := time.Unix(d.Dt, 0).In(tz)
		snapshot.Daily = append(snapshot.Daily, weather.DailyReading{
			Date:                date,
			WeekdayLabel:        date.Weekday().String(),
			High:                d.Temp.Max,
			Low:                 d.Temp.Min,
			IconID:              mapOpenWeatherCondition(d.Weather).Icon(),
			PrecipitationChance: d.Pop,
		})
	}

	return snapshot, nil
}

func mapOpenWeatherCondition(items []openWeatherCondition) weather.Condition {
	if len(items) == 0 {
		return weather.ConditionUnknown
	}
	switch items[0].Main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		if strings.Contains(items[0].Description, "few") || strings.Contains(items[0].Description, "scattered") {
			return weather.ConditionPartlyCloudy
		}
		return weather.ConditionCloudy
	case "Drizzle":
		return weather.ConditionDrizzle
	case "Rain":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
