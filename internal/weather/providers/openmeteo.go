package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weathercity/internal/weather"
)

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = openMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name: "openmeteo",
		httpCfg: HTTPClientConfig{
			Client:  client,
			BaseURL: baseURL,
		},
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPayload struct {
	Timezone string `json:"timezone"`
	Current  struct {
		Time        int64   `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		Time          []int64    `json:"time"`
		Temperature   []float64  `json:"temperature_2m"`
		WeatherCode   []int      `json:"weather_code"`
		Precipitation []*float64 `json:"precipitation_probability"`
	} `json:"hourly"`
	Daily struct {
		Time          []int64    `json:"time"`
		WeatherCode   []int      `json:"weather_code"`
		High          []float64  `json:"temperature_2m_max"`
		Low           []float64  `json:"temperature_2m_min"`
		Precipitation []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) FetchWeather(ctx context.Context, coord weather.Coordinate) (weather.WeatherSnapshot, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', 6, 64))
	values.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', 6, 64))
	values.Set("current", "temperature_2m,weather_code")
	values.Set("hourly", "temperature_2m,weather_code,precipitation_probability")
	values.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max")
	values.Set("timezone", "auto")
	values.Set("timeformat", "unixtime")
	values.Set("forecast_days", "10")

	u := fmt.Sprintf("%s?%s", p.httpCfg.BaseURL, values.Encode())

	var payload openMeteoPayload
	if err := getJSON(ctx, p.name, p.httpCfg, p.circuit, u, &payload); err != nil {
		return weather.WeatherSnapshot{}, err
	}

	h := payload.Hourly
	if len(h.Temperature) != len(h.Time) || len(h.WeatherCode) != len(h.Time) ||
		(h.Precipitation != nil && len(h.Precipitation) != len(h.Time)) {
		return weather.WeatherSnapshot{}, weather.NewProviderError(p.name, weather.CodeDecode,
			fmt.Errorf("hourly series length mismatch: time=%d temperature=%d code=%d precipitation=%d",
				len(h.Time), len(h.Temperature), len(h.WeatherCode), len(h.Precipitation)))
	}
	d := payload.Daily
	if len(d.WeatherCode) != len(d.Time) || len(d.High) != len(d.Time) || len(d.Low) != len(d.Time) ||
		(d.Precipitation != nil && len(d.Precipitation) != len(d.Time)) {
		return weather.WeatherSnapshot{}, weather.NewProviderError(p.name, weather.CodeDecode,
			fmt.Errorf("daily series length mismatch: time=%d code=%d max=%d min=%d precipitation=%d",
				len(d.Time), len(d.WeatherCode), len(d.High), len(d.Low), len(d.Precipitation)))
	}

	tz, known := loadZone(payload.Timezone)
	cond := mapOpenMeteoCondition(payload.Current.WeatherCode)

	snapshot := weather.WeatherSnapshot{
		Current: weather.CurrentReading{
			Temperature:   payload.Current.Temperature,
			ConditionText: cond.Text(),
			IconID:        cond.Icon(),
		},
		Hourly: make([]weather.HourlyReading, 0, len(h.Time)),
		Daily:  make([]weather.DailyReading, 0, len(d.Time)),
	}
	if known {
		snapshot.TimeZone = tz
	}

	for i, ts := range h.Time {
		snapshot.Hourly = append(snapshot.Hourly, weather.HourlyReading{
			Timestamp:           time.Unix(ts, 0).UTC(),
			Temperature:         h.Temperature[i],
			IconID:              mapOpenMeteoCondition(h.WeatherCode[i]).Icon(),
			PrecipitationChance: openMeteoChance(h.Precipitation, i),
		})
	}

	for i, ts := range d.Time {
		date := time.Unix(ts, 0).In(tz)
		snapshot.Daily = append(snapshot.Daily, weather.DailyReading{
			Date:                date,
			WeekdayLabel:        date.Weekday().String(),
			High:                d.High[i],
			Low:                 d.Low[i],
			IconID:              mapOpenMeteoCondition(d.WeatherCode[i]).Icon(),
			PrecipitationChance: openMeteoChance(d.Precipitation, i),
		})
	}

	return snapshot, nil
}

// openMeteoChance reads a nullable percentage series; missing values count as zero.
func openMeteoChance(series []*float64, i int) float64 {
	if i >= len(series) || series[i] == nil {
		return 0
	}
	return percent(*series[i])
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// WMO weather interpretation codes.
	switch {
	case code == 0:
		return weather.ConditionClear
	case code == 1 || code == 2:
		return weather.ConditionPartlyCloudy
	case code == 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case code >= 51 && code <= 57:
		return weather.ConditionDrizzle
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
