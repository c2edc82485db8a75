package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weathercity/internal/common"
	"github.com/i474232898/weathercity/internal/weather"
)

const weatherAPIBaseURL = "https://api.weatherapi.com/v1/forecast.json"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, baseURL, apiKey string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = weatherAPIBaseURL
	}
	return &WeatherAPIProvider{
		name:   "weatherapi",
		apiKey: apiKey,
		httpCfg: HTTPClientConfig{
			Client:  client,
			BaseURL: baseURL,
		},
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPICondition struct {
	Text string `json:"text"`
}

type weatherAPIPayload struct {
	Location struct {
		TzID string `json:"tz_id"`
	} `json:"location"`
	Current struct {
		TempC     float64             `json:"temp_c"`
		Condition weatherAPICondition `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC          float64             `json:"maxtemp_c"`
				MinTempC          float64             `json:"mintemp_c"`
				DailyChanceOfRain float64             `json:"daily_chance_of_rain"`
				DailyChanceOfSnow float64             `json:"daily_chance_of_snow"`
				Condition         weatherAPICondition `json:"condition"`
			} `json:"day"`
			Hour []struct {
				TimeEpoch    int64               `json:"time_epoch"`
				TempC        float64             `json:"temp_c"`
				ChanceOfRain float64             `json:"chance_of_rain"`
				ChanceOfSnow float64             `json:"chance_of_snow"`
				Condition    weatherAPICondition `json:"condition"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) FetchWeather(ctx context.Context, coord weather.Coordinate) (weather.WeatherSnapshot, error) {
	if p.apiKey == "" {
		return weather.WeatherSnapshot{}, weather.NewProviderError(p.name, weather.CodeConfig, errNoAPIKey)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts "lat,lon".
	values.Set("q", fmt.Sprintf("%f,%f", coord.Latitude, coord.Longitude))
	values.Set("days", "10")
	values.Set("aqi", "no")
	values.Set("alerts", "no")

	u := fmt.Sprintf("%s?%s", p.httpCfg.BaseURL, values.Encode())

	var payload weatherAPIPayload
	if err := getJSON(ctx, p.name, p.httpCfg, p.circuit, u, &payload); err != nil {
		return weather.WeatherSnapshot{}, err
	}

	tz, known := loadZone(payload.Location.TzID)
	cond := mapWeatherAPICondition(payload.Current.Condition.Text)

	conditionText := strings.TrimSpace(payload.Current.Condition.Text)
	if conditionText == "" {
		conditionText = cond.Text()
	}

	snapshot := weather.WeatherSnapshot{
		Current: weather.CurrentReading{
			Temperature:   payload.Current.TempC,
			ConditionText: conditionText,
			IconID:        cond.Icon(),
		},
	}
	if known {
		snapshot.TimeZone = tz
	}

	for _, day := range payload.Forecast.ForecastDay {
		date, err := time.ParseInLocation("2006-01-02", day.Date, tz)
		if err != nil {
			return weather.WeatherSnapshot{}, weather.NewProviderError(p.name, weather.CodeDecode, err)
		}
		snapshot.Daily = append(snapshot.Daily, weather.DailyReading{
			Date:                date,
			WeekdayLabel:        date.Weekday().String(),
			High:                day.Day.MaxTempC,
			Low:                 day.Day.MinTempC,
			IconID:              mapWeatherAPICondition(day.Day.Condition.Text).Icon(),
			PrecipitationChance: percent(max(day.Day.DailyChanceOfRain, day.Day.DailyChanceOfSnow)),
		})

		for _, hour := range day.Hour {
			snapshot.Hourly = append(snapshot.Hourly, weather.HourlyReading{
				Timestamp:           time.Unix(hour.TimeEpoch, 0).UTC(),
				Temperature:         hour.TempC,
				IconID:              mapWeatherAPICondition(hour.Condition.Text).Icon(),
				PrecipitationChance: percent(max(hour.ChanceOfRain, hour.ChanceOfSnow)),
			})
		}
	}

	return snapshot, nil
}

func mapWeatherAPICondition(text string) weather.Condition {
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.HasAny(text, "thunder", "storm"):
		return weather.ConditionStorm
	case common.HasAny(text, "drizzle"):
		return weather.ConditionDrizzle
	case common.HasAny(text, "rain", "shower"):
		return weather.ConditionRain
	case common.HasAny(text, "snow", "sleet", "blizzard", "ice"):
		return weather.ConditionSnow
	case common.HasAny(text, "fog", "mist"):
		return weather.ConditionMist
	case common.HasAny(text, "partly"):
		return weather.ConditionPartlyCloudy
	case common.HasAny(text, "cloud", "overcast"):
		return weather.ConditionCloudy
	case common.HasAny(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
