package config

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/weathercity/internal/weather"
)

type AppConfig struct {
	ApplicationName string
	Port            string `validate:"required,numeric"`
	LogLevel        string `validate:"oneof=debug info warn error"`

	// Provider selects the single weather source.
	Provider          string `validate:"oneof=openmeteo weatherapi openweather"`
	WeatherAPIKey     string `validate:"required_if=Provider weatherapi"`
	OpenWeatherAPIKey string `validate:"required_if=Provider openweather"`
	GeocoderAPIKey    string

	// DeviceLocation is the position used for "current location"; nil when unknown.
	DeviceLocation *weather.Coordinate `validate:"omitempty"`

	// DefaultCity is a catalog entry selected at startup when no device position is set.
	DefaultCity string

	RefreshInterval time.Duration `validate:"gte=1m"`
	HTTPTimeout     time.Duration `validate:"gt=0"`

	// Outbound request budget per provider.
	ProviderRPS   float64 `validate:"gt=0"`
	ProviderBurst int     `validate:"gte=1"`
}

var validate = validator.New()

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APPLICATION_NAME", "weathercity")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("WEATHER_PROVIDER", "openmeteo")
	v.SetDefault("REFRESH_INTERVAL", "15m")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("PROVIDER_RPS", 1.0)
	v.SetDefault("PROVIDER_BURST", 3)
	return v
}

// FromViper builds and validates the configuration from v.
func FromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		ApplicationName:   v.GetString("APPLICATION_NAME"),
		Port:              v.GetString("PORT"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		Provider:          v.GetString("WEATHER_PROVIDER"),
		WeatherAPIKey:     v.GetString("WEATHERAPI_API_KEY"),
		OpenWeatherAPIKey: v.GetString("OPENWEATHER_API_KEY"),
		GeocoderAPIKey:    v.GetString("GEOCODER_API_KEY"),
		DefaultCity:       v.GetString("DEFAULT_CITY"),
		ProviderRPS:       v.GetFloat64("PROVIDER_RPS"),
		ProviderBurst:     v.GetInt("PROVIDER_BURST"),
	}

	var err error
	if cfg.RefreshInterval, err = time.ParseDuration(v.GetString("REFRESH_INTERVAL")); err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	if cfg.HTTPTimeout, err = time.ParseDuration(v.GetString("HTTP_TIMEOUT")); err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	if cfg.DeviceLocation, err = loadDeviceLocation(v); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadDeviceLocation(v *viper.Viper) (*weather.Coordinate, error) {
	latStr := v.GetString("DEVICE_LATITUDE")
	lonStr := v.GetString("DEVICE_LONGITUDE")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("DEVICE_LATITUDE and DEVICE_LONGITUDE must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_LATITUDE: %w", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_LONGITUDE: %w", err)
	}
	return &weather.Coordinate{Latitude: lat, Longitude: lon}, nil
}
