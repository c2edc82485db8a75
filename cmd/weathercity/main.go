package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weathercity/internal/api/http"
	"github.com/i474232898/weathercity/internal/config"
	"github.com/i474232898/weathercity/internal/location"
	"github.com/i474232898/weathercity/internal/logger"
	"github.com/i474232898/weathercity/internal/scheduler"
	"github.com/i474232898/weathercity/internal/store"
	"github.com/i474232898/weathercity/internal/weather"
	"github.com/i474232898/weathercity/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.ApplicationName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider, err := providers.New(cfg.Provider, httpClient, providers.Keys{
		WeatherAPI:  cfg.WeatherAPIKey,
		OpenWeather: cfg.OpenWeatherAPIKey,
	})
	if err != nil {
		zlog.Fatal("failed to build weather provider", zap.Error(err))
	}
	provider = providers.NewRateLimited(provider, cfg.ProviderRPS, cfg.ProviderBurst)

	var geocoder location.ReverseGeocoder
	if cfg.GeocoderAPIKey != "" {
		geocoder = location.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}
	device := location.NewDevice(cfg.DeviceLocation, geocoder, zlog)
	catalog := weather.DefaultCatalog()

	zones := location.NewTimeZones()
	viewStore := store.NewMemoryStore()
	controller := weather.NewController(provider, zones, viewStore, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go controller.Run(ctx)

	selectInitialLocation(ctx, cfg, device, catalog, controller, zlog)

	// Refreshes the selected location periodically.
	sched := scheduler.New(cfg.RefreshInterval, controller, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               cfg.ApplicationName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(httpapi.RequestLogger(zlog))
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  cfg.ApplicationName,
			"provider": provider.Name(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Dependencies{
		Controller: controller,
		Store:      viewStore,
		Catalog:    catalog,
		Device:     device,
		Cities:     weather.NewCityDirectory(provider, zones, zlog),
		Logger:     zlog,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()
	zlog.Info("server started", zap.String("port", cfg.Port), zap.String("provider", provider.Name()))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}

// selectInitialLocation picks the device location, or DEFAULT_CITY when the
// device position is unknown.
func selectInitialLocation(
	ctx context.Context,
	cfg *config.AppConfig,
	device weather.LocationResolver,
	catalog *weather.Catalog,
	controller *weather.Controller,
	zlog *zap.Logger,
) {
	loc, err := device.ResolveDeviceLocation(ctx)
	if err != nil {
		if !errors.Is(err, weather.ErrLocationUnavailable) {
			zlog.Warn("device location lookup failed", zap.Error(err))
		}
		if cfg.DefaultCity == "" {
			zlog.Info("no initial location; waiting for a selection")
			return
		}
		var ok bool
		if loc, ok = catalog.ByName(cfg.DefaultCity); !ok {
			zlog.Warn("DEFAULT_CITY is not in the catalog", zap.String("city", cfg.DefaultCity))
			return
		}
	}

	if err := controller.SelectLocation(loc); err != nil {
		zlog.Error("failed to select initial location", zap.Error(err))
	}
}
