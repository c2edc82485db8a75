package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"

	"github.com/i474232898/weathercity/internal/weather"
)

// unknownName is shown when reverse geocoding gives no locality.
const unknownName = "No Data"

var errNoResults = errors.New("no geocoding results")

// ReverseGeocoder turns a coordinate into a place name.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, coord weather.Coordinate) (string, error)
}

// GoogleGeocoder reverse geocodes through the Google Geocoding API.
type GoogleGeocoder struct{}

// NewGoogleGeocoder configures the geocoder client with apiKey.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

// ReverseGeocode returns the locality of the first matching address.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, coord weather.Coordinate) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{
		Latitude:  coord.Latitude,
		Longitude: coord.Longitude,
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode %s: %w", coord, err)
	}
	for _, a := range addresses {
		if a.City != "" {
			return a.City, nil
		}
	}
	return "", errNoResults
}

// Device resolves the position of the device the service runs for. The
// position comes from configuration; without one the location is unavailable.
type Device struct {
	coord    *weather.Coordinate
	geocoder ReverseGeocoder
	logger   *zap.Logger
}

// NewDevice creates a Device resolver. coord and geocoder may be nil.
func NewDevice(coord *weather.Coordinate, geocoder ReverseGeocoder, logger *zap.Logger) *Device {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Device{coord: coord, geocoder: geocoder, logger: logger.Named("location")}
}

// ResolveDeviceLocation returns the device location named after its locality.
func (d *Device) ResolveDeviceLocation(ctx context.Context) (weather.Location, error) {
	if d.coord == nil {
		return weather.Location{}, fmt.Errorf("%w: no device position configured", weather.ErrLocationUnavailable)
	}

	name := unknownName
	if d.geocoder != nil {
		n, err := d.geocoder.ReverseGeocode(ctx, *d.coord)
		switch {
		case err != nil:
			d.logger.Warn("reverse geocoding failed", zap.Stringer("coordinate", d.coord), zap.Error(err))
		case n != "":
			name = n
		}
	}

	return weather.NewLocation(name, *d.coord), nil
}

var _ weather.LocationResolver = (*Device)(nil)
