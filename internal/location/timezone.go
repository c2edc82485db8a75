package location

import (
	"time"

	"github.com/zsefvlol/timezonemapper"

	"github.com/i474232898/weathercity/internal/weather"
)

// TimeZones maps coordinates to IANA time zones offline.
type TimeZones struct {
	fallback *time.Location
}

// NewTimeZones creates a resolver falling back to time.Local.
func NewTimeZones() *TimeZones {
	return &TimeZones{fallback: time.Local}
}

func (t *TimeZones) ResolveTimeZone(coord weather.Coordinate) *time.Location {
	name := timezonemapper.LatLngToTimezoneString(coord.Latitude, coord.Longitude)
	if name == "" {
		return t.fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return t.fallback
	}
	return loc
}

var _ weather.TimeZoneResolver = (*TimeZones)(nil)
