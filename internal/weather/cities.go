package weather

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CityDirectory fetches the current weather of several locations at once for
// the city list.
type CityDirectory struct {
	provider Provider
	zones    TimeZoneResolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewCityDirectory creates a CityDirectory. zones may be nil.
func NewCityDirectory(provider Provider, zones TimeZoneResolver, logger *zap.Logger) *CityDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CityDirectory{
		provider: provider,
		zones:    zones,
		logger:   logger.Named("cities"),
		now:      time.Now,
	}
}

// Rows returns one row per location, in order. A location whose weather
// cannot be fetched gets a row with Available unset.
func (d *CityDirectory) Rows(ctx context.Context, locations []Location) []CityRow {
	rows := make([]CityRow, len(locations))

	var wg sync.WaitGroup
	for i, loc := range locations {
		wg.Add(1)
		go func(i int, loc Location) {
			defer wg.Done()
			rows[i] = d.row(ctx, loc)
		}(i, loc)
	}
	wg.Wait()

	return rows
}

func (d *CityDirectory) row(ctx context.Context, loc Location) CityRow {
	row := CityRow{Location: loc}

	snapshot, err := d.provider.FetchWeather(ctx, loc.Coordinate)
	if err != nil {
		d.logger.Warn("city weather unavailable",
			zap.String("location_id", loc.ID),
			zap.String("provider", d.provider.Name()),
			zap.Error(err))
		return row
	}

	tz := zoneFor(snapshot, d.zones, loc.Coordinate)
	summary := BuildCurrentSummary(snapshot.Current)

	row.Available = true
	row.TemperatureLabel = summary.TemperatureLabel
	row.ConditionText = summary.ConditionText
	row.IconID = summary.IconID
	row.DateLabel = DateLabel(d.now(), tz)
	row.TimeZone = tz.String()
	return row
}

// zoneFor picks the zone a snapshot is rendered in: the provider's own zone,
// then the resolver's, then time.Local.
func zoneFor(snapshot WeatherSnapshot, zones TimeZoneResolver, coord Coordinate) *time.Location {
	if snapshot.TimeZone != nil {
		return snapshot.TimeZone
	}
	if zones != nil {
		if z := zones.ResolveTimeZone(coord); z != nil {
			return z
		}
	}
	return time.Local
}
