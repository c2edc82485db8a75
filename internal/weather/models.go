package weather

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown      Condition = "unknown"
	ConditionClear        Condition = "clear"
	ConditionPartlyCloudy Condition = "partly_cloudy"
	ConditionCloudy       Condition = "cloudy"
	ConditionDrizzle      Condition = "drizzle"
	ConditionRain         Condition = "rain"
	ConditionSnow         Condition = "snow"
	ConditionStorm        Condition = "storm"
	ConditionMist         Condition = "mist"
)

var conditionPresentation = map[Condition]struct {
	text string
	icon string
}{
	ConditionClear:        {"Clear", "sun.max"},
	ConditionPartlyCloudy: {"Partly Cloudy", "cloud.sun"},
	ConditionCloudy:       {"Cloudy", "cloud"},
	ConditionDrizzle:      {"Drizzle", "cloud.drizzle"},
	ConditionRain:         {"Rain", "cloud.rain"},
	ConditionSnow:         {"Snow", "cloud.snow"},
	ConditionStorm:        {"Thunderstorms", "cloud.bolt.rain"},
	ConditionMist:         {"Foggy", "cloud.fog"},
}

// Text returns the human readable description of the condition.
func (c Condition) Text() string {
	if p, ok := conditionPresentation[c]; ok {
		return p.text
	}
	return "Unknown"
}

// Icon returns the symbol identifier the UI renders for the condition.
func (c Condition) Icon() string {
	if p, ok := conditionPresentation[c]; ok {
		return p.icon
	}
	return "questionmark"
}

// Coordinate is the identity of a place on the globe.
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// String renders the coordinate as a geo URI.
func (c Coordinate) String() string {
	return fmt.Sprintf("geo:%f,%f", c.Latitude, c.Longitude)
}

// Location represents a named place the user can pick.
type Location struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Coordinate Coordinate `json:"coordinate"`
}

// NewLocation builds a Location whose ID is derived from the coordinate, so the
// same place keeps the same identity across restarts.
func NewLocation(name string, coord Coordinate) Location {
	return Location{
		ID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte(coord.String())).String(),
		Name:       name,
		Coordinate: coord,
	}
}

// CurrentReading is the provider's view of the weather right now.
type CurrentReading struct {
	Temperature   float64 `json:"temperature"`
	ConditionText string  `json:"conditionText"`
	IconID        string  `json:"iconId"`
}

// HourlyReading is one hour of forecast. PrecipitationChance is in [0, 1].
type HourlyReading struct {
	Timestamp           time.Time `json:"timestamp"`
	Temperature         float64   `json:"temperature"`
	IconID              string    `json:"iconId"`
	PrecipitationChance float64   `json:"precipitationChance"`
}

// DailyReading is one calendar day of forecast. Date may be any instant inside
// the day it describes.
type DailyReading struct {
	Date                time.Time `json:"date"`
	WeekdayLabel        string    `json:"weekdayLabel,omitempty"`
	High                float64   `json:"high"`
	Low                 float64   `json:"low"`
	IconID              string    `json:"iconId"`
	PrecipitationChance float64   `json:"precipitationChance"`
}

// WeatherSnapshot bundles one provider response for a coordinate.
// Hourly and Daily are expected in chronological order, Daily[0] being today.
type WeatherSnapshot struct {
	Current CurrentReading  `json:"current"`
	Hourly  []HourlyReading `json:"hourly"`
	Daily   []DailyReading  `json:"daily"`

	// TimeZone is the zone the provider anchored Daily in; nil when it did not say.
	TimeZone *time.Location `json:"-"`
}

// CurrentWeatherSummary is the header of the weather screen.
type CurrentWeatherSummary struct {
	TemperatureLabel string `json:"temperature"`
	ConditionText    string `json:"condition"`
	IconID           string `json:"icon"`
}

// HourRow is a single cell of a day's hourly strip.
type HourRow struct {
	TimeLabel          string `json:"time"`
	IconID             string `json:"icon"`
	TemperatureLabel   string `json:"temperature"`
	PrecipitationLabel string `json:"precipitation,omitempty"`
	IsCurrentHour      bool   `json:"isCurrentHour"`
}

// TemperatureRange is the high and low of the upcoming hours.
type TemperatureRange struct {
	HighLabel string `json:"high"`
	LowLabel  string `json:"low"`
}

// Label renders the range as "H: 21° L: 12°".
func (r TemperatureRange) Label() string {
	return "H: " + r.HighLabel + " L: " + r.LowLabel
}

// DailyRow is one line of the multi-day forecast list. RangeStart and
// RangeWidth place the day's low-high bar on a 0..1 scale spanning the
// lowest low and highest high of the whole list.
type DailyRow struct {
	DateLabel          string  `json:"date"`
	WeekdayLabel       string  `json:"weekday"`
	IconID             string  `json:"icon"`
	LowLabel           string  `json:"low"`
	HighLabel          string  `json:"high"`
	PrecipitationLabel string  `json:"precipitation,omitempty"`
	RangeStart         float64 `json:"rangeStart"`
	RangeWidth         float64 `json:"rangeWidth"`
}

// CityRow is one entry of the city list with that city's current weather.
// Available is false when its weather could not be fetched.
type CityRow struct {
	Location         Location `json:"location"`
	Available        bool     `json:"available"`
	TemperatureLabel string   `json:"temperature,omitempty"`
	ConditionText    string   `json:"condition,omitempty"`
	IconID           string   `json:"icon,omitempty"`
	DateLabel        string   `json:"date,omitempty"`
	TimeZone         string   `json:"timeZone,omitempty"`
}

// DayForecastGroup is one collapsible day section.
type DayForecastGroup struct {
	Title      string    `json:"title"`
	IsExpanded bool      `json:"isExpanded"`
	Rows       []HourRow `json:"rows"`
}

// Icon returns the chevron shown next to the day title.
func (g DayForecastGroup) Icon() string {
	if g.IsExpanded {
		return "chevron.up"
	}
	return "chevron.down"
}
