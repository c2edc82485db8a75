package weather

import (
	"math"
	"strconv"
	"time"
)

const (
	maxDays        = 7
	maxHoursPerDay = 24
	maxDailyRows   = 10
	rangeHours     = 25

	hourLabelLayout = "3 PM"
	dateLabelLayout = "Jan 2, 2006"
)

// BuildCurrentSummary formats the current reading for the header view.
func BuildCurrentSummary(current CurrentReading) CurrentWeatherSummary {
	return CurrentWeatherSummary{
		TemperatureLabel: FormatTemperature(current.Temperature),
		ConditionText:    current.ConditionText,
		IconID:           current.IconID,
	}
}

// BuildDayGroups turns a snapshot into at most seven day groups of at most
// 24 hourly rows each. Today's group uses the provider's rolling hourly window,
// dropping hours more than one hour behind now; other days use the hours that
// fall inside their calendar day in tz. A nil tz means time.Local.
func BuildDayGroups(snapshot WeatherSnapshot, now time.Time, tz *time.Location) []DayForecastGroup {
	if tz == nil {
		tz = time.Local
	}

	daily := snapshot.Daily
	if len(daily) > maxDays {
		daily = daily[:maxDays]
	}

	nowLabel := HourLabel(now, tz)
	cutoff := now.Add(-time.Hour)

	groups := make([]DayForecastGroup, 0, len(daily))
	for _, day := range daily {
		isToday := sameDay(day.Date, now, tz)

		var hourly []HourlyReading
		if isToday {
			for _, h := range snapshot.Hourly {
				if h.Timestamp.After(cutoff) {
					hourly = append(hourly, h)
				}
			}
		} else {
			start, end := dayBounds(day.Date, tz)
			for _, h := range snapshot.Hourly {
				if !h.Timestamp.Before(start) && !h.Timestamp.After(end) {
					hourly = append(hourly, h)
				}
			}
		}

		if len(hourly) > maxHoursPerDay {
			hourly = hourly[:maxHoursPerDay]
		}

		rows := make([]HourRow, 0, len(hourly))
		marked := false
		for _, h := range hourly {
			label := HourLabel(h.Timestamp, tz)
			current := isToday && !marked && label == nowLabel
			if current {
				marked = true
			}
			rows = append(rows, HourRow{
				TimeLabel:          label,
				IconID:             h.IconID,
				TemperatureLabel:   FormatTemperature(h.Temperature),
				PrecipitationLabel: FormatPrecipitation(h.PrecipitationChance),
				IsCurrentHour:      current,
			})
		}

		groups = append(groups, DayForecastGroup{
			Title:      day.Date.In(tz).Weekday().String(),
			IsExpanded: isToday,
			Rows:       rows,
		})
	}

	return groups
}

// BuildDailyRows renders the first ten daily entries as forecast list rows.
// Each row's bar is scaled against the lowest low and highest high of the rows
// returned; when every day has the same temperature the bars are empty.
func BuildDailyRows(snapshot WeatherSnapshot, tz *time.Location) []DailyRow {
	if tz == nil {
		tz = time.Local
	}

	daily := snapshot.Daily
	if len(daily) > maxDailyRows {
		daily = daily[:maxDailyRows]
	}
	if len(daily) == 0 {
		return []DailyRow{}
	}

	lowest, highest := daily[0].Low, daily[0].High
	for _, d := range daily[1:] {
		lowest = math.Min(lowest, d.Low)
		highest = math.Max(highest, d.High)
	}
	span := highest - lowest

	rows := make([]DailyRow, 0, len(daily))
	for _, d := range daily {
		row := DailyRow{
			DateLabel:          DateLabel(d.Date, tz),
			WeekdayLabel:       d.Date.In(tz).Weekday().String(),
			IconID:             d.IconID,
			LowLabel:           FormatTemperature(d.Low),
			HighLabel:          FormatTemperature(d.High),
			PrecipitationLabel: FormatPrecipitation(d.PrecipitationChance),
		}
		if span > 0 {
			row.RangeStart = (d.Low - lowest) / span
			row.RangeWidth = (d.High - d.Low) / span
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildTemperatureRange returns the high and low over the next 25 hourly
// readings that are not more than an hour old. ok is false when there are none.
func BuildTemperatureRange(snapshot WeatherSnapshot, now time.Time) (TemperatureRange, bool) {
	cutoff := now.Add(-time.Hour)

	var high, low float64
	n := 0
	for _, h := range snapshot.Hourly {
		if !h.Timestamp.After(cutoff) {
			continue
		}
		if n == 0 || h.Temperature > high {
			high = h.Temperature
		}
		if n == 0 || h.Temperature < low {
			low = h.Temperature
		}
		n++
		if n == rangeHours {
			break
		}
	}
	if n == 0 {
		return TemperatureRange{}, false
	}
	return TemperatureRange{HighLabel: FormatTemperature(high), LowLabel: FormatTemperature(low)}, true
}

// FormatPrecipitation renders a 0..1 chance as a whole percentage, or "" when
// there is no chance at all.
func FormatPrecipitation(chance float64) string {
	if chance <= 0 {
		return ""
	}
	return strconv.Itoa(int(math.Round(chance*100))) + "%"
}

// DateLabel renders the calendar date of t in tz, e.g. "Jul 1, 2024".
func DateLabel(t time.Time, tz *time.Location) string {
	if tz == nil {
		tz = time.Local
	}
	return t.In(tz).Format(dateLabelLayout)
}

// FormatTemperature rounds to the nearest whole degree, half away from zero.
func FormatTemperature(value float64) string {
	rounded := int(math.Round(value))
	return strconv.Itoa(rounded) + "°"
}

// HourLabel renders the 12-hour clock label of t in tz, e.g. "3 PM".
func HourLabel(t time.Time, tz *time.Location) string {
	if tz == nil {
		tz = time.Local
	}
	return t.In(tz).Format(hourLabelLayout)
}

// Headline returns the "Monday, 3 PM" title shown above the day list.
func Headline(now time.Time, tz *time.Location) string {
	if tz == nil {
		tz = time.Local
	}
	return now.In(tz).Weekday().String() + ", " + HourLabel(now, tz)
}

func sameDay(a, b time.Time, tz *time.Location) bool {
	ay, am, ad := a.In(tz).Date()
	by, bm, bd := b.In(tz).Date()
	return ay == by && am == bm && ad == bd
}

// dayBounds returns the first and last instant of t's calendar day in tz.
func dayBounds(t time.Time, tz *time.Location) (time.Time, time.Time) {
	y, m, d := t.In(tz).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, tz)
	next := time.Date(y, m, d+1, 0, 0, 0, 0, tz)
	return start, next.Add(-time.Nanosecond)
}
