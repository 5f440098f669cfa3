package weather

import (
	"strconv"
	"time"
)

// DefaultWindowSize is the number of hourly points in a forecast window.
const DefaultWindowSize = 24

// Location represents the place the dashboard tracks.
// Lat/Lon are required by Open-Meteo; City is used as the label and by
// providers that accept a free-text query.
type Location struct {
	City string   `json:"city"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// Key returns a canonical string key for indexing this location in caches.
func (l Location) Key() string {
	if l.Lat != nil && l.Lon != nil {
		return fmtCoord(*l.Lat) + "," + fmtCoord(*l.Lon)
	}
	return l.City
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Sample is one persisted weather observation. Samples are append-only.
type Sample struct {
	ID          string    `json:"id"`
	City        string    `json:"city"`
	Temperature float64   `json:"temp"`
	Humidity    *float64  `json:"humidity,omitempty"`
	WindSpeed   *float64  `json:"windspeed,omitempty"`
	Weather     string    `json:"weather"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
}

// HourlyForecastPoint is a single hour of provider forecast data.
// Time carries the provider's timezone so comparisons against "now" are
// between absolute instants.
type HourlyForecastPoint struct {
	Time          time.Time `json:"time"`
	Temperature   float64   `json:"temp"`
	Humidity      float64   `json:"humidity"`
	Precipitation float64   `json:"precipitation"`
	WindSpeed     float64   `json:"windspeed"`
	WeatherCode   *int      `json:"weatherCode,omitempty"`

	// Weather is the translated WeatherCode, filled when a window is built.
	Weather string `json:"weather,omitempty"`
}

// HourlyForecast is the raw hourly range returned by a forecast provider,
// ordered by Time ascending.
type HourlyForecast struct {
	Timezone string                `json:"timezone"`
	Points   []HourlyForecastPoint `json:"points"`
}

// ForecastWindow is a bounded, time-ordered slice of hourly points.
type ForecastWindow struct {
	City     string                `json:"city"`
	Timezone string                `json:"timezone"`
	Hours    []HourlyForecastPoint `json:"hours"`
}
