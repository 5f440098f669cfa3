package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// openMeteoTimeLayout is the naive local wall-clock format Open-Meteo uses
// for "time" values when a timezone is requested.
const openMeteoTimeLayout = "2006-01-02T15:04"

const (
	openMeteoHourlyFields  = "temperature_2m,relative_humidity_2m,precipitation,wind_speed_10m,weather_code"
	openMeteoCurrentFields = "temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code"
)

// OpenMeteoProvider implements weather.Provider and weather.ForecastProvider
// for Open-Meteo. It needs no API key but requires coordinates.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(cfg HTTPClientConfig) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: cfg,
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoResponse struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
	Current          *struct {
		Time        string  `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Hourly *struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		Humidity      []*float64 `json:"relative_humidity_2m"`
		Precipitation []*float64 `json:"precipitation"`
		WindSpeed     []*float64 `json:"wind_speed_10m"`
		WeatherCode   []*int     `json:"weather_code"`
	} `json:"hourly"`
}

// Fetch returns current conditions for the location.
func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.CurrentReading, error) {
	values, err := coordinates(loc)
	if err != nil {
		return weather.CurrentReading{}, err
	}
	values.Set("current", openMeteoCurrentFields)
	values.Set("timezone", "auto")

	payload, err := p.get(ctx, values)
	if err != nil {
		return weather.CurrentReading{}, err
	}
	if payload.Current == nil {
		return weather.CurrentReading{}, fmt.Errorf("%w: missing current block", errMalformed)
	}

	zone := providerZone(payload.Timezone, payload.UTCOffsetSeconds)
	ts, err := time.ParseInLocation(openMeteoTimeLayout, payload.Current.Time, zone)
	if err != nil {
		ts = time.Now()
	}

	code := payload.Current.WeatherCode
	humidity := payload.Current.Humidity
	wind := payload.Current.WindSpeed

	return weather.CurrentReading{
		ProviderName: p.name,
		Timestamp:    ts.UTC(),
		TemperatureC: payload.Current.Temperature,
		HumidityPct:  &humidity,
		WindSpeed:    &wind,
		Weather:      weather.Translate(&code),
	}, nil
}

// FetchHourly returns the hourly forecast for the given number of calendar
// days, starting at local midnight of the current day.
func (p *OpenMeteoProvider) FetchHourly(ctx context.Context, loc weather.Location, days int) (weather.HourlyForecast, error) {
	values, err := coordinates(loc)
	if err != nil {
		return weather.HourlyForecast{}, err
	}
	values.Set("hourly", openMeteoHourlyFields)
	values.Set("forecast_days", strconv.Itoa(days))
	values.Set("timezone", "auto")

	payload, err := p.get(ctx, values)
	if err != nil {
		return weather.HourlyForecast{}, err
	}
	if payload.Hourly == nil {
		return weather.HourlyForecast{}, fmt.Errorf("%w: missing hourly block", errMalformed)
	}

	h := payload.Hourly
	n := len(h.Time)
	if len(h.Temperature) != n || len(h.Humidity) != n || len(h.Precipitation) != n ||
		len(h.WindSpeed) != n || len(h.WeatherCode) != n {
		return weather.HourlyForecast{}, fmt.Errorf("%w: hourly series lengths differ", errMalformed)
	}

	zone := providerZone(payload.Timezone, payload.UTCOffsetSeconds)
	points := make([]weather.HourlyForecastPoint, n)
	for i := range h.Time {
		ts, err := time.ParseInLocation(openMeteoTimeLayout, h.Time[i], zone)
		if err != nil {
			return weather.HourlyForecast{}, fmt.Errorf("%w: hourly time %q: %v", errMalformed, h.Time[i], err)
		}
		if h.Temperature[i] == nil || h.Humidity[i] == nil || h.Precipitation[i] == nil || h.WindSpeed[i] == nil {
			return weather.HourlyForecast{}, fmt.Errorf("%w: missing hourly value at %s", errMalformed, h.Time[i])
		}
		points[i] = weather.HourlyForecastPoint{
			Time:          ts,
			Temperature:   *h.Temperature[i],
			Humidity:      *h.Humidity[i],
			Precipitation: *h.Precipitation[i],
			WindSpeed:     *h.WindSpeed[i],
			WeatherCode:   h.WeatherCode[i],
		}
	}

	return weather.HourlyForecast{
		Timezone: payload.Timezone,
		Points:   points,
	}, nil
}

func (p *OpenMeteoProvider) get(ctx context.Context, values url.Values) (openMeteoResponse, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return openMeteoResponse{}, err
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return openMeteoResponse{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return payload, nil
}

func coordinates(loc weather.Location) (url.Values, error) {
	if loc.Lat == nil || loc.Lon == nil {
		return nil, fmt.Errorf("openmeteo requires latitude and longitude")
	}
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", *loc.Lat))
	values.Set("longitude", fmt.Sprintf("%f", *loc.Lon))
	return values, nil
}

// providerZone resolves the IANA zone Open-Meteo reported, falling back to a
// fixed offset when the zone database does not know it.
func providerZone(name string, offsetSeconds int) *time.Location {
	if name != "" {
		if zone, err := time.LoadLocation(name); err == nil {
			return zone
		}
	}
	return time.FixedZone(name, offsetSeconds)
}
