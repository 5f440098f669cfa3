package weather_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/cache"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var bangkok = time.FixedZone("Asia/Bangkok", 7*60*60)

type fakeCurrent struct {
	reading weather.CurrentReading
	err     error
}

func (f *fakeCurrent) Name() string { return "fake-current" }

func (f *fakeCurrent) Fetch(context.Context, weather.Location) (weather.CurrentReading, error) {
	return f.reading, f.err
}

type fakeForecast struct {
	forecast weather.HourlyForecast
	err      error
	calls    int
	days     int
}

func (f *fakeForecast) Name() string { return "fake-forecast" }

func (f *fakeForecast) FetchHourly(_ context.Context, _ weather.Location, days int) (weather.HourlyForecast, error) {
	f.calls++
	f.days = days
	return f.forecast, f.err
}

type failingStore struct{ err error }

func (s failingStore) SaveSample(context.Context, weather.Sample) error { return s.err }
func (s failingStore) RecentSamples(context.Context, int) ([]weather.Sample, error) {
	return nil, s.err
}
func (s failingStore) Ping(context.Context) error { return s.err }

func twoDays(start time.Time) weather.HourlyForecast {
	points := make([]weather.HourlyForecastPoint, 48)
	for i := range points {
		code := 3
		if i%2 == 1 {
			code = 42
		}
		points[i] = weather.HourlyForecastPoint{
			Time:        start.Add(time.Duration(i) * time.Hour),
			Temperature: 25 + float64(i)/10,
			WeatherCode: &code,
		}
	}
	return weather.HourlyForecast{Timezone: "Asia/Bangkok", Points: points}
}

func testLocation() weather.Location {
	lat, lon := 13.7563, 100.5018
	return weather.Location{City: "Bangkok", Lat: &lat, Lon: &lon}
}

func TestService_SampleAppendsToStore(t *testing.T) {
	humidity := 70.0
	observed := time.Date(2024, 5, 1, 3, 30, 0, 0, time.UTC)
	current := &fakeCurrent{reading: weather.CurrentReading{
		ProviderName: "fake-current",
		Timestamp:    observed,
		TemperatureC: 31.5,
		HumidityPct:  &humidity,
		Weather:      "broken clouds",
	}}
	mem := store.NewMemoryStore(0)
	svc := weather.NewService(testLocation(), mem, current, nil)

	sample, err := svc.Sample(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, sample.ID)
	assert.Equal(t, "Bangkok", sample.City)
	assert.Equal(t, 31.5, sample.Temperature)
	assert.Equal(t, &humidity, sample.Humidity)
	assert.Nil(t, sample.WindSpeed)
	assert.Equal(t, observed, sample.Timestamp)

	stored, err := svc.RecentSamples(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, sample, stored[0])
}

func TestService_SampleUsesClockWhenProviderOmitsTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, bangkok)
	current := &fakeCurrent{reading: weather.CurrentReading{TemperatureC: 30}}
	svc := weather.NewService(testLocation(), store.NewMemoryStore(0), current, nil,
		weather.WithClock(func() time.Time { return now }))

	sample, err := svc.Sample(context.Background())
	require.NoError(t, err)
	assert.True(t, now.Equal(sample.Timestamp))
	assert.Equal(t, time.UTC, sample.Timestamp.Location())
}

func TestService_SampleErrors(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		mem := store.NewMemoryStore(0)
		svc := weather.NewService(testLocation(), mem, &fakeCurrent{err: errors.New("boom")}, nil)

		_, err := svc.Sample(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fake-current")

		stored, err := mem.RecentSamples(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("store failure", func(t *testing.T) {
		storeErr := errors.New("disk full")
		svc := weather.NewService(testLocation(), failingStore{err: storeErr},
			&fakeCurrent{reading: weather.CurrentReading{TemperatureC: 20}}, nil)

		_, err := svc.Sample(context.Background())
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("no provider", func(t *testing.T) {
		svc := weather.NewService(testLocation(), store.NewMemoryStore(0), nil, nil)
		_, err := svc.Sample(context.Background())
		assert.Error(t, err)
	})
}

func TestService_LatestSample(t *testing.T) {
	mem := store.NewMemoryStore(0)
	svc := weather.NewService(testLocation(), mem, nil, nil)

	_, err := svc.LatestSample(context.Background())
	assert.ErrorIs(t, err, weather.ErrNoSamples)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, mem.SaveSample(context.Background(), weather.Sample{ID: "b", Timestamp: base.Add(time.Hour)}))
	require.NoError(t, mem.SaveSample(context.Background(), weather.Sample{ID: "a", Timestamp: base}))

	latest, err := svc.LatestSample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", latest.ID)
}

func TestService_Forecast24h(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, bangkok)
	forecast := &fakeForecast{forecast: twoDays(start)}
	now := start.Add(10*time.Hour + 20*time.Minute)

	svc := weather.NewService(testLocation(), store.NewMemoryStore(0), nil, forecast,
		weather.WithClock(func() time.Time { return now }))

	window, err := svc.Forecast24h(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, forecast.days)
	assert.Equal(t, "Bangkok", window.City)
	assert.Equal(t, "Asia/Bangkok", window.Timezone)
	require.Len(t, window.Hours, 24)
	assert.Equal(t, start.Add(11*time.Hour), window.Hours[0].Time)
	assert.Equal(t, start.Add(34*time.Hour), window.Hours[23].Time)

	// Odd hours carry an unmapped code.
	assert.Equal(t, "Unknown", window.Hours[0].Weather)
	assert.Equal(t, "Overcast", window.Hours[1].Weather)
}

func TestService_Forecast24hProviderError(t *testing.T) {
	forecast := &fakeForecast{err: errors.New("timeout")}
	svc := weather.NewService(testLocation(), store.NewMemoryStore(0), nil, forecast)

	_, err := svc.Forecast24h(context.Background())
	assert.Error(t, err)
}

func TestService_Forecast24hUsesCacheButReselectsWindow(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, bangkok)
	forecast := &fakeForecast{forecast: twoDays(start)}
	now := start.Add(2 * time.Hour)

	svc := weather.NewService(testLocation(), store.NewMemoryStore(0), nil, forecast,
		weather.WithCache(cache.NewMemoryCache(time.Hour)),
		weather.WithClock(func() time.Time { return now }))

	first, err := svc.Forecast24h(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start.Add(2*time.Hour), first.Hours[0].Time)

	now = start.Add(5 * time.Hour)
	second, err := svc.Forecast24h(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start.Add(5*time.Hour), second.Hours[0].Time)

	assert.Equal(t, 1, forecast.calls)
}
