package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var bangkok = time.FixedZone("Asia/Bangkok", 7*60*60)

type stubForecast struct {
	forecast weather.HourlyForecast
	err      error
}

func (s stubForecast) Name() string { return "stub" }

func (s stubForecast) FetchHourly(context.Context, weather.Location, int) (weather.HourlyForecast, error) {
	return s.forecast, s.err
}

type downStore struct{}

func (downStore) SaveSample(context.Context, weather.Sample) error { return errors.New("down") }
func (downStore) RecentSamples(context.Context, int) ([]weather.Sample, error) {
	return nil, errors.New("down")
}
func (downStore) Ping(context.Context) error { return errors.New("down") }

func newTestApp(svc *weather.Service) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc, Options{RecentLimit: 10})
	return app
}

func location() weather.Location {
	lat, lon := 13.7563, 100.5018
	return weather.Location{City: "Bangkok", Lat: &lat, Lon: &lon}
}

func do(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestRecentWeather_ReturnsTenNewestFirst(t *testing.T) {
	mem := store.NewMemoryStore(100)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	humidity := 65.0
	for i := 0; i < 15; i++ {
		require.NoError(t, mem.SaveSample(context.Background(), weather.Sample{
			ID:          string(rune('a' + i)),
			City:        "Bangkok",
			Temperature: float64(20 + i),
			Humidity:    &humidity,
			Weather:     "clear sky",
			Timestamp:   base.Add(time.Duration(i) * 30 * time.Minute),
		}))
	}
	app := newTestApp(weather.NewService(location(), mem, nil, nil))

	status, body := do(t, app, "/api/weather")
	require.Equal(t, http.StatusOK, status)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 10)

	assert.Equal(t, 34.0, got[0]["temp"])
	assert.Equal(t, 25.0, got[9]["temp"])
	for _, key := range []string{"city", "temp", "humidity", "weather", "timestamp"} {
		assert.Contains(t, got[0], key)
	}
	assert.Equal(t, "Bangkok", got[0]["city"])
	assert.Equal(t, "clear sky", got[0]["weather"])

	for i := 1; i < len(got); i++ {
		prev, err := time.Parse(time.RFC3339, got[i-1]["timestamp"].(string))
		require.NoError(t, err)
		cur, err := time.Parse(time.RFC3339, got[i]["timestamp"].(string))
		require.NoError(t, err)
		assert.True(t, prev.After(cur))
	}
}

func TestRecentWeather_EmptyStore(t *testing.T) {
	app := newTestApp(weather.NewService(location(), store.NewMemoryStore(10), nil, nil))

	status, body := do(t, app, "/api/weather")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestRecentWeather_StoreFailure(t *testing.T) {
	app := newTestApp(weather.NewService(location(), downStore{}, nil, nil))

	status, body := do(t, app, "/api/weather")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"failed to fetch weather samples"}`, string(body))
}

func TestLatestWeather(t *testing.T) {
	mem := store.NewMemoryStore(10)
	app := newTestApp(weather.NewService(location(), mem, nil, nil))

	status, body := do(t, app, "/api/weather/latest")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"no weather samples yet"}`, string(body))

	ts := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	require.NoError(t, mem.SaveSample(context.Background(), weather.Sample{
		ID: "x", City: "Bangkok", Temperature: 31.2, Weather: "light rain", Timestamp: ts,
	}))

	status, body = do(t, app, "/api/weather/latest")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"city":"Bangkok","temp":31.2,"humidity":null,"weather":"light rain","timestamp":"2024-05-01T03:00:00Z"}`, string(body))
}

func TestForecast24h(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, bangkok)
	points := make([]weather.HourlyForecastPoint, 48)
	for i := range points {
		code := 61
		points[i] = weather.HourlyForecastPoint{
			Time:          start.Add(time.Duration(i) * time.Hour),
			Temperature:   27.5,
			Humidity:      80,
			Precipitation: 0.4,
			WindSpeed:     6.1,
			WeatherCode:   &code,
		}
	}
	points[10].WeatherCode = nil

	svc := weather.NewService(location(), store.NewMemoryStore(10), nil,
		stubForecast{forecast: weather.HourlyForecast{Timezone: "Asia/Bangkok", Points: points}},
		weather.WithClock(func() time.Time { return start.Add(10 * time.Hour) }))
	app := newTestApp(svc)

	status, body := do(t, app, "/api/forecast-24h")
	require.Equal(t, http.StatusOK, status)

	var got forecastResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Bangkok", got.City)
	assert.Equal(t, "Asia/Bangkok", got.Timezone)
	require.Len(t, got.Hours, 24)
	assert.Equal(t, "2024-05-01T10:00", got.Hours[0].Time)
	assert.Equal(t, weather.UnknownWeather, got.Hours[0].Weather)
	assert.Equal(t, "Slight rain", got.Hours[1].Weather)
	assert.Equal(t, "2024-05-02T09:00", got.Hours[23].Time)
	assert.Equal(t, hourResponse{
		Time:          "2024-05-01T11:00",
		Temp:          27.5,
		Humidity:      80,
		Precipitation: 0.4,
		WindSpeed:     6.1,
		Weather:       "Slight rain",
	}, got.Hours[1])
}

func TestForecast24h_ProviderFailure(t *testing.T) {
	svc := weather.NewService(location(), store.NewMemoryStore(10), nil,
		stubForecast{err: errors.New("upstream 503")})
	app := newTestApp(svc)

	status, body := do(t, app, "/api/forecast-24h")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"failed to fetch 24h forecast"}`, string(body))
}

func TestHealth(t *testing.T) {
	up := newTestApp(weather.NewService(location(), store.NewMemoryStore(10), nil, nil))
	status, body := do(t, up, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","service":"weather-dashboard"}`, string(body))

	down := newTestApp(weather.NewService(location(), downStore{}, nil, nil))
	status, _ = do(t, down, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestErrorHandler_UnknownError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	status, body := do(t, app, "/boom")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"internal server error"}`, string(body))
}
