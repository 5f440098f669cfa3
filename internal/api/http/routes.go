package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// forecastTimeLayout renders hour timestamps in the provider's local time.
const forecastTimeLayout = "2006-01-02T15:04"

const healthTimeout = 2 * time.Second

// Options tune the registered routes.
type Options struct {
	// RecentLimit is the number of samples /api/weather returns.
	RecentLimit int
}

type sampleResponse struct {
	City      string    `json:"city"`
	Temp      float64   `json:"temp"`
	Humidity  *float64  `json:"humidity"`
	WindSpeed *float64  `json:"windspeed,omitempty"`
	Weather   string    `json:"weather"`
	Timestamp time.Time `json:"timestamp"`
}

type hourResponse struct {
	Time          string  `json:"time"`
	Temp          float64 `json:"temp"`
	Humidity      float64 `json:"humidity"`
	Precipitation float64 `json:"precipitation"`
	WindSpeed     float64 `json:"windspeed"`
	Weather       string  `json:"weather"`
}

type forecastResponse struct {
	City     string         `json:"city"`
	Timezone string         `json:"timezone"`
	Hours    []hourResponse `json:"hours"`
}

// ErrorHandler renders every error as {"error": message}. Non-fiber errors
// become a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		logger.GetLogger().Errorw("Unhandled request error", "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, opts Options) {
	limit := opts.RecentLimit
	if limit <= 0 {
		limit = weather.DefaultRecentLimit
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		if err := service.Ping(ctx); err != nil {
			logger.GetLogger().Warnw("Health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "unavailable",
				"service": "weather-dashboard",
			})
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})

	api := app.Group("/api")

	api.Get("/weather", func(c *fiber.Ctx) error {
		samples, err := service.RecentSamples(c.UserContext(), limit)
		if err != nil {
			logger.GetLogger().Errorw("Failed to read recent samples", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather samples")
		}

		resp := make([]sampleResponse, len(samples))
		for i, s := range samples {
			resp[i] = toSampleResponse(s)
		}
		return c.JSON(resp)
	})

	api.Get("/weather/latest", func(c *fiber.Ctx) error {
		sample, err := service.LatestSample(c.UserContext())
		if err != nil {
			if errors.Is(err, weather.ErrNoSamples) {
				return fiber.NewError(fiber.StatusNotFound, "no weather samples yet")
			}
			logger.GetLogger().Errorw("Failed to read latest sample", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather samples")
		}
		return c.JSON(toSampleResponse(sample))
	})

	api.Get("/forecast-24h", func(c *fiber.Ctx) error {
		window, err := service.Forecast24h(c.UserContext())
		if err != nil {
			logger.GetLogger().Errorw("Failed to build 24h forecast", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch 24h forecast")
		}
		return c.JSON(toForecastResponse(window))
	})
}

func toSampleResponse(s weather.Sample) sampleResponse {
	return sampleResponse{
		City:      s.City,
		Temp:      s.Temperature,
		Humidity:  s.Humidity,
		WindSpeed: s.WindSpeed,
		Weather:   s.Weather,
		Timestamp: s.Timestamp,
	}
}

func toForecastResponse(w weather.ForecastWindow) forecastResponse {
	hours := make([]hourResponse, len(w.Hours))
	for i, h := range w.Hours {
		hours[i] = hourResponse{
			Time:          h.Time.Format(forecastTimeLayout),
			Temp:          h.Temperature,
			Humidity:      h.Humidity,
			Precipitation: h.Precipitation,
			WindSpeed:     h.WindSpeed,
			Weather:       h.Weather,
		}
	}
	return forecastResponse{
		City:     w.City,
		Timezone: w.Timezone,
		Hours:    hours,
	}
}
