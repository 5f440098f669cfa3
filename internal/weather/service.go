package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/logger"
)

// forecastDays is how many calendar days of hourly data are requested so a
// full window is available from any reference time during the first day.
const forecastDays = 2

// DefaultRecentLimit is the number of samples returned by RecentSamples when
// no limit is given.
const DefaultRecentLimit = 10

var (
	// ErrNoSamples is returned by LatestSample when nothing has been stored yet.
	ErrNoSamples = errors.New("no weather samples stored")

	errNoCurrentProvider  = errors.New("no current-conditions provider configured")
	errNoForecastProvider = errors.New("no forecast provider configured")
)

// Service samples current conditions into the store and answers dashboard queries.
type Service struct {
	location Location
	store    Store
	current  Provider
	forecast ForecastProvider
	cache    ForecastCache
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithCache enables forecast caching. A nil cache disables it.
func WithCache(c ForecastCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock overrides the reference clock used to select forecast windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service for a single tracked location.
func NewService(loc Location, store Store, current Provider, forecast ForecastProvider, opts ...Option) *Service {
	s := &Service{
		location: loc,
		store:    store,
		current:  current,
		forecast: forecast,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the tracked location.
func (s *Service) Location() Location {
	return s.location
}

// Sample fetches one current-conditions reading and appends it to the store.
// Errors are returned to the caller; there is no retry.
func (s *Service) Sample(ctx context.Context) (Sample, error) {
	if s.current == nil {
		return Sample{}, errNoCurrentProvider
	}

	reading, err := s.current.Fetch(ctx, s.location)
	if err != nil {
		return Sample{}, fmt.Errorf("fetch current weather from %s: %w", s.current.Name(), err)
	}

	ts := reading.Timestamp.UTC()
	if reading.Timestamp.IsZero() {
		ts = s.now().UTC()
	}

	sample := Sample{
		ID:          uuid.NewString(),
		City:        s.location.City,
		Temperature: reading.TemperatureC,
		Humidity:    reading.HumidityPct,
		WindSpeed:   reading.WindSpeed,
		Weather:     reading.Weather,
		Timestamp:   ts,
	}

	if err := s.store.SaveSample(ctx, sample); err != nil {
		return Sample{}, fmt.Errorf("save sample: %w", err)
	}
	return sample, nil
}

// RecentSamples returns the most recent samples, newest first. A limit <= 0
// selects DefaultRecentLimit.
func (s *Service) RecentSamples(ctx context.Context, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.store.RecentSamples(ctx, limit)
}

// LatestSample returns the newest stored sample or ErrNoSamples.
func (s *Service) LatestSample(ctx context.Context) (Sample, error) {
	recent, err := s.store.RecentSamples(ctx, 1)
	if err != nil {
		return Sample{}, err
	}
	if len(recent) == 0 {
		return Sample{}, ErrNoSamples
	}
	return recent[0], nil
}

// Forecast24h returns the hourly window starting at the first hour at or
// after now, with weather codes translated.
func (s *Service) Forecast24h(ctx context.Context) (ForecastWindow, error) {
	if s.forecast == nil {
		return ForecastWindow{}, errNoForecastProvider
	}
	hourly, err := s.hourlyForecast(ctx)
	if err != nil {
		return ForecastWindow{}, err
	}

	selected := SelectWindow(hourly.Points, s.now(), DefaultWindowSize)
	hours := make([]HourlyForecastPoint, len(selected))
	for i, p := range selected {
		p.Weather = Translate(p.WeatherCode)
		hours[i] = p
	}

	return ForecastWindow{
		City:     s.location.City,
		Timezone: hourly.Timezone,
		Hours:    hours,
	}, nil
}

// hourlyForecast returns the provider's hourly range, going through the
// cache when one is configured. Cache failures are logged and bypassed.
func (s *Service) hourlyForecast(ctx context.Context) (HourlyForecast, error) {
	log := logger.GetLogger()
	key := s.location.Key()

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warnw("Forecast cache read failed", "location", key, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	hourly, err := s.forecast.FetchHourly(ctx, s.location, forecastDays)
	if err != nil {
		return HourlyForecast{}, fmt.Errorf("fetch hourly forecast from %s: %w", s.forecast.Name(), err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, hourly); err != nil {
			log.Warnw("Forecast cache write failed", "location", key, "error", err)
		}
	}
	return hourly, nil
}

// Ping checks that the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
