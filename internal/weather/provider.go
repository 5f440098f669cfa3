package weather

import (
	"context"
	"time"
)

// CurrentReading is a provider's normalized current-conditions reading.
// Humidity and WindSpeed are nil when the provider does not report them.
type CurrentReading struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureC float64
	HumidityPct  *float64
	WindSpeed    *float64
	Weather      string
}

// Provider abstracts a current-conditions source (e.g. OpenWeatherMap, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (CurrentReading, error)
}

// ForecastProvider is implemented by providers that can return an hourly
// forecast covering the given number of calendar days.
type ForecastProvider interface {
	Name() string
	FetchHourly(ctx context.Context, loc Location, days int) (HourlyForecast, error)
}

// Store is the contract the sample stores (memory, postgres) must satisfy.
type Store interface {
	SaveSample(ctx context.Context, sample Sample) error
	RecentSamples(ctx context.Context, limit int) ([]Sample, error)
	Ping(ctx context.Context) error
}

// ForecastCache holds recently fetched hourly ranges keyed by location.
// A miss is reported with ok=false and a nil error.
type ForecastCache interface {
	Get(ctx context.Context, key string) (forecast HourlyForecast, ok bool, err error)
	Set(ctx context.Context, key string, forecast HourlyForecast) error
}
