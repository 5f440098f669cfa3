package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelvins/geocoder"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	defaultCity = "Bangkok"
	defaultLat  = 13.7563
	defaultLon  = 100.5018
)

var validate = validator.New()

type AppConfig struct {
	Port string `validate:"required"`

	// DatabaseURL is the Postgres connection string. Empty selects the
	// in-memory store.
	DatabaseURL string

	// RedisAddr enables the Redis forecast cache. Empty selects an
	// in-process cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OpenWeatherAPIKey string
	GeocoderAPIKey    string

	City string   `validate:"required"`
	Lat  *float64 `validate:"required"`
	Lon  *float64 `validate:"required"`

	SampleInterval time.Duration `validate:"required"`
	SampleOnStart  bool

	ProviderTimeout    time.Duration
	ProviderRPS        float64
	ProviderMaxRetries int `validate:"min=0"`

	RecentLimit      int `validate:"min=1"`
	ForecastCacheTTL time.Duration
	MemoryMaxSamples int
}

// Location returns the tracked location.
func (c *AppConfig) Location() weather.Location {
	return weather.Location{City: c.City, Lat: c.Lat, Lon: c.Lon}
}

// geocode resolves a city name to coordinates.
var geocode = func(apiKey, city string) (float64, float64, error) {
	geocoder.ApiKey = apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: city})
	if err != nil {
		return 0, 0, err
	}
	return loc.Latitude, loc.Longitude, nil
}

// Load reads configuration from the environment (and an optional .env file)
// with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.GetLogger().Infow("No .env file loaded", "error", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "4000")
	v.SetDefault("WEATHER_CITY", defaultCity)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SAMPLE_INTERVAL", "30m")
	v.SetDefault("SAMPLE_ON_START", true)
	v.SetDefault("PROVIDER_TIMEOUT", "10s")
	v.SetDefault("PROVIDER_RPS", 1.0)
	v.SetDefault("PROVIDER_MAX_RETRIES", 0)
	v.SetDefault("RECENT_LIMIT", weather.DefaultRecentLimit)
	v.SetDefault("FORECAST_CACHE_TTL", "5m")
	v.SetDefault("MEMORY_MAX_SAMPLES", 500)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:               v.GetString("PORT"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		OpenWeatherAPIKey:  v.GetString("OPENWEATHER_API_KEY"),
		GeocoderAPIKey:     v.GetString("GEOCODER_API_KEY"),
		City:               strings.TrimSpace(v.GetString("WEATHER_CITY")),
		SampleOnStart:      v.GetBool("SAMPLE_ON_START"),
		ProviderRPS:        v.GetFloat64("PROVIDER_RPS"),
		ProviderMaxRetries: v.GetInt("PROVIDER_MAX_RETRIES"),
		RecentLimit:        v.GetInt("RECENT_LIMIT"),
		MemoryMaxSamples:   v.GetInt("MEMORY_MAX_SAMPLES"),
	}

	var err error
	if cfg.SampleInterval, err = duration(v, "SAMPLE_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = duration(v, "PROVIDER_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.ForecastCacheTTL, err = duration(v, "FORECAST_CACHE_TTL"); err != nil {
		return nil, err
	}

	if err := cfg.resolveCoordinates(v.GetString("WEATHER_LAT"), v.GetString("WEATHER_LON")); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// resolveCoordinates fills Lat/Lon from explicit values, the built-in default
// city, or the geocoder, in that order.
func (c *AppConfig) resolveCoordinates(latStr, lonStr string) error {
	if latStr != "" || lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return fmt.Errorf("invalid WEATHER_LAT: %w", err)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return fmt.Errorf("invalid WEATHER_LON: %w", err)
		}
		c.Lat, c.Lon = &lat, &lon
		return nil
	}

	if strings.EqualFold(c.City, defaultCity) {
		lat, lon := defaultLat, defaultLon
		c.Lat, c.Lon = &lat, &lon
		return nil
	}

	if c.GeocoderAPIKey == "" {
		return fmt.Errorf("WEATHER_LAT and WEATHER_LON are required for %q (or set GEOCODER_API_KEY)", c.City)
	}
	lat, lon, err := geocode(c.GeocoderAPIKey, c.City)
	if err != nil {
		return fmt.Errorf("geocode %q: %w", c.City, err)
	}
	c.Lat, c.Lon = &lat, &lon
	return nil
}
