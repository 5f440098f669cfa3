package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const keyPrefix = "forecast:hourly:"

// RedisCache stores hourly forecasts as JSON with a Redis-side expiry.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ weather.ForecastCache = (*RedisCache)(nil)

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (weather.HourlyForecast, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return weather.HourlyForecast{}, false, nil
	}
	if err != nil {
		return weather.HourlyForecast{}, false, fmt.Errorf("redis get: %w", err)
	}

	var forecast weather.HourlyForecast
	if err := json.Unmarshal(raw, &forecast); err != nil {
		return weather.HourlyForecast{}, false, fmt.Errorf("decode cached forecast: %w", err)
	}
	return forecast, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, forecast weather.HourlyForecast) error {
	payload, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
