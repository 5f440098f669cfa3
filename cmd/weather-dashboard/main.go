package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/cache"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	if err := run(); err != nil {
		logger.GetLogger().Errorw("Weather dashboard exited", "error", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

// run wires the application and blocks until a shutdown signal. Deferred
// cleanup always runs before it returns.
func run() error {
	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.ProviderTimeout,
	}
	backoff := providers.DefaultBackoff
	backoff.MaxRetries = cfg.ProviderMaxRetries

	openMeteo := providers.NewOpenMeteoProvider(providers.HTTPClientConfig{
		Client:  httpClient,
		Backoff: backoff,
		Limiter: providers.NewLimiter(cfg.ProviderRPS),
	})

	// The API key selects the OpenWeatherMap variant for current conditions.
	var current weather.Provider = openMeteo
	if cfg.OpenWeatherAPIKey != "" {
		current = providers.NewOpenWeatherProvider(providers.HTTPClientConfig{
			Client:  httpClient,
			Backoff: backoff,
			Limiter: providers.NewLimiter(cfg.ProviderRPS),
		}, cfg.OpenWeatherAPIKey)
	}

	var sampleStore weather.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		defer pg.Close()
		sampleStore = pg
	} else {
		log.Warnw("DATABASE_URL not set; samples are kept in memory only",
			"maxSamples", cfg.MemoryMaxSamples)
		sampleStore = store.NewMemoryStore(cfg.MemoryMaxSamples)
	}

	var opts []weather.Option
	if cfg.ForecastCacheTTL > 0 {
		if cfg.RedisAddr != "" {
			redisClient := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer redisClient.Close()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
			}
			opts = append(opts, weather.WithCache(cache.NewRedisCache(redisClient, cfg.ForecastCacheTTL)))
		} else {
			opts = append(opts, weather.WithCache(cache.NewMemoryCache(cfg.ForecastCacheTTL)))
		}
	}

	service := weather.NewService(cfg.Location(), sampleStore, current, openMeteo, opts...)

	sched := scheduler.New(service, scheduler.Config{
		Interval:   cfg.SampleInterval,
		Timeout:    cfg.ProviderTimeout,
		RunOnStart: cfg.SampleOnStart,
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	httpapi.RegisterRoutes(app, service, httpapi.Options{RecentLimit: cfg.RecentLimit})
	dashboard.Register(app)

	listenErr := make(chan error, 1)
	go func() {
		log.Infow("Backend listening", "port", cfg.Port, "city", cfg.City, "provider", current.Name())
		if err := app.Listen(":" + cfg.Port); err != nil {
			listenErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		return fmt.Errorf("fiber server stopped: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Infow("Shutdown complete")
	return nil
}
