package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultInterval is the sampling cadence used when none is configured.
const DefaultInterval = 30 * time.Minute

// Sampler takes one weather sample per call.
type Sampler interface {
	Sample(ctx context.Context) (weather.Sample, error)
}

// Config controls the sampling job.
type Config struct {
	Interval time.Duration
	// Timeout bounds a single tick. Zero means no timeout.
	Timeout time.Duration
	// RunOnStart takes a sample as soon as the scheduler starts.
	RunOnStart bool
}

// Scheduler periodically samples current weather into the store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sampler   Sampler
	cfg       Config
}

// New creates a new Scheduler.
func New(sampler Sampler, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sampler:   sampler,
		cfg:       cfg,
	}
}

// Start registers the sampling job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	job := s.scheduler.Every(s.cfg.Interval).SingletonMode()
	if !s.cfg.RunOnStart {
		job = job.WaitForSchedule()
	}

	if _, err := job.Do(s.tick); err != nil {
		return err
	}

	logger.GetLogger().Infow("Sampler scheduled",
		"interval", s.cfg.Interval.String(),
		"runOnStart", s.cfg.RunOnStart)
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future ticks.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// tick takes one sample. Failures are logged and the tick is skipped; the
// next tick is the retry.
func (s *Scheduler) tick() {
	log := logger.GetLogger()

	ctx := context.Background()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	sample, err := s.sampler.Sample(ctx)
	if err != nil {
		log.Errorw("Sampling tick skipped", "error", err)
		return
	}
	log.Infow("Saved weather sample",
		"city", sample.City,
		"temp", sample.Temperature,
		"weather", sample.Weather,
		"timestamp", sample.Timestamp)
}
