package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/dirtyfeed/pkg/logger"
	"github.com/angelmondragon/dirtyfeed/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const defaultInterval = 12 * time.Minute

const (
	passOK      = "ok"
	passFailed  = "failed"
	passSkipped = "skipped"
)

// PassRecorder persists a marker for each finished pass.
type PassRecorder interface {
	RecordPass(ctx context.Context, passID string, finished time.Time) (int64, error)
}

// ServiceParams configure the scheduler.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.JobMetrics
	Recorder PassRecorder
	Interval time.Duration
	RunOnce  bool
	Clock    func() time.Time
}

// Service runs every registered job once per pass, then waits a fixed interval.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.JobMetrics
	recorder PassRecorder
	interval time.Duration
	runOnce  bool
	now      func() time.Time
}

// NewService builds a scheduler.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		recorder: params.Recorder,
		interval: interval,
		runOnce:  params.RunOnce,
		now:      clock,
	}, nil
}

// Run executes passes until the context is canceled. In run-once mode it
// returns after the first pass with the combined job errors.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.runPass(ctx)
		if s.runOnce {
			return err
		}
		if err != nil {
			s.logg.Error(ctx, "pass finished with errors", err)
		}

		s.logg.Info(s.logg.WithField(ctx, "next_in", s.interval.String()), "waiting for next pass")
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logg.Info(ctx, "feed scheduler context canceled")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Service) runPass(ctx context.Context) error {
	passID := uuid.NewString()
	ctx = WithPassID(s.logg.WithPassID(ctx, passID), passID)

	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		s.metrics.ObservePass(passFailed, s.now())
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another pass is running; skipping this one")
		s.metrics.ObservePass(passSkipped, s.now())
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release pass lock", relErr)
		}
	}()

	s.logg.Info(ctx, "pass starting")
	var errs error
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		if err := s.runJob(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("job %s: %w", job.Name(), err))
		}
	}

	finished := s.now()
	outcome := passOK
	if errs != nil {
		outcome = passFailed
	}
	s.metrics.ObservePass(outcome, finished)
	s.recordPass(ctx, passID, finished)

	s.logg.Info(s.logg.WithField(ctx, "outcome", outcome), "pass complete")
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithJob(ctx, job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "feed.job")
	s.logg.Info(jobCtx, "job start")
	start := s.now()
	err := job.Run(jobCtx)
	duration := s.now().Sub(start)
	s.metrics.ObserveDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return err
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
	return nil
}

func (s *Service) recordPass(ctx context.Context, passID string, finished time.Time) {
	if s.recorder == nil {
		return
	}
	seq, err := s.recorder.RecordPass(ctx, passID, finished)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to record pass")
		return
	}
	s.logg.Debug(s.logg.WithField(ctx, "pass_seq", seq), "pass recorded")
}
