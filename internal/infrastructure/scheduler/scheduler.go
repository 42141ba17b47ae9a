package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/focusplan/bot/internal/infrastructure/config"
	"github.com/focusplan/bot/internal/infrastructure/logger"
)

// Job is a named daily job fired at a fixed local hour.
type Job struct {
	Name string
	Hour int
	Run  func(ctx context.Context) error
}

// Scheduler owns the fixed-hour daily jobs. It is an explicit object with
// a lifecycle tied to process start and stop, not a package-level
// singleton: construct it, register jobs, Start it, Stop it on shutdown.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
}

// New creates a scheduler running in local time.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.Local),
			cron.WithChain(cron.Recover(cron.PrintfLogger(printfLogger{log}))),
		),
		logger: log,
	}
}

// Register schedules a job at minute zero of its configured hour. Each
// job fires once per day; the daily rollover relies on that single-fire
// guarantee, since re-running it duplicates carried tasks.
func (s *Scheduler) Register(job Job) error {
	if job.Hour < 0 || job.Hour > 23 {
		return fmt.Errorf("job %s: hour %d out of range", job.Name, job.Hour)
	}

	spec := fmt.Sprintf("0 %d * * *", job.Hour)
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Infow("Scheduled job firing", "job", job.Name)
		if err := job.Run(context.Background()); err != nil {
			s.logger.Errorw("Scheduled job failed", "job", job.Name, "error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name, err)
	}

	s.logger.Infow("Scheduled job registered", "job", job.Name, "hour", job.Hour)
	return nil
}

// RegisterDaily wires the standard daily jobs from config: the rollover
// sweep and the three reminder broadcasts.
func (s *Scheduler) RegisterDaily(cfg config.SchedulerConfig, rollover func(ctx context.Context) error, remind func(ctx context.Context, text string) error, notifierCfg config.NotifierConfig) error {
	jobs := []Job{
		{Name: "rollover", Hour: cfg.RolloverHour, Run: rollover},
		{Name: "morning_reminder", Hour: cfg.MorningHour, Run: func(ctx context.Context) error {
			return remind(ctx, notifierCfg.MorningMessage)
		}},
		{Name: "midday_reminder", Hour: cfg.MiddayHour, Run: func(ctx context.Context) error {
			return remind(ctx, notifierCfg.MiddayMessage)
		}},
		{Name: "evening_reminder", Hour: cfg.EveningHour, Run: func(ctx context.Context) error {
			return remind(ctx, notifierCfg.EveningMessage)
		}},
	}

	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}

// Start begins firing registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type printfLogger struct {
	log *logger.Logger
}

func (p printfLogger) Printf(format string, args ...interface{}) {
	p.log.Errorf(format, args...)
}
