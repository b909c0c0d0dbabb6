// Package housekeeping prunes expired panel state on a cron schedule.
package housekeeping

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule runs the sweep every ten minutes.
const DefaultSchedule = "@every 10m"

// Task is one pruning step; it reports how many entries it removed.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

type Scheduler struct {
	logger   zerolog.Logger
	cron     *cron.Cron
	schedule string
	tasks    []Task
}

func New(logger zerolog.Logger, schedule string, tasks ...Task) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		logger:   logger.With().Str("component", "housekeeping").Logger(),
		cron:     cron.New(),
		schedule: schedule,
		tasks:    tasks,
	}
}

// RunOnce executes every task; one failing task does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	for _, t := range s.tasks {
		n, err := t.Run(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Str("task", t.Name).Msg("housekeeping task failed")
			continue
		}
		if n > 0 {
			s.logger.Info().Str("task", t.Name).Int64("removed", n).Msg("pruned")
		}
	}
	s.logger.Debug().Dur("took", time.Since(start)).Msg("housekeeping completed")
}

// Start registers the sweep with cron and starts it.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	s.logger.Info().Str("schedule", s.schedule).Msg("Starting housekeeping")
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
