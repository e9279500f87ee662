package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

// DefaultSchedule runs the pipeline daily at midnight UTC.
const DefaultSchedule = "0 0 * * *"

type Config struct {
	Schedule string `yaml:"schedule"`
}

func New(log logger.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		log:  log.With("scheduler"),
	}
}

// Scheduler runs named jobs on cron schedules. Job errors are
// logged, never propagated: a failed run must not stop the schedule.
type Scheduler struct {
	cron *cron.Cron
	log  logger.Logger
}

func (s *Scheduler) Add(ctx context.Context, spec, name string, job func(context.Context) error) error {
	if spec == "" {
		spec = DefaultSchedule
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.log.Infof("running job %q", name)

		err := job(ctx)
		if err != nil {
			s.log.Error(errors.WrapFailf(err, "run job %q", name))
			return
		}

		s.log.Infof("job %q done", name)
	})

	return errors.WrapFailf(err, "schedule job %q at %q", name, spec)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
