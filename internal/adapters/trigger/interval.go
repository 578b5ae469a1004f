package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/application"
	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Interval signals SignalDataLoaded once at start and then every period.
type Interval struct {
	every    time.Duration
	notifier Notifier
	log      logrus.FieldLogger
}

func NewInterval(every time.Duration, notifier Notifier, log logrus.FieldLogger) *Interval {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Interval{every: every, notifier: notifier, log: log.WithField("component", "interval")}
}

// Run schedules the job and blocks until ctx is done.
func (i *Interval) Run(ctx context.Context) error {
	if i.every <= 0 {
		return errors.New("sync interval must be positive")
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(i.every),
		gocron.NewTask(func() {
			i.log.Debug("interval elapsed")
			i.notifier.Notify(application.SignalDataLoaded)
		}),
		gocron.WithName("sync-interval"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("schedule sync interval: %w", err)
	}

	scheduler.Start()
	i.log.WithField("every", i.every.String()).Info("interval trigger started")

	<-ctx.Done()
	if err := scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}
