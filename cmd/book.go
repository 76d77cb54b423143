package cmd

import (
	"errors"
	"time"

	"github.com/example/aimharder-scheduler/internal/config"
	"github.com/example/aimharder-scheduler/internal/schedule"
	"github.com/example/aimharder-scheduler/internal/timegate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newBookCmd(v *viper.Viper) *cobra.Command {
	c := &cobra.Command{
		Use:   "book",
		Short: "Wait for the booking window, then book the scheduled class in every box",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			ctx, stop := signalContext(cmd)
			defer stop()

			a.log.Infow("starting booking run", "box", a.cfg.BoxName, "dry_run", a.cfg.DryRun, "days_ahead", a.cfg.DaysAhead)
			if err := timegate.Await(ctx, timegate.SystemClock{}, a.cfg.TargetHour, a.cfg.TargetMinute, a.cfg.Location, a.cfg.SkipWait, a.log); err != nil {
				return err
			}

			boxes, err := schedule.Load(a.cfg.Schedule, a.scheduleOptions(cmd))
			if err != nil {
				return err
			}

			day := bookingDay(time.Now(), a.cfg.Location, a.cfg.DaysAhead)
			a.log.Infow("target date", "date", day.Format(time.DateOnly), "weekday", day.Weekday().String(), "boxes", len(boxes))

			rep := a.scheduler().Book(ctx, boxes, day)
			if rep.AllFailed() {
				return errors.New("booking failed for every box")
			}
			return nil
		},
	}

	f := c.Flags()
	f.Bool("dry-run", false, "find the class but do not book it")
	f.Int("days-ahead", 2, "book the class this many days from today")
	f.Bool("skip-wait", false, "do not wait for the target time")
	f.Int("target-hour", 18, "hour (0-23) the booking window opens")
	f.Int("target-minute", 30, "minute (0-59) the booking window opens")
	f.Bool("with-wod", false, "include the day's workout in the notification")
	bind(v, f.Lookup("dry-run"), config.KeyDryRun)
	bind(v, f.Lookup("days-ahead"), config.KeyDaysAhead)
	bind(v, f.Lookup("skip-wait"), config.KeySkipWait)
	bind(v, f.Lookup("target-hour"), config.KeyTargetHour)
	bind(v, f.Lookup("target-minute"), config.KeyTargetMinute)
	bind(v, f.Lookup("with-wod"), config.KeyWithWOD)

	return c
}
