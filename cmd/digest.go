package cmd

import (
	"errors"
	"time"

	"github.com/example/aimharder-scheduler/internal/config"
	"github.com/example/aimharder-scheduler/internal/schedule"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDigestCmd(v *viper.Viper) *cobra.Command {
	c := &cobra.Command{
		Use:   "digest",
		Short: "Send the workouts published for the coming days",
		Long: "Send the workouts published for the coming days, starting tomorrow. " +
			"Without --schedule only the configured box is used; with it every box in the file is.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			ctx, stop := signalContext(cmd)
			defer stop()

			boxes := []schedule.Box{schedule.FromIdentity(a.identity())}
			if cmd.Flags().Changed("schedule") {
				if boxes, err = schedule.Load(a.cfg.Schedule, a.scheduleOptions(cmd)); err != nil {
					return err
				}
			}

			dates := digestDates(time.Now(), a.cfg.Location, a.cfg.DigestDays)
			a.log.Infow("starting digest run", "boxes", len(boxes), "days", a.cfg.DigestDays, "category", a.cfg.Category)

			rep := a.scheduler().Digest(ctx, boxes, dates, a.cfg.Category)
			if rep.AllFailed() {
				return errors.New("digest failed for every box")
			}
			return nil
		},
	}

	f := c.Flags()
	f.Int("days-ahead", 1, "number of days to include, starting tomorrow")
	f.String("category", "", "only include classes whose name contains this text")
	f.Bool("notify-on-error", true, "send a notice when the digest cannot be built")
	bind(v, f.Lookup("days-ahead"), config.KeyDigestDays)
	bind(v, f.Lookup("category"), config.KeyCategory)
	bind(v, f.Lookup("notify-on-error"), config.KeyNotifyOnError)

	return c
}
