package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/aimharder-scheduler/internal/aimharder"
	"github.com/example/aimharder-scheduler/internal/config"
	"github.com/example/aimharder-scheduler/internal/domain/reservation"
	"github.com/example/aimharder-scheduler/internal/htmltext"
	"github.com/example/aimharder-scheduler/internal/logger"
	"github.com/example/aimharder-scheduler/internal/notify"
	"github.com/example/aimharder-scheduler/internal/schedule"
	"github.com/example/aimharder-scheduler/internal/scheduler"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds what every run command needs once configuration is resolved.
type app struct {
	cfg config.Config
	log *logger.Logger
}

func newApp(v *viper.Viper) (*app, error) {
	cfg, err := config.FromEnv(v)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel).With("run", uuid.NewString())
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) scheduler() *scheduler.Scheduler {
	return &scheduler.Scheduler{
		Auth: aimharder.New(aimharder.Options{LoginURL: a.cfg.LoginURL, BaseURL: a.cfg.BaseURL}),
		Notifier: notify.New(notify.Options{
			TelegramToken:  a.cfg.TelegramToken,
			TelegramChatID: a.cfg.TelegramChatID,
			SlackToken:     a.cfg.SlackToken,
			SlackChannel:   a.cfg.SlackChannel,
			Log:            a.log,
		}),
		Creds:         reservation.Credentials{Email: a.cfg.Email, Password: a.cfg.Password},
		HTML:          htmltext.Parser{},
		Log:           a.log,
		DryRun:        a.cfg.DryRun,
		WithWOD:       a.cfg.WithWOD,
		NotifyOnError: a.cfg.NotifyOnError,
	}
}

// scheduleOptions resolves box identity: explicit flags override the file,
// everything else falls back to the environment or the built-in default.
func (a *app) scheduleOptions(cmd *cobra.Command) schedule.Options {
	opts := schedule.Options{
		Fallback: a.identity(),
		Only:     a.cfg.Only,
	}
	if cmd.Flags().Changed("box-name") {
		opts.Override.Name = a.cfg.BoxName
	}
	if cmd.Flags().Changed("box-id") {
		opts.Override.ID = a.cfg.BoxID
	}
	return opts
}

func (a *app) identity() schedule.Identity {
	return schedule.Identity{Name: a.cfg.BoxName, ID: a.cfg.BoxID}
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// bookingDay is the calendar day n days after now in loc.
func bookingDay(now time.Time, loc *time.Location, n int) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+n, 0, 0, 0, 0, loc)
}

// digestDates lists tomorrow through n days ahead.
func digestDates(now time.Time, loc *time.Location, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, bookingDay(now, loc, i))
	}
	return out
}
