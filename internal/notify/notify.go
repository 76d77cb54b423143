// Package notify delivers run reports to chat channels.
package notify

import (
	"context"
	"errors"

	"github.com/example/aimharder-scheduler/internal/domain/reservation"
	"github.com/example/aimharder-scheduler/internal/logger"
)

// Log writes messages to the logger. It is used when no chat transport is
// configured so a run still reports what it would have sent.
type Log struct {
	Logger *logger.Logger
}

func (n Log) Send(_ context.Context, text string) error {
	n.Logger.Infow("notification", "text", text)
	return nil
}

// Multi fans a message out to every notifier, trying all of them even when
// one fails.
type Multi []reservation.Notifier

func (m Multi) Send(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendAll sends each chunk in order and reports every failure.
func SendAll(ctx context.Context, n reservation.Notifier, chunks []string) error {
	var errs []error
	for _, c := range chunks {
		if err := n.Send(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Options struct {
	TelegramToken  string
	TelegramChatID string
	SlackToken     string
	SlackChannel   string
	Log            *logger.Logger
}

// New returns the notifiers the options configure, falling back to Log.
func New(opts Options) reservation.Notifier {
	var out Multi
	if opts.TelegramToken != "" && opts.TelegramChatID != "" {
		out = append(out, NewTelegram(opts.TelegramToken, opts.TelegramChatID))
	}
	if opts.SlackToken != "" && opts.SlackChannel != "" {
		out = append(out, NewSlack(opts.SlackToken, opts.SlackChannel))
	}
	switch len(out) {
	case 0:
		opts.Log.Warnw("no chat transport configured, notifications go to the log only")
		return Log{Logger: opts.Log}
	case 1:
		return out[0]
	default:
		return out
	}
}
