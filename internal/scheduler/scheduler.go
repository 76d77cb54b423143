// Package scheduler runs the per-box booking and digest pipelines.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/aimharder-scheduler/internal/application/usecases"
	"github.com/example/aimharder-scheduler/internal/digest"
	"github.com/example/aimharder-scheduler/internal/domain/reservation"
	"github.com/example/aimharder-scheduler/internal/htmltext"
	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"github.com/example/aimharder-scheduler/internal/logger"
	"github.com/example/aimharder-scheduler/internal/notify"
	"github.com/example/aimharder-scheduler/internal/schedule"
)

// number of catalog entries listed when nothing matched
const listOnMiss = 10

// Scheduler processes boxes one at a time. Every box gets its own session and
// a failure in one box never stops the next.
type Scheduler struct {
	Auth     reservation.Authenticator
	Notifier reservation.Notifier
	Creds    reservation.Credentials
	HTML     htmltext.Extractor
	Log      *logger.Logger

	DryRun bool
	// WithWOD appends the day's published workout to booking notifications.
	WithWOD bool
	// NotifyOnError sends the "nothing published" notice when a digest fails.
	NotifyOnError bool
}

type BoxResult struct {
	Box reservation.BoxRef
	// Skipped means nothing was scheduled for the day.
	Skipped bool
	Outcome *reservation.Outcome
	Err     error
}

func (r BoxResult) Failed() bool {
	return r.Err != nil || (r.Outcome != nil && !r.Outcome.Booked())
}

type Report struct {
	Results []BoxResult
}

func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Failed() {
			n++
		}
	}
	return n
}

// AllFailed reports whether every box that had work to do failed.
func (r Report) AllFailed() bool {
	attempted := 0
	for _, res := range r.Results {
		if !res.Skipped {
			attempted++
		}
	}
	return attempted > 0 && r.Failed() == attempted
}

// Book books the class scheduled on day's weekday in every box.
func (s *Scheduler) Book(ctx context.Context, boxes []schedule.Box, day time.Time) Report {
	var rep Report
	for _, box := range boxes {
		if ctx.Err() != nil {
			rep.Results = append(rep.Results, BoxResult{Box: box.Ref(), Err: ctx.Err()})
			continue
		}
		rep.Results = append(rep.Results, s.bookBox(ctx, box, day))
	}
	s.Log.Infow("booking run finished", "boxes", len(rep.Results), "failed", rep.Failed())
	return rep
}

func (s *Scheduler) bookBox(ctx context.Context, box schedule.Box, day time.Time) BoxResult {
	log := s.Log.With("box", box.Name, "box_id", box.ID)
	res := BoxResult{Box: box.Ref()}

	req, ok := box.For(day.Weekday())
	if !ok {
		log.Infow("nothing scheduled", "weekday", day.Weekday().String())
		res.Skipped = true
		return res
	}
	log.Infow("looking for class", "class", req.ClassName, "time", req.Time, "date", day.Format(time.DateOnly))

	session, err := usecases.OpenSession{Auth: s.Auth}.Execute(ctx, s.Creds, box.Ref())
	if err != nil {
		log.Errorw("login failed", "error", err)
		res.Err = err
		s.notify(ctx, log, failureMessage(box.Name, req, day, err))
		return res
	}

	match, records, err := usecases.FindClass{Catalog: session}.Execute(ctx, day, req)
	if err != nil {
		if errors.Is(err, internaltypes.ErrNotFound) && len(records) > 0 {
			log.Warnw("no matching class", "available", strings.Join(reservation.Describe(records, listOnMiss), "; "))
		} else {
			log.Errorw("class lookup failed", "error", err)
		}
		res.Err = err
		s.notify(ctx, log, failureMessage(box.Name, req, day, err))
		return res
	}
	log.Infow("found class", "class", match.Name(), "time", match.Time(), "id", match.ID())

	var out reservation.Outcome
	if match.AlreadyBooked {
		log.Infow("class already booked, skipping")
		out = reservation.Outcome{
			Kind:        reservation.AlreadyBooked,
			ClassName:   match.Name(),
			DisplayTime: reservation.DisplayTime(match.Time()),
		}
	} else {
		out = usecases.BookClass{Transport: session}.Execute(ctx, match, day, s.DryRun)
	}
	res.Outcome = &out

	if out.Booked() {
		log.Infow("booking outcome", "outcome", out.Kind.String(), "simulated", out.Simulated)
	} else {
		log.Errorw("booking outcome", "outcome", out.Kind.String(), "status", out.Status, "message", out.Message)
	}

	wod := ""
	if s.WithWOD && out.Booked() {
		wod = s.workoutOfDay(ctx, log, session, day)
	}
	s.notify(ctx, log, outcomeMessage(box.Name, day, out, wod))
	return res
}

func (s *Scheduler) workoutOfDay(ctx context.Context, log *logger.Logger, feed reservation.ActivityFeed, day time.Time) string {
	b := &digest.Builder{Feed: feed, HTML: s.HTML, Log: log}
	text, err := b.ForDay(ctx, day)
	if err != nil {
		log.Warnw("could not fetch workout of the day", "error", err)
		return ""
	}
	return text
}

// Digest sends the workout digest for dates in every box.
func (s *Scheduler) Digest(ctx context.Context, boxes []schedule.Box, dates []time.Time, category string) Report {
	var rep Report
	for _, box := range boxes {
		if ctx.Err() != nil {
			rep.Results = append(rep.Results, BoxResult{Box: box.Ref(), Err: ctx.Err()})
			continue
		}
		rep.Results = append(rep.Results, s.digestBox(ctx, box, dates, category))
	}
	s.Log.Infow("digest run finished", "boxes", len(rep.Results), "failed", rep.Failed())
	return rep
}

func (s *Scheduler) digestBox(ctx context.Context, box schedule.Box, dates []time.Time, category string) BoxResult {
	log := s.Log.With("box", box.Name, "box_id", box.ID)
	res := BoxResult{Box: box.Ref()}

	session, err := usecases.OpenSession{Auth: s.Auth}.Execute(ctx, s.Creds, box.Ref())
	if err != nil {
		log.Errorw("login failed", "error", err)
		res.Err = err
		return res
	}

	b := &digest.Builder{Feed: session, HTML: s.HTML, Log: log}
	chunks, err := b.Build(ctx, digest.Request{BoxName: box.Name, Dates: dates, Category: category})
	if err != nil {
		log.Errorw("digest failed", "error", err)
		res.Err = err
		if s.NotifyOnError {
			s.notify(ctx, log, digest.NoContent(box.Name, len(dates)))
		}
		return res
	}

	log.Infow("sending digest", "chunks", len(chunks))
	if err := notify.SendAll(ctx, s.Notifier, chunks); err != nil {
		log.Errorw("could not deliver digest", "error", err)
		res.Err = err
	}
	return res
}

func (s *Scheduler) notify(ctx context.Context, log *logger.Logger, text string) {
	if err := s.Notifier.Send(ctx, text); err != nil {
		log.Warnw("notification failed", "error", err)
	}
}
