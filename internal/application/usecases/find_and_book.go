package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/example/aimharder-scheduler/internal/domain/reservation"
	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"github.com/example/aimharder-scheduler/internal/locale"
)

// FindClass looks up the scheduled class in the day's catalog.
type FindClass struct {
	Catalog reservation.ClassCatalog
}

// Execute returns the match together with the catalog it was chosen from, so
// callers can list the alternatives when nothing matched.
func (u FindClass) Execute(ctx context.Context, day time.Time, req reservation.ClassRequest) (reservation.Match, []reservation.Record, error) {
	if u.Catalog == nil {
		return reservation.Match{}, nil, fmt.Errorf("catalog is nil")
	}
	records, err := u.Catalog.Classes(ctx, day)
	if err != nil {
		return reservation.Match{}, nil, err
	}
	if len(records) == 0 {
		return reservation.Match{}, nil, fmt.Errorf("%w: no classes on %s", internaltypes.ErrNotFound, day.Format(time.DateOnly))
	}
	m, ok := reservation.ChooseClass(records, req)
	if !ok {
		return reservation.Match{}, records, fmt.Errorf("%w: no %q class at %s", internaltypes.ErrNotFound, req.ClassName, req.Time)
	}
	return m, records, nil
}

// BookClass submits a booking for a matched class. It never retries.
type BookClass struct {
	Transport reservation.BookingTransport
}

func (u BookClass) Execute(ctx context.Context, m reservation.Match, day time.Time, dryRun bool) reservation.Outcome {
	base := reservation.Outcome{
		ClassName:   m.Name(),
		DisplayTime: reservation.DisplayTime(m.Time()),
		DayLabel:    locale.FullLabel(day),
	}

	id := m.ID()
	if id == "" {
		base.Kind = reservation.GenericError
		base.Message = "could not determine class id"
		return base
	}
	if dryRun {
		base.Kind = reservation.Success
		base.Simulated = true
		return base
	}
	if u.Transport == nil {
		base.Kind = reservation.GenericError
		base.Message = "booking transport is nil"
		return base
	}

	status, body, err := u.Transport.Book(ctx, id, day)
	if err != nil {
		base.Kind = reservation.TransportError
		base.Message = err.Error()
		return base
	}
	out := reservation.ClassifyResponse(status, body)
	out.ClassName, out.DisplayTime, out.DayLabel = base.ClassName, base.DisplayTime, base.DayLabel
	return out
}
