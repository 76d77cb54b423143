package usecases

import (
	"context"
	"fmt"

	"github.com/example/aimharder-scheduler/internal/domain/reservation"
)

// OpenSession logs into one box. Each call yields a fresh session.
type OpenSession struct {
	Auth reservation.Authenticator
}

func (u OpenSession) Execute(ctx context.Context, creds reservation.Credentials, box reservation.BoxRef) (reservation.Session, error) {
	if u.Auth == nil {
		return nil, fmt.Errorf("authenticator is nil")
	}
	s, err := u.Auth.Login(ctx, creds, box)
	if err != nil {
		return nil, fmt.Errorf("login to %s: %w", box.Name, err)
	}
	return s, nil
}
