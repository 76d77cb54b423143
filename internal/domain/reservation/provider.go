package reservation

//go:generate mockgen -source=provider.go -destination=../../mocks/provider.go -package=mocks

import (
	"context"
	"time"
)

// Authenticator opens a per-box session. A failed login only affects that box.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials, box BoxRef) (Session, error)
}

type ClassCatalog interface {
	Classes(ctx context.Context, day time.Time) ([]Record, error)
}

// BookingTransport submits a booking and hands back the raw reply for
// ClassifyResponse. err is only set when no HTTP response was received.
type BookingTransport interface {
	Book(ctx context.Context, classID string, day time.Time) (status int, body []byte, err error)
}

type ActivityFeed interface {
	Dashboard(ctx context.Context) (string, error)
	Activity(ctx context.Context, userID string, window int) ([]byte, error)
}

// Session is an authenticated connection to one box. Sessions are never
// shared between boxes.
type Session interface {
	ClassCatalog
	BookingTransport
	ActivityFeed
}

// Notifier delivers a message to the chat channel. Text may use <b> and <u>;
// callers must keep each text within the transport's size limit.
type Notifier interface {
	Send(ctx context.Context, text string) error
}
