package repo

import (
	"context"
)

type Indices interface {
	// Upsert writes the row for its date, replacing an existing one.
	Upsert(ctx context.Context, p IndexPoint) error

	// Window returns up to n most recent rows in ascending date order.
	Window(ctx context.Context, n int) ([]IndexPoint, error)
}

type Alerts interface {
	Upsert(ctx context.Context, a Alert) error

	// Recent returns up to n most recent rows in descending date order.
	Recent(ctx context.Context, n int) ([]Alert, error)
}

type Subscribers interface {
	Upsert(ctx context.Context, s Subscriber) error
	Delete(ctx context.Context, chatID int64) (deleted bool, err error)
	All(ctx context.Context) ([]Subscriber, error)
}

type Client interface {
	Indices() Indices
	Alerts() Alerts
	Subscribers() Subscribers

	Close(ctx context.Context) error
}
