package alert

import (
	"context"

	"github.com/agidash/agidash/internal/notify"
)

//go:generate mockgen -source=interfaces.go -destination=mocks_test.go -package=alert

type notifier interface {
	notify.Notifier
}

type broadcaster interface {
	Broadcast(ctx context.Context, key string, event any) error
}
