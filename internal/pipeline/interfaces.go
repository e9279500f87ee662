package pipeline

import (
	"context"

	"github.com/agidash/agidash/internal/detect"
	"github.com/agidash/agidash/internal/repo"
)

type detector interface {
	Run(ctx context.Context) (detect.Result, error)
}

type alerter interface {
	Process(ctx context.Context, res detect.Result) (repo.Alert, error)
}
