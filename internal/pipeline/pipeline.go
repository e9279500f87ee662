package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/agidash/agidash/internal/index"
	"github.com/agidash/agidash/internal/ingest"
	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/internal/staging"
	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

// ErrBackfillRunning is returned when a backfill is requested while
// another one is still in flight.
var ErrBackfillRunning = errors.Error("backfill already running")

func New(
	sources []ingest.Source,
	store *staging.Store,
	indices repo.Indices,
	det detector,
	al alerter,
	log logger.Logger,
) *Pipeline {
	return &Pipeline{
		sources: sources,
		staging: store,
		indices: indices,
		det:     det,
		al:      al,
		window:  index.Window,
		log:     log.With("pipeline"),
	}
}

// Pipeline is the daily job: fetch every source, stage the
// snapshots, fold them into the day's index row, then replay
// detection and evaluate the alert.
type Pipeline struct {
	sources []ingest.Source
	staging *staging.Store
	indices repo.Indices
	det     detector
	al      alerter
	window  int
	log     logger.Logger

	backfilling atomic.Bool
}

// Run executes one full pipeline pass for the given day.
func (p *Pipeline) Run(ctx context.Context, day string) error {
	snaps := p.fetchAll(ctx, day)

	err := p.storeIndex(ctx, day, snaps)
	if err != nil {
		return errors.WrapFail(err, "store index row")
	}

	return p.detectAndAlert(ctx)
}

// RunToday is Run for the current UTC day.
func (p *Pipeline) RunToday(ctx context.Context) error {
	return p.Run(ctx, time.Now().UTC().Format(repo.DateLayout))
}

// fetchAll pulls every source, staging whatever succeeds. A failed
// source is logged and skipped; its index component stays zero.
func (p *Pipeline) fetchAll(ctx context.Context, day string) map[string]ingest.Snapshot {
	snaps := make(map[string]ingest.Snapshot, len(p.sources))

	for _, src := range p.sources {
		snap, err := src.Fetch(ctx)
		if err != nil {
			p.log.Warn(errors.WrapFailf(err, "fetch source %q", src.Name()))
			continue
		}
		snap.Date = day

		err = p.staging.Save(snap)
		if err != nil {
			p.log.Warn(errors.WrapFailf(err, "stage snapshot of %q", src.Name()))
		}

		snaps[src.Name()] = snap
	}

	return snaps
}

// storeIndex composes the day's row, z-scores it against stored
// history strictly before the day, and upserts it.
func (p *Pipeline) storeIndex(ctx context.Context, day string, snaps map[string]ingest.Snapshot) error {
	raw := index.Compose(day, snaps)

	window, err := p.indices.Window(ctx, p.window)
	if err != nil {
		return errors.WrapFail(err, "load index history")
	}

	history := window[:0:0]
	for _, point := range window {
		if point.Date < day {
			history = append(history, point)
		}
	}

	point := index.Normalize(history, raw)

	err = p.indices.Upsert(ctx, point)
	return errors.WrapFail(err, "upsert index point")
}

func (p *Pipeline) detectAndAlert(ctx context.Context) error {
	res, err := p.det.Run(ctx)
	if err != nil {
		return errors.WrapFail(err, "run detection")
	}

	_, err = p.al.Process(ctx, res)
	return errors.WrapFail(err, "process detection result")
}

// Backfill recomputes the index row for every staged day in order,
// then runs one detection pass over the rebuilt history. Only one
// backfill runs at a time.
func (p *Pipeline) Backfill(ctx context.Context) error {
	if !p.backfilling.CompareAndSwap(false, true) {
		return ErrBackfillRunning
	}
	defer p.backfilling.Store(false)

	names := make([]string, 0, len(p.sources))
	for _, src := range p.sources {
		names = append(names, src.Name())
	}

	days, err := p.staging.AllDays(names)
	if err != nil {
		return errors.WrapFail(err, "list staged days")
	}

	if len(days) == 0 {
		return errors.Fail("backfill with empty staging")
	}

	p.log.Infof("backfilling %d days", len(days))

	for _, day := range days {
		snaps := make(map[string]ingest.Snapshot, len(names))
		for _, name := range names {
			snap, ok, err := p.staging.Load(name, day)
			if err != nil {
				p.log.Warn(errors.WrapFailf(err, "load staged %q of %s", name, day))
				continue
			}
			if ok {
				snaps[name] = snap
			}
		}

		err := p.storeIndex(ctx, day, snaps)
		if err != nil {
			return errors.WrapFailf(err, "recompute index for %s", day)
		}
	}

	return p.detectAndAlert(ctx)
}
