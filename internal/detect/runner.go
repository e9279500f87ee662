package detect

import (
	"context"

	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

// Index names as reported in a detection result.
const (
	IndexCapability = "capability"
	IndexAttention  = "attention"
	IndexMarket     = "market"
	IndexRegulatory = "regulatory"
)

// Result is the outcome of one detection run: the date of the latest
// index row and the final changepoint probability per index.
type Result struct {
	Date  string
	Probs map[string]float64
}

func NewRunner(indices repo.Indices, hazard float64, window int, log logger.Logger) *Runner {
	if window <= 0 {
		window = 180
	}

	return &Runner{
		indices: indices,
		hazard:  hazard,
		window:  window,
		log:     log.With("detect"),
	}
}

// Runner replays the stored index window through one detector per
// index. Detectors are rebuilt every run, so backfilled history is
// always accounted for.
type Runner struct {
	indices repo.Indices
	hazard  float64
	window  int
	log     logger.Logger
}

func (r *Runner) Run(ctx context.Context) (Result, error) {
	points, err := r.indices.Window(ctx, r.window)
	if err != nil {
		return Result{}, errors.WrapFail(err, "load index window")
	}

	if len(points) == 0 {
		return Result{}, errors.Fail("detect on empty index history")
	}

	columns := map[string]func(repo.IndexPoint) float64{
		IndexCapability: func(p repo.IndexPoint) float64 { return p.Capability },
		IndexAttention:  func(p repo.IndexPoint) float64 { return p.Attention },
		IndexMarket:     func(p repo.IndexPoint) float64 { return p.Market },
		IndexRegulatory: func(p repo.IndexPoint) float64 { return p.Regulatory },
	}

	result := Result{
		Date:  points[len(points)-1].Date,
		Probs: make(map[string]float64, len(columns)),
	}

	for name, pick := range columns {
		series := make([]float64, 0, len(points))
		for _, p := range points {
			series = append(series, pick(p))
		}

		probs := Replay(series, r.hazard)
		if len(probs) == 0 {
			continue
		}

		result.Probs[name] = probs[len(probs)-1]
	}

	r.log.Infof("detection over %d days: %v", len(points), result.Probs)

	return result, nil
}
