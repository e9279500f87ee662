package index

import (
	"gonum.org/v1/gonum/stat"

	"github.com/agidash/agidash/internal/ingest"
	"github.com/agidash/agidash/internal/repo"
)

// Window is the trailing history length used for z-score
// normalization and detection replays.
const Window = 180

// Raw holds the un-normalized composite values for one day.
type Raw struct {
	Date       string
	Capability float64
	Attention  float64
	Market     float64
	Regulatory float64
}

// Compose folds the day's snapshots into the four indices. A missing
// source contributes zero, so one failed fetch never sinks the row.
func Compose(date string, snaps map[string]ingest.Snapshot) Raw {
	score := func(source string) float64 {
		return snaps[source].Score
	}

	return Raw{
		Date:       date,
		Capability: score(ingest.SourceCapability),
		Attention:  (score(ingest.SourceTrends) + score(ingest.SourceNews)) / 2,
		Market:     score(ingest.SourceMarkets),
		Regulatory: score(ingest.SourceLegislation),
	}
}

// Normalize z-scores the raw row against the stored history plus
// itself. With no history the row passes through unchanged; a
// zero-variance column maps to zero.
func Normalize(history []repo.IndexPoint, raw Raw) repo.IndexPoint {
	if len(history) == 0 {
		return repo.IndexPoint{
			Date:       raw.Date,
			Capability: raw.Capability,
			Attention:  raw.Attention,
			Market:     raw.Market,
			Regulatory: raw.Regulatory,
		}
	}

	column := func(pick func(repo.IndexPoint) float64, today float64) float64 {
		values := make([]float64, 0, len(history)+1)
		for _, p := range history {
			values = append(values, pick(p))
		}
		values = append(values, today)
		return zscore(values, today)
	}

	return repo.IndexPoint{
		Date:       raw.Date,
		Capability: column(func(p repo.IndexPoint) float64 { return p.Capability }, raw.Capability),
		Attention:  column(func(p repo.IndexPoint) float64 { return p.Attention }, raw.Attention),
		Market:     column(func(p repo.IndexPoint) float64 { return p.Market }, raw.Market),
		Regulatory: column(func(p repo.IndexPoint) float64 { return p.Regulatory }, raw.Regulatory),
	}
}

func zscore(values []float64, x float64) float64 {
	mean, std := stat.MeanStdDev(values, nil)
	if std == 0 {
		return 0
	}
	return (x - mean) / std
}
