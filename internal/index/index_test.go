package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agidash/agidash/internal/ingest"
	"github.com/agidash/agidash/internal/repo"
)

func Test_Compose(t *testing.T) {
	snaps := map[string]ingest.Snapshot{
		ingest.SourceCapability:  {Score: 60},
		ingest.SourceTrends:      {Score: 40},
		ingest.SourceNews:        {Score: 10},
		ingest.SourceMarkets:     {Score: 0.5},
		ingest.SourceLegislation: {Score: 3},
	}

	raw := Compose("2026-08-29", snaps)

	require.Equal(t, "2026-08-29", raw.Date)
	require.InDelta(t, 60, raw.Capability, 1e-9)
	require.InDelta(t, 25, raw.Attention, 1e-9)
	require.InDelta(t, 0.5, raw.Market, 1e-9)
	require.InDelta(t, 3, raw.Regulatory, 1e-9)
}

func Test_Compose_missingSources(t *testing.T) {
	raw := Compose("2026-08-29", map[string]ingest.Snapshot{
		ingest.SourceTrends: {Score: 50},
	})

	require.Zero(t, raw.Capability)
	require.InDelta(t, 25, raw.Attention, 1e-9)
	require.Zero(t, raw.Market)
	require.Zero(t, raw.Regulatory)
}

func Test_Normalize_noHistory(t *testing.T) {
	raw := Raw{Date: "2026-08-29", Capability: 3, Attention: 1, Market: 0.5, Regulatory: 2}

	p := Normalize(nil, raw)

	require.Equal(t, repo.IndexPoint{
		Date:       "2026-08-29",
		Capability: 3,
		Attention:  1,
		Market:     0.5,
		Regulatory: 2,
	}, p)
}

func Test_Normalize(t *testing.T) {
	history := []repo.IndexPoint{
		{Date: "2026-08-27", Capability: 1, Attention: 5, Market: 5, Regulatory: 0},
		{Date: "2026-08-28", Capability: 2, Attention: 5, Market: 7, Regulatory: 0},
	}
	raw := Raw{Date: "2026-08-29", Capability: 3, Attention: 5, Market: 9, Regulatory: 0}

	p := Normalize(history, raw)

	// capability: values {1,2,3}, mean 2, sample std 1
	require.InDelta(t, 1, p.Capability, 1e-9)
	// zero variance maps to zero
	require.Zero(t, p.Attention)
	// market: values {5,7,9}, mean 7, sample std 2
	require.InDelta(t, 1, p.Market, 1e-9)
	require.Zero(t, p.Regulatory)

	require.False(t, math.IsNaN(p.Capability))
}

func Test_zscore(t *testing.T) {
	require.InDelta(t, 1, zscore([]float64{0, 2, 4}, 4), 1e-9)
	require.Zero(t, zscore([]float64{3, 3, 3}, 3))
}
