package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const leaderboardYAML = `
models:
  - name: model-a
    metrics:
      - name: MMMU
        value: 60.5
      - name: MMLU-pro
        value: 70.5
      - name: Elo
        value: 1250
  - name: model-b
    metrics:
      - name: GSM-Hard
        value: 55.0
  - name: model-c
    metrics:
      - name: Elo
        value: 1100
`

func Test_parseLeaderboard(t *testing.T) {
	series, err := parseLeaderboard([]byte(leaderboardYAML))
	require.NoError(t, err)

	require.Equal(t, map[string]float64{
		"model-a/MMMU":     60.5,
		"model-a/MMLU-pro": 70.5,
		"model-b/GSM-Hard": 55.0,
	}, series)

	require.InDelta(t, 62.0, meanOf(series), 1e-9)
}

func Test_parseLeaderboard_badYAML(t *testing.T) {
	_, err := parseLeaderboard([]byte("models: [broken"))
	require.Error(t, err)
}

func Test_meanOf_empty(t *testing.T) {
	require.Zero(t, meanOf(nil))
}
