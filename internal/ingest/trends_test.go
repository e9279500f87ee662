package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_stripXSSIPrefix(t *testing.T) {
	type testcase struct {
		name string
		raw  string
		want string
	}

	tests := [...]testcase{
		{
			name: "with guard",
			raw:  ")]}',\n{\"a\":1}",
			want: "{\"a\":1}",
		},
		{
			name: "without guard",
			raw:  "{\"a\":1}",
			want: "{\"a\":1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, string(stripXSSIPrefix([]byte(tt.raw))))
		})
	}
}

func Test_parseTimeline(t *testing.T) {
	raw := ")]}',\n" + `{
		"default": {
			"timelineData": [
				{"time": "1700000000", "value": [40, 60]},
				{"time": "1700003600", "value": [10, 30]},
				{"time": "1700007200", "value": []}
			]
		}
	}`

	series, err := parseTimeline([]byte(raw))
	require.NoError(t, err)

	require.Equal(t, map[string]float64{
		"1700000000": 50,
		"1700003600": 20,
	}, series)

	require.InDelta(t, 35, meanOf(series), 1e-9)
}

func Test_parseTimeline_badJSON(t *testing.T) {
	_, err := parseTimeline([]byte("not json"))
	require.Error(t, err)
}
