package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agidash/agidash/internal/pipeline"
	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/pkg/logger"
)

type fakeBackfiller struct {
	err   error
	calls int
}

func (f *fakeBackfiller) Backfill(ctx context.Context) error {
	f.calls++
	return f.err
}

func newTestServer(t *testing.T, client repo.Client, bf backfiller) *server {
	t.Helper()

	cfg := Config{}
	cfg.HTTP.Addr = "127.0.0.1:0"

	return NewServer(cfg, logger.NewStub(), client, bf).(*server)
}

func doJSON(t *testing.T, s *server, method, target string, want int) []byte {
	t.Helper()

	resp, err := s.http.Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)
	require.Equal(t, want, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func Test_handleStatus(t *testing.T) {
	today := time.Now().UTC().Format(repo.DateLayout)

	type testcase struct {
		name   string
		alerts []repo.Alert
		want   string
	}

	tests := [...]testcase{
		{
			name: "no data",
			want: "normal",
		},
		{
			name:   "quiet",
			alerts: []repo.Alert{{Date: today, MarketProb: 0.1}},
			want:   "normal",
		},
		{
			name:   "elevated probability",
			alerts: []repo.Alert{{Date: today, AttentionProb: 0.35}},
			want:   "warning",
		},
		{
			name:   "recent alert",
			alerts: []repo.Alert{{Date: today, MarketProb: 0.8, Alert: true}},
			want:   "alert",
		},
		{
			name:   "stale alert",
			alerts: []repo.Alert{{Date: "2020-01-01", MarketProb: 0.8, Alert: true}},
			want:   "warning",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := repo.NewMemory()
			for _, a := range tt.alerts {
				require.NoError(t, client.Alerts().Upsert(context.Background(), a))
			}

			s := newTestServer(t, client, &fakeBackfiller{})
			body := doJSON(t, s, http.MethodGet, "/status", http.StatusOK)

			var got map[string]string
			require.NoError(t, json.Unmarshal(body, &got))
			require.Equal(t, tt.want, got["status"])
		})
	}
}

func Test_handleIndices(t *testing.T) {
	client := repo.NewMemory()
	ctx := context.Background()

	for _, date := range []string{"2026-08-27", "2026-08-28", "2026-08-29"} {
		require.NoError(t, client.Indices().Upsert(ctx, repo.IndexPoint{Date: date, Market: 1}))
	}

	s := newTestServer(t, client, &fakeBackfiller{})

	body := doJSON(t, s, http.MethodGet, "/indices?days=2", http.StatusOK)

	var points []repo.IndexPoint
	require.NoError(t, json.Unmarshal(body, &points))
	require.Len(t, points, 2)
	require.Equal(t, "2026-08-28", points[0].Date)
	require.Equal(t, "2026-08-29", points[1].Date)
}

func Test_handleIndices_empty(t *testing.T) {
	s := newTestServer(t, repo.NewMemory(), &fakeBackfiller{})

	body := doJSON(t, s, http.MethodGet, "/indices", http.StatusOK)
	require.JSONEq(t, "[]", string(body))
}

func Test_handleAlerts(t *testing.T) {
	client := repo.NewMemory()
	ctx := context.Background()

	require.NoError(t, client.Alerts().Upsert(ctx, repo.Alert{Date: "2026-08-28"}))
	require.NoError(t, client.Alerts().Upsert(ctx, repo.Alert{Date: "2026-08-29", Alert: true}))

	s := newTestServer(t, client, &fakeBackfiller{})

	body := doJSON(t, s, http.MethodGet, "/alerts", http.StatusOK)

	var alerts []repo.Alert
	require.NoError(t, json.Unmarshal(body, &alerts))
	require.Len(t, alerts, 2)
	require.Equal(t, "2026-08-29", alerts[0].Date)
	require.True(t, alerts[0].Alert)
}

func Test_handleBackfill(t *testing.T) {
	bf := &fakeBackfiller{}
	s := newTestServer(t, repo.NewMemory(), bf)

	doJSON(t, s, http.MethodPost, "/backfill", http.StatusOK)
	require.Equal(t, 1, bf.calls)
}

func Test_handleBackfill_alreadyRunning(t *testing.T) {
	bf := &fakeBackfiller{err: pipeline.ErrBackfillRunning}
	s := newTestServer(t, repo.NewMemory(), bf)

	doJSON(t, s, http.MethodPost, "/backfill", http.StatusConflict)
}
