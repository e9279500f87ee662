package alert

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/agidash/agidash/internal/detect"
	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/pkg/logger"
)

func Test_buildRow(t *testing.T) {
	type testcase struct {
		name  string
		probs map[string]float64

		wantAlert bool
	}

	tests := [...]testcase{
		{
			name:      "all quiet",
			probs:     map[string]float64{detect.IndexMarket: 0.1},
			wantAlert: false,
		},
		{
			name:      "just below level",
			probs:     map[string]float64{detect.IndexCapability: 0.499},
			wantAlert: false,
		},
		{
			name:      "at level",
			probs:     map[string]float64{detect.IndexAttention: 0.5},
			wantAlert: true,
		},
		{
			name: "one of many over level",
			probs: map[string]float64{
				detect.IndexCapability: 0.1,
				detect.IndexRegulatory: 0.93,
			},
			wantAlert: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := buildRow(detect.Result{Date: "2026-08-29", Probs: tt.probs}, Level)

			require.Equal(t, "2026-08-29", row.Date)
			require.Equal(t, tt.wantAlert, row.Alert)
		})
	}
}

func Test_Alerter_Process_quiet(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := repo.NewMemory()

	n := NewMocknotifier(ctrl)
	bus := NewMockbroadcaster(ctrl)
	// neither is called for a quiet result

	a := New(client.Alerts(), bus, logger.NewStub(), n)

	row, err := a.Process(context.Background(), detect.Result{
		Date:  "2026-08-29",
		Probs: map[string]float64{detect.IndexMarket: 0.2},
	})
	require.NoError(t, err)
	require.False(t, row.Alert)

	stored, err := client.Alerts().Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []repo.Alert{row}, stored)
}

func Test_Alerter_Process_fires(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := repo.NewMemory()

	n := NewMocknotifier(ctrl)
	n.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	bus := NewMockbroadcaster(ctrl)
	bus.EXPECT().Broadcast(gomock.Any(), "2026-08-29", gomock.Any()).Return(nil).Times(1)

	a := New(client.Alerts(), bus, logger.NewStub(), n)

	row, err := a.Process(context.Background(), detect.Result{
		Date:  "2026-08-29",
		Probs: map[string]float64{detect.IndexMarket: 0.8},
	})
	require.NoError(t, err)
	require.True(t, row.Alert)
}

func Test_Alerter_Process_notifierFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := repo.NewMemory()

	n := NewMocknotifier(ctrl)
	n.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("mock")).Times(1)
	n.EXPECT().Name().Return("mock").AnyTimes()

	a := New(client.Alerts(), nil, logger.NewStub(), n)

	row, err := a.Process(context.Background(), detect.Result{
		Date:  "2026-08-29",
		Probs: map[string]float64{detect.IndexCapability: 0.9},
	})
	require.NoError(t, err)
	require.True(t, row.Alert)
}
