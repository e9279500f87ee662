package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agidash/agidash/pkg/logger"
)

func Test_Scheduler_Add(t *testing.T) {
	s := New(logger.NewStub())

	err := s.Add(context.Background(), "@every 1h", "job", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
}

func Test_Scheduler_Add_badSpec(t *testing.T) {
	s := New(logger.NewStub())

	err := s.Add(context.Background(), "not a cron spec", "job", func(ctx context.Context) error {
		return nil
	})
	require.Error(t, err)
}

func Test_Scheduler_runsJob(t *testing.T) {
	s := New(logger.NewStub())

	done := make(chan struct{})
	err := s.Add(context.Background(), "@every 10ms", "job", func(ctx context.Context) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}
