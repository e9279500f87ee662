package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Throttler_Wait(t *testing.T) {
	tr := New(time.Millisecond)
	defer tr.Stop()

	require.True(t, tr.Wait(context.Background()))
}

func Test_Throttler_WaitCancelled(t *testing.T) {
	tr := New(time.Hour)
	defer tr.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.False(t, tr.Wait(ctx))
}
