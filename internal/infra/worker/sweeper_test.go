package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type countingEvicter struct {
	calls atomic.Int32
}

func (c *countingEvicter) Evict() int {
	c.calls.Add(1)
	return 1
}

func TestSweeperTicksUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ev := &countingEvicter{}
	w := NewSweeper("sessions", ev, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return ev.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	assert.GreaterOrEqual(t, ev.calls.Load(), int32(2))
}
