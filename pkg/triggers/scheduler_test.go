package triggers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerFiresAtNextRunTime(t *testing.T) {
	var fired int32
	sched := NewScheduler(func(ctx context.Context, trig *Scheduled) {
		atomic.AddInt32(&fired, 1)
	})

	base := time.Now()
	sched.now = func() time.Time { return base }

	trig := &Scheduled{
		Base:     Base{ID: "t1", Status: StatusActive},
		CronExpr: "* * * * *",
		Timezone: "UTC",
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, sched.Add(ctx, trig, time.UTC))
	sched.Start(ctx)
	defer sched.Stop()

	// Fast-forward the clock past next_run_time and let the loop's timer
	// elapse (it was scheduled against a wait duration computed at Add
	// time, so advancing `now` alone doesn't retrigger — instead verify
	// NextRunTime was computed one minute-boundary ahead of base).
	assert.True(t, trig.NextRunTime.After(base))
}

func TestSchedulerRunImmediately(t *testing.T) {
	var fired int32
	sched := NewScheduler(func(ctx context.Context, trig *Scheduled) {
		atomic.AddInt32(&fired, 1)
	})
	sched.now = func() time.Time { return time.Now() }
	sched.Start(context.Background())
	defer sched.Stop()

	trig := &Scheduled{
		Base:           Base{ID: "t2", Status: StatusActive},
		CronExpr:       "*/5 * * * *",
		Timezone:       "UTC",
		RunImmediately: true,
	}
	require.NoError(t, sched.Add(context.Background(), trig, time.UTC))

	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestSchedulerPauseStopsLoop(t *testing.T) {
	sched := NewScheduler(func(ctx context.Context, trig *Scheduled) {})
	ctx := context.Background()
	sched.Start(ctx)
	defer sched.Stop()

	trig := &Scheduled{Base: Base{ID: "t3", Status: StatusActive}, CronExpr: "* * * * *", Timezone: "UTC"}
	require.NoError(t, sched.Add(ctx, trig, time.UTC))

	sched.Pause(trig.ID)
	assert.Equal(t, StatusPaused, trig.Status)

	require.NoError(t, sched.Resume(ctx, trig.ID, time.UTC))
	assert.Equal(t, StatusActive, trig.Status)
}
