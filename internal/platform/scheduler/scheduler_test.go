package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_AddJob(t *testing.T) {
	t.Run("success: job runs on schedule", func(t *testing.T) {
		s := New(time.Second)
		var runs atomic.Int32
		done := make(chan struct{}, 1)

		err := s.AddJob("@every 1s", JobFunc{JobName: "count", Fn: func(ctx context.Context) error {
			runs.Add(1)
			select {
			case done <- struct{}{}:
			default:
			}
			return nil
		}})
		require.NoError(t, err)

		s.Start()
		defer s.Stop()

		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Fatal("job did not run")
		}
		assert.GreaterOrEqual(t, runs.Load(), int32(1))
	})

	t.Run("error: invalid schedule", func(t *testing.T) {
		s := New(0)
		err := s.AddJob("not a schedule", JobFunc{JobName: "bad", Fn: func(ctx context.Context) error { return nil }})
		assert.Error(t, err)
	})
}

func TestScheduler_RunNow(t *testing.T) {
	t.Run("success: returns job error", func(t *testing.T) {
		s := New(0)
		want := errors.New("boom")

		err := s.RunNow(JobFunc{JobName: "fail", Fn: func(ctx context.Context) error { return want }})

		assert.ErrorIs(t, err, want)
	})

	t.Run("success: timeout bounds the job context", func(t *testing.T) {
		s := New(20 * time.Millisecond)

		err := s.RunNow(JobFunc{JobName: "slow", Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}})

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("success: stop cancels the job context", func(t *testing.T) {
		s := New(0)
		s.Stop()

		err := s.RunNow(JobFunc{JobName: "after-stop", Fn: func(ctx context.Context) error { return ctx.Err() }})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
