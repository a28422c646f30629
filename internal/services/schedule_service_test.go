package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mutuo/internal/amortization"
	"mutuo/internal/core"
	applog "mutuo/internal/log"
)

func mustParams(t *testing.T, loan, rate, years float64) core.LoanParams {
	t.Helper()
	p, err := core.NewLoanParams(loan, rate, years)
	require.NoError(t, err)
	return p
}

func countingGenerator(calls *int64) GenerateFunc {
	return func(p core.LoanParams) (amortization.Schedule, error) {
		atomic.AddInt64(calls, 1)
		return amortization.Generate(p)
	}
}

func TestScheduleService_Compute(t *testing.T) {
	t.Run("matches the generator", func(t *testing.T) {
		svc := NewScheduleService(8, time.Minute)
		p := mustParams(t, 100000, 3, 30)

		got, err := svc.Compute(context.Background(), p)
		require.NoError(t, err)

		want, err := amortization.Generate(p)
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
	})

	t.Run("second call is served from cache", func(t *testing.T) {
		var calls int64
		svc := NewScheduleService(8, time.Minute, WithGenerator(countingGenerator(&calls)))
		p := mustParams(t, 80000, 2, 15)

		_, err := svc.Compute(context.Background(), p)
		require.NoError(t, err)
		_, err = svc.Compute(context.Background(), mustParams(t, 80000, 2.0, 15))
		require.NoError(t, err)

		assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
		assert.Equal(t, int64(1), svc.Stats().Hits)
	})

	t.Run("invalid params are rejected before generation", func(t *testing.T) {
		var calls int64
		svc := NewScheduleService(8, time.Minute, WithGenerator(countingGenerator(&calls)))

		_, err := svc.Compute(context.Background(), core.LoanParams{Years: 15})
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		assert.Zero(t, atomic.LoadInt64(&calls))
	})

	t.Run("generator errors are wrapped and not cached", func(t *testing.T) {
		boom := errors.New("boom")
		var calls int64
		svc := NewScheduleService(8, time.Minute, WithGenerator(func(core.LoanParams) (amortization.Schedule, error) {
			atomic.AddInt64(&calls, 1)
			return amortization.Schedule{}, boom
		}))
		p := mustParams(t, 1000, 1, 1)

		_, err := svc.Compute(context.Background(), p)
		assert.ErrorIs(t, err, boom)
		_, err = svc.Compute(context.Background(), p)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
		assert.Zero(t, svc.Cache().Size())
	})

	t.Run("cancelled context", func(t *testing.T) {
		svc := NewScheduleService(8, time.Minute)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.Compute(ctx, mustParams(t, 1000, 1, 1))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestScheduleService_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelDebug, Output: &buf})

	t.Run("computed and cached schedules", func(t *testing.T) {
		buf.Reset()
		svc := NewScheduleService(8, time.Minute, WithLogger(logger))
		p := mustParams(t, 80000, 2, 15)

		_, err := svc.Compute(context.Background(), p)
		require.NoError(t, err)
		_, err = svc.Compute(context.Background(), p)
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "component=schedule")
		assert.Contains(t, out, "operation=compute")
		assert.Contains(t, out, "monthly_payment=")
		assert.Contains(t, out, "cache_hit=false")
		assert.Contains(t, out, "cache_hit=true")
	})

	t.Run("generator failure", func(t *testing.T) {
		buf.Reset()
		svc := NewScheduleService(8, time.Minute, WithLogger(logger),
			WithGenerator(func(core.LoanParams) (amortization.Schedule, error) {
				return amortization.Schedule{}, errors.New("boom")
			}))

		_, err := svc.Compute(context.Background(), mustParams(t, 1000, 1, 1))
		require.Error(t, err)

		out := buf.String()
		assert.Contains(t, out, "level=ERROR")
		assert.Contains(t, out, "error=boom")
		assert.Contains(t, out, "years=1")
	})
}

func TestScheduleService_ConcurrentCallers(t *testing.T) {
	var calls int64
	release := make(chan struct{})
	svc := NewScheduleService(8, time.Minute, WithGenerator(func(p core.LoanParams) (amortization.Schedule, error) {
		atomic.AddInt64(&calls, 1)
		<-release
		return amortization.Generate(p)
	}))
	p := mustParams(t, 250000, 4.5, 25)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]amortization.Schedule, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := svc.Compute(context.Background(), p)
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}

	// Let the callers pile up on the in-flight generation.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&calls), int64(callers))
	assert.GreaterOrEqual(t, atomic.LoadInt64(&calls), int64(1))
	for _, s := range results {
		assert.Equal(t, 300, s.Len())
		assert.True(t, results[0].Equal(s))
	}
}
