package schedjobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCronJobMatches(t *testing.T) {
	job := NewHourlyCronJob("purge", 0, nil)
	assert.True(t, job.Matches(time.Date(2025, 3, 5, 14, 0, 30, 0, time.UTC)))
	assert.False(t, job.Matches(time.Date(2025, 3, 5, 14, 1, 0, 0, time.UTC)))

	job.Weekdays = BitsFromWeekdays([]int{int(time.Monday)})
	job.DaysOfMonth = BitsFromDaysOfMonth([]int{3})
	job.Hours = BitsFromHours([]int{9})
	assert.True(t, job.Matches(time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)), "Monday 3rd at 09:00")
	assert.False(t, job.Matches(time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)))
	assert.False(t, job.Matches(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
}

func TestBits(t *testing.T) {
	assert.Equal(t, uint64(0b101), BitsFromMinutes([]int{0, 2, 60, -1}))
	assert.Equal(t, uint32(1), BitsFromDaysOfMonth([]int{1, 0, 32}))
}

func TestTick(t *testing.T) {
	s := NewScheduler(context.Background(), zap.NewNop())
	base := time.Date(2025, 3, 5, 13, 59, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	var cronRuns, onceRuns atomic.Int32
	var finished atomic.Value
	s.AddCronJob(NewHourlyCronJob("hourly", 0, func(context.Context) error {
		cronRuns.Add(1)
		return errors.New("store down")
	}))
	s.OnCronJobFinished = func(_ *CronJob, err error) { finished.Store(err) }
	require.NoError(t, s.AddOneTimeJob(&OneTimeJob{
		ID:       "boot",
		ExecTime: base.Add(45 * time.Second),
		Task: func(context.Context) error {
			onceRuns.Add(1)
			return nil
		},
	}))
	assert.Error(t, s.AddOneTimeJob(&OneTimeJob{ID: "late", ExecTime: base.Add(10 * time.Second)}))
	assert.Equal(t, 1, s.PendingOneTimeJobs())

	s.Tick(base)
	s.Wait()
	assert.Equal(t, int32(0), cronRuns.Load())
	assert.Equal(t, int32(0), onceRuns.Load())

	top := base.Add(time.Minute)
	s.Tick(top)
	s.Tick(top.Add(20 * time.Second)) // same minute
	s.Wait()
	assert.Equal(t, int32(1), cronRuns.Load())
	assert.Equal(t, int32(1), onceRuns.Load())
	assert.Equal(t, 0, s.PendingOneTimeJobs())
	assert.EqualError(t, finished.Load().(error), "store down")
}

func TestTick_RecoversPanics(t *testing.T) {
	s := NewScheduler(context.Background(), zap.NewNop())
	var got error
	job := NewEveryMinEmptyCronJob("boom")
	job.Task = func(context.Context) error { panic("nil map") }
	job.OnFinished = func(err error) { got = err }
	s.AddCronJob(job)

	s.Tick(time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC))
	s.Wait()
	assert.ErrorContains(t, got, "panicked")
}

func TestDeleteJobs(t *testing.T) {
	s := NewScheduler(context.Background(), zap.NewNop())
	s.AddCronJob(NewEveryMinEmptyCronJob("a"))
	s.AddCronJob(NewEveryMinEmptyCronJob("b"))
	s.DeleteCronJob("a")
	jobs := s.GetCronJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "b", jobs[0].ID)

	require.NoError(t, s.AddOneTimeJob(&OneTimeJob{ID: "x", ExecTime: time.Now().Add(time.Hour)}))
	s.DeleteOneTimeJob("x")
	assert.Equal(t, 0, s.PendingOneTimeJobs())
}

func TestServiceLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewScheduler(ctx, zap.NewNop())
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	s.Stop()
	select {
	case err := <-s.Done():
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Error(t, s.Start(), "a stopped scheduler cannot restart")
}
