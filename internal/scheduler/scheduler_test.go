package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/testutil"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, today time.Time) (engine.Report, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(engine.Report), args.Error(1)
}

func (m *mockRunner) Today() time.Time {
	return m.Called().Get(0).(time.Time)
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) AcquireRunLock(ctx context.Context, name, owner string, ttl time.Duration, now time.Time) error {
	return m.Called(ctx, name, owner, ttl, now).Error(0)
}

func (m *mockLocker) ReleaseRunLock(ctx context.Context, name, owner string) error {
	return m.Called(ctx, name, owner).Error(0)
}

var now = time.Date(2023, 6, 15, 9, 30, 0, 0, time.UTC)

func newScheduler(r Runner, l Locker, opts ...Option) *Scheduler {
	base := []Option{
		WithClock(testutil.NewFixedClock(now)),
		WithOwner("owner-1"),
		WithLogger(zerolog.Nop()),
	}
	return New(r, l, append(base, opts...)...)
}

func TestNext(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name         string
		loc          *time.Location
		hour, minute int
		now          time.Time
		want         time.Time
	}{
		{
			name: "later today",
			loc:  time.UTC, hour: 14, minute: 0,
			now:  now,
			want: time.Date(2023, 6, 15, 14, 0, 0, 0, time.UTC),
		},
		{
			name: "already passed today",
			loc:  time.UTC, hour: 2, minute: 0,
			now:  now,
			want: time.Date(2023, 6, 16, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at run time moves to tomorrow",
			loc:  time.UTC, hour: 9, minute: 30,
			now:  now,
			want: time.Date(2023, 6, 16, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			loc:  time.UTC, hour: 1, minute: 0,
			now:  time.Date(2023, 6, 30, 23, 0, 0, 0, time.UTC),
			want: time.Date(2023, 7, 1, 1, 0, 0, 0, time.UTC),
		},
		{
			name: "reference zone",
			loc:  ny, hour: 2, minute: 0,
			// 09:30 UTC is 05:30 in New York.
			now:  now,
			want: time.Date(2023, 6, 16, 2, 0, 0, 0, ny),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScheduler(nil, nil, WithLocation(tt.loc), WithRunAt(tt.hour, tt.minute))
			got := s.Next(tt.now)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestRunOnce(t *testing.T) {
	runner := &mockRunner{}
	locker := &mockLocker{}
	today := testutil.Day("2023-06-15")
	rep := engine.Report{Today: "2023-06-15"}
	rep.Generation.Created = 2

	locker.On("AcquireRunLock", mock.Anything, LockName, "owner-1", 5*time.Minute, now).Return(nil).Once()
	runner.On("Today").Return(today)
	runner.On("Run", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= time.Minute
	}), today).Return(rep, nil).Once()
	locker.On("ReleaseRunLock", mock.Anything, LockName, "owner-1").Return(nil).Once()

	s := newScheduler(runner, locker, WithTimeout(time.Minute), WithLockTTL(5*time.Minute))
	got, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Generation.Created)

	runner.AssertExpectations(t)
	locker.AssertExpectations(t)
}

func TestRunOnceLockHeld(t *testing.T) {
	runner := &mockRunner{}
	locker := &mockLocker{}
	held := errors.New("lock held")

	locker.On("AcquireRunLock", mock.Anything, LockName, "owner-1", mock.Anything, now).Return(held)

	s := newScheduler(runner, locker)
	_, err := s.RunOnce(context.Background())
	require.ErrorIs(t, err, held)

	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	locker.AssertNotCalled(t, "ReleaseRunLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunOnceReleasesOnFailure(t *testing.T) {
	runner := &mockRunner{}
	locker := &mockLocker{}
	today := testutil.Day("2023-06-15")

	locker.On("AcquireRunLock", mock.Anything, LockName, "owner-1", mock.Anything, now).Return(nil)
	runner.On("Today").Return(today)
	runner.On("Run", mock.Anything, today).Return(engine.Report{}, engine.ErrUnavailable)
	locker.On("ReleaseRunLock", mock.Anything, LockName, "owner-1").Return(nil).Once()

	s := newScheduler(runner, locker)
	_, err := s.RunOnce(context.Background())
	require.ErrorIs(t, err, engine.ErrUnavailable)
	locker.AssertExpectations(t)
}

func TestStartRunsAtTriggerAndStopsOnCancel(t *testing.T) {
	runner := &mockRunner{}
	locker := &mockLocker{}
	today := testutil.Day("2023-06-15")
	ran := make(chan struct{}, 1)

	locker.On("AcquireRunLock", mock.Anything, LockName, "owner-1", mock.Anything, now).Return(nil)
	locker.On("ReleaseRunLock", mock.Anything, LockName, "owner-1").Return(nil)
	runner.On("Today").Return(today)
	runner.On("Run", mock.Anything, today).Return(engine.Report{}, nil).Run(func(mock.Arguments) {
		ran <- struct{}{}
	})

	var (
		mu    sync.Mutex
		waits []time.Duration
	)
	ticks := make(chan time.Time)
	after := func(d time.Duration) <-chan time.Time {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return ticks
	}

	s := newScheduler(runner, locker, WithRunAt(14, 0), WithTimer(after))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	ticks <- now
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("run was not triggered")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, waits)
	assert.Equal(t, 4*time.Hour+30*time.Minute, waits[0])
	runner.AssertNumberOfCalls(t, "Run", 1)
}

func TestStartReturnsWhenCancelledBeforeTrigger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newScheduler(&mockRunner{}, &mockLocker{}, WithTimer(func(time.Duration) <-chan time.Time {
		return make(chan time.Time)
	}))
	require.NoError(t, s.Start(ctx))
}

func TestDefaultOwnerIsUnique(t *testing.T) {
	a := New(nil, nil)
	b := New(nil, nil)
	assert.NotEmpty(t, a.Owner())
	assert.NotEqual(t, a.Owner(), b.Owner())
}
