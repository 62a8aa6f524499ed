package poll_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/events"
	"autotasker-engine/internal/pipeline"
	"autotasker-engine/internal/poll"
)

func eventType(t *testing.T, raw string) string {
	t.Helper()
	var e events.Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	return e.Type
}

func TestRunOnceTracksStatusAndPublishes(t *testing.T) {
	hub := events.NewHub()
	ch := hub.Subscribe()
	want := domain.SyncSummary{FetchedCount: 2, AddedCount: 2, Errors: []domain.ItemError{}}

	r := poll.NewRunner(func(context.Context, pipeline.Params) (domain.SyncSummary, error) {
		return want, nil
	}, hub, nil)

	got, err := r.RunOnce(context.Background(), "req", pipeline.Params{DaysBack: 7, MaxResults: 50})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	st := r.Status()
	assert.False(t, st.Running)
	assert.Empty(t, st.LastError)
	assert.NotEmpty(t, st.LastOkAt)
	require.NotNil(t, st.LastSummary)
	assert.Equal(t, 2, st.LastSummary.AddedCount)

	assert.Equal(t, events.TypeSyncStarted, eventType(t, <-ch))
	assert.Equal(t, events.TypeSyncCompleted, eventType(t, <-ch))
}

func TestRunOnceFailure(t *testing.T) {
	hub := events.NewHub()
	ch := hub.Subscribe()
	r := poll.NewRunner(func(context.Context, pipeline.Params) (domain.SyncSummary, error) {
		return domain.SyncSummary{}, domain.ErrFetch
	}, hub, nil)

	_, err := r.RunOnce(context.Background(), "", pipeline.Params{})
	assert.True(t, errors.Is(err, domain.ErrFetch))
	assert.Equal(t, domain.ErrFetch.Error(), r.Status().LastError)

	<-ch
	assert.Equal(t, events.TypeSyncFailed, eventType(t, <-ch))
}

func TestRunOnceRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	r := poll.NewRunner(func(context.Context, pipeline.Params) (domain.SyncSummary, error) {
		close(entered)
		<-release
		return domain.SyncSummary{}, nil
	}, nil, nil)

	require.True(t, r.Start("", pipeline.Params{}))
	<-entered
	assert.True(t, r.Status().Running)

	_, err := r.RunOnce(context.Background(), "", pipeline.Params{})
	assert.True(t, errors.Is(err, poll.ErrAlreadyRunning))
	assert.False(t, r.Start("", pipeline.Params{}))

	close(release)
	assert.Eventually(t, func() bool { return !r.Status().Running }, time.Second, 5*time.Millisecond)
}

func TestStartPoller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	r := poll.NewRunner(func(_ context.Context, p pipeline.Params) (domain.SyncSummary, error) {
		assert.Equal(t, 3, p.DaysBack)
		calls.Add(1)
		return domain.SyncSummary{}, nil
	}, nil, nil)

	poll.StartPoller(ctx, r, 5*time.Millisecond, func() pipeline.Params {
		return pipeline.Params{DaysBack: 3, MaxResults: 10}
	})
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
