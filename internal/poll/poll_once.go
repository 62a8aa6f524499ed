package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/events"
	"autotasker-engine/internal/pipeline"
)

var ErrAlreadyRunning = errors.New("sync already running")

// RunFunc performs one sync. It is rebuilt per call so config changes apply.
type RunFunc func(ctx context.Context, p pipeline.Params) (domain.SyncSummary, error)

type Status struct {
	LastRunAt   string              `json:"last_run_at"`
	LastOkAt    string              `json:"last_ok_at"`
	LastError   string              `json:"last_error"`
	LastSummary *domain.SyncSummary `json:"last_summary,omitempty"`
	Running     bool                `json:"running"`
}

// Runner serializes sync runs and tracks the last outcome.
type Runner struct {
	run     RunFunc
	hub     *events.Hub
	log     *zap.SugaredLogger
	timeout time.Duration

	running atomic.Bool
	status  atomic.Value // Status
}

func NewRunner(run RunFunc, hub *events.Hub, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	r := &Runner{run: run, hub: hub, log: log, timeout: 10 * time.Minute}
	r.status.Store(Status{})
	return r
}

func (r *Runner) Status() Status {
	return r.status.Load().(Status)
}

// RunOnce runs a sync in the caller's goroutine. It fails fast with
// ErrAlreadyRunning instead of queueing behind another run.
func (r *Runner) RunOnce(ctx context.Context, reqID string, p pipeline.Params) (domain.SyncSummary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return domain.SyncSummary{}, ErrAlreadyRunning
	}
	defer r.running.Store(false)

	st := r.Status()
	st.Running = true
	st.LastRunAt = time.Now().Format(time.RFC3339)
	r.status.Store(st)
	r.hub.Emit(reqID, events.TypeSyncStarted, p)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	sum, err := r.run(ctx, p)

	st = r.Status()
	st.Running = false
	if err != nil {
		st.LastError = err.Error()
		r.status.Store(st)
		r.log.Errorw("sync failed", "err", err, "dur_ms", time.Since(start).Milliseconds())
		r.hub.Emit(reqID, events.TypeSyncFailed, map[string]string{"error": err.Error()})
		return domain.SyncSummary{}, err
	}

	st.LastError = ""
	st.LastOkAt = time.Now().Format(time.RFC3339)
	st.LastSummary = &sum
	r.status.Store(st)
	r.log.Infow("sync ok",
		"fetched", sum.FetchedCount,
		"added", sum.AddedCount,
		"events", sum.EventsCreated,
		"dur_ms", time.Since(start).Milliseconds(),
	)
	r.hub.Emit(reqID, events.TypeSyncCompleted, sum)
	return sum, nil
}

// Start runs a sync in the background. It reports false if one is already running.
func (r *Runner) Start(reqID string, p pipeline.Params) bool {
	if r.running.Load() {
		return false
	}
	go func() {
		if _, err := r.RunOnce(context.Background(), reqID, p); errors.Is(err, ErrAlreadyRunning) {
			r.log.Debugw("sync start raced with another run")
		}
	}()
	return true
}
