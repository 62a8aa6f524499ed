package poll

import (
	"context"
	"errors"
	"time"

	"autotasker-engine/internal/pipeline"
	"autotasker-engine/internal/scheduler"
)

// StartPoller syncs every interval until ctx is done. params is read on each tick.
func StartPoller(ctx context.Context, r *Runner, interval time.Duration, params func() pipeline.Params) {
	if interval <= 0 {
		return
	}
	go scheduler.Every(ctx, interval, "sync", r.log, func(ctx context.Context) error {
		_, err := r.RunOnce(ctx, "", params())
		if errors.Is(err, ErrAlreadyRunning) {
			return nil
		}
		return err
	})
}
