package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on each tick until ctx is done.
// A tick that arrives while the previous run is still going is skipped.
func Every(ctx context.Context, interval time.Duration, name string, log *zap.SugaredLogger, task Task) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	var busy atomic.Bool
	run := func() {
		if !busy.CompareAndSwap(false, true) {
			log.Debugw("previous run still in progress", "task", name)
			return
		}
		go func() {
			defer busy.Store(false)
			if err := task(ctx); err != nil {
				log.Errorw("task failed", "task", name, "err", err)
			}
		}()
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
