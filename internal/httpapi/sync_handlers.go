package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"autotasker-engine/internal/config"
	"autotasker-engine/internal/pipeline"
	"autotasker-engine/internal/poll"
	"autotasker-engine/internal/sheets"
)

type SyncHandler struct {
	Runner *poll.Runner
	Params func() pipeline.Params
}

func (h SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Runner.Status())
}

// Run starts a sync. ?days= and ?max= override the configured window.
// With ?wait=1 the call blocks and returns the summary.
func (h SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	p := h.Params()
	q := r.URL.Query()
	for key, dst := range map[string]*int{"days": &p.DaysBack, "max": &p.MaxResults} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "invalid_argument", key+" must be a positive integer")
			return
		}
		*dst = n
	}

	reqID := RequestIDFrom(r.Context())

	if wait, _ := strconv.ParseBool(q.Get("wait")); wait {
		sum, err := h.Runner.RunOnce(r.Context(), reqID, p)
		if errors.Is(err, poll.ErrAlreadyRunning) {
			WriteError(w, r, http.StatusConflict, "already_running", err.Error())
			return
		}
		if err != nil {
			writeErr(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, sum)
		return
	}

	if !h.Runner.Start(reqID, p) {
		WriteError(w, r, http.StatusConflict, "already_running", poll.ErrAlreadyRunning.Error())
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "request_id": reqID})
}

type SheetsHandler struct {
	Tracker Tracker
	CfgVal  *atomic.Value // config.Config
}

func (h SheetsHandler) Init(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	id, err := h.Tracker.EnsureStore(r.Context(), cfg.Sync.SheetTitle)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"spreadsheet_id": id,
		"url":            sheets.URL(id),
	})
}

// StoreIDFromConfig resolves the sheet named in the current config on each call.
func StoreIDFromConfig(t Tracker, cfgVal *atomic.Value) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		cfg := cfgVal.Load().(config.Config)
		return t.EnsureStore(ctx, cfg.Sync.SheetTitle)
	}
}
