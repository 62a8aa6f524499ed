package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"autotasker-engine/internal/events"
)

type JobsHandler struct {
	Tracker Tracker
	StoreID func(ctx context.Context) (string, error)
	Hub     *events.Hub
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := h.StoreID(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	jobs, err := h.Tracker.ReadRows(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

// UpdateStatusByPath expects PATCH /jobs/{row} with {"status": "..."}.
func (h JobsHandler) UpdateStatusByPath(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(pathID(r, "/jobs/"))
	if err != nil || row < 2 {
		WriteError(w, r, http.StatusBadRequest, "invalid_row", "row must be an integer >= 2")
		return
	}

	var req updateStatusReq
	if err := decodeStrict(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	id, err := h.StoreID(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.Tracker.UpdateStatus(r.Context(), id, row, req.Status); err != nil {
		writeErr(w, r, err)
		return
	}

	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeJobStatusUpdated, map[string]any{"row": row, "status": req.Status})
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "row": row, "status": req.Status})
}
