package httpapi

import (
	"errors"
	"net/http"

	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/events"
	"autotasker-engine/internal/reminders"
)

type RemindersHandler struct {
	Reminders Reminders
	Hub       *events.Hub
}

func (h RemindersHandler) List(w http.ResponseWriter, r *http.Request) {
	evs, err := h.Reminders.Upcoming(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if evs == nil {
		evs = []domain.CalendarEvent{}
	}
	WriteJSON(w, http.StatusOK, evs)
}

// Create schedules reminders for a posted list of job records.
// Per-item failures are reported in the body; the request itself still succeeds.
func (h RemindersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var jobs []domain.JobRecord
	if err := decodeStrict(r, &jobs); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	out := h.Reminders.Schedule(r.Context(), jobs)
	if len(out.Created) > 0 {
		h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeRemindersCreated, map[string]int{"count": len(out.Created)})
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h RemindersHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "/reminders/")
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "missing event id")
		return
	}

	if err := h.Reminders.Remove(r.Context(), id); err != nil {
		if errors.Is(err, reminders.ErrEventNotFound) {
			WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
			return
		}
		writeErr(w, r, err)
		return
	}

	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeReminderDeleted, map[string]string{"id": id})
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}
