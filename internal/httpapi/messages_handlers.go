package httpapi

import (
	"errors"
	"net/http"

	"autotasker-engine/internal/mailbox"
)

type MessagesHandler struct {
	Mailbox mailbox.Provider
}

func (h MessagesHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "/messages/")
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_id", "missing message id")
		return
	}

	raw, err := h.Mailbox.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, mailbox.ErrMessageNotFound) {
			WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
			return
		}
		WriteError(w, r, http.StatusBadGateway, "upstream_failed", err.Error())
		return
	}

	ex := mailbox.Extract(raw)
	if !ex.OK() {
		WriteError(w, r, http.StatusUnprocessableEntity, ex.Reason, "message could not be extracted")
		return
	}
	WriteJSON(w, http.StatusOK, ex.Email)
}
