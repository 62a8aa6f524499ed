package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"autotasker-engine/internal/config"
	"autotasker-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal    *atomic.Value // stores config.Config
	SetAPIKey func(key string) error
}

type setIMAPPasswordReq struct {
	Password string `json:"password"`
}

type setAPIKeyReq struct {
	Key string `json:"key"`
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setIMAPPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetIMAPPassword(secrets.IMAPKeyringAccount(cfg), req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, "store_failed", "failed to store password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) SetClassifierKey(w http.ResponseWriter, r *http.Request) {
	var req setAPIKeyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	set := h.SetAPIKey
	if set == nil {
		set = secrets.SetAPIKey
	}
	if err := set(req.Key); err != nil {
		WriteError(w, r, http.StatusBadRequest, "store_failed", "failed to store api key: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
