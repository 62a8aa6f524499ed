package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	// Jobs
	jh := JobsHandler{Tracker: d.Tracker, StoreID: d.StoreID, Hub: d.Hub}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodPatch: jh.UpdateStatusByPath, // expects /jobs/{row}
	}))

	// Reminders
	rh := RemindersHandler{Reminders: d.Reminders, Hub: d.Hub}
	mux.HandleFunc("/reminders", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  rh.List,
		http.MethodPost: rh.Create,
	}))
	mux.HandleFunc("/reminders/", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: rh.DeleteByPath,
	}))

	// Messages
	mh := MessagesHandler{Mailbox: d.Mailbox}
	mux.HandleFunc("/messages/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: mh.GetByPath,
	}))

	// Sync
	sh := SyncHandler{Runner: d.Runner, Params: d.Params}
	mux.HandleFunc("/sync/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.Status,
	}))
	mux.HandleFunc("/sync/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Run,
	}))

	shh := SheetsHandler{Tracker: d.Tracker, CfgVal: d.CfgVal}
	mux.HandleFunc("/sheets/init", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: shh.Init,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sec := SecretsHandler{CfgVal: d.CfgVal, SetAPIKey: d.SetAPIKey}
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sec.SetIMAPPassword,
	}))
	mux.HandleFunc("/api/secrets/api-key", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sec.SetClassifierKey,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// Handler wraps mux with the standard middleware stack.
func Handler(mux http.Handler, log *zap.SugaredLogger) http.Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return Chain(mux, RequestID, Recover(log), AccessLog(log), Cors)
}
