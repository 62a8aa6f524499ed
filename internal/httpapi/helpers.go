package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"autotasker-engine/internal/domain"
)

func methodMux(m map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

// pathID returns the single path segment after prefix, or "" if there is none.
func pathID(r *http.Request, prefix string) string {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data")
	}
	return nil
}

// statusFor maps domain errors onto HTTP codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, domain.ErrStoreNotFound):
		return http.StatusNotFound, "store_not_found"
	case errors.Is(err, domain.ErrFetch), errors.Is(err, domain.ErrSyncWrite):
		return http.StatusBadGateway, "upstream_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	WriteError(w, r, status, code, err.Error())
}
