package http

import (
	"encoding/json"
	"net/http"
)

type status struct {
	Status string `json:"status"`
}

// Handler возвращает handler для GET /health
// Без readiness или при readiness() == true отвечает 200 {"status":"ok"},
// иначе 503 {"status":"not ready"}
func Handler(readiness func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if readiness != nil && !readiness() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(status{Status: "not ready"})
			return
		}
		_ = json.NewEncoder(w).Encode(status{Status: "ok"})
	}
}
