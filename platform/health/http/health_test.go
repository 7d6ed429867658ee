package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	tests := []struct {
		name      string
		readiness func() bool
		wantCode  int
		wantBody  string
	}{
		{name: "no readiness", readiness: nil, wantCode: http.StatusOK, wantBody: `{"status":"ok"}`},
		{name: "ready", readiness: func() bool { return true }, wantCode: http.StatusOK, wantBody: `{"status":"ok"}`},
		{name: "not ready", readiness: func() bool { return false }, wantCode: http.StatusServiceUnavailable, wantBody: `{"status":"not ready"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Handler(tt.readiness)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.wantCode, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			require.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
