package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

const apiKeyHeader = "X-API-Key"

// requireAPIKey guards the /api/v1 routes. With no key configured every
// request passes and nothing is counted; otherwise each request is recorded
// as an accepted or rejected authentication.
func requireAPIKey(key string, m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(apiKeyHeader)
			ok := got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1
			if m != nil {
				m.RecordAuthRequest(ok)
			}
			switch {
			case got == "":
				sendError(w, "Missing "+apiKeyHeader+" header", http.StatusUnauthorized)
			case !ok:
				sendError(w, "Invalid API key", http.StatusUnauthorized)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func sendSuccess(w http.ResponseWriter, data interface{}) {
	writeResponse(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func sendError(w http.ResponseWriter, message string, statusCode int) {
	writeResponse(w, statusCode, APIResponse{Error: message})
}

// writeResponse encodes the standard envelope. Encoding errors are dropped:
// the status line has already gone out.
func writeResponse(w http.ResponseWriter, statusCode int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
