package middlewares

import (
	"encoding/json"
	"net/http"
)

// writeError answers with the same {"error": ...} body the API handlers use,
// tagged with the request id when one is set
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	body := map[string]string{"error": message}
	if id := GetRequestID(r.Context()); id != "" {
		body["requestId"] = id
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
