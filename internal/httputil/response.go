package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the uniform JSON error envelope every handler returns.
type ErrorBody struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Status line is already on the wire; all we can do is log.
		slog.Error("httputil: response encoding failed", "error", err)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Error: message})
}
