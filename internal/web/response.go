// internal/web/response.go
//
// JSON response envelope shared by every API handler.  The editor frontend
// keys off the `success` flag, so both success and error paths use the same
// shape.
package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		zap.S().Errorw("response encode failed", "err", err)
	}
}

// respondOK writes a success envelope.
func respondOK(w http.ResponseWriter, status int, data any, message string) {
	respond(w, status, envelope{Success: true, Message: message, Data: data})
}

// respondErr writes an error envelope.
func respondErr(w http.ResponseWriter, status int, message string) {
	respond(w, status, envelope{Success: false, Message: message})
}
