package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alumnihub/gradimport/internal/core"
	"github.com/alumnihub/gradimport/internal/logging"
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code,omitempty"`
}

// respondError maps an internal error to a user-facing message, logs the
// original error with the request ID, and writes a JSON error response.
func respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request failed",
		"error", err,
		"code", userMsg.Code,
		"status", status,
		"path", r.URL.Path,
	)

	writeJSON(w, status, ErrorResponse{
		Error:   true,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are already out, nothing more to do
		slog.Error("encode response", "error", err)
	}
}
