// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/spacedog-labs/wikiracer/internal/fault"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the fault taxonomy onto HTTP statuses. Business-rule
// violations carry their reason string; plain errors become a 500.
func writeError(w http.ResponseWriter, err error) {
	kind, ok := fault.KindOf(err)
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	status := http.StatusInternalServerError
	switch kind {
	case fault.NotFound:
		status = http.StatusNotFound
	case fault.Forbidden:
		status = http.StatusForbidden
	case fault.InvalidState, fault.InvalidInput:
		status = http.StatusBadRequest
	case fault.Conflict:
		status = http.StatusConflict
	case fault.Upstream:
		status = http.StatusBadGateway
	}
	http.Error(w, fault.Reason(err), status)
}
