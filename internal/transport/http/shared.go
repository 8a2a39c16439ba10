package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "kiosk/pkg/domain-errors"
)

// writeJSON centralizes the success envelope.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError translates domain errors into the JSON error envelope. Internal
// causes never reach the client verbatim; only the code and its message do.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		message = de.Message
	}

	writeJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": message,
	})
}
