package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "kiosk/pkg/domain-errors"
)

type adminLoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type adminLoginResponse struct {
	SessionToken string `json:"session_token"`
}

// handleAdminLogin exchanges admin credentials for a session token.
func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	signed, err := h.admins.Authenticate(ctx, req.Phone, req.Password)
	if err != nil {
		h.warn(ctx, "admin login failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, adminLoginResponse{SessionToken: signed})
}
