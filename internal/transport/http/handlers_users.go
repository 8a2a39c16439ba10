package httptransport

import (
	"encoding/json"
	"net/http"

	"kiosk/internal/directory"
	directoryservice "kiosk/internal/directory/service"
	dErrors "kiosk/pkg/domain-errors"
)

type registerRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MiddleName string `json:"middle_name,omitempty"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	AdConsent  bool   `json:"ad_consent"`
}

type userResponse struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MiddleName string `json:"middle_name,omitempty"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	AdConsent  bool   `json:"ad_consent"`
	Linked     bool   `json:"linked"`
}

func toUserResponse(u directory.User) userResponse {
	return userResponse{
		ID:         int64(u.ID),
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		MiddleName: u.MiddleName,
		Phone:      u.Phone,
		Email:      u.Email,
		Address:    u.Address,
		AdConsent:  u.AdConsent,
		Linked:     u.Linked(),
	}
}

// handleRegisterUser creates a subscriber record from the terminal's
// registration form.
func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.registrations.Register(ctx, directoryservice.Registration{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
		AdConsent:  req.AdConsent,
	})
	if err != nil {
		h.warn(ctx, "user registration failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(*user))
}
