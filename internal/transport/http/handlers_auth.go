package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kiosk/internal/authcode/models"
	dErrors "kiosk/pkg/domain-errors"
)

// AuthService is the coordinator surface the terminal endpoints need.
type AuthService interface {
	IssueCodeForUser(ctx context.Context, userID models.UserID) (models.Code, error)
	VerifyFromTerminal(ctx context.Context, rawCode string) (models.VerifyResult, error)
	RemoveCode(ctx context.Context, code models.Code) (bool, error)
	ActiveCodes(ctx context.Context) (map[models.Code]models.UserID, error)
}

type issueCodeRequest struct {
	UserID int64  `json:"user_id,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

type issueCodeResponse struct {
	Code   string `json:"code"`
	UserID int64  `json:"user_id"`
}

type verifyCodeRequest struct {
	Code string `json:"code"`
}

type verifyCodeResponse struct {
	Authorized   bool   `json:"authorized"`
	Status       string `json:"status"`
	UserID       int64  `json:"user_id,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
}

// handleIssueCode pushes a login/link code for a user identified by id or
// phone and echoes the code back for the terminal to display.
func (h *Handler) handleIssueCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issueCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	userID := models.UserID(req.UserID)
	if userID == 0 {
		if req.Phone == "" {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "user_id or phone is required"))
			return
		}
		user, err := h.users.FindByPhone(ctx, req.Phone)
		if err != nil {
			h.warn(ctx, "issue code: user lookup failed", err)
			writeError(w, err)
			return
		}
		userID = user.ID
	}

	code, err := h.auth.IssueCodeForUser(ctx, userID)
	if err != nil {
		h.warn(ctx, "issue code failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issueCodeResponse{Code: code.String(), UserID: int64(userID)})
}

// handleVerifyCode confirms a code re-entered at the terminal. Handled
// protocol outcomes (mismatch, bad format, lockout) come back as 200 with
// authorized=false so the terminal can drive its re-prompt dialog.
func (h *Handler) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.auth.VerifyFromTerminal(ctx, req.Code)
	if err != nil {
		h.warn(ctx, "terminal verification failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyCodeResponse{
		Authorized:   result.OK(),
		Status:       string(result.Status),
		UserID:       int64(result.UserID),
		SessionToken: result.SessionToken,
	})
}

// handleRemoveCode discards a stale code the terminal displayed.
func (h *Handler) handleRemoveCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code, err := models.ParseCode(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}

	removed, err := h.auth.RemoveCode(ctx, code)
	if err != nil {
		h.warn(ctx, "remove code failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// handleActiveCodes exposes the outstanding code -> user mapping to admins.
func (h *Handler) handleActiveCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active, err := h.auth.ActiveCodes(ctx)
	if err != nil {
		h.warn(ctx, "active codes snapshot failed", err)
		writeError(w, err)
		return
	}

	codes := make(map[string]int64, len(active))
	for code, userID := range active {
		codes[code.String()] = int64(userID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"codes": codes})
}

func (h *Handler) warn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", GetRequestID(ctx),
		"error", err.Error(),
	)
}
