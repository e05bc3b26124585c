package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sharinghood-api/internal/application/auth"
)

// PasswordRecoveryHandler handles the emailed OTP flow.
type PasswordRecoveryHandler struct {
	svc auth.Service
}

func NewPasswordRecoveryHandler(svc auth.Service) *PasswordRecoveryHandler {
	return &PasswordRecoveryHandler{svc: svc}
}

func (h *PasswordRecoveryHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request":
		var req auth.PasswordRecoveryRequest
		if !decode(w, r, &req) {
			return
		}
		if err := h.svc.RequestPasswordRecovery(r.Context(), req); err != nil {
			writeServiceError(w, r, err)
			return
		}
		// Same answer whether or not the account exists.
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "if the account exists, a code was sent"})
	case "validate-code":
		var req auth.ValidateOTPRequest
		if !decode(w, r, &req) {
			return
		}
		result, err := h.svc.ValidateOTP(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, authEnvelope(result))
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

// ChangePassword sets a new password without the current one. The service
// answers 403 unless validate-code was passed for this user.
func (h *PasswordRecoveryHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req auth.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), userID, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password changed"})
}
