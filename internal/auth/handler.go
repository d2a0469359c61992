package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/glowdesk/platform/internal/http/respond"
	"github.com/glowdesk/platform/internal/users"
	"github.com/glowdesk/platform/pkg/logging"
)

// UserSource resolves verified phone numbers to accounts.
type UserSource interface {
	GetOrCreateByPhone(ctx context.Context, phone string) (*users.User, error)
}

// SMSSender delivers the login code to the phone.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// Handler handles HTTP requests for phone login.
type Handler struct {
	otp    *OTPStore
	tokens *TokenIssuer
	users  UserSource
	sms    SMSSender
	logger *logging.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(otp *OTPStore, tokens *TokenIssuer, userSrc UserSource, sms SMSSender, logger *logging.Logger) *Handler {
	if otp == nil || tokens == nil || userSrc == nil || sms == nil {
		panic("auth: otp store, token issuer, user source and sms sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{otp: otp, tokens: tokens, users: userSrc, sms: sms, logger: logger}
}

// RequestOTPBody asks for a login code.
type RequestOTPBody struct {
	Phone string `json:"phone"`
}

// RequestOTP handles POST /auth/otp/request. The code only ever travels over
// SMS; the response body never contains it.
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req RequestOTPBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_phone", "phone must be a valid number")
		return
	}

	code, err := h.otp.Issue(r.Context(), phone)
	if err != nil {
		h.logger.Error("failed to issue otp", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to issue code")
		return
	}
	if err := h.sms.Send(r.Context(), phone, fmt.Sprintf("Your GlowDesk login code is %s", code)); err != nil {
		h.logger.Error("failed to send otp sms", "error", err)
		respond.Error(w, http.StatusBadGateway, "sms_failed", "could not deliver the code")
		return
	}
	respond.JSON(w, http.StatusAccepted, map[string]string{"message": "code sent"})
}

// VerifyOTPBody exchanges a code for a token.
type VerifyOTPBody struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyOTP handles POST /auth/otp/verify. A verified number gets an account
// on first login.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_phone", "phone must be a valid number")
		return
	}

	if err := h.otp.Verify(r.Context(), phone, req.Code); err != nil {
		switch {
		case errors.Is(err, ErrCodeMismatch), errors.Is(err, ErrCodeExpired):
			respond.Error(w, http.StatusUnauthorized, "invalid_code", "code is invalid or expired")
		case errors.Is(err, ErrTooManyAttempts):
			respond.Error(w, http.StatusTooManyRequests, "too_many_attempts", "too many attempts, request a new code")
		default:
			h.logger.Error("otp verification failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "internal", "verification failed")
		}
		return
	}

	user, err := h.users.GetOrCreateByPhone(r.Context(), phone)
	if err != nil {
		h.logger.Error("failed to load user after otp", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to load account")
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("failed to sign token", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}
