package handler

import (
	"errors"
	"net/http"

	"github.com/axokaze/kaze-api/internal/payload"
	"github.com/axokaze/kaze-api/internal/usecase"
)

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if !h.validator.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.passwordResetUsecase.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailDelivery) {
			h.logger.Error().Err(err).Msg("failed to send password reset email")
			writeMessage(w, http.StatusBadGateway, "failed to send password reset email, please try again")
			return
		}
		h.internalError(w, err, "failed to request password reset")
		return
	}

	// Same response whether or not the account exists.
	writeMessage(w, http.StatusOK, "if this email exists, a password reset link has been sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if !h.validator.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.passwordResetUsecase.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrResetTokenInvalid):
			writeMessage(w, http.StatusBadRequest, "invalid or expired password reset token")
		case errors.Is(err, usecase.ErrPasswordTooShort):
			writeMessage(w, http.StatusBadRequest, usecase.ErrPasswordTooShort.Error())
		default:
			h.internalError(w, err, "failed to reset password")
		}
		return
	}

	writeMessage(w, http.StatusOK, "password has been reset, please log in with your new password")
}
