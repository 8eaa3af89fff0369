package handler

import (
	"errors"
	"net/http"

	"github.com/axokaze/kaze-api/internal/payload"
	"github.com/axokaze/kaze-api/internal/usecase"
)

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := UserClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	profile, err := h.profileUsecase.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "user not found")
			return
		}
		h.internalError(w, err, "failed to fetch profile")
		return
	}

	writeJSON(w, http.StatusOK, payload.ProfileResponse{
		Message: "profile fetched successfully",
		User:    userResponse(*profile),
	})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := UserClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req payload.UpdateProfileRequest
	if !h.validator.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.profileUsecase.UpdateProfile(r.Context(), usecase.UpdateProfileParams{
		UserID:          claims.UserID,
		Name:            req.Name,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "user not found")
		case errors.Is(err, usecase.ErrInvalidCredentials):
			writeMessage(w, http.StatusUnauthorized, "current password is incorrect")
		case errors.Is(err, usecase.ErrEmailTaken):
			writeMessage(w, http.StatusConflict, "email is already taken")
		default:
			h.internalError(w, err, "failed to update profile")
		}
		return
	}

	resp := payload.ProfileResponse{
		Message: "profile updated successfully",
		User:    userResponse(result.User),
	}
	if result.Tokens != nil {
		tokens := tokensResponse(*result.Tokens)
		resp.Tokens = &tokens
	}

	writeJSON(w, http.StatusOK, resp)
}
