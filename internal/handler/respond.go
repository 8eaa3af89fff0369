package handler

import (
	"encoding/json"
	"net/http"

	"github.com/axokaze/kaze-api/internal/payload"
	"github.com/axokaze/kaze-api/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, payload.MessageResponse{Message: message})
}

func userResponse(user usecase.PublicUser) payload.UserResponse {
	return payload.UserResponse{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Verified: user.Verified,
	}
}

func tokensResponse(tokens usecase.Tokens) payload.TokensResponse {
	return payload.TokensResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}
}
