package usecase

import (
	"context"
	"strings"

	"github.com/axokaze/kaze-api/internal/model"
	"github.com/axokaze/kaze-api/internal/repository"
	"github.com/axokaze/kaze-api/shared/auth"
)

// Tokens is an issued access/refresh token pair. Both are opaque strings
// to the transport layer.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// PublicUser is the profile shape safe to return to callers.
type PublicUser struct {
	ID       string
	Name     string
	Email    string
	Verified bool
}

// AuthMailer dispatches the authentication emails.
type AuthMailer interface {
	SendLoginOTP(ctx context.Context, to, code string) error
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

func publicUser(user *model.User) PublicUser {
	return PublicUser{
		ID:       user.ID.Hex(),
		Name:     user.Name,
		Email:    user.Email,
		Verified: user.Verified,
	}
}

// normalizeEmail is applied to every email on the way in; the normalized
// form is the unique lookup key.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// issueTokens generates a fresh token pair for the user and persists the
// refresh token as the single active one, invalidating any predecessor.
func issueTokens(
	ctx context.Context,
	userRepo repository.UserRepository,
	jwtAuth *auth.JWTAuthenticator,
	user *model.User,
) (*Tokens, error) {
	access, refresh, refreshExpiresAt, err := jwtAuth.GenerateTokenPair(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		return nil, err
	}

	if err := userRepo.SetRefreshToken(ctx, user.ID.Hex(), model.RefreshToken{
		Value:     refresh,
		ExpiresAt: refreshExpiresAt,
	}); err != nil {
		return nil, err
	}

	return &Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
