package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/axokaze/kaze-api/internal/repository"
	"github.com/axokaze/kaze-api/shared/auth"
	"github.com/axokaze/kaze-api/shared/security"
)

// ProfileUsecase defines the business logic for profile operations.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID string) (*PublicUser, error)

	// UpdateProfile applies the non-nil field changes after verifying the
	// current password. If the identity changed, a fresh token pair is
	// returned and the old refresh token is superseded.
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (*ProfileUpdateResult, error)
}

// UpdateProfileParams defines the optional field changes for a profile
// update. A nil field is left unchanged; the current password is always
// required.
type UpdateProfileParams struct {
	UserID          string
	Name            *string
	Email           *string
	CurrentPassword string
}

// ProfileUpdateResult carries the updated profile and, when the identity
// changed, the re-issued token pair.
type ProfileUpdateResult struct {
	User   PublicUser
	Tokens *Tokens
}

type profileUsecase struct {
	userRepo repository.UserRepository
	jwtAuth  *auth.JWTAuthenticator
}

func NewProfileUsecase(userRepo repository.UserRepository, jwtAuth *auth.JWTAuthenticator) ProfileUsecase {
	return &profileUsecase{
		userRepo: userRepo,
		jwtAuth:  jwtAuth,
	}
}

func (u *profileUsecase) GetProfile(ctx context.Context, userID string) (*PublicUser, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	profile := publicUser(user)
	return &profile, nil
}

func (u *profileUsecase) UpdateProfile(ctx context.Context, params UpdateProfileParams) (*ProfileUpdateResult, error) {
	user, err := u.userRepo.GetUser(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// The current password gates every change, even a name-only one.
	if ok, err := security.VerifyPassword(params.CurrentPassword, user.PasswordHash); err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	updateParams := repository.UpdateUserParams{}
	if params.Name != nil && *params.Name != user.Name {
		updateParams.Name = params.Name
	}
	if params.Email != nil {
		if email := normalizeEmail(*params.Email); email != user.Email {
			existing, err := u.userRepo.GetUserByEmail(ctx, email)
			if err == nil && existing.ID != user.ID {
				return nil, ErrEmailTaken
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			updateParams.Email = &email
		}
	}

	if updateParams.Name == nil && updateParams.Email == nil {
		profile := publicUser(user)
		return &ProfileUpdateResult{User: profile}, nil
	}

	updated, err := u.userRepo.UpdateUser(ctx, user.ID.Hex(), updateParams)
	if err != nil {
		// The unique index is the last word on email ownership; the
		// pre-check above only narrows the race window.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	// An identity change is a re-authentication event: rotate the pair so
	// tokens referencing the old identity are superseded.
	tokens, err := issueTokens(ctx, u.userRepo, u.jwtAuth, updated)
	if err != nil {
		return nil, err
	}

	return &ProfileUpdateResult{User: publicUser(updated), Tokens: tokens}, nil
}
