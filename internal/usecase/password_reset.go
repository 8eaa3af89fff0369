package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/axokaze/kaze-api/internal/model"
	"github.com/axokaze/kaze-api/internal/repository"
	"github.com/axokaze/kaze-api/shared/security"
)

// PasswordResetUsecase defines the business logic for the password reset
// sub-flow.
type PasswordResetUsecase interface {
	// RequestPasswordReset initiates the password reset process for a given
	// email. It reports success whether or not the account exists.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword consumes an unexpired reset token and stores the new
	// password. It does not issue session tokens: a credential change is
	// not a login.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetUsecase struct {
	userRepo repository.UserRepository
	mailer   AuthMailer
	resetURL string
	now      func() time.Time
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	mailer AuthMailer,
	resetURL string,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo: userRepo,
		mailer:   mailer,
		resetURL: resetURL,
		now:      time.Now,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// To prevent email enumeration, do not reveal that the email
			// does not exist.
			return nil
		}
		return err
	}

	token, err := security.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	// Installing the token replaces any earlier in-flight reset, so at
	// most one reset capability is live per account.
	if err := u.userRepo.SetPasswordReset(ctx, user.ID.Hex(), model.PasswordReset{
		Token:     token,
		ExpiresAt: u.now().Add(security.ResetTokenTTL),
	}); err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s?token=%s", u.resetURL, token)
	if err := u.mailer.SendPasswordReset(ctx, user.Email, resetLink); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	return nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}

	user, err := u.userRepo.GetUserByResetToken(ctx, token, u.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// If the token exists but has expired, drop the stale
			// capability now rather than leaving it on the record.
			_ = u.userRepo.ClearExpiredPasswordReset(ctx, token, u.now())
			return ErrResetTokenInvalid
		}
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// Stores the hash, clears the pending reset and revokes the active
	// refresh token in one update: a changed credential ends the standing
	// session.
	return u.userRepo.ResetPassword(ctx, user.ID.Hex(), passwordHash)
}
