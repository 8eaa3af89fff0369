package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/axokaze/kaze-api/internal/model"
	"github.com/axokaze/kaze-api/internal/repository"
	"github.com/axokaze/kaze-api/shared/auth"
	"github.com/axokaze/kaze-api/shared/security"
)

// ResendOTPCooldown is the minimum gap between two OTP emails for one
// account. Independent from the per-IP rate limiter.
const ResendOTPCooldown = 60 * time.Second

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	// Register creates an account and issues a first token pair.
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)

	// Login verifies the password and, on success, installs and dispatches
	// a login OTP. Tokens are not issued until the OTP is verified.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// VerifyLoginOTP completes the login challenge and issues tokens.
	VerifyLoginOTP(ctx context.Context, params VerifyOTPParams) (*AuthResult, error)

	// ResendLoginOTP replaces the pending OTP with a fresh code, subject
	// to the per-account cooldown. It only regenerates an existing
	// challenge; without one the account is still anonymous and no code
	// is minted.
	ResendLoginOTP(ctx context.Context, email string) error

	// RefreshTokens exchanges a valid refresh token for a fresh token pair,
	// invalidating the presented one.
	RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error)

	// Logout revokes the active refresh token server-side. Best-effort:
	// an unknown account id is not an error.
	Logout(ctx context.Context, userID string) error
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// LoginParams defines the parameters for the first login step.
type LoginParams struct {
	Email    string
	Password string
}

// VerifyOTPParams defines the parameters for the second login step.
type VerifyOTPParams struct {
	Email string
	Code  string
}

// AuthResult carries the issued tokens and the public profile.
type AuthResult struct {
	User   PublicUser
	Tokens Tokens
}

// LoginResult reports the outcome of the first login step.
type LoginResult struct {
	RequiresOTP bool
}

type authUsecase struct {
	userRepo repository.UserRepository
	jwtAuth  *auth.JWTAuthenticator
	mailer   AuthMailer
	now      func() time.Time
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	jwtAuth *auth.JWTAuthenticator,
	mailer AuthMailer,
) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		jwtAuth:  jwtAuth,
		mailer:   mailer,
		now:      time.Now,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:         params.Name,
		Email:        normalizeEmail(params.Email),
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	tokens, err := issueTokens(ctx, u.userRepo, u.jwtAuth, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: publicUser(user), Tokens: *tokens}, nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Indistinguishable from a wrong password, so account
			// existence cannot be probed through this endpoint.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := u.installAndSendOTP(ctx, user); err != nil {
		return nil, err
	}

	return &LoginResult{RequiresOTP: true}, nil
}

func (u *authUsecase) VerifyLoginOTP(ctx context.Context, params VerifyOTPParams) (*AuthResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// The guess ceiling wins over everything, including a correct code.
	if user.LoginOTP != nil && user.LoginOTP.Attempts >= model.MaxLoginOTPAttempts {
		return nil, ErrTooManyOTPAttempts
	}
	if user.LoginOTP == nil || security.IsExpired(user.LoginOTP.ExpiresAt, u.now()) {
		if user.LoginOTP != nil {
			// An expired challenge is dropped as soon as it is observed;
			// best-effort, the caller's answer is the same either way.
			_ = u.userRepo.ClearExpiredLoginOTP(ctx, user.ID.Hex(), u.now())
		}
		return nil, ErrOTPExpired
	}

	verified, err := u.userRepo.ConsumeLoginOTP(ctx, user.ID.Hex(), params.Code, u.now())
	if err == nil {
		tokens, err := issueTokens(ctx, u.userRepo, u.jwtAuth, verified)
		if err != nil {
			return nil, err
		}
		return &AuthResult{User: publicUser(verified), Tokens: *tokens}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// The code did not match the stored challenge. Increment-and-check is
	// a single atomic update so racing guesses never read a stale counter.
	attempts, err := u.userRepo.RecordOTPMismatch(ctx, user.ID.Hex())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// A concurrent call consumed, replaced or capped the OTP.
			return nil, ErrOTPExpired
		}
		return nil, err
	}

	return nil, &InvalidOTPError{AttemptsLeft: model.MaxLoginOTPAttempts - attempts}
}

func (u *authUsecase) ResendLoginOTP(ctx context.Context, email string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	// A challenge only ever enters through the password check in Login.
	// Installing one here would let inbox access alone complete a login.
	if user.LoginOTP == nil {
		return ErrOTPExpired
	}

	cooldownEnds := user.LoginOTP.LastSentAt.Add(ResendOTPCooldown)
	if now := u.now(); now.Before(cooldownEnds) {
		return &ResendCooldownError{RetryAfter: cooldownEnds.Sub(now)}
	}

	return u.installAndSendOTP(ctx, user)
}

func (u *authUsecase) RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := u.jwtAuth.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := u.userRepo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	// Tokens carry the current identity, not whatever the old token said.
	access, refresh, refreshExpiresAt, err := u.jwtAuth.GenerateTokenPair(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		return nil, err
	}

	// Compare-and-rotate: the presented token must still be the single
	// active one. A cryptographically valid but rotated-out token fails
	// here, and two concurrent refreshes cannot both succeed.
	if _, err := u.userRepo.RotateRefreshToken(ctx, user.ID.Hex(), refreshToken, u.now(), model.RefreshToken{
		Value:     refresh,
		ExpiresAt: refreshExpiresAt,
	}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (u *authUsecase) Logout(ctx context.Context, userID string) error {
	if err := u.userRepo.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// installAndSendOTP persists a fresh OTP (attempts reset) before the email
// dispatch, so a delivery failure leaves a resendable challenge rather than
// a half-applied transition.
func (u *authUsecase) installAndSendOTP(ctx context.Context, user *model.User) error {
	code, err := security.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	now := u.now()
	if err := u.userRepo.SetLoginOTP(ctx, user.ID.Hex(), model.LoginOTP{
		Code:       code,
		ExpiresAt:  now.Add(security.OTPTTL),
		Attempts:   0,
		LastSentAt: now,
	}); err != nil {
		return err
	}

	if err := u.mailer.SendLoginOTP(ctx, user.Email, code); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	return nil
}
