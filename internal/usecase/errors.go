package usecase

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")

	// ErrOTPExpired covers both a missing and an expired pending OTP:
	// either way there is no live challenge to verify against.
	ErrOTPExpired         = errors.New("otp has expired")
	ErrTooManyOTPAttempts = errors.New("too many otp attempts")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrResetTokenInvalid   = errors.New("invalid or expired password reset token")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters")

	// ErrEmailDelivery indicates the outbound email dispatch failed. Any
	// OTP or reset token persisted before the dispatch stays valid and is
	// recoverable through a resend or a new request.
	ErrEmailDelivery = errors.New("failed to send email")
)

// InvalidOTPError is returned on an OTP mismatch and carries the number of
// guesses left against the current code.
type InvalidOTPError struct {
	AttemptsLeft int
}

func (e *InvalidOTPError) Error() string {
	return fmt.Sprintf("invalid otp, %d attempts left", e.AttemptsLeft)
}

// ResendCooldownError is returned when an OTP resend is requested before
// the cooldown since the previous send has elapsed.
type ResendCooldownError struct {
	RetryAfter time.Duration
}

func (e *ResendCooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new otp", e.RetryAfterSeconds())
}

// RetryAfterSeconds reports the remaining cooldown rounded up to whole
// seconds, never less than one.
func (e *ResendCooldownError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
