package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents an account in the authentication system. The pending
// login OTP, pending password reset and active refresh token live on the
// account record itself so that every state transition is a single-document
// update.
type User struct {
	ID            bson.ObjectID  `bson:"_id,omitempty"`
	Name          string         `bson:"name"`
	Email         string         `bson:"email"`
	PasswordHash  string         `bson:"password_hash"`
	Verified      bool           `bson:"verified"`
	LoginOTP      *LoginOTP      `bson:"login_otp,omitempty"`
	PasswordReset *PasswordReset `bson:"password_reset,omitempty"`
	RefreshToken  *RefreshToken  `bson:"refresh_token,omitempty"`
	CreatedAt     time.Time      `bson:"created_at"`
	UpdatedAt     time.Time      `bson:"updated_at"`
}

// MaxLoginOTPAttempts is the guess ceiling for a single pending OTP.
// Once reached, the code is inert until a resend replaces it.
const MaxLoginOTPAttempts = 5

// LoginOTP is the in-flight login challenge. It exists only between a
// successful password check and the matching OTP verification.
type LoginOTP struct {
	Code       string    `bson:"code"`
	ExpiresAt  time.Time `bson:"expires_at"`
	Attempts   int       `bson:"attempts"`
	LastSentAt time.Time `bson:"last_sent_at"`
}

// PasswordReset is the in-flight password reset capability.
type PasswordReset struct {
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// RefreshToken is the single active refresh token for the account.
// Rotating it invalidates the previous value.
type RefreshToken struct {
	Value     string    `bson:"value"`
	ExpiresAt time.Time `bson:"expires_at"`
}
