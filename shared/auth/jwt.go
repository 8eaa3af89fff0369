package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, expired, malformed, or wrong claims. Callers must not
// distinguish the cases in responses.
var ErrInvalidToken = errors.New("invalid token")

// UserClaims are the self-contained claims carried by both token classes.
type UserClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Config holds the signing material and lifetimes for both token classes.
// Access and refresh tokens are signed with separate secrets, so one class
// never verifies as the other.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// JWTAuthenticator issues and verifies signed, self-contained access and
// refresh tokens.
type JWTAuthenticator struct {
	config Config
}

// NewJWTAuthenticator creates a new JWTAuthenticator instance.
func NewJWTAuthenticator(config Config) JWTAuthenticator {
	return JWTAuthenticator{config: config}
}

// GenerateTokenPair issues an access and a refresh token for the given
// identity and returns the refresh token's expiry so the caller can persist
// it alongside the token value.
func (a *JWTAuthenticator) GenerateTokenPair(userID, email, name string) (access, refresh string, refreshExpiresAt time.Time, err error) {
	now := time.Now()

	access, err = a.generateToken(userID, email, name, now, a.config.AccessTTL, a.config.AccessSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}

	refreshExpiresAt = now.Add(a.config.RefreshTTL)
	refresh, err = a.generateToken(userID, email, name, now, a.config.RefreshTTL, a.config.RefreshSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}

	return access, refresh, refreshExpiresAt, nil
}

// VerifyAccessToken verifies an access token and returns its claims.
func (a *JWTAuthenticator) VerifyAccessToken(token string) (*UserClaims, error) {
	return a.verifyToken(token, a.config.AccessSecret)
}

// VerifyRefreshToken verifies a refresh token's signature and claims.
// Cryptographic validity alone does not make a refresh token acceptable:
// the caller must still compare it against the account's stored active
// refresh token.
func (a *JWTAuthenticator) VerifyRefreshToken(token string) (*UserClaims, error) {
	return a.verifyToken(token, a.config.RefreshSecret)
}

func (a *JWTAuthenticator) generateToken(
	userID, email, name string,
	now time.Time,
	ttl time.Duration,
	secret string,
) (string, error) {
	claims := UserClaims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			// A unique jti guarantees two tokens minted within the same
			// second still rotate to distinct values.
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.config.Issuer,
			Audience:  jwt.ClaimStrings{a.config.Audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenStr, nil
}

func (a *JWTAuthenticator) verifyToken(tokenString, secret string) (*UserClaims, error) {
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(secret), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(a.config.Audience),
		jwt.WithIssuer(a.config.Issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
