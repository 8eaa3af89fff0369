package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/axokaze/kaze-api/internal/payload"
	"github.com/axokaze/kaze-api/internal/ratelimit"
	"github.com/axokaze/kaze-api/internal/usecase"
	"github.com/axokaze/kaze-api/shared/auth"
)

// AuthHandler exposes the authentication flows over HTTP.
type AuthHandler struct {
	authUsecase          usecase.AuthUsecase
	profileUsecase       usecase.ProfileUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	jwtAuth              *auth.JWTAuthenticator
	limiter              *ratelimit.Limiter
	validator            *requestValidator
	logger               *zerolog.Logger
}

func NewAuthHandler(
	authUsecase usecase.AuthUsecase,
	profileUsecase usecase.ProfileUsecase,
	passwordResetUsecase usecase.PasswordResetUsecase,
	jwtAuth *auth.JWTAuthenticator,
	limiter *ratelimit.Limiter,
	logger *zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUsecase:          authUsecase,
		profileUsecase:       profileUsecase,
		passwordResetUsecase: passwordResetUsecase,
		jwtAuth:              jwtAuth,
		limiter:              limiter,
		validator:            newRequestValidator(),
		logger:               logger,
	}
}

// Routes mounts the auth endpoints with their per-operation rate limits.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(RateLimit(h.limiter, ratelimit.OpRegister, h.logger)).
		Post("/register", h.Register)
	r.With(RateLimit(h.limiter, ratelimit.OpLogin, h.logger)).
		Post("/login", h.Login)
	r.With(RateLimit(h.limiter, ratelimit.OpVerifyOTP, h.logger)).
		Post("/verify-otp", h.VerifyOTP)
	r.With(RateLimit(h.limiter, ratelimit.OpResendOTP, h.logger)).
		Post("/resend-otp", h.ResendOTP)
	r.Post("/refresh", h.Refresh)
	r.With(RateLimit(h.limiter, ratelimit.OpPasswordResetRequest, h.logger)).
		Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.jwtAuth))
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Post("/logout", h.Logout)
	})

	return r
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.validator.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUserAlreadyExists) {
			writeMessage(w, http.StatusConflict, "user already exists with this email")
			return
		}
		h.internalError(w, err, "failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, payload.AuthResponse{
		Message: "user created successfully",
		User:    userResponse(result.User),
		Tokens:  tokensResponse(result.Tokens),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.validator.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			writeMessage(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, usecase.ErrEmailDelivery):
			h.logger.Error().Err(err).Msg("failed to send otp email")
			writeMessage(w, http.StatusBadGateway, "failed to send otp email, please try resending")
		default:
			h.internalError(w, err, "failed to log in")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.LoginResponse{
		Message:     "otp sent to your email",
		RequiresOTP: result.RequiresOTP,
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyOTPRequest
	if !h.validator.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authUsecase.VerifyLoginOTP(r.Context(), usecase.VerifyOTPParams{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		var invalidOTP *usecase.InvalidOTPError
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "user not found")
		case errors.Is(err, usecase.ErrTooManyOTPAttempts):
			writeMessage(w, http.StatusTooManyRequests, "too many verification attempts, please request a new otp")
		case errors.Is(err, usecase.ErrOTPExpired):
			writeMessage(w, http.StatusUnauthorized, "otp has expired, please request a new one")
		case errors.As(err, &invalidOTP):
			writeJSON(w, http.StatusUnauthorized, payload.VerifyOTPFailureResponse{
				Message:      "invalid otp",
				AttemptsLeft: invalidOTP.AttemptsLeft,
			})
		default:
			h.internalError(w, err, "failed to verify otp")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.AuthResponse{
		Message: "login successful",
		User:    userResponse(result.User),
		Tokens:  tokensResponse(result.Tokens),
	})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.ResendOTPRequest
	if !h.validator.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.authUsecase.ResendLoginOTP(r.Context(), req.Email)
	if err != nil {
		var cooldown *usecase.ResendCooldownError
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "user not found")
		case errors.Is(err, usecase.ErrOTPExpired):
			writeMessage(w, http.StatusUnauthorized, "no active login challenge, please log in again")
		case errors.As(err, &cooldown):
			writeJSON(w, http.StatusTooManyRequests, payload.ResendCooldownResponse{
				Message:    cooldown.Error(),
				RetryAfter: cooldown.RetryAfterSeconds(),
			})
		case errors.Is(err, usecase.ErrEmailDelivery):
			h.logger.Error().Err(err).Msg("failed to resend otp email")
			writeMessage(w, http.StatusBadGateway, "failed to send otp email, please try again")
		default:
			h.internalError(w, err, "failed to resend otp")
		}
		return
	}

	writeMessage(w, http.StatusOK, "a new otp has been sent to your email")
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req payload.RefreshRequest
	if !h.validator.decodeAndValidate(w, r, &req) {
		return
	}

	tokens, err := h.authUsecase.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) {
			writeMessage(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		h.internalError(w, err, "failed to refresh tokens")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string                 `json:"message"`
		Tokens  payload.TokensResponse `json:"tokens"`
	}{
		Message: "tokens refreshed",
		Tokens:  tokensResponse(*tokens),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := UserClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.authUsecase.Logout(r.Context(), claims.UserID); err != nil {
		h.internalError(w, err, "failed to log out")
		return
	}

	// The caller is expected to discard both tokens.
	writeMessage(w, http.StatusOK, "logged out successfully")
}

func (h *AuthHandler) internalError(w http.ResponseWriter, err error, msg string) {
	// Dependency failures are logged with detail and answered without it.
	h.logger.Error().Err(err).Msg(msg)
	writeMessage(w, http.StatusInternalServerError, "something went wrong")
}
