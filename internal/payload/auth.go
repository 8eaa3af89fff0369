package payload

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"  validate:"required,len=6,numeric"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=50"`
}

type UpdateProfileRequest struct {
	Name            *string `json:"name"  validate:"omitempty,min=2,max=50"`
	Email           *string `json:"email" validate:"omitempty,email"`
	CurrentPassword string  `json:"current_password" validate:"required"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

type TokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	Message string         `json:"message"`
	User    UserResponse   `json:"user"`
	Tokens  TokensResponse `json:"tokens"`
}

type LoginResponse struct {
	Message     string `json:"message"`
	RequiresOTP bool   `json:"requires_otp"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type VerifyOTPFailureResponse struct {
	Message      string `json:"message"`
	AttemptsLeft int    `json:"attempts_left"`
}

type ResendCooldownResponse struct {
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after_seconds"`
}

type ProfileResponse struct {
	Message string          `json:"message"`
	User    UserResponse    `json:"user"`
	Tokens  *TokensResponse `json:"tokens,omitempty"`
}
