package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/middleware"
	"moneta/internal/models"
	"moneta/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService services.UserServicer
	flows       services.AuthFlowServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, flows services.AuthFlowServicer) *AuthHandler {
	return &AuthHandler{userService: userService, flows: flows}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Fullname string `json:"fullname" binding:"required,max=128"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128,password_policy"`
}

// CheckCodeRequest carries an emailed code. The code may be sent as a JSON
// number or a numeric string.
type CheckCodeRequest struct {
	Email string      `json:"email" binding:"required,email"`
	Code  json.Number `json:"code" binding:"required" swaggertype:"integer"`
}

// ForgotPasswordRequest represents the forgot-password request payload
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents the final password reset payload
type ResetPasswordRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,max=128,password_policy"`
	ResetToken string `json:"reset_token" binding:"required"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the token refresh request payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RegisterResponse acknowledges a registration request. Data is always null.
type RegisterResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// EmailStatusResponse acknowledges a step of the password reset flow.
type EmailStatusResponse struct {
	Status     int    `json:"status"`
	Message    string `json:"message"`
	Email      string `json:"email"`
	ResetToken string `json:"reset_token,omitempty"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
	IsStaff  bool   `json:"is_staff"`
}

// AuthResponse represents the authentication response with tokens
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		Fullname: user.Fullname,
		IsStaff:  user.IsStaff,
	}
}

// Register handles user registration
// @Summary     Register a new user
// @Description Create an inactive account, or reuse a pending one, and email a confirmation code
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     200 {object} RegisterResponse "Verification code sent"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.flows.RequestRegistration(c.Request.Context(), req.Fullname, req.Email, req.Password); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, RegisterResponse{
		Status:  http.StatusOK,
		Message: "Verification code sent!",
		Data:    nil,
	})
}

// CheckRegistration confirms a registration code
// @Summary     Confirm registration
// @Description Activate the account when the emailed code matches
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body CheckCodeRequest true "Email and code"
// @Success     200 {object} StatusResponse "Registered"
// @Failure     400 {object} ErrorResponse "Code expired, incorrect code or invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register/check [post]
func (h *AuthHandler) CheckRegistration(c *gin.Context) {
	var req CheckCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.flows.ConfirmRegistration(c.Request.Context(), req.Email, req.Code.String()); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: http.StatusOK, Message: "Registered!"})
}

// ForgotPassword issues a password reset code
// @Summary     Request a password reset
// @Description Email a reset code to an existing account
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ForgotPasswordRequest true "Account email"
// @Success     200 {object} EmailStatusResponse "Code sent"
// @Failure     400 {object} ErrorResponse "Invalid input or unknown email"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	email, err := h.flows.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, EmailStatusResponse{
		Status:  http.StatusOK,
		Message: "Code sent to your email!",
		Email:   email,
	})
}

// VerifyResetCode checks a password reset code
// @Summary     Verify a password reset code
// @Description Check the emailed code and return the token required to set a new password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body CheckCodeRequest true "Email and code"
// @Success     200 {object} EmailStatusResponse "Correct code"
// @Failure     400 {object} ErrorResponse "Code expired, incorrect code or invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/verify-otp [post]
func (h *AuthHandler) VerifyResetCode(c *gin.Context) {
	var req CheckCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.flows.VerifyPasswordReset(c.Request.Context(), req.Email, req.Code.String())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, EmailStatusResponse{
		Status:     http.StatusOK,
		Message:    "Correct code!",
		Email:      services.NormalizeEmail(req.Email),
		ResetToken: token,
	})
}

// ResetPassword sets a new password
// @Summary     Reset password
// @Description Overwrite the password using the token from the verify step
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResetPasswordRequest true "Email, new password and reset token"
// @Success     200 {object} StatusResponse "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid input or unknown email"
// @Failure     403 {object} ErrorResponse "Reset was not verified"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.flows.ResetPassword(c.Request.Context(), req.Email, req.ResetToken, req.Password); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: http.StatusOK, Message: "Password updated!"})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a confirmed user and get tokens
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and tokens generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     403 {object} ErrorResponse "Account not confirmed"
// @Failure     423 {object} ErrorResponse "Account locked"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.issueTokens(c, user)
}

// RefreshToken exchanges a refresh token for a new token pair
// @Summary     Refresh tokens
// @Description Rotate the refresh token and issue a new access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} AuthResponse "New tokens"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid refresh token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	claims, err := middleware.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired refresh token"))
		return
	}

	stored, err := h.userService.GetRefreshTokenHash(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}
	// Only the most recently issued refresh token is accepted.
	presented := middleware.HashToken(req.RefreshToken)
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired refresh token"))
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}
	if !user.IsActive {
		respondWithError(c, apperrors.ErrAccountInactive)
		return
	}

	h.issueTokens(c, user)
}

func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) {
	accessToken, err := middleware.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	refreshToken, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(refreshToken)); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toUserResponse(user),
	})
}

// GetProfile returns the user's profile
// @Summary     Get user profile
// @Description Get the authenticated user's profile information
// @Tags        user
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UserResponse "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
