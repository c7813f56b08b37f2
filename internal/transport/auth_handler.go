package transport

import (
	"errors"
	"net/http"
	"time"

	"liquorstock/internal/middleware"
	"liquorstock/internal/repository"
	"liquorstock/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginRequest represents a staff login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateAccountRequest provisions a new staff account. Admin only.
type CreateAccountRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"`
}

// RefreshTokenRequest carries the refresh token to exchange or revoke.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse represents a staff account without credentials.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse carries the issued token pair.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// AuthHandler handles HTTP requests for staff authentication.
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/validate", h.Validate)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(h.logger))
				r.Post("/accounts", h.CreateAccount)
			})
		})
	})
}

// Login authenticates a staff member and issues a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accessToken, refreshToken, user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login failed", zap.String("username", req.Username))
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toUserResponse(user.ID, user.Username, user.Role, user.CreatedAt),
	})
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accessToken, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenExpired) {
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid or expired refresh token")
			return
		}
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"access_token": accessToken,
	})
}

// Logout revokes a refresh token. Revoking an unknown token succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}

// Validate confirms the access token on the request is still good and
// echoes back the authenticated identity.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	role, _ := middleware.GetUserRole(r.Context())

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"user_id": userID,
		"role":    role,
	})
}

// CreateAccount provisions a new staff account.
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.CreateAccount(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			middleware.RespondWithError(w, http.StatusConflict, "username already taken")
			return
		}
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Account created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", user.Role),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toUserResponse(user.ID, user.Username, user.Role, user.CreatedAt))
}

func toUserResponse(id uuid.UUID, username, role string, createdAt time.Time) UserResponse {
	return UserResponse{
		ID:        id,
		Username:  username,
		Role:      role,
		CreatedAt: createdAt,
	}
}
