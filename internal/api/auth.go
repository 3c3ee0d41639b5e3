package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"store-catalog-service/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new instance of AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login validates credentials and issues tokens --> POST /login
func (h *AuthHandler) Login(c echo.Context) error {
	req := credentialsRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"message": "Invalid request payload"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(400, map[string]string{"message": msg})
	}

	accessToken, refreshToken, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(401, map[string]string{"message": "Invalid credentials"})
		}
		return storageErrorResponse(c, err, "An error occurred while logging in")
	}

	return c.JSON(200, map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Refresh exchanges a refresh token for a non-fresh access token --> POST /refresh
func (h *AuthHandler) Refresh(c echo.Context) error {
	claims := RefreshClaimsFrom(c)
	if claims == nil {
		return tokenErrorResponse(c, service.ErrTokenInvalid)
	}

	accessToken, err := h.authService.RefreshAccessToken(c.Request().Context(), claims.Identity)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			return tokenErrorResponse(c, err)
		}
		return storageErrorResponse(c, err, "An error occurred while refreshing the token")
	}

	return c.JSON(200, map[string]string{"access_token": accessToken})
}

// Logout revokes the presented access token --> POST /logout
func (h *AuthHandler) Logout(c echo.Context) error {
	claims := AccessClaimsFrom(c)
	if claims == nil {
		return tokenErrorResponse(c, service.ErrTokenInvalid)
	}

	if err := h.authService.Logout(c.Request().Context(), claims); err != nil {
		return storageErrorResponse(c, err, "An error occurred while logging out")
	}

	return c.JSON(200, map[string]string{"message": "Successfully logged out"})
}
