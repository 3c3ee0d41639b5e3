package api

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"store-catalog-service/internal/service"
)

const claimsContextKey = "user"

// RequireAccessToken gates a route behind a valid, unrevoked access token.
func RequireAccessToken(auth *service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsContextKey,
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return auth.ParseAccessToken(c.Request().Context(), tokenString)
		},
		ErrorHandler: tokenErrorResponse,
	})
}

// OptionalAccessToken parses an access token when one is sent but lets the
// request through without one. A token that is present and bad still fails.
func OptionalAccessToken(auth *service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             claimsContextKey,
		ContinueOnIgnoredError: true,
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return auth.ParseAccessToken(c.Request().Context(), tokenString)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if !isTokenError(err) {
				// No token was sent at all; let the request through.
				return nil
			}
			if jsonErr := tokenErrorResponse(c, err); jsonErr != nil {
				return jsonErr
			}
			// The 401 is already written; a non-nil return keeps
			// ContinueOnIgnoredError from running the handler on top of it.
			return echo.ErrUnauthorized
		},
	})
}

// RequireRefreshToken gates the refresh route behind a valid refresh token.
func RequireRefreshToken(auth *service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsContextKey,
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return auth.ParseRefreshToken(c.Request().Context(), tokenString)
		},
		ErrorHandler: tokenErrorResponse,
	})
}

// RequireFresh rejects access tokens obtained through the refresh endpoint.
// Runs after RequireAccessToken.
func RequireFresh(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := AccessClaimsFrom(c)
		if claims == nil || !claims.Fresh {
			return c.JSON(401, map[string]string{
				"description": "This Token is not Fresh",
				"error":       "Fresh token required",
			})
		}
		return next(c)
	}
}

// RequireAdmin rejects tokens without the admin claim. Runs after
// RequireAccessToken.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := AccessClaimsFrom(c)
		if claims == nil || !claims.IsAdmin {
			return c.JSON(401, map[string]string{"message": "Admin privilege is required"})
		}
		return next(c)
	}
}

// AccessClaimsFrom returns the access claims set by the token middleware, or
// nil when the route was reached without one.
func AccessClaimsFrom(c echo.Context) *service.AccessClaims {
	claims, _ := c.Get(claimsContextKey).(*service.AccessClaims)
	return claims
}

// RefreshClaimsFrom returns the refresh claims set by RequireRefreshToken.
func RefreshClaimsFrom(c echo.Context) *service.RefreshClaims {
	claims, _ := c.Get(claimsContextKey).(*service.RefreshClaims)
	return claims
}

func isTokenError(err error) bool {
	return errors.Is(err, service.ErrTokenExpired) ||
		errors.Is(err, service.ErrTokenRevoked) ||
		errors.Is(err, service.ErrTokenInvalid)
}

// tokenErrorResponse maps token failures onto the error codes callers match
// on, one code per failure mode.
func tokenErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return c.JSON(401, map[string]string{
			"description": "Your token has expired",
			"error":       "token_expired",
		})
	case errors.Is(err, service.ErrTokenRevoked):
		return c.JSON(401, map[string]string{
			"description": "This token has been revoked",
			"error":       "Token Revoked",
		})
	case errors.Is(err, service.ErrTokenInvalid):
		return c.JSON(401, map[string]string{
			"description": "Signature verification failed",
			"error":       "Invalid Token",
		})
	default:
		// No token was extracted from the request at all.
		return c.JSON(401, map[string]string{
			"description": "Request does not contain an access token",
			"error":       "authorization required",
		})
	}
}
