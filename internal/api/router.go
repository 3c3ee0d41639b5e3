package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"store-catalog-service/internal/service"
)

// RegisterRoutes attaches every route and its token gates to e.
func RegisterRoutes(e *echo.Echo, auth *service.AuthService, items *ItemHandler, stores *StoreHandler, users *UserHandler, sessions *AuthHandler) {
	requireToken := RequireAccessToken(auth)
	requireRefresh := RequireRefreshToken(auth)
	optionalToken := OptionalAccessToken(auth)

	e.GET("/item/:name", items.GetItem)
	e.POST("/item/:name", items.CreateItem, requireToken)
	e.PUT("/item/:name", items.UpsertItem, requireToken, RequireFresh)
	e.DELETE("/item/:name", items.DeleteItem, requireToken, RequireAdmin)
	e.GET("/items", items.ListItems, optionalToken)

	e.GET("/store/:name", stores.GetStore)
	e.POST("/store/:name", stores.CreateStore)
	e.DELETE("/store/:name", stores.DeleteStore, requireToken, RequireAdmin)
	e.GET("/stores", stores.ListStores)

	e.POST("/register", users.Register)
	e.GET("/user/:id", users.GetUser)
	e.DELETE("/user/:id", users.DeleteUser, requireToken, RequireAdmin)

	e.POST("/login", sessions.Login)
	e.POST("/refresh", sessions.Refresh, requireRefresh)
	e.POST("/logout", sessions.Logout, requireToken)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "store-catalog-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
}

// storageErrorResponse maps a storage failure to a status by cause: a write
// the database rejected is the caller's fault, a dead database is not.
func storageErrorResponse(c echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrConstraint):
		return c.JSON(400, map[string]string{"message": message})
	case errors.Is(err, service.ErrStorageDown):
		return c.JSON(503, map[string]string{"message": message})
	default:
		return c.JSON(500, map[string]string{"message": message})
	}
}
