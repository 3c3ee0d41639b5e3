package api

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"store-catalog-service/internal/service"
)

type StoreHandler struct {
	storeService service.StoreService
}

// NewStoreHandler creates a new instance of StoreHandler.
func NewStoreHandler(storeService service.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// GetStore retrieves a store with its items --> GET /store/:name
func (h *StoreHandler) GetStore(c echo.Context) error {
	name := c.Param("name")

	store, err := h.storeService.GetStore(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(404, map[string]string{"message": "Store not found"})
		}
		return storageErrorResponse(c, err, "An error occurred while searching the database")
	}

	return c.JSON(200, store)
}

// CreateStore creates a new store --> POST /store/:name
func (h *StoreHandler) CreateStore(c echo.Context) error {
	name := c.Param("name")

	store, err := h.storeService.CreateStore(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			return c.JSON(400, map[string]string{"message": fmt.Sprintf("Store %s already exists", name)})
		}
		return storageErrorResponse(c, err, "An error occurred while creating the store")
	}

	return c.JSON(201, store)
}

// DeleteStore removes a store --> DELETE /store/:name
// Both outcomes answer 200; callers distinguish them by message only.
func (h *StoreHandler) DeleteStore(c echo.Context) error {
	name := c.Param("name")

	if err := h.storeService.DeleteStore(c.Request().Context(), name); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(200, map[string]string{"message": "Store does not exist"})
		}
		return storageErrorResponse(c, err, "An error occurred while deleting the store")
	}

	return c.JSON(200, map[string]string{"message": "Store deleted"})
}

// ListStores retrieves every store --> GET /stores
func (h *StoreHandler) ListStores(c echo.Context) error {
	stores, err := h.storeService.ListStores(c.Request().Context())
	if err != nil {
		return storageErrorResponse(c, err, "An error occurred while searching the database")
	}

	return c.JSON(200, map[string]interface{}{"stores": stores})
}
