package api

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"store-catalog-service/internal/service"
)

type ItemHandler struct {
	itemService service.ItemService
}

// NewItemHandler creates a new instance of ItemHandler.
func NewItemHandler(itemService service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

type itemRequest struct {
	Price   *float64 `json:"price"`
	StoreID *int     `json:"store_id"`
}

func (r *itemRequest) validate() (string, bool) {
	if r.Price == nil {
		return "price cannot be left blank", false
	}
	if r.StoreID == nil {
		return "store_id cannot be left blank", false
	}
	return "", true
}

// GetItem retrieves an item by name --> GET /item/:name
func (h *ItemHandler) GetItem(c echo.Context) error {
	name := c.Param("name")

	item, err := h.itemService.GetItem(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(404, map[string]string{"message": "Item not found"})
		}
		return storageErrorResponse(c, err, "An error occurred while searching the database")
	}

	return c.JSON(200, item)
}

// CreateItem creates a new item --> POST /item/:name
func (h *ItemHandler) CreateItem(c echo.Context) error {
	name := c.Param("name")

	req := itemRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"message": "Invalid request payload"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(400, map[string]string{"message": msg})
	}

	item, err := h.itemService.CreateItem(c.Request().Context(), name, *req.Price, *req.StoreID)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			return c.JSON(400, map[string]string{"message": fmt.Sprintf("An item with name %s already exists", name)})
		}
		return storageErrorResponse(c, err, "An error occurred while inserting the item")
	}

	return c.JSON(201, item)
}

// UpsertItem creates the item or overwrites its price --> PUT /item/:name
func (h *ItemHandler) UpsertItem(c echo.Context) error {
	name := c.Param("name")

	req := itemRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"message": "Invalid request payload"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(400, map[string]string{"message": msg})
	}

	item, err := h.itemService.UpsertItem(c.Request().Context(), name, *req.Price, *req.StoreID)
	if err != nil {
		return storageErrorResponse(c, err, "An error occurred while saving the item")
	}

	return c.JSON(200, item)
}

// DeleteItem removes an item --> DELETE /item/:name
func (h *ItemHandler) DeleteItem(c echo.Context) error {
	name := c.Param("name")

	if err := h.itemService.DeleteItem(c.Request().Context(), name); err != nil {
		return storageErrorResponse(c, err, "An error occurred while deleting the item")
	}

	return c.JSON(410, map[string]string{"message": "Item deleted"})
}

// ListItems retrieves every item --> GET /items
func (h *ItemHandler) ListItems(c echo.Context) error {
	if claims := AccessClaimsFrom(c); claims != nil {
		log.Debug().Msgf("Listing items for user %d", claims.Identity)
	}

	items, err := h.itemService.ListItems(c.Request().Context())
	if err != nil {
		return storageErrorResponse(c, err, "An error occurred while searching the database")
	}

	return c.JSON(200, map[string]interface{}{"items": items})
}
