package api

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"store-catalog-service/internal/service"
)

type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *credentialsRequest) validate() (string, bool) {
	if r.Username == "" {
		return "username cannot be left blank", false
	}
	if r.Password == "" {
		return "password cannot be left blank", false
	}
	return "", true
}

// Register creates a new user --> POST /register
func (h *UserHandler) Register(c echo.Context) error {
	req := credentialsRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"message": "Invalid request payload"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(400, map[string]string{"message": msg})
	}

	_, err := h.userService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			return c.JSON(400, map[string]string{"message": "User already exists"})
		}
		return storageErrorResponse(c, err, "An error occurred while creating the user")
	}

	return c.JSON(201, map[string]string{"message": "User created successfully."})
}

// GetUser retrieves a user by ID --> GET /user/:id
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"message": "Invalid ID"})
	}

	user, err := h.userService.GetUser(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(404, map[string]string{"message": "User not found"})
		}
		return storageErrorResponse(c, err, "An error occurred while searching the database")
	}

	return c.JSON(200, user)
}

// DeleteUser removes a user --> DELETE /user/:id
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"message": "Invalid ID"})
	}

	if err := h.userService.DeleteUser(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(404, map[string]string{"message": "User not found"})
		}
		return storageErrorResponse(c, err, "An error occurred while deleting the user")
	}

	return c.JSON(200, map[string]string{"message": "User deleted"})
}
