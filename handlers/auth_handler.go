package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"CodeMart/models"
	"CodeMart/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Email == "" || req.Username == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email, username and a password of at least 8 characters are required"})
	}

	user, err := h.authService.Register(req.Email, req.Username, req.Password)
	if err != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "could not create user"})
	}

	tokens, err := h.authService.GenerateTokens(user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not issue tokens"})
	}
	return c.JSON(http.StatusCreated, tokens)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	tokens, err := h.authService.GenerateTokens(user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not issue tokens"})
	}
	return c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) GetCurrentUser(c echo.Context) error {
	user := c.Get("user").(*models.User)
	return c.JSON(http.StatusOK, user)
}
