package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caesarius1187/tgh/internal/apperrors"
	"github.com/caesarius1187/tgh/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Serial          string `json:"serial"`
}

type userResponse struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	LastLogin *string `json:"lastLogin,omitempty"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := userResponse{ID: result.User.ID, Username: result.User.Username}
	if result.User.LastLogin != nil {
		formatted := result.User.LastLogin.Format("2006-01-02T15:04:05Z07:00")
		resp.LastLogin = &formatted
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login exitoso",
		"token":   result.Token,
		"user":    resp,
	})
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Serial:          req.Serial,
		IPAddress:       c.ClientIP(),
		UserAgent:       c.GetHeader("User-Agent"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Usuario registrado exitosamente",
		"token":   result.Token,
		"user": userResponse{
			ID:       result.User.ID,
			Username: result.User.Username,
		},
	})
}

type validateSerialRequest struct {
	Serial string `json:"serial"`
}

func (h HandlerSet) ValidateSerial(c *gin.Context) {
	var req validateSerialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}

	err := h.authService.ValidateSerial(c.Request.Context(), req.Serial, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		h.respondSerialError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"message": "Serial válido y disponible para activación",
		"serial":  req.Serial,
	})
}

// respondSerialError keeps the valid/message shape the activation page expects
// on the 404 and 409 branches.
func (h HandlerSet) respondSerialError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	var appErr *apperrors.Error
	if (status == http.StatusNotFound || status == http.StatusConflict) && errors.As(err, &appErr) {
		c.JSON(status, gin.H{"valid": false, "message": appErr.Message})
		return
	}
	h.respondError(c, err)
}
