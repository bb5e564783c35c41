package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caesarius1187/tgh/internal/middleware"
	"github.com/caesarius1187/tgh/internal/service"
)

func (h HandlerSet) UploadFile(c *gin.Context) {
	userID, _, ok := middleware.AuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token de autenticación requerido"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Archivo y tipo son requeridos"})
		return
	}
	tipo := c.PostForm("tipo")
	if tipo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Archivo y tipo son requeridos"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	result, err := h.uploadService.Upload(c.Request.Context(), service.UploadInput{
		UserID:    userID,
		Kind:      service.UploadKind(tipo),
		File:      file,
		Header:    fileHeader,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Archivo " + tipo + " subido exitosamente",
		"file":    result,
	})
}
