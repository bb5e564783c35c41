package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NFCData is the unauthenticated endpoint behind the bracelet's public URL.
// Unknown, unactivated and owner-inactive serials all answer the same 404.
func (h HandlerSet) NFCData(c *gin.Context) {
	serial := strings.TrimSpace(c.Param("serial"))
	if serial == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Serial de pulsera requerido"})
		return
	}

	profile, err := h.profileService.PublicData(c.Request.Context(), serial, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Pulsera no encontrada o no activada",
			"message": "Esta pulsera no está registrada en el sistema o no ha sido activada",
		})
		return
	}

	c.Header("Cache-Control", "public, max-age=300, s-maxage=300")
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"serial":    serial,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data":      profile,
	})
}
