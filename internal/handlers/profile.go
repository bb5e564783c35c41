package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caesarius1187/tgh/internal/middleware"
	"github.com/caesarius1187/tgh/internal/service"
)

func (h HandlerSet) UserData(c *gin.Context) {
	userID, _, ok := middleware.AuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token de autenticación requerido"})
		return
	}

	profile, err := h.profileService.Complete(c.Request.Context(), userID, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

type updateRequest struct {
	Tipo  string          `json:"tipo"`
	Datos json.RawMessage `json:"datos"`
}

// UpdateUserData is the dashboard's bulk edit. Contacts arrive as a full list
// and replace the stored set.
func (h HandlerSet) UpdateUserData(c *gin.Context) {
	userID, _, ok := middleware.AuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token de autenticación requerido"})
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Datos) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo y datos son requeridos"})
		return
	}

	ip := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")

	var err error
	switch req.Tipo {
	case "personales":
		var update service.PersonalUpdate
		if jsonErr := json.Unmarshal(req.Datos, &update); jsonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo y datos son requeridos"})
			return
		}
		err = h.profileService.UpdatePersonal(c.Request.Context(), userID, update, ip, userAgent)
	case "vitales":
		var update service.VitalUpdate
		if jsonErr := json.Unmarshal(req.Datos, &update); jsonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo y datos son requeridos"})
			return
		}
		err = h.profileService.UpdateVital(c.Request.Context(), userID, update, ip, userAgent)
	case "contactos":
		var updates []service.ContactUpdate
		if jsonErr := json.Unmarshal(req.Datos, &updates); jsonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo y datos son requeridos"})
			return
		}
		err = h.profileService.ReplaceContacts(c.Request.Context(), userID, updates, ip, userAgent)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo de datos no válido"})
		return
	}

	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Datos " + req.Tipo + " actualizados exitosamente",
	})
}

// UpdateUserDataSection is the per-section variant the profile wizard uses.
// It takes one personal or vital payload, or a single contact to upsert.
func (h HandlerSet) UpdateUserDataSection(c *gin.Context) {
	userID, _, ok := middleware.AuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token de autenticación requerido"})
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Datos) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo y datos son requeridos"})
		return
	}

	ip := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")

	var err error
	switch req.Tipo {
	case "personal":
		var update service.PersonalUpdate
		if jsonErr := json.Unmarshal(req.Datos, &update); jsonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo y datos son requeridos"})
			return
		}
		err = h.profileService.UpdatePersonal(c.Request.Context(), userID, update, ip, userAgent)
	case "vitales":
		var update service.VitalUpdate
		if jsonErr := json.Unmarshal(req.Datos, &update); jsonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo y datos son requeridos"})
			return
		}
		err = h.profileService.UpdateVital(c.Request.Context(), userID, update, ip, userAgent)
	case "contacto":
		var update service.ContactUpdate
		if jsonErr := json.Unmarshal(req.Datos, &update); jsonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo y datos son requeridos"})
			return
		}
		err = h.profileService.UpsertContact(c.Request.Context(), userID, update, ip, userAgent)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo de datos no válido"})
		return
	}

	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Datos actualizados exitosamente",
	})
}
