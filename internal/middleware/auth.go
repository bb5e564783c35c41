package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/caesarius1187/tgh/internal/config"
	"github.com/caesarius1187/tgh/internal/security"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUserID   = "auth_user_id"
	CtxUsername = "auth_username"
)

func Auth(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token de autenticación requerido"})
			return
		}

		// Formato: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token de autenticación requerido"})
			return
		}

		claims, err := security.ParseToken(parts[1], cfg.Security.JWTSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expirado"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)

		c.Next()
	}
}

// AuthUser reads the identity Auth stored on the context. ok is false when the
// route was mounted without the middleware.
func AuthUser(c *gin.Context) (userID int64, username string, ok bool) {
	idVal, exists := c.Get(CtxUserID)
	if !exists {
		return 0, "", false
	}
	id, isInt := idVal.(int64)
	if !isInt {
		return 0, "", false
	}
	name, _ := c.Get(CtxUsername)
	nameStr, _ := name.(string)
	return id, nameStr, true
}
