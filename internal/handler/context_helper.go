package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sed-diario-api/internal/middleware"
	"github.com/noah-isme/sed-diario-api/internal/models"
)

// currentUser returns the claims stored by the JWT middleware.
func currentUser(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}
