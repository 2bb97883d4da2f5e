package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sed-diario-api/internal/models"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
	"github.com/noah-isme/sed-diario-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// Authenticator resolves a bearer token into claims of an existing user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token whose user still exists.
func JWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortWithError(c, appErrors.Clone(appErrors.ErrUnauthorized, "Header Authorization ausente."))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			response.AbortWithError(c, appErrors.Clone(appErrors.ErrUnauthorized, `Formato do token inválido. Use "Bearer <token>".`))
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			var appErr *appErrors.Error
			if !errors.As(err, &appErr) {
				err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Erro interno na validação do token.")
			}
			response.AbortWithError(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}
