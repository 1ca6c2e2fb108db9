package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erpsync/backend/internal/interfaces/http/dto"
)

// APIKeyHeader is the header carrying the administrative API key
const APIKeyHeader = "X-API-Key"

// AdminAPIKey guards administrative endpoints with a shared API key.
// An empty configured key rejects every request, keeping the guarded
// routes closed until a key is provisioned.
func AdminAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.ErrCodeForbidden,
				"administrative endpoints are not enabled",
			))
			return
		}

		provided := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized,
				"invalid or missing API key",
			))
			return
		}

		c.Next()
	}
}
