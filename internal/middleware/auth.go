package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/complaint-api/internal/apperrors"
	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/services"
	"github.com/harentsoaR/complaint-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context keys set by Auth and the role gates.
const (
	KeyUserID   = "userID"
	KeyUserRole = "userRole"
	KeyStation  = "station"
	KeyPolice   = "police"
)

// Auth validates the bearer access token and stores the caller's id and
// role in the context. It never touches the database.
func Auth(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.Error(apperrors.Unauthorized(""))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			c.Error(apperrors.Unauthorized(""))
			c.Abort()
			return
		}
		if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil {
			c.Error(apperrors.Unauthorized(""))
			c.Abort()
			return
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyUserRole, claims.Role)
		c.Next()
	}
}

// CallerFrom builds the caller identity from values set by Auth and the
// role gates.
func CallerFrom(c *gin.Context) (services.Caller, bool) {
	id, ok := c.Get(KeyUserID)
	if !ok {
		return services.Caller{}, false
	}
	oid, err := primitive.ObjectIDFromHex(id.(string))
	if err != nil {
		return services.Caller{}, false
	}
	role, _ := c.Get(KeyUserRole)
	r, _ := role.(models.Role)
	return services.Caller{ID: oid, Role: r, Station: c.GetString(KeyStation)}, true
}
