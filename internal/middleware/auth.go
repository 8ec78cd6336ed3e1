package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ContextStaffID = "staff_id"

// StaffAuth resolves the acting staff member from the bearer token issued by
// the portal's auth service. The engine does not mint tokens; it only checks
// the signature and expiry and extracts the subject for lifecycle
// transitions and audit fields.
type StaffAuth struct {
	secret []byte
}

func NewStaffAuth(secret string) *StaffAuth {
	return &StaffAuth{secret: []byte(secret)}
}

func (a *StaffAuth) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, _ := claims["sub"].(string); sub != "" {
				c.Set(ContextStaffID, sub)
			}
		}
		c.Next()
	}
}
