package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"supplychain-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

// principalClaims are the identity assertions expected from the upstream
// identity provider's tokens. The service never issues tokens itself.
type principalClaims struct {
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
	jwt.RegisteredClaims
}

// authMiddleware validates the bearer token and attaches the resulting
// principal to the request context. Requests without a valid token never
// reach a handler.
func authMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or malformed authorization header",
			})
			return
		}

		claims := &principalClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set(principalKey, models.Principal{
			ID:          claims.Subject,
			Role:        claims.Role,
			CompanyName: claims.CompanyName,
		})
		c.Next()
	}
}

// getPrincipal extracts the principal attached by authMiddleware
func getPrincipal(c *gin.Context) (models.Principal, error) {
	value, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, errors.New("no principal in request context")
	}
	principal, ok := value.(models.Principal)
	if !ok {
		return models.Principal{}, errors.New("malformed principal in request context")
	}
	return principal, nil
}
