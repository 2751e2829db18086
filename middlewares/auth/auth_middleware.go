package auth

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/danatour/booking/logger"
)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.WarnLogger.Warn("JWT_SECRET environment variable not set.")
		return []byte("default-insecure-secret-only-for-development")
	}
	return []byte(secret)
}

// AuthMiddleware decodes the bearer token and places the caller's identity
// into the context as user_id and user_email. Token issuance and user
// management live in a separate identity service; this middleware only needs
// the identity for booking ownership and pending-booking cache keys.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "NO_TOKEN", "error": "No authorization token provided."})
			return
		}

		var rawToken string
		if len(authHeader) > 7 && strings.ToLower(authHeader[:7]) == "bearer " {
			rawToken = authHeader[7:]
		} else {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "INVALID_AUTH_FORMAT", "error": "Invalid authorization format."})
			return
		}

		token, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return jwtSecret(), nil
		})
		if err != nil || !token.Valid {
			logger.WarnLogger.Warnf("JWT validation failed: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "INVALID_TOKEN", "error": "Invalid or expired token."})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "INVALID_TOKEN", "error": "Invalid token claims."})
			return
		}

		userID, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		if userID == "" || email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "error": "Unauthorized: Missing user identification from token."})
			return
		}

		c.Set("user_id", userID)
		c.Set("user_email", strings.ToLower(strings.TrimSpace(email)))
		c.Next()
	}
}

// UserEmail returns the authenticated caller's email from the context.
func UserEmail(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_email")
	if !exists {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}
