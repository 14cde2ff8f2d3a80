package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const accessTokenCookie = "access_token"

var errMissingUserID = errors.New("token has no user_id claim")

// Identity resolves the authenticated user from an HS256 token in the
// Authorization header or the access_token cookie. Missing or invalid tokens
// leave the request anonymous; sign-in itself is handled elsewhere.
func Identity(secret string, logger *zap.Logger) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if len(key) == 0 {
			c.Next()
			return
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		userID, err := ParseUserID(tokenString, key)
		if err != nil {
			logger.Debug("Ignoring invalid access token", zap.Error(err))
			c.Next()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(accessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// ParseUserID validates the token and returns its user_id claim.
func ParseUserID(tokenString string, key []byte) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("invalid or expired token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}

	raw, ok := claims["user_id"].(float64)
	if !ok || raw <= 0 {
		return 0, errMissingUserID
	}
	return int64(raw), nil
}
