package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func errorResponse(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": message})
}

// RequireSession checks the x-session-id header carried by the booking
// frontend on every order-scoped call.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("x-session-id")
		if sessionID == "" {
			errorResponse(c, http.StatusBadRequest, "session id is missing")
			return
		}
		if _, err := uuid.Parse(sessionID); err != nil {
			errorResponse(c, http.StatusUnauthorized, "session id is invalid")
			return
		}
		c.Set("sessionID", sessionID)
		c.Next()
	}
}

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Protect validates the admin JWT from the Authorization header or the
// access-token cookie and stores the claims on the request context.
func Protect(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			errorResponse(c, http.StatusUnauthorized, "you are not logged in")
			return
		}

		claims := &authClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			errorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set("userRole", claims.Role)
		c.Set("userID", claims.Subject)
		c.Next()
	}
}

// RestrictTo allows only the named roles past; it must run after Protect.
func RestrictTo(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("userRole")
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		errorResponse(c, http.StatusForbidden, "you do not have permission to perform this action")
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}
