package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mochi-server/internal/pkg/jwtutil"
	"mochi-server/internal/transport/http/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"

	accessTokenQuery = "access_token"
)

// TokenVerifier decodes a bearer token into the verified identity.
type TokenVerifier interface {
	Verify(token string) (*jwtutil.Claims, error)
}

// AuthJWT requires a valid bearer token. Browsers cannot set headers on a
// WebSocket handshake, so upgrade requests may pass the token as
// ?access_token= instead.
func AuthJWT(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing or malformed authorization header")
			c.Abort()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			return "", false
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		return token, token != ""
	}

	if websocket.IsWebSocketUpgrade(c.Request) {
		token := strings.TrimSpace(c.Query(accessTokenQuery))
		return token, token != ""
	}
	return "", false
}

// UserID returns the identity set by AuthJWT.
func UserID(c *gin.Context) (string, bool) {
	userID := c.GetString(ContextUserIDKey)
	return userID, userID != ""
}
