package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openscribe/scribe/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
)

// bearerToken extracts the token from the Authorization header.
func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// AuthRequired ensures the request carries a valid access token.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing or malformed")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil || claims.TokenType != utils.TokenTypeAccess {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

// AuthOptional resolves the caller when a valid access token is present
// and continues anonymously otherwise. Listing endpoints use it to widen
// visibility for authenticated callers without requiring a login.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token, ok := bearerToken(ctx); ok {
			if claims, err := utils.ParseToken(token); err == nil && claims.TokenType == utils.TokenTypeAccess {
				ctx.Set(ContextUserIDKey, claims.UserID)
				ctx.Set(ContextUsernameKey, claims.Username)
			}
		}
		ctx.Next()
	}
}
