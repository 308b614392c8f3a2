package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/requestdata"
)

type AgentAuthMiddleware struct {
	log       *logger.Logger
	jwtSecret []byte
}

func NewAgentAuthMiddleware(log *logger.Logger, jwtSecret string) *AgentAuthMiddleware {
	middlewareLog := log.With("middleware", "AgentAuthMiddleware")
	return &AgentAuthMiddleware{log: middlewareLog, jwtSecret: []byte(jwtSecret)}
}

// RequireAgent validates the Bearer token and puts the agent identity on the
// request context. Tokens carry sub (agent id) and account_id claims.
func (aam *AgentAuthMiddleware) RequireAgent() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return aam.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		agentID, err := claimUUID(claims, "sub")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		accountID, err := claimUUID(claims, "account_id")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx := requestdata.WithAgentData(c.Request.Context(), &requestdata.AgentData{
			AgentID:   agentID,
			AccountID: accountID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

func claimUUID(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing %s claim", key)
	}
	return uuid.Parse(raw)
}
