package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/domain"
)

const sessionContextKey = "session"

// Claims represents the JWT claims
type Claims struct {
	Session domain.Session `json:"session"`
	jwt.RegisteredClaims
}

// GenerateToken generates a new JWT token for a session
func GenerateToken(session domain.Session, cfg config.AuthConfig) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(cfg.TokenTTL)

	claims := Claims{
		Session: session,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Key(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// AuthMiddleware validates the JWT token and stores the session in the context
func AuthMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Authorization header required", Code: ErrUnauthorized.Code})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid || claims.Session.Validate() != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid or expired token", Code: ErrUnauthorized.Code})
			return
		}

		c.Set(sessionContextKey, claims.Session)
		c.Next()
	}
}

// bearerToken reads the token from the Authorization header. EventSource
// clients cannot set headers, so the access_token query parameter is
// accepted too.
func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := c.Query("access_token"); token != "" {
		return token, true
	}
	return "", false
}

// GetSession gets the authenticated session from context
func GetSession(c *gin.Context) (domain.Session, bool) {
	if v, exists := c.Get(sessionContextKey); exists {
		session, ok := v.(domain.Session)
		return session, ok
	}
	return domain.Session{}, false
}
