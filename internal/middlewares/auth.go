package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	userIDContextKey = "user_id"
	accessTokenParam = "access_token"
)

var errMissingSubject = errors.New("token has no subject")

// Authenticator verifies HS256 bearer tokens issued by the identity provider.
// The user id is the token subject.
type Authenticator struct {
	secret []byte
	logger zerolog.Logger
}

func NewAuthenticator(secret string, logger zerolog.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), logger: logger}
}

// RequireUser aborts with 401 unless a valid bearer token is present in the
// Authorization header.
func (a *Authenticator) RequireUser() gin.HandlerFunc {
	return a.require(false)
}

// RequireWebsocketUser is RequireUser for upgrade requests; browsers cannot
// set headers on a websocket handshake, so the access_token query parameter
// is accepted too.
func (a *Authenticator) RequireWebsocketUser() gin.HandlerFunc {
	return a.require(true)
}

func (a *Authenticator) require(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := a.userFromRequest(c, allowQuery)
		if err != nil {
			a.logger.Warn().
				Err(err).
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Msg("unauthenticated request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

// OptionalUser resolves the user when a valid token is sent and lets the
// request through either way.
func (a *Authenticator) OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, err := a.userFromRequest(c, false); err == nil {
			c.Set(userIDContextKey, userID)
		}
		c.Next()
	}
}

func (a *Authenticator) userFromRequest(c *gin.Context, allowQuery bool) (string, error) {
	raw, ok := bearerToken(c, allowQuery)
	if !ok {
		return "", errors.New("missing bearer token")
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter only when allowQuery is set.
func bearerToken(c *gin.Context, allowQuery bool) (string, bool) {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1]), true
		}
		return "", false
	}
	if !allowQuery {
		return "", false
	}
	if token := c.Query(accessTokenParam); token != "" {
		return token, true
	}
	return "", false
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDContextKey)
	return userID, userID != ""
}
