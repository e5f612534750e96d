// jwt.go issues and checks the bearer tokens that address a study session.
package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/session"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/study"
)

// SessionClaims binds a token to one session.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a token for sessionID valid for ttl.
func GenerateSessionToken(sessionID, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

// ParseSessionToken validates a token and returns its claims.
func ParseSessionToken(tokenString, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid && claims.SessionID != "" {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

// CredentialScope marks a token that may replace the stored API key.
const CredentialScope = "credential:write"

// CredentialClaims is issued to whoever saves the API key. Session tokens
// carry no scope and are refused where this is required.
type CredentialClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// GenerateCredentialToken signs a credential-owner token valid for ttl.
func GenerateCredentialToken(secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)
	claims := CredentialClaims{
		Scope: CredentialScope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   "credential",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign credential token: %w", err)
	}
	return signed, expires, nil
}

// ParseCredentialToken validates a credential-owner token.
func ParseCredentialToken(tokenString, secret string) (*CredentialClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CredentialClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CredentialClaims); ok && token.Valid && claims.Scope == CredentialScope {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

// CredentialAuth guards PUT /credential. Without an Authorization header the
// request continues unauthorized and may only claim an unset key. With one,
// the token must be a valid credential token.
func CredentialAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, http.StatusUnauthorized, "unauthorized",
				"Invalid Authorization header. Use 'Bearer <token>'")
			return
		}

		if _, err := ParseCredentialToken(strings.TrimPrefix(authHeader, "Bearer "), jwtSecret); err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired credential token")
			return
		}

		c.Set(string(credentialOwnerKey), true)
		c.Next()
	}
}

// IsCredentialOwner reports whether CredentialAuth accepted a token.
func IsCredentialOwner(c *gin.Context) bool {
	return c.GetBool(string(credentialOwnerKey))
}

// SessionAuth checks the bearer token against the :id route parameter and
// loads the session into the context.
func SessionAuth(sessions *session.Manager, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, http.StatusUnauthorized, "unauthorized",
				"Missing or invalid Authorization header. Use 'Bearer <token>'")
			return
		}

		claims, err := ParseSessionToken(strings.TrimPrefix(authHeader, "Bearer "), jwtSecret)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		if claims.SessionID != c.Param("id") {
			abortWithError(c, http.StatusForbidden, "forbidden", "Token does not grant access to this session")
			return
		}

		s, err := sessions.Get(claims.SessionID)
		if err != nil {
			abortWithError(c, http.StatusNotFound, "not_found", "Session not found or expired")
			return
		}

		c.Set(string(sessionContextKey), s)
		c.Next()
	}
}

// GetSession retrieves the session loaded by SessionAuth.
func GetSession(c *gin.Context) *study.Session {
	val, exists := c.Get(string(sessionContextKey))
	if !exists {
		return nil
	}
	s, ok := val.(*study.Session)
	if !ok {
		return nil
	}
	return s
}
