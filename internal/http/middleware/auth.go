// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication. Tokens are HMAC-signed JWTs
// carrying the principal id in the standard `sub` claim plus optional `email`
// and `admin` claims. The middleware only establishes identity; route-level
// guards (RequireAuth, RequireAdmin) enforce it.
//
// A demo mode accepts a plain X-User-ID header when no token is presented,
// which keeps local development and black-box tests free of token plumbing.
// It must stay disabled in production configs.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// principalIDKey is the Gin context key holding the authenticated id.
	principalIDKey = "principalID"
	// principalKey is the Gin context key holding the full Principal.
	principalKey = "principal"
	// demoUserHeader is honored only when AuthOptions.AllowDemo is set.
	demoUserHeader = "X-User-ID"
)

// Principal is the authenticated caller as established by Auth().
type Principal struct {
	ID    string
	Email string
	Admin bool
}

// AuthOptions configures the Auth middleware.
type AuthOptions struct {
	// Secret is the HMAC key used to verify token signatures.
	Secret string
	// AllowDemo accepts an X-User-ID header in place of a token.
	// For local development only.
	AllowDemo bool
}

// authClaims is the JWT claim set issued by the auth service.
type authClaims struct {
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Auth returns a middleware that authenticates the request when credentials
// are present.
//
// Behavior:
//   - A valid Bearer token sets the Principal in the Gin context.
//   - An invalid or expired token aborts with 401; a missing token does not.
//     Routes that need identity add RequireAuth on top.
//   - With AllowDemo, a bare X-User-ID header authenticates as that id
//     (never as admin).
func Auth(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			if opts.AllowDemo {
				if id := strings.TrimSpace(c.GetHeader(demoUserHeader)); id != "" {
					setPrincipal(c, Principal{ID: id})
				}
			}
			c.Next()
			return
		}

		p, err := parseToken(raw, opts.Secret)
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		setPrincipal(c, p)
		c.Next()
	}
}

// RequireAuth aborts with 401 unless Auth established a principal.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalID(c) == "" {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 403 unless the principal carries the admin claim.
// Demo-mode identities are never admins.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok || p.ID == "" {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if !p.Admin {
			abortAuth(c, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		c.Next()
	}
}

// PrincipalID returns the authenticated principal id, or "" when anonymous.
func PrincipalID(c *gin.Context) string {
	if v, ok := c.Get(principalIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// PrincipalFrom returns the full Principal when one was established.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(Principal); ok {
			return p, true
		}
	}
	return Principal{}, false
}

// setPrincipal stores both the id (for logging/rate-limit keys) and the full
// principal (for authorization checks).
func setPrincipal(c *gin.Context, p Principal) {
	c.Set(principalIDKey, p.ID)
	c.Set(principalKey, p)
}

// bearerToken extracts the token from an "Authorization: Bearer <jwt>" header.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// parseToken verifies signature and expiry and maps claims to a Principal.
// Only HMAC signing methods are accepted.
func parseToken(raw, secret string) (Principal, error) {
	claims := &authClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !tok.Valid || claims.Subject == "" {
		return Principal{}, errors.New("invalid token claims")
	}
	return Principal{ID: claims.Subject, Email: claims.Email, Admin: claims.Admin}, nil
}

// abortAuth writes the standard error envelope used across the API.
func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       code,
		"message":    msg,
	})
}
