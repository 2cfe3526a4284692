package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sqlapp/internal/adapters/session"
	domain "sqlapp/internal/domain/user"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const identityContextKey contextKey = "identity"

const sessionCookieName = "sessionId"

// Token lifetime is longer than the server-side session TTL. The cookie is
// self-contained; the session store only backs the X-Session-Id lookup and
// the session status endpoint.
const tokenLifetime = 7 * 24 * time.Hour

// SuperOnlyMessage is the uniform rejection body for privileged routes.
// Every failure cause maps to it so callers cannot probe which check failed.
const SuperOnlyMessage = "unauthorized, only SUPER role can access"

// Identity is the resolved caller of a request.
type Identity struct {
	Username  string
	Role      string
	SessionID string
}

// TokenClaims is the JWT payload carried in the session cookie.
type TokenClaims struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies session cookies with HS256.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec creates a codec for the given signing secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Mint signs a token for a fresh session.
// POST: Token carries sessionId, username, role and a 7 day expiry
func (c *TokenCodec) Mint(sessionID, username, role string, now time.Time) (string, error) {
	claims := TokenClaims{
		SessionID: sessionID,
		Username:  username,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies a token's signature and expiry and returns its claims.
// POST: Returns an error for any malformed, forged or expired token
func (c *TokenCodec) Decode(token string) (TokenClaims, error) {
	var claims TokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		return TokenClaims{}, err
	}
	if !parsed.Valid {
		return TokenClaims{}, errors.New("invalid token")
	}
	return claims, nil
}

// Authenticator resolves caller identity from requests and guards
// privileged routes.
type Authenticator struct {
	Codec    *TokenCodec
	Sessions session.Store

	CookieSecure   bool
	CookieSameSite http.SameSite
}

// ResolveIdentity finds who is making the request, loosely. Three sources are
// tried in order and the first hit wins: the X-Username header (trusted
// as-is), an X-Session-Id header resolved against the session store, and the
// signed session cookie. No role check is applied here.
// POST: Returns false only when no source yields a username
func (a *Authenticator) ResolveIdentity(r *http.Request) (Identity, bool) {
	if username := r.Header.Get("X-Username"); username != "" {
		return Identity{Username: username}, true
	}
	if id := r.Header.Get("X-Session-Id"); id != "" {
		if sess, ok, err := a.Sessions.Get(r.Context(), id); err == nil && ok {
			return Identity{Username: sess.Username, Role: sess.Role, SessionID: id}, true
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if claims, err := a.Codec.Decode(cookie.Value); err == nil {
			return Identity{Username: claims.Username, Role: claims.Role, SessionID: claims.SessionID}, true
		}
	}
	return Identity{}, false
}

// Identify returns middleware that resolves the caller and stores the
// identity in the request context. Anonymous requests pass through.
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := a.ResolveIdentity(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), identityContextKey, identity))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuper wraps a handler so only callers presenting a valid signed
// SUPER cookie reach it. The token alone decides: signature, expiry and role
// are checked, the session store is not consulted. Every failure cause
// yields the same 403 body.
func (a *Authenticator) RequireSuper(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			rejectSuper(w)
			return
		}
		claims, err := a.Codec.Decode(cookie.Value)
		if err != nil || claims.Role != domain.RoleSuper {
			rejectSuper(w)
			return
		}

		identity := Identity{Username: claims.Username, Role: claims.Role, SessionID: claims.SessionID}
		r = r.WithContext(context.WithValue(r.Context(), identityContextKey, identity))
		next.ServeHTTP(w, r)
	}
}

func rejectSuper(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{"error": SuperOnlyMessage})
}

// GetIdentity extracts the resolved identity from the request context.
func GetIdentity(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}

// ContextWithIdentity returns a context with the given identity set.
// Intended for use in tests.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// SetSessionCookie sets the signed session cookie on the response.
func (a *Authenticator) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   a.CookieSecure,
		SameSite: a.CookieSameSite,
		Path:     "/",
		MaxAge:   int(tokenLifetime / time.Second),
	})
}

// ClearSessionCookie removes the session cookie.
func (a *Authenticator) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   a.CookieSecure,
		SameSite: a.CookieSameSite,
		Path:     "/",
		MaxAge:   -1,
	})
}

// SessionCookie returns the raw session cookie value, if present.
func SessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
