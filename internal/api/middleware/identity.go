package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Abdi-Suufi/sweetshop/internal/auth"
)

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ExtractToken extracts the identity token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

type contextKey string

const (
	IdentityContextKey contextKey = "identity"
)

// EnsureIdentity resolves the request's identity, minting an anonymous one
// when no valid token is presented. Every shopper gets an identity; requests
// only fail here if token minting itself fails.
func EnsureIdentity(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString := ExtractToken(r); tokenString != "" {
				if claims, err := tokens.Validate(tokenString); err == nil {
					ctx := context.WithValue(r.Context(), IdentityContextKey, claims)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				// Invalid or expired token: fall through and mint a fresh
				// anonymous identity, like a new visitor.
			}

			identityID, token, err := tokens.IssueAnonymous()
			if err != nil {
				respondError(w, "could not establish identity", http.StatusInternalServerError)
				return
			}
			SetIdentityCookie(w, r, token, tokens)

			claims := &auth.Claims{IdentityID: identityID, Role: auth.RoleCustomer}
			ctx := context.WithValue(r.Context(), IdentityContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose identity lacks the admin role
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetIdentity(r.Context())
			if !ok {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if claims.Role != auth.RoleAdmin {
				respondError(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentity retrieves identity claims from the request context
func GetIdentity(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(IdentityContextKey).(*auth.Claims)
	return claims, ok
}

// GetIdentityID is a helper to get just the identity ID from context
func GetIdentityID(ctx context.Context) string {
	claims, ok := GetIdentity(ctx)
	if !ok {
		return ""
	}
	return claims.IdentityID
}

// SetIdentityCookie attaches the identity token as an HTTP-only cookie
func SetIdentityCookie(w http.ResponseWriter, r *http.Request, token string, tokens *auth.TokenService) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokens.Expiry().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearIdentityCookie removes the identity cookie
func ClearIdentityCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
