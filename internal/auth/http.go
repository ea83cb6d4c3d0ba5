// ABOUTME: HTTP middleware for bearer authentication on backend endpoints
// ABOUTME: Verifies the JWT, resolves the caller's current role and adds it to the context

package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// RoleLookup returns the current role of subject, or false if the subject
// no longer exists. Roles are looked up per request so promotions apply
// without reissuing tokens.
type RoleLookup func(subject string) (role string, ok bool)

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "Not authenticated"
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "Invalid authorization header"
	}
	if strings.TrimSpace(token) == "" {
		return "", "Not authenticated"
	}
	return strings.TrimSpace(token), ""
}

// WriteError writes a {"detail": msg} body with status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}

// Middleware rejects requests without a valid bearer token.
func Middleware(verifier TokenVerifier, roles RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				WriteError(w, http.StatusUnauthorized, errMsg)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			role := claims.Role
			if roles != nil {
				current, ok := roles(claims.Subject)
				if !ok {
					WriteError(w, http.StatusUnauthorized, "Could not validate credentials")
					return
				}
				role = current
			}

			id := &Identity{Subject: claims.Subject, Role: role}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin rejects callers without the admin role. Must be used after
// Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := FromContext(r.Context())
		if id == nil {
			WriteError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if !id.IsAdmin() {
			WriteError(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}
