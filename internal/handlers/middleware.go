package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"wordquest/internal/models"
	"wordquest/internal/security"
	"wordquest/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// SessionCookieName is the cookie carrying the signed session token
const SessionCookieName = "session_token"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	users  *service.UserService
	tokens *security.TokenManager
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(users *service.UserService, tokens *security.TokenManager) *Middleware {
	return &Middleware{users: users, tokens: tokens}
}

// RequireAuth requires a valid session token and puts the profile it
// names into the request context
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "not logged in", "", nil)
			return
		}

		userID, err := m.tokens.Verify(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			respondWithError(w, http.StatusUnauthorized, "session expired", "", nil)
			return
		}

		user, err := m.users.GetUser(userID)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			respondWithError(w, http.StatusUnauthorized, "session expired", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin requires an authenticated admin or superadmin profile
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.Role.IsPrivileged() {
			respondWithError(w, http.StatusForbidden, "admin access required", "", nil)
			return
		}
		next(w, r)
	})
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetUserFromContext retrieves the profile from the request context
func GetUserFromContext(ctx context.Context) *models.UserProfile {
	user, ok := ctx.Value(UserContextKey).(*models.UserProfile)
	if !ok {
		return nil
	}
	return user
}
