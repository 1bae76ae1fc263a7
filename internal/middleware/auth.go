package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"rewardstracker/internal/auth"
	"rewardstracker/internal/models"
)

type contextKey string

const ManagerContextKey contextKey = "manager"

type AuthMiddleware struct {
	sessions *auth.SessionManager
	managers *auth.ManagerService
}

func NewAuthMiddleware(sessions *auth.SessionManager, managers *auth.ManagerService) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		managers: managers,
	}
}

// RequireAuth redirects anonymous page requests to the login page.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		manager, ok := m.resolve(w, r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithManager(r.Context(), manager)))
	})
}

// RequireAPIAuth answers anonymous API requests with 401.
func (m *AuthMiddleware) RequireAPIAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		manager, ok := m.resolve(w, r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithManager(r.Context(), manager)))
	})
}

// resolve loads the session's manager from the database so that a deleted
// or renamed manager takes effect on the next request.
func (m *AuthMiddleware) resolve(w http.ResponseWriter, r *http.Request) (*models.Manager, bool) {
	username, ok := m.sessions.GetUsername(r)
	if !ok {
		return nil, false
	}

	manager, err := m.managers.GetByUsername(r.Context(), username)
	if err != nil {
		m.sessions.Clear(w, r)
		return nil, false
	}
	return manager, true
}

func WithManager(ctx context.Context, manager *models.Manager) context.Context {
	return context.WithValue(ctx, ManagerContextKey, manager)
}

func GetManager(r *http.Request) *models.Manager {
	manager, _ := r.Context().Value(ManagerContextKey).(*models.Manager)
	return manager
}
