package handlers

import (
	"errors"
	"net/http"
	"strings"

	"rewardstracker/internal/auth"
	"rewardstracker/internal/metrics"
	"rewardstracker/internal/middleware"

	"github.com/sirupsen/logrus"
)

const msgInvalidCredentials = "Invalid username or password"

type AuthHandler struct {
	templates TemplateExecutor
	sessions  *auth.SessionManager
	managers  *auth.ManagerService
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
}

func NewAuthHandler(templates TemplateExecutor, sessions *auth.SessionManager, managers *auth.ManagerService, m *metrics.Metrics, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		templates: templates,
		sessions:  sessions,
		managers:  managers,
		metrics:   m,
		logger:    logger,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in, redirect to the index page
	if _, ok := h.sessions.GetUsername(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := map[string]interface{}{
		"Title":   "Login",
		"Flashes": h.sessions.Flashes(w, r),
	}

	if err := h.templates.ExecuteTemplate(w, "login.html", data); err != nil {
		h.logger.WithError(err).Error("Template error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.loginFailed(w, r, "Invalid form data")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.loginFailed(w, r, "Username and password are required")
		return
	}

	manager, err := h.managers.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.countLogin("failure")
			h.logger.WithField("username", username).Warn("Login failed")
			h.loginFailed(w, r, msgInvalidCredentials)
			return
		}
		h.countLogin("error")
		h.logger.WithError(err).Error("Login lookup failed")
		h.loginFailed(w, r, "Login failed, please try again")
		return
	}

	if err := h.sessions.SetManager(w, r, manager.Username); err != nil {
		h.countLogin("error")
		h.logger.WithError(err).Error("Session error")
		h.loginFailed(w, r, "Failed to create session")
		return
	}

	h.countLogin("success")
	h.logger.WithField("username", manager.Username).Info("Login succeeded")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if manager := middleware.GetManager(r); manager != nil {
		h.logger.WithField("username", manager.Username).Info("Logout")
	}

	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.WithError(err).Warn("Failed to clear session")
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Me reports the manager bound to the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.GetManager(r))
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, message string) {
	if err := h.sessions.AddFlash(w, r, message); err != nil {
		h.logger.WithError(err).Warn("Failed to store flash message")
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) countLogin(result string) {
	if h.metrics != nil {
		h.metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
	}
}
