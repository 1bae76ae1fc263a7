package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	SessionName     = "rewards-session"
	SessionUsername = "username"
)

type SessionManager struct {
	store *sessions.CookieStore
}

func NewSessionManager(secret string, maxAge int, secure bool) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store}
}

func (m *SessionManager) Get(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, SessionName)
}

// SetManager binds the session to a manager username. Only the username is
// stored; the display name is reloaded from the database on every request.
func (m *SessionManager) SetManager(w http.ResponseWriter, r *http.Request, username string) error {
	session, err := m.Get(r)
	if err != nil && session == nil {
		return err
	}

	session.Flashes()
	session.Values[SessionUsername] = username
	return session.Save(r, w)
}

func (m *SessionManager) GetUsername(r *http.Request) (string, bool) {
	session, err := m.Get(r)
	if err != nil {
		return "", false
	}

	username, ok := session.Values[SessionUsername].(string)
	return username, ok && username != ""
}

func (m *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, message string) error {
	session, err := m.Get(r)
	if err != nil && session == nil {
		return err
	}
	session.AddFlash(message)
	return session.Save(r, w)
}

// Flashes pops pending flash messages.
func (m *SessionManager) Flashes(w http.ResponseWriter, r *http.Request) []string {
	session, err := m.Get(r)
	if err != nil {
		return nil
	}

	var messages []string
	for _, f := range session.Flashes() {
		if s, ok := f.(string); ok {
			messages = append(messages, s)
		}
	}
	if len(messages) > 0 {
		session.Save(r, w)
	}
	return messages
}

func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := m.Get(r)
	if err != nil && session == nil {
		return err
	}

	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1

	return session.Save(r, w)
}
