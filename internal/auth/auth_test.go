package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"rewardstracker/internal/database"
	"rewardstracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *ManagerService {
	t.Helper()

	db, err := database.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, database.CreateSchema(ctx, db))

	svc := NewManagerService(db).WithCost(bcrypt.MinCost)
	hash, err := svc.HashPassword("correct horse")
	require.NoError(t, err)
	require.NoError(t, Insert(ctx, db, models.Manager{Username: "jkent", Name: "James Kent", PasswordHash: hash}))

	return svc
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	m, err := svc.Authenticate(ctx, "jkent", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "James Kent", m.Name)
	assert.Equal(t, "jkent", m.Username)
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, wrongPassword := svc.Authenticate(ctx, "jkent", "battery staple")
	_, unknownUser := svc.Authenticate(ctx, "nobody", "correct horse")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestDummyHashFollowsCost(t *testing.T) {
	svc := NewManagerService(nil)
	cost, err := bcrypt.Cost(svc.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)

	svc.WithCost(bcrypt.MinCost)
	cost, err = bcrypt.Cost(svc.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestInsertIgnoresDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, Insert(ctx, svc.db, models.Manager{Username: "jkent", Name: "Someone Else", PasswordHash: "x"}))

	managers, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, "James Kent", managers[0].Name)
}

func TestSetPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetPassword(ctx, "jkent", "rotated"))

	_, err := svc.Authenticate(ctx, "jkent", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "jkent", "rotated")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.SetPassword(ctx, "nobody", "x"), ErrManagerNotFound)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := NewSessionManager("0123456789abcdef0123456789abcdef", 3600, false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	require.NoError(t, sm.SetManager(rec, req, "jkent"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	username, ok := sm.GetUsername(req)
	assert.True(t, ok)
	assert.Equal(t, "jkent", username)

	rec = httptest.NewRecorder()
	require.NoError(t, sm.Clear(rec, req))
	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestSessionWithoutCookie(t *testing.T) {
	sm := NewSessionManager("0123456789abcdef0123456789abcdef", 3600, false)

	_, ok := sm.GetUsername(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestFlashes(t *testing.T) {
	sm := NewSessionManager("0123456789abcdef0123456789abcdef", 3600, false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	require.NoError(t, sm.AddFlash(rec, req, "Invalid username or password"))

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	assert.Equal(t, []string{"Invalid username or password"}, sm.Flashes(httptest.NewRecorder(), req))
}
