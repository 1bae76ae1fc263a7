package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"rewardstracker/internal/database"
	"rewardstracker/internal/ledger"
	"rewardstracker/internal/logger"
	"rewardstracker/internal/middleware"
	"rewardstracker/internal/models"
	"rewardstracker/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{`50`, 50, true},
		{`"80"`, 80, true},
		{`" 7 "`, 7, true},
		{`1000000000`, 1000000000, true},
		{`0`, 0, false},
		{`-5`, 0, false},
		{`1.5`, 0, false},
		{`1e3`, 0, false},
		{`"ten"`, 0, false},
		{`null`, 0, false},
		{`true`, 0, false},
		{``, 0, false},
		{`1000000001`, 0, false},
		{`9223372036854775807`, 0, false},
		{`"9223372036854775807"`, 0, false},
		{`9223372036854775808`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseAmount(json.RawMessage(tt.raw))
			if !tt.ok {
				assert.ErrorIs(t, err, errInvalidAmount)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newMockPointsHandler(t *testing.T) (*PointsHandler, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &database.DB{DB: mockDB}
	l := ledger.New(db, nil, logger.Discard())
	return NewPointsHandler(db, l, services.NewEmployeeService(db), logger.Discard()), mock
}

func managerRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	manager := &models.Manager{Username: "jkent", Name: "James Kent"}
	return req.WithContext(middleware.WithManager(req.Context(), manager))
}

func TestAddHidesStorageErrors(t *testing.T) {
	h, mock := newMockPointsHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT points FROM employees WHERE name = ?")).
		WithArgs("Anna Shaw").
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE employees SET points = ? WHERE name = ?")).
		WithArgs(int64(15), "Anna Shaw").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO logs")).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	h.Add(rec, managerRequest(http.MethodPost, "/api/add", `{"employee":"Anna Shaw","amount":5,"reason":"demo"}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to update points"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "disk I/O error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddRejectsOversizedAmountBeforeStorage(t *testing.T) {
	h, mock := newMockPointsHandler(t)

	rec := httptest.NewRecorder()
	h.Add(rec, managerRequest(http.MethodPost, "/api/add", `{"employee":"Anna Shaw","amount":9223372036854775807,"reason":"demo"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"amount must be a positive integer of at most 1000000000"}`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeDataDecodesNameOnce(t *testing.T) {
	db, err := database.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, database.CreateSchema(ctx, db))
	for name, points := range map[string]int64{"A%41": 7, "AA": 3, "Aaron O'Sullivan": 11} {
		_, err := db.ExecContext(ctx, "INSERT INTO employees (name, points) VALUES (?, ?)", name, points)
		require.NoError(t, err)
	}

	h := NewPointsHandler(db, ledger.New(db, nil, logger.Discard()), services.NewEmployeeService(db), logger.Discard())
	r := chi.NewRouter()
	r.Get("/api/data/{employee}", h.EmployeeData)

	tests := []struct {
		target string
		want   int64
	}{
		{"/api/data/A%2541", 7},
		{"/api/data/AA", 3},
		{"/api/data/A%41", 3},
		{"/api/data/Aaron%20O%27Sullivan", 11},
		{"/api/data/Aaron%20O'Sullivan", 11},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var detail models.EmployeeDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
			assert.Equal(t, tt.want, detail.Points)
		})
	}
}
