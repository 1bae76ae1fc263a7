package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"rewardstracker/internal/database"
	"rewardstracker/internal/ledger"
	"rewardstracker/internal/middleware"
	"rewardstracker/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 16

var errInvalidAmount = fmt.Errorf("amount must be a positive integer of at most %d", ledger.MaxAmount)

type PointsHandler struct {
	db        *database.DB
	ledger    *ledger.Ledger
	employees *services.EmployeeService
	logger    logrus.FieldLogger
}

func NewPointsHandler(db *database.DB, l *ledger.Ledger, employees *services.EmployeeService, logger logrus.FieldLogger) *PointsHandler {
	return &PointsHandler{
		db:        db,
		ledger:    l,
		employees: employees,
		logger:    logger,
	}
}

type pointsRequest struct {
	Employee string          `json:"employee"`
	Amount   json.RawMessage `json:"amount"`
	Reason   string          `json:"reason"`
}

// AllData serves the public leaderboard.
func (h *PointsHandler) AllData(w http.ResponseWriter, r *http.Request) {
	board, err := h.employees.Leaderboard(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load leaderboard")
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *PointsHandler) Employees(w http.ResponseWriter, r *http.Request) {
	names, err := h.employees.ListEmployees(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list employees")
		writeError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *PointsHandler) EmployeeData(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when it is set, leaving the segment escaped.
	name := chi.URLParam(r, "employee")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	detail, err := h.employees.GetEmployee(r.Context(), name)
	if err != nil {
		h.logger.WithError(err).WithField("employee", name).Error("Failed to load employee")
		writeError(w, http.StatusInternalServerError, "failed to load employee")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *PointsHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.modify(w, r, h.ledger.Add)
}

func (h *PointsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.modify(w, r, h.ledger.Remove)
}

type ledgerOp func(ctx context.Context, employee string, amount int64, manager, reason string) (*ledger.Result, error)

func (h *PointsHandler) modify(w http.ResponseWriter, r *http.Request, op ledgerOp) {
	manager := middleware.GetManager(r)
	if manager == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req pointsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Attribution always comes from the session, never from the request body.
	res, err := op(r.Context(), strings.TrimSpace(req.Employee), amount, manager.Name, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrEmployeeNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ledger.ErrInvalidAmount),
			errors.Is(err, ledger.ErrMissingEmployee),
			errors.Is(err, ledger.ErrMissingReason),
			errors.Is(err, ledger.ErrMissingManager):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.WithError(err).WithField("employee", req.Employee).Error("Failed to update points")
			writeError(w, http.StatusInternalServerError, "failed to update points")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"points":  res.Balance,
	})
}

// Health pings the database.
func (h *PointsHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.WithError(err).Error("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseAmount accepts a JSON integer or a string holding one. The value must
// be positive and at most ledger.MaxAmount; the direction comes from the
// endpoint.
func parseAmount(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errInvalidAmount
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, errInvalidAmount
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(raw)
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n <= 0 || n > ledger.MaxAmount {
		return 0, errInvalidAmount
	}
	return n, nil
}
