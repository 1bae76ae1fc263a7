package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"rewardstracker/internal/database"
	"rewardstracker/internal/metrics"
	"rewardstracker/internal/models"

	"github.com/sirupsen/logrus"
)

const TimestampLayout = "2006-01-02 15:04:05"

// MaxAmount bounds the magnitude of a single delta.
const MaxAmount int64 = 1_000_000_000

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrInvalidAmount    = errors.New("amount must be a non-zero integer of at most 1000000000")
	ErrMissingEmployee  = errors.New("employee is required")
	ErrMissingReason    = errors.New("reason is required")
	ErrMissingManager   = errors.New("acting manager is required")
)

// Delta is a signed point change requested by a manager.
type Delta struct {
	Employee string
	Amount   int64
	Manager  string
	Reason   string
}

// Result describes a committed ledger transaction. Applied differs from the
// requested amount when a removal is clamped at zero.
type Result struct {
	Employee string
	Previous int64
	Balance  int64
	Applied  int64
	Entry    models.LogEntry
}

type Ledger struct {
	db      *database.DB
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
	now     func() time.Time
}

func New(db *database.DB, m *metrics.Metrics, logger logrus.FieldLogger) *Ledger {
	return &Ledger{
		db:      db,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Add awards a positive amount of points.
func (l *Ledger) Add(ctx context.Context, employee string, amount int64, manager, reason string) (*Result, error) {
	if amount <= 0 || amount > MaxAmount {
		return nil, ErrInvalidAmount
	}
	return l.Apply(ctx, Delta{Employee: employee, Amount: amount, Manager: manager, Reason: reason})
}

// Remove deducts a positive amount of points, bottoming out at zero.
func (l *Ledger) Remove(ctx context.Context, employee string, amount int64, manager, reason string) (*Result, error) {
	if amount <= 0 || amount > MaxAmount {
		return nil, ErrInvalidAmount
	}
	return l.Apply(ctx, Delta{Employee: employee, Amount: -amount, Manager: manager, Reason: reason})
}

// Apply updates the employee's balance and appends the audit entry in one
// transaction. Either both writes land or neither does.
func (l *Ledger) Apply(ctx context.Context, d Delta) (*Result, error) {
	action := actionName(d.Amount)

	if err := d.validate(); err != nil {
		l.record(action, metrics.StatusRejected, 0)
		return nil, err
	}

	res, err := l.apply(ctx, d)
	if err != nil {
		status := metrics.StatusError
		if errors.Is(err, ErrEmployeeNotFound) {
			status = metrics.StatusNotFound
		}
		l.record(action, status, 0)
		return nil, err
	}

	l.record(action, metrics.StatusSuccess, abs(res.Applied))
	l.logger.WithFields(logrus.Fields{
		"employee": res.Employee,
		"manager":  d.Manager,
		"amount":   d.Amount,
		"applied":  res.Applied,
		"balance":  res.Balance,
	}).Info("Points updated")

	return res, nil
}

func (l *Ledger) apply(ctx context.Context, d Delta) (res *Result, err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var current int64
	err = tx.QueryRowContext(ctx, "SELECT points FROM employees WHERE name = ?", d.Employee).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	balance := Clamp(current, d.Amount)

	if _, err = tx.ExecContext(ctx, "UPDATE employees SET points = ? WHERE name = ?", balance, d.Employee); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	entry := models.LogEntry{
		EmployeeName: d.Employee,
		Timestamp:    l.now().Format(TimestampLayout),
		Manager:      d.Manager,
		Action:       ActionText(d.Amount),
		Reason:       strings.TrimSpace(d.Reason),
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO logs (employee_name, timestamp, manager, action, reason) VALUES (?, ?, ?, ?, ?)",
		entry.EmployeeName, entry.Timestamp, entry.Manager, entry.Action, entry.Reason,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert log entry: %w", err)
	}
	if entry.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read log entry id: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &Result{
		Employee: d.Employee,
		Previous: current,
		Balance:  balance,
		Applied:  balance - current,
		Entry:    entry,
	}, nil
}

func (l *Ledger) record(action, status string, points int64) {
	if l.metrics == nil {
		return
	}
	l.metrics.LedgerOperationsTotal.WithLabelValues(action, status).Inc()
	if points > 0 {
		l.metrics.LedgerPointsTotal.WithLabelValues(action).Add(float64(points))
	}
}

func (d Delta) validate() error {
	switch {
	case strings.TrimSpace(d.Employee) == "":
		return ErrMissingEmployee
	case d.Amount == 0, d.Amount > MaxAmount, d.Amount < -MaxAmount:
		return ErrInvalidAmount
	case strings.TrimSpace(d.Manager) == "":
		return ErrMissingManager
	case strings.TrimSpace(d.Reason) == "":
		return ErrMissingReason
	}
	return nil
}

// Clamp returns current+amount floored at zero and saturating at
// math.MaxInt64.
func Clamp(current, amount int64) int64 {
	next := current + amount
	switch {
	case amount > 0 && next < current:
		return math.MaxInt64
	case amount < 0 && next > current:
		return 0
	case next < 0:
		return 0
	}
	return next
}

// ActionText describes the requested change, not the clamped effect:
// removing 80 from a balance of 50 is recorded as "Removed 80 points".
func ActionText(amount int64) string {
	if amount < 0 {
		return fmt.Sprintf("Removed %d points", uint64(-(amount+1))+1)
	}
	return fmt.Sprintf("Added %d points", amount)
}

func actionName(amount int64) string {
	if amount < 0 {
		return "remove"
	}
	return "add"
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
