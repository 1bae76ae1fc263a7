package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rewardstracker/internal/database"
	"rewardstracker/internal/models"
)

// EmployeeService serves the read-only views over employees and their logs.
type EmployeeService struct {
	db *database.DB
}

func NewEmployeeService(db *database.DB) *EmployeeService {
	return &EmployeeService{db: db}
}

// ListEmployees returns all employee names in alphabetical order.
func (s *EmployeeService) ListEmployees(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM employees ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetEmployee returns the balance and full history of an employee, newest
// first. An unknown employee yields a zero balance and no history.
func (s *EmployeeService) GetEmployee(ctx context.Context, name string) (*models.EmployeeDetail, error) {
	detail := &models.EmployeeDetail{Logs: []models.LogEntry{}}

	err := s.db.QueryRowContext(ctx, "SELECT points FROM employees WHERE name = ?", name).Scan(&detail.Points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return detail, nil
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_name, timestamp, manager, action, reason
		FROM logs
		WHERE employee_name = ?
		ORDER BY timestamp DESC, id DESC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.EmployeeName, &e.Timestamp, &e.Manager, &e.Action, &e.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		detail.Logs = append(detail.Logs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}

	return detail, nil
}

// Leaderboard ranks all employees by points descending, ties by name.
func (s *EmployeeService) Leaderboard(ctx context.Context) ([]models.LeaderboardRow, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, points FROM employees ORDER BY points DESC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	defer rows.Close()

	board := []models.LeaderboardRow{}
	for rows.Next() {
		var row models.LeaderboardRow
		if err := rows.Scan(&row.Name, &row.Points); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		board = append(board, row)
	}
	return board, rows.Err()
}
