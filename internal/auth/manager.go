package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rewardstracker/internal/database"
	"rewardstracker/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrManagerNotFound    = errors.New("manager not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type ManagerService struct {
	db   *database.DB
	cost int

	// dummyHash is compared against when the username is unknown so that
	// both failure paths cost one bcrypt comparison at the same cost.
	dummyHash []byte
}

func NewManagerService(db *database.DB) *ManagerService {
	s := &ManagerService{db: db, cost: bcrypt.DefaultCost}
	s.resetDummyHash()
	return s
}

// WithCost overrides the bcrypt cost used for new hashes.
func (s *ManagerService) WithCost(cost int) *ManagerService {
	s.cost = cost
	s.resetDummyHash()
	return s
}

func (s *ManagerService) resetDummyHash() {
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-manager"), s.cost)
}

func (s *ManagerService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticate verifies credentials. Unknown usernames and wrong passwords
// both yield ErrInvalidCredentials.
func (s *ManagerService) Authenticate(ctx context.Context, username, password string) (*models.Manager, error) {
	manager, err := s.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrManagerNotFound) {
			bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(manager.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return manager, nil
}

func (s *ManagerService) GetByUsername(ctx context.Context, username string) (*models.Manager, error) {
	var m models.Manager
	err := s.db.QueryRowContext(ctx,
		"SELECT username, name, hash FROM managers WHERE username = ?",
		username,
	).Scan(&m.Username, &m.Name, &m.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrManagerNotFound
		}
		return nil, fmt.Errorf("failed to get manager: %w", err)
	}
	return &m, nil
}

func (s *ManagerService) List(ctx context.Context) ([]models.Manager, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT username, name, hash FROM managers ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	defer rows.Close()

	var managers []models.Manager
	for rows.Next() {
		var m models.Manager
		if err := rows.Scan(&m.Username, &m.Name, &m.PasswordHash); err != nil {
			return nil, fmt.Errorf("failed to scan manager: %w", err)
		}
		managers = append(managers, m)
	}
	return managers, rows.Err()
}

// Insert stores a manager with a precomputed hash. It runs on e so the seed
// can use it inside its transaction.
func Insert(ctx context.Context, e database.Execer, m models.Manager) error {
	_, err := e.ExecContext(ctx,
		"INSERT OR IGNORE INTO managers (username, name, hash) VALUES (?, ?, ?)",
		m.Username, m.Name, m.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert manager %s: %w", m.Username, err)
	}
	return nil
}

// SetPassword rotates a manager's password.
func (s *ManagerService) SetPassword(ctx context.Context, username, password string) error {
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "UPDATE managers SET hash = ? WHERE username = ?", hash, username)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrManagerNotFound
	}
	return nil
}
