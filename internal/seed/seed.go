package seed

import (
	"context"
	"errors"
	"fmt"

	"rewardstracker/internal/auth"
	"rewardstracker/internal/database"
	"rewardstracker/internal/models"

	"github.com/sirupsen/logrus"
)

var ErrMissingPassword = errors.New("manager password not configured")

// PasswordLookup returns the configured password for a manager username.
type PasswordLookup func(username string) (string, bool)

type Seeder struct {
	db       *database.DB
	managers *auth.ManagerService
	roster   *Roster
	logger   logrus.FieldLogger

	Passwords PasswordLookup
	// AllowDevPasswords falls back to "dev-<username>" for managers without
	// a configured password. It must be false in production.
	AllowDevPasswords bool
}

func New(db *database.DB, managers *auth.ManagerService, roster *Roster, logger logrus.FieldLogger) *Seeder {
	return &Seeder{
		db:       db,
		managers: managers,
		roster:   roster,
		logger:   logger,
		Passwords: func(string) (string, bool) {
			return "", false
		},
	}
}

// Run creates and populates the schema unless the employees table already
// exists. It reports whether anything was written.
func (s *Seeder) Run(ctx context.Context) (seeded bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		if err != nil || !seeded {
			tx.Rollback()
		}
	}()

	exists, err := database.HasSchema(ctx, tx)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Debug("Database already initialized")
		return false, nil
	}

	s.logger.Info("Database not found, creating and populating tables")

	managers, err := s.hashManagers()
	if err != nil {
		return false, err
	}

	if err = database.CreateSchema(ctx, tx); err != nil {
		return false, err
	}

	for _, name := range s.roster.Employees {
		if _, err = tx.ExecContext(ctx, "INSERT OR IGNORE INTO employees (name, points) VALUES (?, 0)", name); err != nil {
			return false, fmt.Errorf("failed to insert employee %s: %w", name, err)
		}
	}

	for _, m := range managers {
		if err = auth.Insert(ctx, tx, m); err != nil {
			return false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"employees": len(s.roster.Employees),
		"managers":  len(managers),
	}).Info("Database initialized successfully")

	return true, nil
}

func (s *Seeder) hashManagers() ([]models.Manager, error) {
	managers := make([]models.Manager, 0, len(s.roster.Managers))
	for _, m := range s.roster.Managers {
		password, ok := s.Passwords(m.Username)
		if !ok {
			if !s.AllowDevPasswords {
				return nil, fmt.Errorf("%w: %s", ErrMissingPassword, m.Username)
			}
			password = "dev-" + m.Username
			s.logger.WithField("username", m.Username).Warn("Using development default password")
		}

		hash, err := s.managers.HashPassword(password)
		if err != nil {
			return nil, err
		}
		managers = append(managers, models.Manager{Username: m.Username, Name: m.Name, PasswordHash: hash})
	}
	return managers, nil
}
