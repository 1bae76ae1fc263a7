package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rewardstracker/internal/auth"
	"rewardstracker/internal/config"
	"rewardstracker/internal/database"
	"rewardstracker/internal/ledger"
	"rewardstracker/internal/logger"
	"rewardstracker/internal/metrics"
	"rewardstracker/internal/seed"
	"rewardstracker/internal/server"
	"rewardstracker/internal/services"
	"rewardstracker/web"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds what every command needs: config, logger and an open database.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	db       *database.DB
	managers *auth.ManagerService
}

func newApp() (*app, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.IsProduction() && cfg.SessionSecret == config.DevSessionSecret {
		log.Warn("Using development session secret; set REWARDS_SESSION_SECRET in production")
	}

	db, err := database.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.WithField("data_dir", cfg.DataDir).Info("Database opened")

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		managers: auth.NewManagerService(db),
	}, nil
}

func (a *app) close() {
	a.db.Close()
}

func (a *app) seed(ctx context.Context) error {
	roster, err := seed.LoadRoster(a.cfg.RosterFile)
	if err != nil {
		return err
	}

	s := seed.New(a.db, a.managers, roster, a.log)
	s.Passwords = config.ManagerPassword
	s.AllowDevPasswords = !a.cfg.IsProduction()

	_, err = s.Run(ctx)
	return err
}

func main() {
	root := &cobra.Command{
		Use:           "rewards",
		Short:         "Employee rewards points tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Bootstrap the database if needed and serve HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create and populate the database if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.seed(cmd.Context())
		},
	}

	passwd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Rotate a manager's password from REWARDS_MANAGER_PASSWORD_<USERNAME>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPasswd(cmd.Context(), args[0])
		},
	}

	root.AddCommand(serve, seedCmd, passwd)
	root.RunE = serve.RunE

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	// Bootstrap runs before the listener opens.
	if err := a.seed(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap database: %w", err)
	}

	templates, err := web.LoadTemplates()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	router := server.NewRouter(server.Deps{
		DB:        a.db,
		Sessions:  auth.NewSessionManager(a.cfg.SessionSecret, a.cfg.SessionMaxAge, a.cfg.SecureCookie),
		Managers:  a.managers,
		Ledger:    ledger.New(a.db, m, a.log.WithField("component", "ledger")),
		Employees: services.NewEmployeeService(a.db),
		Templates: templates,
		Metrics:   m,
		Gatherer:  reg,
		Logger:    a.log,
	})

	return server.Run(ctx, a.cfg.Port, router, a.log)
}

func runPasswd(ctx context.Context, username string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	password, ok := config.ManagerPassword(username)
	if !ok {
		return fmt.Errorf("%s is not set", config.ManagerPasswordKey(username))
	}

	if err := a.managers.SetPassword(ctx, username, password); err != nil {
		if errors.Is(err, auth.ErrManagerNotFound) {
			return fmt.Errorf("unknown manager %q", username)
		}
		return err
	}

	a.log.WithField("username", username).Info("Password rotated")
	return nil
}
