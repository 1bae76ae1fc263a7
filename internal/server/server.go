package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rewardstracker/internal/auth"
	"rewardstracker/internal/database"
	"rewardstracker/internal/handlers"
	"rewardstracker/internal/ledger"
	"rewardstracker/internal/metrics"
	"rewardstracker/internal/middleware"
	"rewardstracker/internal/services"
	"rewardstracker/web"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	DB        *database.DB
	Sessions  *auth.SessionManager
	Managers  *auth.ManagerService
	Ledger    *ledger.Ledger
	Employees *services.EmployeeService
	Templates handlers.TemplateExecutor
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Logger    logrus.FieldLogger
}

func NewRouter(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Templates, d.Sessions, d.Managers, d.Metrics, d.Logger)
	pointsHandler := handlers.NewPointsHandler(d.DB, d.Ledger, d.Employees, d.Logger)
	pageHandler := handlers.NewPageHandler(d.Templates, d.Employees, d.Logger)

	authMiddleware := middleware.NewAuthMiddleware(d.Sessions, d.Managers)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(d.Logger, d.Metrics))
	r.Use(chimiddleware.Recoverer)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	// Public routes
	r.Get("/login", authHandler.LoginPage)
	r.Post("/login", authHandler.Login)
	r.Get("/api/all_data", pointsHandler.AllData)
	r.Get("/healthz", pointsHandler.Health)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// Pages
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Get("/", pageHandler.Index)
		r.Get("/logout", authHandler.Logout)
		r.Post("/logout", authHandler.Logout)
	})

	// API
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAPIAuth)

		r.Get("/api/me", authHandler.Me)
		r.Get("/api/employees", pointsHandler.Employees)
		r.Get("/api/data/{employee}", pointsHandler.EmployeeData)
		r.Post("/api/add", pointsHandler.Add)
		r.Post("/api/remove", pointsHandler.Remove)
	})

	return r
}

// Run serves handler on port until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, port int, handler http.Handler, logger logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("Starting rewards tracker")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
