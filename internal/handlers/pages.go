package handlers

import (
	"net/http"

	"rewardstracker/internal/middleware"
	"rewardstracker/internal/services"

	"github.com/sirupsen/logrus"
)

type PageHandler struct {
	templates TemplateExecutor
	employees *services.EmployeeService
	logger    logrus.FieldLogger
}

func NewPageHandler(templates TemplateExecutor, employees *services.EmployeeService, logger logrus.FieldLogger) *PageHandler {
	return &PageHandler{
		templates: templates,
		employees: employees,
		logger:    logger,
	}
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	names, err := h.employees.ListEmployees(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list employees")
	}

	board, err := h.employees.Leaderboard(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load leaderboard")
	}

	data := map[string]interface{}{
		"Title":       "Points",
		"Manager":     middleware.GetManager(r),
		"Employees":   names,
		"Leaderboard": board,
	}

	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logger.WithError(err).Error("Template error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
