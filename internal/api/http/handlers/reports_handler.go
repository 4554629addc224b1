package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixit/helpdesk-service/internal/api/dto"
	"github.com/fixit/helpdesk-service/internal/auth"
	"github.com/fixit/helpdesk-service/internal/service"
	apperrors "github.com/fixit/helpdesk-service/pkg/util/errorutil"
)

// ReportsHandler exposes aggregate incident reports.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// Summary GET /reports/summary.
func (h *ReportsHandler) Summary(c *fiber.Ctx) error {
	var query dto.ReportQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	r, err := service.ParseReportRange(query.Range)
	if err != nil {
		return err
	}
	summary, err := h.reports.Summary(c.UserContext(), r, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// Dashboard GET /reports/dashboard.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.reports.Dashboard(c.UserContext(), auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboard})
}
