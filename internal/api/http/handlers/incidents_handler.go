package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fixit/helpdesk-service/internal/api/dto"
	"github.com/fixit/helpdesk-service/internal/auth"
	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/service"
	apperrors "github.com/fixit/helpdesk-service/pkg/util/errorutil"
)

// IncidentsHandler manages incident endpoints.
type IncidentsHandler struct {
	service *service.IncidentService
}

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(incidentService *service.IncidentService) *IncidentsHandler {
	return &IncidentsHandler{service: incidentService}
}

// Create POST /incidents.
func (h *IncidentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.service.Create(c.UserContext(), service.IncidentCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Department:  req.Department,
		Priority:    req.Priority,
	}, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": incident})
}

// List GET /incidents.
func (h *IncidentsHandler) List(c *fiber.Ctx) error {
	var query dto.IncidentListQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	incidents, err := h.service.Search(c.UserContext(), service.IncidentFilter{
		Query:      query.Query,
		Status:     domain.IncidentStatus(query.Status),
		Priority:   domain.IncidentPriority(query.Priority),
		Department: query.Department,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IncidentListResponse{Items: incidents, Total: len(incidents)}})
}

// Get GET /incidents/:id.
func (h *IncidentsHandler) Get(c *fiber.Ctx) error {
	incident, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incident})
}

// Update PATCH /incidents/:id.
func (h *IncidentsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.service.Update(c.UserContext(), c.Params("id"), service.IncidentPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Department:  req.Department,
		AssigneeID:  req.AssigneeID,
	}, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incident})
}

// Delete DELETE /incidents/:id.
func (h *IncidentsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id"), auth.ActorFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddComment POST /incidents/:id/comments.
func (h *IncidentsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.service.AddComment(c.UserContext(), c.Params("id"), service.CommentInput{Text: req.Text}, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": incident})
}

// Assign POST /incidents/:id/assign.
func (h *IncidentsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" {
		return apperrors.NewValidationError("technicianId required", nil)
	}
	incident, err := h.service.AssignTechnician(c.UserContext(), c.Params("id"), req.TechnicianID, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incident})
}

// SelfAssign POST /incidents/:id/self-assign.
func (h *IncidentsHandler) SelfAssign(c *fiber.Ctx) error {
	incident, err := h.service.SelfAssign(c.UserContext(), c.Params("id"), auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incident})
}
