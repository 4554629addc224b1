package dto

import (
	"github.com/fixit/helpdesk-service/internal/domain"
)

// CreateIncidentRequest payload.
type CreateIncidentRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Department  string                  `json:"department"`
	Priority    domain.IncidentPriority `json:"priority"`
}

// UpdateIncidentRequest payload. Absent fields are left untouched; an
// empty assigneeId clears the assignee.
type UpdateIncidentRequest struct {
	Title       *string                  `json:"title"`
	Description *string                  `json:"description"`
	Status      *domain.IncidentStatus   `json:"status"`
	Priority    *domain.IncidentPriority `json:"priority"`
	Department  *string                  `json:"department"`
	AssigneeID  *string                  `json:"assigneeId"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Text string `json:"text"`
}

// AssignIncidentRequest payload.
type AssignIncidentRequest struct {
	TechnicianID string `json:"technicianId"`
}

// IncidentListQuery captures query filters for GET /incidents.
type IncidentListQuery struct {
	Query      string `query:"q"`
	Status     string `query:"status"`
	Priority   string `query:"priority"`
	Department string `query:"department"`
}

// IncidentListResponse wraps a filtered incident list.
type IncidentListResponse struct {
	Items []domain.Incident `json:"items"`
	Total int               `json:"total"`
}
